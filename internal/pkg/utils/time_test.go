package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFHIRDate(t *testing.T) {
	t.Run("Full DateTime With Offset", func(t *testing.T) {
		parsed, ok := ParseFHIRDate("2019-03-01T14:30:00-05:00")
		assert.True(t, ok)
		assert.Equal(t, 2019, parsed.Year())
		assert.Equal(t, time.March, parsed.Month())
	})

	t.Run("Date Only", func(t *testing.T) {
		parsed, ok := ParseFHIRDate("2018-05-01")
		assert.True(t, ok)
		assert.Equal(t, "2018-05-01", parsed.Format("2006-01-02"))
	})

	t.Run("Year Only", func(t *testing.T) {
		parsed, ok := ParseFHIRDate("2017")
		assert.True(t, ok)
		assert.Equal(t, 2017, parsed.Year())
	})

	t.Run("Garbage", func(t *testing.T) {
		_, ok := ParseFHIRDate("not-a-date")
		assert.False(t, ok)
	})
}

func TestFormatFHIRDate(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	t.Run("Converts To Location", func(t *testing.T) {
		// Midnight UTC is the previous evening in New York.
		formatted := FormatFHIRDate("2019-03-02T00:30:00Z", "01/02/2006", eastern)
		assert.Equal(t, "03/01/2019", formatted)
	})

	t.Run("Nil Location Falls Back To UTC", func(t *testing.T) {
		formatted := FormatFHIRDate("2019-03-02T00:30:00Z", "2006-01-02", nil)
		assert.Equal(t, "2019-03-02", formatted)
	})

	t.Run("Unparseable Input", func(t *testing.T) {
		assert.Equal(t, UnparseableDatePlaceholder, FormatFHIRDate("--", "01/02/2006", eastern))
		assert.Equal(t, UnparseableDatePlaceholder, FormatFHIRDate("", "01/02/2006", eastern))
	})
}
