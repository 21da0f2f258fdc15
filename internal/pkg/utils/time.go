package utils

import "time"

// UnparseableDatePlaceholder is returned in place of a formatted date when the
// server-supplied value cannot be parsed.
const UnparseableDatePlaceholder = "--/--/----"

// fhirDateLayouts covers the date shapes FHIR resources carry in the wild.
var fhirDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseFHIRDate parses a FHIR date or dateTime string. Values without an
// explicit offset are assumed UTC.
func ParseFHIRDate(value string) (time.Time, bool) {
	for _, layout := range fhirDateLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatFHIRDate parses the date string, converts it to the display location,
// and formats it with the given layout. Unparseable input degrades to
// UnparseableDatePlaceholder.
func FormatFHIRDate(value, layout string, location *time.Location) string {
	parsed, ok := ParseFHIRDate(value)
	if !ok {
		return UnparseableDatePlaceholder
	}
	if location == nil {
		location = time.UTC
	}
	return parsed.In(location).Format(layout)
}
