package fhir

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/fhir_dto"
)

func testBundle(resources ...string) *fhir_dto.Bundle {
	bundle := &fhir_dto.Bundle{ResourceType: constvars.ResourceBundle, Type: "searchset"}
	for _, resource := range resources {
		bundle.Entry = append(bundle.Entry, fhir_dto.Entry{Resource: json.RawMessage(resource)})
	}
	return bundle
}

func TestResources(t *testing.T) {
	bundle := testBundle(
		`{"resourceType": "Patient", "id": "1"}`,
		`{"resourceType": "Flag", "id": "2"}`,
		`{"resourceType": "Patient", "id": "3"}`,
	)

	assert.Len(t, Resources(bundle, constvars.ResourcePatient), 2)
	assert.Len(t, Resources(bundle, constvars.ResourceFlag), 1)
	assert.Nil(t, Resources(bundle, constvars.ResourceConsent))
	assert.Nil(t, Resources(nil, constvars.ResourcePatient))
}

func TestFirstResource(t *testing.T) {
	bundle := testBundle(
		`{"resourceType": "Flag", "id": "2"}`,
		`{"resourceType": "Patient", "id": "1"}`,
	)

	raw, found := FirstResource(bundle, constvars.ResourcePatient)
	assert.True(t, found)
	assert.Contains(t, string(raw), `"id": "1"`)

	_, found = FirstResource(bundle, constvars.ResourceConsent)
	assert.False(t, found)
}

func TestFindByReference(t *testing.T) {
	bundle := testBundle(
		`{"resourceType": "QuestionnaireResponse", "id": "76"}`,
		`{"resourceType": "Patient", "id": "1"}`,
	)
	bundle.Entry = append(bundle.Entry, fhir_dto.Entry{
		FullURL:  "urn:uuid:0b6ba837-e2b9-4e0c-9129-569d71438d06",
		Resource: json.RawMessage(`{"resourceType": "Organization"}`),
	})

	t.Run("Relative Reference", func(t *testing.T) {
		raw, found := FindByReference(bundle, "QuestionnaireResponse/76")
		assert.True(t, found)
		assert.Contains(t, string(raw), `"id": "76"`)
	})

	t.Run("Absolute Reference", func(t *testing.T) {
		raw, found := FindByReference(bundle, "http://fhir.example.com/baseDstu3/Patient/1")
		assert.True(t, found)
		assert.Contains(t, string(raw), `"id": "1"`)
	})

	t.Run("FullUrl Fallback", func(t *testing.T) {
		raw, found := FindByReference(bundle, "urn:uuid:0b6ba837-e2b9-4e0c-9129-569d71438d06")
		assert.True(t, found)
		assert.Contains(t, string(raw), `"Organization"`)
	})

	t.Run("Dangling Reference", func(t *testing.T) {
		_, found := FindByReference(bundle, "QuestionnaireResponse/999")
		assert.False(t, found)
	})

	t.Run("Empty Reference", func(t *testing.T) {
		_, found := FindByReference(bundle, "")
		assert.False(t, found)
	})
}

func TestReferenceID(t *testing.T) {
	assert.Equal(t, "42", ReferenceID("Patient/42"))
	assert.Equal(t, "42", ReferenceID("http://fhir.example.com/baseDstu3/Patient/42"))
	assert.Equal(t, "42", ReferenceID("42"))
}

func TestFlattenList(t *testing.T) {
	log := zap.NewNop()

	t.Run("Organization Names", func(t *testing.T) {
		bundle := testBundle(
			`{"resourceType": "List", "id": "5", "status": "current", "mode": "working",
				"entry": [{"item": {"reference": "Organization/20"}}, {"item": {"reference": "Organization/21"}}]}`,
			`{"resourceType": "Organization", "id": "20", "name": "Massachusetts General Hospital"}`,
			`{"resourceType": "Organization", "id": "21", "name": "Dana-Farber Cancer Institute"}`,
		)

		names := FlattenList(log, bundle, constvars.ResourceOrganization)
		assert.Equal(t, []string{"Massachusetts General Hospital", "Dana-Farber Cancer Institute"}, names)
	})

	t.Run("Unresolvable Items Are Skipped", func(t *testing.T) {
		bundle := testBundle(
			`{"resourceType": "List", "id": "5",
				"entry": [{"item": {"reference": "Organization/20"}}, {"item": {"reference": "Organization/99"}}]}`,
			`{"resourceType": "Organization", "id": "20", "name": "Massachusetts General Hospital"}`,
		)

		names := FlattenList(log, bundle, constvars.ResourceOrganization)
		assert.Equal(t, []string{"Massachusetts General Hospital"}, names)
	})

	t.Run("No List", func(t *testing.T) {
		bundle := testBundle(`{"resourceType": "Patient", "id": "1"}`)
		assert.Nil(t, FlattenList(log, bundle, constvars.ResourceOrganization))
	})
}

func TestFindListFor(t *testing.T) {
	bundle := testBundle(
		`{"resourceType": "List", "id": "5", "entry": [{"item": {"reference": "ResearchStudy/7"}}]}`,
		`{"resourceType": "List", "id": "6", "entry": [{"item": {"reference": "Organization/20"}}]}`,
	)

	list, found := FindListFor(bundle, constvars.ResourceOrganization)
	assert.True(t, found)
	assert.Equal(t, "6", list.ID)

	_, found = FindListFor(bundle, constvars.ResourcePatient)
	assert.False(t, found)
}
