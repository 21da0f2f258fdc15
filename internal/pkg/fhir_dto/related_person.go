package fhir_dto

type RelatedPerson struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Patient      Reference        `json:"patient"`
	Relationship *CodeableConcept `json:"relationship,omitempty"`
	Name         []HumanName      `json:"name,omitempty"`
	Telecom      []ContactPoint   `json:"telecom,omitempty"`
}
