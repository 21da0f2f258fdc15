package fhir_dto

type Flag struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Status       string           `json:"status,omitempty"`
	Category     *CodeableConcept `json:"category,omitempty"`
	Code         CodeableConcept  `json:"code"`
	Subject      Reference        `json:"subject"`
	Period       *Period          `json:"period,omitempty"`
}
