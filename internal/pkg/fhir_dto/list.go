package fhir_dto

type List struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Status       string           `json:"status,omitempty"`
	Mode         string           `json:"mode,omitempty"`
	Code         *CodeableConcept `json:"code,omitempty"`
	Subject      Reference        `json:"subject"`
	Entry        []ListEntry      `json:"entry,omitempty"`
}

type ListEntry struct {
	Item Reference `json:"item"`
}
