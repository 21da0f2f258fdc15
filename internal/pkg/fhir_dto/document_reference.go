package fhir_dto

type DocumentReference struct {
	ResourceType string                     `json:"resourceType"`
	ID           string                     `json:"id,omitempty"`
	Status       string                     `json:"status,omitempty"`
	Indexed      string                     `json:"indexed,omitempty"`
	Type         *CodeableConcept           `json:"type,omitempty"`
	Subject      Reference                  `json:"subject"`
	Identifier   []Identifier               `json:"identifier,omitempty"`
	Content      []DocumentReferenceContent `json:"content,omitempty"`
}

type DocumentReferenceContent struct {
	Attachment Attachment `json:"attachment"`
}
