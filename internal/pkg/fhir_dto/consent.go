package fhir_dto

type Consent struct {
	ResourceType string          `json:"resourceType"`
	ID           string          `json:"id,omitempty"`
	Status       string          `json:"status,omitempty"`
	DateTime     string          `json:"dateTime,omitempty"`
	Patient      Reference       `json:"patient"`
	Period       *Period         `json:"period,omitempty"`
	Except       []ConsentExcept `json:"except,omitempty"`
}

// ConsentExcept models a declined portion of the consent (DSTU3 Consent.except).
type ConsentExcept struct {
	Type   string   `json:"type,omitempty"`
	Code   []Coding `json:"code,omitempty"`
	Period *Period  `json:"period,omitempty"`
}
