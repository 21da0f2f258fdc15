package fhir_dto

type ResearchStudy struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id,omitempty"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Title        string       `json:"title,omitempty"`
	Status       string       `json:"status,omitempty"`
	Period       *Period      `json:"period,omitempty"`
}

// ResearchSubject carries a single identifier in DSTU3.
type ResearchSubject struct {
	ResourceType string      `json:"resourceType"`
	ID           string      `json:"id,omitempty"`
	Identifier   *Identifier `json:"identifier,omitempty"`
	Status       string      `json:"status,omitempty"`
	Period       *Period     `json:"period,omitempty"`
	Study        Reference   `json:"study"`
	Individual   Reference   `json:"individual"`
	Consent      *Reference  `json:"consent,omitempty"`
}
