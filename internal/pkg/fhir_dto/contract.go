package fhir_dto

type Contract struct {
	ResourceType     string           `json:"resourceType"`
	ID               string           `json:"id,omitempty"`
	Status           string           `json:"status,omitempty"`
	Issued           string           `json:"issued,omitempty"`
	Subject          []Reference      `json:"subject,omitempty"`
	BindingReference *Reference       `json:"bindingReference,omitempty"`
	Signer           []ContractSigner `json:"signer,omitempty"`
}

type ContractSigner struct {
	Type      *Coding     `json:"type,omitempty"`
	Party     Reference   `json:"party"`
	Signature []Signature `json:"signature,omitempty"`
}
