package fhir_dto

import "github.com/goccy/go-json"

type Bundle struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id,omitempty"`
	Type         string       `json:"type,omitempty"`
	Total        int          `json:"total,omitempty"`
	Link         []BundleLink `json:"link,omitempty"`
	Entry        []Entry      `json:"entry,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type Entry struct {
	FullURL  string              `json:"fullUrl,omitempty"`
	Resource json.RawMessage     `json:"resource,omitempty"`
	Request  *BundleEntryRequest `json:"request,omitempty"`
}

type BundleEntryRequest struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	IfNoneExist string `json:"ifNoneExist,omitempty"`
}

// ResourceHeader is the minimal envelope every FHIR resource shares; it is
// used to peek at an entry before committing to a full unmarshal.
type ResourceHeader struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
}

// Header decodes just the resourceType/id envelope of the entry's resource.
func (e Entry) Header() ResourceHeader {
	var header ResourceHeader
	if len(e.Resource) > 0 {
		_ = json.Unmarshal(e.Resource, &header)
	}
	return header
}
