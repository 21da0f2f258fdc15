package fhir

import (
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/fhir_dto"
)

// Resources returns the payload of every entry of the given resource type.
func Resources(bundle *fhir_dto.Bundle, resourceType string) []json.RawMessage {
	if bundle == nil {
		return nil
	}
	var resources []json.RawMessage
	for _, entry := range bundle.Entry {
		if entry.Header().ResourceType == resourceType {
			resources = append(resources, entry.Resource)
		}
	}
	return resources
}

// FirstResource returns the first entry of the given resource type.
func FirstResource(bundle *fhir_dto.Bundle, resourceType string) (json.RawMessage, bool) {
	if bundle == nil {
		return nil, false
	}
	for _, entry := range bundle.Entry {
		if entry.Header().ResourceType == resourceType {
			return entry.Resource, true
		}
	}
	return nil, false
}

// FindByReference resolves a relative reference such as
// "QuestionnaireResponse/123" against the bundle's entries. Absolute
// references are matched on their trailing type/id segments, and entry
// fullUrls are consulted as a fallback.
func FindByReference(bundle *fhir_dto.Bundle, reference string) (json.RawMessage, bool) {
	if bundle == nil || reference == "" {
		return nil, false
	}
	for _, entry := range bundle.Entry {
		header := entry.Header()
		relative := header.ResourceType + "/" + header.ID
		if relative == reference || strings.HasSuffix(reference, "/"+relative) {
			return entry.Resource, true
		}
		if entry.FullURL != "" && entry.FullURL == reference {
			return entry.Resource, true
		}
	}
	return nil, false
}

// ReferenceID returns the logical ID segment of a reference.
func ReferenceID(reference string) string {
	if idx := strings.LastIndex(reference, "/"); idx >= 0 {
		return reference[idx+1:]
	}
	return reference
}

// FlattenList resolves the List in the bundle whose items reference the given
// resource type and returns the display values of the resolved resources:
// Organization names or ResearchStudy titles.
func FlattenList(log *zap.Logger, bundle *fhir_dto.Bundle, resourceType string) []string {
	list, found := FindListFor(bundle, resourceType)
	if !found {
		return nil
	}

	var values []string
	for _, item := range list.Entry {
		resource, ok := FindByReference(bundle, item.Item.Reference)
		if !ok {
			continue
		}
		switch resourceType {
		case constvars.ResourceOrganization:
			var organization fhir_dto.Organization
			if err := json.Unmarshal(resource, &organization); err != nil {
				continue
			}
			values = append(values, organization.Name)
		case constvars.ResourceResearchStudy:
			var study fhir_dto.ResearchStudy
			if err := json.Unmarshal(resource, &study); err != nil {
				continue
			}
			values = append(values, study.Title)
		default:
			log.Error("FlattenList unhandled list resource type",
				zap.String(constvars.LoggingResourceKey, resourceType),
			)
			return nil
		}
	}
	return values
}

// FindListFor returns the first List in the bundle whose entries reference
// resources of the given type.
func FindListFor(bundle *fhir_dto.Bundle, resourceType string) (*fhir_dto.List, bool) {
	for _, raw := range Resources(bundle, constvars.ResourceList) {
		var list fhir_dto.List
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		for _, item := range list.Entry {
			if strings.HasPrefix(item.Item.Reference, resourceType+"/") {
				return &list, true
			}
		}
	}
	return nil, false
}
