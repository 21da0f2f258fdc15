package contracts

import (
	"context"
	"net/url"

	"github.com/goccy/go-json"

	"ppm-client/internal/pkg/fhir_dto"
)

// PatchOperation is a single RFC 6902 JSON Patch operation.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// FhirClient is the transport surface the domain services depend on. The
// concrete client lives in services/fhir.
type FhirClient interface {
	// QueryBundle runs a search against the resource type and follows next
	// links until the result set is complete. The returned bundle carries the
	// de-duplicated entries of every page, first page first.
	QueryBundle(ctx context.Context, resourceType string, query url.Values) (*fhir_dto.Bundle, error)

	// QueryResources returns the resources of every matching entry.
	QueryResources(ctx context.Context, resourceType string, query url.Values) ([]json.RawMessage, error)

	// QueryResource returns the first matching resource, or ErrNoDataFHIRResource.
	QueryResource(ctx context.Context, resourceType string, query url.Values) (json.RawMessage, error)

	// ReadResource fetches a single resource by logical ID.
	ReadResource(ctx context.Context, resourceType, resourceID string) (json.RawMessage, error)

	PostTransactionBundle(ctx context.Context, bundle *fhir_dto.Bundle) (*fhir_dto.Bundle, error)
	CreateResource(ctx context.Context, resourceType string, resource interface{}) (json.RawMessage, error)
	PutResource(ctx context.Context, resourceType, resourceID string, resource interface{}) error
	PatchResource(ctx context.Context, resourceType, resourceID string, operations []PatchOperation) error
	DeleteResource(ctx context.Context, resourceType, resourceID string) error
}
