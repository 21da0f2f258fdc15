package fhir

import (
	"context"
	"io"
	"net/url"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/exceptions"
	"ppm-client/internal/pkg/fhir_dto"
)

// QueryBundle runs a search against the resource type and follows next links
// until every page has been fetched. Entries are merged in page order and
// de-duplicated by resource type and ID.
func (c *Client) QueryBundle(ctx context.Context, resourceType string, query url.Values) (*fhir_dto.Bundle, error) {
	requestID := requestIDFromContext(ctx)
	c.Log.Info("fhirClient.QueryBundle called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingQueryParamsKey, query.Encode()),
	)

	if query == nil {
		query = url.Values{}
	}
	if query.Get(constvars.ParamCount) == "" {
		query.Set(constvars.ParamCount, constvars.DefaultPageCount)
	}

	merged := &fhir_dto.Bundle{}
	seen := make(map[string]bool)
	nextURL := c.BaseUrl + "/" + resourceType + "?" + query.Encode()
	pages := 0

	for nextURL != "" {
		page, err := c.fetchBundle(ctx, nextURL, resourceType)
		if err != nil {
			return nil, err
		}
		pages++

		merged.ResourceType = page.ResourceType
		merged.Type = page.Type
		merged.Total = page.Total

		for _, entry := range page.Entry {
			header := entry.Header()
			key := header.ResourceType + "/" + header.ID
			if header.ID != "" && seen[key] {
				continue
			}
			seen[key] = true
			merged.Entry = append(merged.Entry, entry)
		}

		nextURL = ""
		for _, link := range page.Link {
			if link.Relation == constvars.LinkRelationNext {
				nextURL = link.URL
				break
			}
		}
	}

	c.Log.Info("fhirClient.QueryBundle succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.Int(constvars.LoggingCountKey, len(merged.Entry)),
		zap.Int(constvars.LoggingPageKey, pages),
	)
	return merged, nil
}

func (c *Client) fetchBundle(ctx context.Context, requestURL, resourceType string) (*fhir_dto.Bundle, error) {
	requestID := requestIDFromContext(ctx)

	req, err := c.newRequest(ctx, constvars.MethodGet, requestURL, nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("fhirClient.fetchBundle error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingURLKey, requestURL),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK {
		fhirErrorIssue := operationOutcomeError(resp)
		c.Log.Error("fhirClient.fetchBundle FHIR error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingURLKey, requestURL),
			zap.Error(fhirErrorIssue),
		)
		return nil, exceptions.ErrGetFHIRResource(fhirErrorIssue, resourceType)
	}

	bundle := new(fhir_dto.Bundle)
	if err := json.NewDecoder(resp.Body).Decode(bundle); err != nil {
		c.Log.Error("fhirClient.fetchBundle error decoding response",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingURLKey, requestURL),
			zap.Error(err),
		)
		return nil, exceptions.ErrDecodeResponse(err, resourceType)
	}
	return bundle, nil
}

// QueryResources returns the resource payload of every matching entry.
func (c *Client) QueryResources(ctx context.Context, resourceType string, query url.Values) ([]json.RawMessage, error) {
	bundle, err := c.QueryBundle(ctx, resourceType, query)
	if err != nil {
		return nil, err
	}
	resources := make([]json.RawMessage, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		if len(entry.Resource) > 0 {
			resources = append(resources, entry.Resource)
		}
	}
	return resources, nil
}

// QueryResource returns the first matching resource. A search with no matches
// is an ErrNoDataFHIRResource.
func (c *Client) QueryResource(ctx context.Context, resourceType string, query url.Values) (json.RawMessage, error) {
	resources, err := c.QueryResources(ctx, resourceType, query)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, exceptions.ErrNoDataFHIRResource(nil, resourceType)
	}
	return resources[0], nil
}

// ReadResource fetches one resource by logical ID.
func (c *Client) ReadResource(ctx context.Context, resourceType, resourceID string) (json.RawMessage, error) {
	requestID := requestIDFromContext(ctx)
	c.Log.Info("fhirClient.ReadResource called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resourceID),
	)

	req, err := c.newRequest(ctx, constvars.MethodGet, c.BaseUrl+"/"+resourceType+"/"+resourceID, nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("fhirClient.ReadResource error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == constvars.StatusNotFound || resp.StatusCode == constvars.StatusGone {
		return nil, exceptions.ErrNoDataFHIRResource(nil, resourceType)
	}
	if resp.StatusCode != constvars.StatusOK {
		fhirErrorIssue := operationOutcomeError(resp)
		c.Log.Error("fhirClient.ReadResource FHIR error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(fhirErrorIssue),
		)
		return nil, exceptions.ErrGetFHIRResource(fhirErrorIssue, resourceType)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, resourceType)
	}
	return bodyBytes, nil
}
