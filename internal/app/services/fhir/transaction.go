package fhir

import (
	"bytes"
	"context"
	"io"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/app/contracts"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/exceptions"
	"ppm-client/internal/pkg/fhir_dto"
)

// PostTransactionBundle posts a transaction bundle to the FHIR base endpoint
// and returns the response bundle.
func (c *Client) PostTransactionBundle(ctx context.Context, bundle *fhir_dto.Bundle) (*fhir_dto.Bundle, error) {
	requestID := requestIDFromContext(ctx)
	c.Log.Info("fhirClient.PostTransactionBundle called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingCountKey, len(bundle.Entry)),
	)

	requestJSON, err := json.Marshal(bundle)
	if err != nil {
		c.Log.Error("fhirClient.PostTransactionBundle error marshaling JSON",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := c.newRequest(ctx, constvars.MethodPost, c.BaseUrl, bytes.NewBuffer(requestJSON), constvars.MIMEApplicationFHIRJSON)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("fhirClient.PostTransactionBundle error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK && resp.StatusCode != constvars.StatusCreated {
		fhirErrorIssue := operationOutcomeError(resp)
		c.Log.Error("fhirClient.PostTransactionBundle FHIR error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(fhirErrorIssue),
		)
		return nil, exceptions.ErrPostTransactionBundle(fhirErrorIssue)
	}

	result := new(fhir_dto.Bundle)
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		c.Log.Error("fhirClient.PostTransactionBundle error decoding response",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrDecodeResponse(err, constvars.ResourceBundle)
	}

	c.Log.Info("fhirClient.PostTransactionBundle succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)
	return result, nil
}

// CreateResource posts one resource to its type endpoint and returns the
// server's copy.
func (c *Client) CreateResource(ctx context.Context, resourceType string, resource interface{}) (json.RawMessage, error) {
	requestID := requestIDFromContext(ctx)
	c.Log.Info("fhirClient.CreateResource called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
	)

	requestJSON, err := json.Marshal(resource)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := c.newRequest(ctx, constvars.MethodPost, c.BaseUrl+"/"+resourceType, bytes.NewBuffer(requestJSON), constvars.MIMEApplicationFHIRJSON)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("fhirClient.CreateResource error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK && resp.StatusCode != constvars.StatusCreated {
		fhirErrorIssue := operationOutcomeError(resp)
		c.Log.Error("fhirClient.CreateResource FHIR error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingResourceKey, resourceType),
			zap.Error(fhirErrorIssue),
		)
		return nil, exceptions.ErrCreateFHIRResource(fhirErrorIssue, resourceType)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, resourceType)
	}

	c.Log.Info("fhirClient.CreateResource succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
	)
	return bodyBytes, nil
}

// PutResource replaces the resource at its logical ID.
func (c *Client) PutResource(ctx context.Context, resourceType, resourceID string, resource interface{}) error {
	requestID := requestIDFromContext(ctx)
	c.Log.Info("fhirClient.PutResource called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resourceID),
	)

	requestJSON, err := json.Marshal(resource)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := c.newRequest(ctx, constvars.MethodPut, c.BaseUrl+"/"+resourceType+"/"+resourceID, bytes.NewBuffer(requestJSON), constvars.MIMEApplicationFHIRJSON)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("fhirClient.PutResource error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK && resp.StatusCode != constvars.StatusCreated {
		fhirErrorIssue := operationOutcomeError(resp)
		c.Log.Error("fhirClient.PutResource FHIR error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingResourceKey, resourceType),
			zap.Error(fhirErrorIssue),
		)
		return exceptions.ErrUpdateFHIRResource(fhirErrorIssue, resourceType)
	}

	c.Log.Info("fhirClient.PutResource succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resourceID),
	)
	return nil
}

// PatchResource applies a JSON Patch document to the resource.
func (c *Client) PatchResource(ctx context.Context, resourceType, resourceID string, operations []contracts.PatchOperation) error {
	requestID := requestIDFromContext(ctx)
	c.Log.Info("fhirClient.PatchResource called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resourceID),
	)

	requestJSON, err := json.Marshal(operations)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := c.newRequest(ctx, constvars.MethodPatch, c.BaseUrl+"/"+resourceType+"/"+resourceID, bytes.NewBuffer(requestJSON), constvars.MIMEApplicationJSONPatchJSON)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("fhirClient.PatchResource error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK && resp.StatusCode != constvars.StatusNoContent {
		fhirErrorIssue := operationOutcomeError(resp)
		c.Log.Error("fhirClient.PatchResource FHIR error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingResourceKey, resourceType),
			zap.Error(fhirErrorIssue),
		)
		return exceptions.ErrUpdateFHIRResource(fhirErrorIssue, resourceType)
	}

	c.Log.Info("fhirClient.PatchResource succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resourceID),
	)
	return nil
}

// DeleteResource deletes one resource by logical ID. Deleting a resource that
// is already gone is not an error.
func (c *Client) DeleteResource(ctx context.Context, resourceType, resourceID string) error {
	requestID := requestIDFromContext(ctx)
	c.Log.Info("fhirClient.DeleteResource called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resourceID),
	)

	req, err := c.newRequest(ctx, constvars.MethodDelete, c.BaseUrl+"/"+resourceType+"/"+resourceID, nil, "")
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("fhirClient.DeleteResource error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case constvars.StatusOK, constvars.StatusNoContent, constvars.StatusNotFound, constvars.StatusGone:
		c.Log.Info("fhirClient.DeleteResource succeeded",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingResourceKey, resourceType),
			zap.String(constvars.LoggingResourceIDKey, resourceID),
		)
		return nil
	}

	fhirErrorIssue := operationOutcomeError(resp)
	c.Log.Error("fhirClient.DeleteResource FHIR error",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.Error(fhirErrorIssue),
	)
	return exceptions.ErrDeleteFHIRResource(fhirErrorIssue, resourceType)
}
