// Package fhir implements the HTTP client for the DSTU3 server every domain
// service talks through.
package fhir

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/app/config"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/exceptions"
	"ppm-client/internal/pkg/fhir_dto"
)

type Client struct {
	BaseUrl string
	Log     *zap.Logger

	httpClient *http.Client
	authHeader string
}

func NewClient(internalConfig *config.InternalConfig, logger *zap.Logger) *Client {
	authHeader := ""
	if internalConfig.FHIR.AuthToken != "" {
		authHeader = internalConfig.FHIR.AuthPrefix + " " + internalConfig.FHIR.AuthToken
	}
	return &Client{
		BaseUrl:    strings.TrimRight(internalConfig.FHIR.BaseUrl, "/"),
		Log:        logger,
		httpClient: &http.Client{},
		authHeader: authHeader,
	}
}

// WithAuthorization returns a shallow copy of the client that sends the given
// Authorization header instead of the configured one. Used when a caller
// supplied JWT must be forwarded.
func (c *Client) WithAuthorization(header string) *Client {
	clone := *c
	clone.authHeader = header
	return &clone
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationJSON)
	if contentType != "" {
		req.Header.Set(constvars.HeaderContentType, contentType)
	}
	if c.authHeader != "" {
		req.Header.Set(constvars.HeaderAuthorization, c.authHeader)
	}
	return req, nil
}

// operationOutcomeError turns a non-2xx response body into the diagnostics of
// its first OperationOutcome issue. It falls back to the raw status when the
// body is not an outcome.
func operationOutcomeError(resp *http.Response) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %s", resp.Status, constvars.ErrDevReadResponseBody)
	}
	var outcome fhir_dto.OperationOutcome
	if err := json.Unmarshal(bodyBytes, &outcome); err == nil && len(outcome.Issue) > 0 {
		return fmt.Errorf(outcome.Issue[0].Diagnostics)
	}
	return fmt.Errorf("%s: %s", resp.Status, string(bodyBytes))
}

func requestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	return requestID
}
