package pointsofcare

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ppm-client/internal/app/contracts"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/fhir_dto"
)

// stubFhirClient overrides just the calls a test needs; anything else panics.
type stubFhirClient struct {
	contracts.FhirClient

	listBundle    *fhir_dto.Bundle
	organizations []json.RawMessage

	transactions []*fhir_dto.Bundle
}

func (s *stubFhirClient) QueryBundle(ctx context.Context, resourceType string, query url.Values) (*fhir_dto.Bundle, error) {
	if s.listBundle != nil {
		return s.listBundle, nil
	}
	return &fhir_dto.Bundle{ResourceType: constvars.ResourceBundle, Type: "searchset"}, nil
}

func (s *stubFhirClient) QueryResources(ctx context.Context, resourceType string, query url.Values) ([]json.RawMessage, error) {
	return s.organizations, nil
}

func (s *stubFhirClient) PostTransactionBundle(ctx context.Context, bundle *fhir_dto.Bundle) (*fhir_dto.Bundle, error) {
	s.transactions = append(s.transactions, bundle)
	return &fhir_dto.Bundle{ResourceType: constvars.ResourceBundle, Type: "transaction-response"}, nil
}

func testBundle(resources ...string) *fhir_dto.Bundle {
	bundle := &fhir_dto.Bundle{ResourceType: constvars.ResourceBundle, Type: "searchset"}
	for _, resource := range resources {
		bundle.Entry = append(bundle.Entry, fhir_dto.Entry{Resource: json.RawMessage(resource)})
	}
	return bundle
}

func pointOfCareBundle() *fhir_dto.Bundle {
	return testBundle(
		`{"resourceType": "List", "id": "5", "status": "current", "mode": "working",
			"subject": {"reference": "Patient/42"},
			"entry": [{"item": {"reference": "Organization/20"}}]}`,
		`{"resourceType": "Organization", "id": "20", "name": "Massachusetts General Hospital"}`,
	)
}

func TestCreateList(t *testing.T) {
	client := &stubFhirClient{}
	service := NewService(client, zap.NewNop())

	err := service.CreateList(context.Background(), "42", []string{"Massachusetts General Hospital", "Brigham and Women's Hospital"})
	assert.NoError(t, err)
	assert.Len(t, client.transactions, 1)

	bundle := client.transactions[0]
	assert.Equal(t, constvars.BundleTypeTransaction, bundle.Type)
	assert.Len(t, bundle.Entry, 3, "two organizations plus the list")

	firstOrg := bundle.Entry[0]
	assert.Equal(t, constvars.ResourceOrganization, firstOrg.Request.URL)
	assert.Equal(t, constvars.ParamNameExact+"=Massachusetts General Hospital", firstOrg.Request.IfNoneExist)
	assert.True(t, strings.HasPrefix(firstOrg.FullURL, "urn:uuid:"))

	listEntry := bundle.Entry[2]
	assert.Equal(t, constvars.ResourceList, listEntry.Request.URL)
	assert.Contains(t, listEntry.Request.IfNoneExist, constvars.ParamPatient+"=42")
	assert.Contains(t, listEntry.Request.IfNoneExist, constvars.SNOMEDVersionURI+"|"+constvars.SNOMEDLocationCode)
	assert.Contains(t, listEntry.Request.IfNoneExist, constvars.ParamStatus+"="+constvars.ListStatusCurrent)

	// The list items point at the organizations' placeholder URNs.
	var list fhir_dto.List
	assert.NoError(t, json.Unmarshal(listEntry.Resource, &list))
	assert.Len(t, list.Entry, 2)
	assert.Equal(t, bundle.Entry[0].FullURL, list.Entry[0].Item.Reference)
	assert.Equal(t, bundle.Entry[1].FullURL, list.Entry[1].Item.Reference)
}

func TestGetList(t *testing.T) {
	client := &stubFhirClient{listBundle: pointOfCareBundle()}
	service := NewService(client, zap.NewNop())

	names, err := service.GetList(context.Background(), "42")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Massachusetts General Hospital"}, names)
}

func TestAddPointOfCare(t *testing.T) {
	t.Run("Already On The List Is A No-Op", func(t *testing.T) {
		client := &stubFhirClient{listBundle: pointOfCareBundle()}
		service := NewService(client, zap.NewNop())

		names, err := service.AddPointOfCare(context.Background(), "42", "Massachusetts General Hospital")
		assert.NoError(t, err)
		assert.Equal(t, []string{"Massachusetts General Hospital"}, names)
		assert.Empty(t, client.transactions)
	})

	t.Run("Reuses An Existing Organization", func(t *testing.T) {
		client := &stubFhirClient{
			listBundle: pointOfCareBundle(),
			organizations: []json.RawMessage{
				json.RawMessage(`{"resourceType": "Organization", "id": "30", "name": "Brigham and Women's Hospital"}`),
			},
		}
		service := NewService(client, zap.NewNop())

		names, err := service.AddPointOfCare(context.Background(), "42", "Brigham and Women's Hospital")
		assert.NoError(t, err)
		assert.Equal(t, []string{"Massachusetts General Hospital", "Brigham and Women's Hospital"}, names)

		assert.Len(t, client.transactions, 1)
		bundle := client.transactions[0]
		assert.Len(t, bundle.Entry, 1, "no new organization is created")

		var list fhir_dto.List
		assert.NoError(t, json.Unmarshal(bundle.Entry[0].Resource, &list))
		assert.Equal(t, constvars.MethodPut, bundle.Entry[0].Request.Method)
		assert.Equal(t, constvars.ResourceList+"/5", bundle.Entry[0].Request.URL)
		assert.Equal(t, "Organization/30", list.Entry[len(list.Entry)-1].Item.Reference)
	})

	t.Run("Creates The Organization When None Matches", func(t *testing.T) {
		client := &stubFhirClient{listBundle: pointOfCareBundle()}
		service := NewService(client, zap.NewNop())

		names, err := service.AddPointOfCare(context.Background(), "42", "Boston Children's Hospital")
		assert.NoError(t, err)
		assert.Equal(t, []string{"Massachusetts General Hospital", "Boston Children's Hospital"}, names)

		bundle := client.transactions[0]
		assert.Len(t, bundle.Entry, 2)

		organizationEntry := bundle.Entry[0]
		assert.Equal(t, constvars.MethodPost, organizationEntry.Request.Method)
		assert.True(t, strings.HasPrefix(organizationEntry.FullURL, "urn:uuid:"))

		var list fhir_dto.List
		assert.NoError(t, json.Unmarshal(bundle.Entry[1].Resource, &list))
		assert.Equal(t, organizationEntry.FullURL, list.Entry[len(list.Entry)-1].Item.Reference)
	})

	t.Run("No List At All", func(t *testing.T) {
		client := &stubFhirClient{}
		service := NewService(client, zap.NewNop())

		_, err := service.AddPointOfCare(context.Background(), "42", "Boston Children's Hospital")
		assert.Error(t, err)
	})
}
