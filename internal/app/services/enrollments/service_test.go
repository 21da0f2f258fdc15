package enrollments

import (
	"context"
	"net/url"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ppm-client/internal/app/contracts"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

// stubFhirClient overrides just the calls a test needs; anything else panics.
type stubFhirClient struct {
	contracts.FhirClient

	flags []fhir_dto.Flag

	created *fhir_dto.Flag
	updated *fhir_dto.Flag
}

func (s *stubFhirClient) QueryResources(ctx context.Context, resourceType string, query url.Values) ([]json.RawMessage, error) {
	resources := make([]json.RawMessage, 0, len(s.flags))
	for _, flag := range s.flags {
		raw, err := json.Marshal(flag)
		if err != nil {
			return nil, err
		}
		resources = append(resources, raw)
	}
	return resources, nil
}

func (s *stubFhirClient) CreateResource(ctx context.Context, resourceType string, resource interface{}) (json.RawMessage, error) {
	flag := resource.(*fhir_dto.Flag)
	created := *flag
	created.ID = "900"
	s.created = &created
	return json.Marshal(created)
}

func (s *stubFhirClient) PutResource(ctx context.Context, resourceType, resourceID string, resource interface{}) error {
	s.updated = resource.(*fhir_dto.Flag)
	return nil
}

func existingFlag(status ppm.Enrollment, period *fhir_dto.Period) fhir_dto.Flag {
	flagStatus := constvars.FlagStatusInactive
	if status == ppm.EnrollmentAccepted {
		flagStatus = constvars.FlagStatusActive
	}
	return fhir_dto.Flag{
		ResourceType: constvars.ResourceFlag,
		ID:           "10",
		Status:       flagStatus,
		Code: fhir_dto.CodeableConcept{
			Coding: []fhir_dto.Coding{{
				System:  constvars.EnrollmentFlagCodingSystem,
				Code:    status.Value(),
				Display: status.Title(),
			}},
			Text: status.Title(),
		},
		Subject: fhir_dto.Reference{Reference: "Patient/42"},
		Period:  period,
	}
}

func TestQueryEnrollmentFlag(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{existingFlag(ppm.EnrollmentRegistered, nil)}}
		service := NewService(client, zap.NewNop())

		flag, err := service.QueryEnrollmentFlag(context.Background(), "42")
		assert.NoError(t, err)
		assert.NotNil(t, flag)
		assert.Equal(t, "registered", flag.Code.Coding[0].Code)
	})

	t.Run("None Exists", func(t *testing.T) {
		service := NewService(&stubFhirClient{}, zap.NewNop())

		flag, err := service.QueryEnrollmentFlag(context.Background(), "42")
		assert.NoError(t, err)
		assert.Nil(t, flag)
	})
}

func TestQueryEnrollmentStatus(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{existingFlag(ppm.EnrollmentAccepted, nil)}}
		service := NewService(client, zap.NewNop())

		status, err := service.QueryEnrollmentStatus(context.Background(), "42")
		assert.NoError(t, err)
		assert.Equal(t, ppm.EnrollmentAccepted, status)
	})

	t.Run("No Flag", func(t *testing.T) {
		service := NewService(&stubFhirClient{}, zap.NewNop())

		status, err := service.QueryEnrollmentStatus(context.Background(), "42")
		assert.NoError(t, err)
		assert.Empty(t, status)
	})
}

func TestCreateEnrollment(t *testing.T) {
	t.Run("Registered", func(t *testing.T) {
		client := &stubFhirClient{}
		service := NewService(client, zap.NewNop())

		flag, err := service.CreateEnrollment(context.Background(), "42", ppm.EnrollmentRegistered)
		assert.NoError(t, err)
		assert.Equal(t, "900", flag.ID)
		assert.Equal(t, constvars.FlagStatusInactive, client.created.Status)
		assert.Nil(t, client.created.Period)
		assert.Equal(t, "Patient/42", client.created.Subject.Reference)
	})

	t.Run("Accepted Stamps The Period Start", func(t *testing.T) {
		client := &stubFhirClient{}
		service := NewService(client, zap.NewNop())

		_, err := service.CreateEnrollment(context.Background(), "42", ppm.EnrollmentAccepted)
		assert.NoError(t, err)
		assert.Equal(t, constvars.FlagStatusActive, client.created.Status)
		assert.NotNil(t, client.created.Period)
		assert.NotEmpty(t, client.created.Period.Start)
	})
}

func TestUpdateEnrollment(t *testing.T) {
	t.Run("Registered To Accepted", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{existingFlag(ppm.EnrollmentRegistered, nil)}}
		service := NewService(client, zap.NewNop())

		flag, err := service.UpdateEnrollment(context.Background(), "42", ppm.EnrollmentAccepted)
		assert.NoError(t, err)
		assert.Equal(t, constvars.FlagStatusActive, flag.Status)
		assert.NotNil(t, flag.Period)
		assert.NotEmpty(t, flag.Period.Start)
		assert.Equal(t, "accepted", flag.Code.Coding[0].Code)
		assert.Equal(t, "Accepted", flag.Code.Text)
		assert.Same(t, flag, client.updated)
	})

	t.Run("Accepted To Terminated Stamps The End", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{
			existingFlag(ppm.EnrollmentAccepted, &fhir_dto.Period{Start: "2019-01-15T00:00:00Z"}),
		}}
		service := NewService(client, zap.NewNop())

		flag, err := service.UpdateEnrollment(context.Background(), "42", ppm.EnrollmentTerminated)
		assert.NoError(t, err)
		assert.Equal(t, constvars.FlagStatusInactive, flag.Status)
		assert.Equal(t, "2019-01-15T00:00:00Z", flag.Period.Start)
		assert.NotEmpty(t, flag.Period.End)
		assert.Equal(t, "terminated", flag.Code.Coding[0].Code)
		assert.Equal(t, "Finished", flag.Code.Coding[0].Display)
	})

	t.Run("Terminated Without Existing Period", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{existingFlag(ppm.EnrollmentRegistered, nil)}}
		service := NewService(client, zap.NewNop())

		flag, err := service.UpdateEnrollment(context.Background(), "42", ppm.EnrollmentTerminated)
		assert.NoError(t, err)
		assert.NotNil(t, flag.Period)
		assert.Empty(t, flag.Period.Start)
		assert.NotEmpty(t, flag.Period.End)
	})

	t.Run("Leaving Accepted Clears The Period", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{
			existingFlag(ppm.EnrollmentAccepted, &fhir_dto.Period{Start: "2019-01-15T00:00:00Z"}),
		}}
		service := NewService(client, zap.NewNop())

		flag, err := service.UpdateEnrollment(context.Background(), "42", ppm.EnrollmentCompleted)
		assert.NoError(t, err)
		assert.Equal(t, constvars.FlagStatusInactive, flag.Status)
		assert.Nil(t, flag.Period)
		assert.Equal(t, "completed", flag.Code.Coding[0].Code)
	})

	t.Run("Entering Ineligible Clears The Period", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{existingFlag(ppm.EnrollmentRegistered, nil)}}
		service := NewService(client, zap.NewNop())

		flag, err := service.UpdateEnrollment(context.Background(), "42", ppm.EnrollmentIneligible)
		assert.NoError(t, err)
		assert.Equal(t, constvars.FlagStatusInactive, flag.Status)
		assert.Nil(t, flag.Period)
		assert.Equal(t, "Queue", flag.Code.Coding[0].Display)
	})

	t.Run("Unhandled Transition Still Rewrites The Coding", func(t *testing.T) {
		client := &stubFhirClient{flags: []fhir_dto.Flag{existingFlag(ppm.EnrollmentRegistered, nil)}}
		service := NewService(client, zap.NewNop())

		flag, err := service.UpdateEnrollment(context.Background(), "42", ppm.EnrollmentConsented)
		assert.NoError(t, err)
		assert.Equal(t, constvars.FlagStatusInactive, flag.Status, "status is untouched")
		assert.Equal(t, "consented", flag.Code.Coding[0].Code)
		assert.Equal(t, "Consented", flag.Code.Text)
	})

	t.Run("Missing Flag Is Created", func(t *testing.T) {
		client := &stubFhirClient{}
		service := NewService(client, zap.NewNop())

		flag, err := service.UpdateEnrollment(context.Background(), "42", ppm.EnrollmentAccepted)
		assert.NoError(t, err)
		assert.NotNil(t, client.created)
		assert.Nil(t, client.updated)
		assert.Equal(t, "900", flag.ID)
	})
}
