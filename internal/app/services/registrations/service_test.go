package registrations

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
	"ppm-client/internal/pkg/dto/requests"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

// stubFhirClient overrides just the calls a test needs; anything else panics.
type stubFhirClient struct {
	contracts.FhirClient

	studyExists bool
	patient     *fhir_dto.Patient

	transactions []*fhir_dto.Bundle
	updated      *fhir_dto.Patient
	patched      []contracts.PatchOperation
}

func (s *stubFhirClient) QueryResources(ctx context.Context, resourceType string, query url.Values) ([]json.RawMessage, error) {
	if !s.studyExists {
		return nil, nil
	}
	return []json.RawMessage{json.RawMessage(`{"resourceType": "ResearchStudy", "id": "neer"}`)}, nil
}

func (s *stubFhirClient) QueryResource(ctx context.Context, resourceType string, query url.Values) (json.RawMessage, error) {
	return json.Marshal(s.patient)
}

func (s *stubFhirClient) ReadResource(ctx context.Context, resourceType, resourceID string) (json.RawMessage, error) {
	return json.Marshal(s.patient)
}

func (s *stubFhirClient) PostTransactionBundle(ctx context.Context, bundle *fhir_dto.Bundle) (*fhir_dto.Bundle, error) {
	s.transactions = append(s.transactions, bundle)
	return &fhir_dto.Bundle{ResourceType: constvars.ResourceBundle, Type: "transaction-response"}, nil
}

func (s *stubFhirClient) PutResource(ctx context.Context, resourceType, resourceID string, resource interface{}) error {
	s.updated = resource.(*fhir_dto.Patient)
	return nil
}

func (s *stubFhirClient) PatchResource(ctx context.Context, resourceType, resourceID string, operations []contracts.PatchOperation) error {
	s.patched = operations
	return nil
}

func validForm() *requests.RegistrationForm {
	return &requests.RegistrationForm{
		Email:     "participant@example.com",
		Firstname: "Pat",
		Lastname:  "Example",
	}
}

func TestCreatePatient(t *testing.T) {
	t.Run("Builds One Transaction", func(t *testing.T) {
		client := &stubFhirClient{studyExists: true}
		service := NewService(client, zap.NewNop())

		err := service.CreatePatient(context.Background(), validForm(), ppm.StudyNEER)
		assert.NoError(t, err)
		assert.Len(t, client.transactions, 1)

		bundle := client.transactions[0]
		assert.Equal(t, constvars.BundleTypeTransaction, bundle.Type)
		assert.Len(t, bundle.Entry, 3)

		patientEntry := bundle.Entry[0]
		assert.Equal(t, constvars.MethodPost, patientEntry.Request.Method)
		assert.Equal(t, constvars.ResourcePatient, patientEntry.Request.URL)
		assert.Equal(t,
			constvars.ParamIdentifier+"="+constvars.PatientEmailIdentifierSystem+"|participant@example.com",
			patientEntry.Request.IfNoneExist,
			"the patient create must be guarded against duplicate emails",
		)
		assert.True(t, strings.HasPrefix(patientEntry.FullURL, "urn:uuid:"))

		// The flag and subject reference the patient's placeholder URN.
		var flag fhir_dto.Flag
		assert.NoError(t, json.Unmarshal(bundle.Entry[1].Resource, &flag))
		assert.Equal(t, patientEntry.FullURL, flag.Subject.Reference)
		assert.Equal(t, "registered", flag.Code.Coding[0].Code)

		var subject fhir_dto.ResearchSubject
		assert.NoError(t, json.Unmarshal(bundle.Entry[2].Resource, &subject))
		assert.Equal(t, patientEntry.FullURL, subject.Individual.Reference)
		assert.Equal(t, "ResearchStudy/ppm-neer", subject.Study.Reference)
		assert.Equal(t, "candidate", subject.Status)
	})

	t.Run("Creates The Study First When Missing", func(t *testing.T) {
		client := &stubFhirClient{}
		service := NewService(client, zap.NewNop())

		err := service.CreatePatient(context.Background(), validForm(), ppm.StudyNEER)
		assert.NoError(t, err)
		assert.Len(t, client.transactions, 2)

		studyEntry := client.transactions[0].Entry[0]
		assert.Equal(t, constvars.MethodPut, studyEntry.Request.Method)
		assert.Equal(t, "ResearchStudy/ppm-neer", studyEntry.Request.URL)
		assert.Equal(t, constvars.ParamID+"=neer", studyEntry.Request.IfNoneExist)
	})

	t.Run("Invalid Form", func(t *testing.T) {
		client := &stubFhirClient{studyExists: true}
		service := NewService(client, zap.NewNop())

		form := validForm()
		form.Email = "not-an-email"

		err := service.CreatePatient(context.Background(), form, ppm.StudyNEER)
		assert.Error(t, err)
		assert.Empty(t, client.transactions)
	})
}

func TestCreateResearchStudy(t *testing.T) {
	client := &stubFhirClient{}
	service := NewService(client, zap.NewNop())

	err := service.CreateResearchStudy(context.Background(), "42", "Rare Disease Registry")
	assert.NoError(t, err)
	assert.Len(t, client.transactions, 1)

	bundle := client.transactions[0]
	assert.Len(t, bundle.Entry, 2)

	studyEntry := bundle.Entry[0]
	assert.Equal(t, constvars.ParamTitleExact+"=Rare Disease Registry", studyEntry.Request.IfNoneExist)
	assert.True(t, strings.HasPrefix(studyEntry.FullURL, "urn:uuid:"))

	var subject fhir_dto.ResearchSubject
	assert.NoError(t, json.Unmarshal(bundle.Entry[1].Resource, &subject))
	assert.Equal(t, studyEntry.FullURL, subject.Study.Reference)
	assert.Equal(t, "Patient/42", subject.Individual.Reference)
	assert.Equal(t, "completed", subject.Status)
}

func TestUpdatePatient(t *testing.T) {
	storedPatient := func() *fhir_dto.Patient {
		active := true
		return &fhir_dto.Patient{
			ResourceType: constvars.ResourcePatient,
			ID:           "42",
			Active:       &active,
			Identifier: []fhir_dto.Identifier{{
				System: constvars.PatientEmailIdentifierSystem,
				Value:  "participant@example.com",
			}},
			Name:    []fhir_dto.HumanName{{Use: "official", Family: "Example", Given: []string{"Pat"}}},
			Telecom: []fhir_dto.ContactPoint{{System: constvars.PatientPhoneTelecomSystem, Value: "617-555-0100"}},
		}
	}

	t.Run("Merges Non Empty Fields", func(t *testing.T) {
		client := &stubFhirClient{patient: storedPatient()}
		service := NewService(client, zap.NewNop())

		err := service.UpdatePatient(context.Background(), "42", &requests.PatientUpdateForm{
			Firstname:      "Patricia",
			StreetAddress1: "25 Shattuck St",
			City:           "Boston",
			State:          "MA",
			Zip:            "02115",
			Phone:          "617-555-0199",
		})
		assert.NoError(t, err)
		assert.NotNil(t, client.updated)

		assert.Equal(t, "Patricia", client.updated.Name[0].Given[0])
		assert.Equal(t, "Example", client.updated.Name[0].Family, "unset fields keep their stored value")
		assert.Equal(t, "25 Shattuck St", client.updated.Address[0].Line[0])
		assert.Equal(t, "Boston", client.updated.Address[0].City)
		assert.Equal(t, "617-555-0199", client.updated.Telecom[0].Value, "phone is replaced, not appended")
		assert.Len(t, client.updated.Telecom, 1)
	})

	t.Run("Adds Contact Email Telecom", func(t *testing.T) {
		client := &stubFhirClient{patient: storedPatient()}
		service := NewService(client, zap.NewNop())

		err := service.UpdatePatient(context.Background(), "42", &requests.PatientUpdateForm{
			ContactEmail: "contact@example.com",
		})
		assert.NoError(t, err)
		assert.Len(t, client.updated.Telecom, 2)
		assert.Equal(t, constvars.PatientEmailTelecomSystem, client.updated.Telecom[1].System)
	})

	t.Run("Invalid Contact Email", func(t *testing.T) {
		client := &stubFhirClient{patient: storedPatient()}
		service := NewService(client, zap.NewNop())

		err := service.UpdatePatient(context.Background(), "42", &requests.PatientUpdateForm{
			ContactEmail: "not-an-email",
		})
		assert.Error(t, err)
		assert.Nil(t, client.updated)
	})
}

func TestUpdatePatientActive(t *testing.T) {
	client := &stubFhirClient{}
	service := NewService(client, zap.NewNop())

	err := service.UpdatePatientActive(context.Background(), "42", false)
	assert.NoError(t, err)
	assert.Equal(t, []contracts.PatchOperation{{Op: "replace", Path: "/active", Value: false}}, client.patched)
}

func TestUpdateTwitter(t *testing.T) {
	storedPatient := func() *fhir_dto.Patient {
		return &fhir_dto.Patient{
			ResourceType: constvars.ResourcePatient,
			ID:           "42",
			Telecom: []fhir_dto.ContactPoint{
				{System: constvars.PatientPhoneTelecomSystem, Value: "617-555-0100"},
				{System: constvars.PatientTwitterTelecomSystem, Value: "https://twitter.com/oldhandle"},
			},
		}
	}

	t.Run("Set Handle", func(t *testing.T) {
		client := &stubFhirClient{patient: storedPatient()}
		service := NewService(client, zap.NewNop())

		err := service.UpdateTwitter(context.Background(), "participant@example.com", "newhandle")
		assert.NoError(t, err)

		last := client.updated.Telecom[len(client.updated.Telecom)-1]
		assert.Equal(t, constvars.TwitterURLPrefix+"newhandle", last.Value)

		assert.Len(t, client.updated.Extension, 1)
		assert.Equal(t, constvars.ExtensionUsesTwitter, client.updated.Extension[0].Url)
		assert.True(t, *client.updated.Extension[0].ValueBoolean)
	})

	t.Run("Clear Handle Removes Twitter Telecoms", func(t *testing.T) {
		client := &stubFhirClient{patient: storedPatient()}
		service := NewService(client, zap.NewNop())

		err := service.UpdateTwitter(context.Background(), "participant@example.com", "")
		assert.NoError(t, err)

		assert.Len(t, client.updated.Telecom, 1)
		assert.Equal(t, constvars.PatientPhoneTelecomSystem, client.updated.Telecom[0].System)
		assert.False(t, *client.updated.Extension[0].ValueBoolean)
	})

	t.Run("Unknown Identifier", func(t *testing.T) {
		client := &stubFhirClient{patient: storedPatient()}
		service := NewService(client, zap.NewNop())

		err := service.UpdateTwitter(context.Background(), "not an identifier", "handle")
		assert.Error(t, err)
	})
}
