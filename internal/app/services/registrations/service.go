// Package registrations creates and updates the FHIR resources that make up
// a participant's signup: the Patient itself, the enrollment Flag, and the
// ResearchStudy/ResearchSubject pair tying them to a study.
package registrations

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ppm-client/internal/app/contracts"
	"ppm-client/internal/app/services/fhir"
	"ppm-client/internal/app/services/participants"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/dto/requests"
	"ppm-client/internal/pkg/exceptions"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

type Service struct {
	FhirClient contracts.FhirClient
	Log        *zap.Logger

	validate *validator.Validate
}

func NewService(fhirClient contracts.FhirClient, logger *zap.Logger) *Service {
	return &Service{
		FhirClient: fhirClient,
		Log:        logger,
		validate:   validator.New(),
	}
}

// CreatePatient registers a new participant in one transaction: the Patient
// (guarded by a conditional create on the email identifier), their
// registered enrollment Flag, and a candidate ResearchSubject for the study.
func (s *Service) CreatePatient(ctx context.Context, form *requests.RegistrationForm, study ppm.Study) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("registrationService.CreatePatient called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingEmailKey, form.Email),
		zap.String(constvars.LoggingStudyKey, study.Value()),
	)

	if err := s.validate.Struct(form); err != nil {
		return exceptions.ErrInputValidation(err)
	}

	if err := s.ensurePPMResearchStudy(ctx, study); err != nil {
		return err
	}

	patient := fhir.NewPatient(form)

	// A placeholder URN lets the Flag and ResearchSubject reference the
	// Patient before the server assigns its ID.
	patientUUID := uuid.New()
	patientURN := patientUUID.URN()
	patient.Identifier = append(patient.Identifier, fhir_dto.Identifier{
		System: constvars.PatientIdentifierSystem,
		Value:  patientUUID.String(),
	})

	patientEntry, err := bundleEntry(patient, &fhir_dto.BundleEntryRequest{
		Method:      constvars.MethodPost,
		URL:         constvars.ResourcePatient,
		IfNoneExist: constvars.ParamIdentifier + "=" + constvars.PatientEmailIdentifierSystem + "|" + form.Email,
	}, patientURN)
	if err != nil {
		return err
	}

	flagEntry, err := bundleEntry(fhir.NewEnrollmentFlag(patientURN, ppm.EnrollmentRegistered, nil, nil), &fhir_dto.BundleEntryRequest{
		Method: constvars.MethodPost,
		URL:    constvars.ResourceFlag,
	}, "")
	if err != nil {
		return err
	}

	subjectEntry, err := bundleEntry(fhir.NewPPMResearchSubject(study, patientURN, "candidate"), &fhir_dto.BundleEntryRequest{
		Method: constvars.MethodPost,
		URL:    constvars.ResourceResearchSubject,
	}, "")
	if err != nil {
		return err
	}

	bundle := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
		Entry:        []fhir_dto.Entry{patientEntry, flagEntry, subjectEntry},
	}

	if _, err := s.FhirClient.PostTransactionBundle(ctx, bundle); err != nil {
		return err
	}

	s.Log.Info("registrationService.CreatePatient succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingEmailKey, form.Email),
	)
	return nil
}

// CreatePPMResearchStudy conditionally creates the ResearchStudy resource for
// a PPM study.
func (s *Service) CreatePPMResearchStudy(ctx context.Context, study ppm.Study) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("registrationService.CreatePPMResearchStudy called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingStudyKey, study.Value()),
	)

	entry, err := bundleEntry(fhir.NewPPMResearchStudy(study), &fhir_dto.BundleEntryRequest{
		Method:      constvars.MethodPut,
		URL:         constvars.ResourceResearchStudy + "/" + study.Identifier(),
		IfNoneExist: constvars.ParamID + "=" + study.Value(),
	}, "")
	if err != nil {
		return err
	}

	bundle := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
		Entry:        []fhir_dto.Entry{entry},
	}

	_, err = s.FhirClient.PostTransactionBundle(ctx, bundle)
	return err
}

// CreatePPMResearchSubject links an existing patient to a PPM study, creating
// the study resource first if needed.
func (s *Service) CreatePPMResearchSubject(ctx context.Context, study ppm.Study, patientID string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("registrationService.CreatePPMResearchSubject called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.String(constvars.LoggingStudyKey, study.Value()),
	)

	if err := s.ensurePPMResearchStudy(ctx, study); err != nil {
		return err
	}

	subject := fhir.NewPPMResearchSubject(study, constvars.ResourcePatient+"/"+patientID, "candidate")
	entry, err := bundleEntry(subject, &fhir_dto.BundleEntryRequest{
		Method: constvars.MethodPost,
		URL:    constvars.ResourceResearchSubject,
	}, uuid.New().URN())
	if err != nil {
		return err
	}

	bundle := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
		Entry:        []fhir_dto.Entry{entry},
	}

	_, err = s.FhirClient.PostTransactionBundle(ctx, bundle)
	return err
}

// CreateResearchStudy records the patient's participation in a study outside
// the program. The study is conditionally created by exact title and the
// subject references it through a placeholder URN.
func (s *Service) CreateResearchStudy(ctx context.Context, patientID, title string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("registrationService.CreateResearchStudy called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
	)

	studyURN := uuid.New().URN()

	studyEntry, err := bundleEntry(fhir.NewResearchStudy(title, "completed"), &fhir_dto.BundleEntryRequest{
		Method:      constvars.MethodPost,
		URL:         constvars.ResourceResearchStudy,
		IfNoneExist: constvars.ParamTitleExact + "=" + title,
	}, studyURN)
	if err != nil {
		return err
	}

	subjectEntry, err := bundleEntry(fhir.NewResearchSubject(constvars.ResourcePatient+"/"+patientID, studyURN, "completed"), &fhir_dto.BundleEntryRequest{
		Method: constvars.MethodPost,
		URL:    constvars.ResourceResearchSubject,
	}, "")
	if err != nil {
		return err
	}

	bundle := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
		Entry:        []fhir_dto.Entry{studyEntry, subjectEntry},
	}

	_, err = s.FhirClient.PostTransactionBundle(ctx, bundle)
	return err
}

// ensurePPMResearchStudy creates the study resource if no ResearchStudy with
// its identifier exists yet.
func (s *Service) ensurePPMResearchStudy(ctx context.Context, study ppm.Study) error {
	query := url.Values{}
	query.Set(constvars.ParamIdentifier, constvars.ResearchStudyIdentifierSystem+"|"+study.Value())

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceResearchStudy, query)
	if err != nil {
		return err
	}
	if len(resources) > 0 {
		return nil
	}
	return s.CreatePPMResearchStudy(ctx, study)
}

// UpdatePatient merges the form's non-empty fields into the stored Patient
// and replaces it.
func (s *Service) UpdatePatient(ctx context.Context, patientID string, form *requests.PatientUpdateForm) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("registrationService.UpdatePatient called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
	)

	if err := s.validate.Struct(form); err != nil {
		return exceptions.ErrInputValidation(err)
	}

	raw, err := s.FhirClient.ReadResource(ctx, constvars.ResourcePatient, patientID)
	if err != nil {
		return err
	}
	patient := new(fhir_dto.Patient)
	if err := json.Unmarshal(raw, patient); err != nil {
		return exceptions.ErrCannotParseJSON(err)
	}

	if form.Firstname != "" {
		if len(patient.Name) == 0 {
			patient.Name = []fhir_dto.HumanName{{Use: "official"}}
		}
		if len(patient.Name[0].Given) == 0 {
			patient.Name[0].Given = []string{""}
		}
		patient.Name[0].Given[0] = form.Firstname
	}
	if form.Lastname != "" {
		if len(patient.Name) == 0 {
			patient.Name = []fhir_dto.HumanName{{Use: "official"}}
		}
		patient.Name[0].Family = form.Lastname
	}

	if form.StreetAddress1 != "" || form.StreetAddress2 != "" || form.City != "" || form.State != "" || form.Zip != "" {
		if len(patient.Address) == 0 {
			patient.Address = []fhir_dto.Address{{}}
		}
		address := &patient.Address[0]
		if form.StreetAddress1 != "" {
			if len(address.Line) == 0 {
				address.Line = []string{""}
			}
			address.Line[0] = form.StreetAddress1
		}
		if form.StreetAddress2 != "" {
			for len(address.Line) < 2 {
				address.Line = append(address.Line, "")
			}
			address.Line[1] = form.StreetAddress2
		}
		if form.City != "" {
			address.City = form.City
		}
		if form.State != "" {
			address.State = form.State
		}
		if form.Zip != "" {
			address.PostalCode = form.Zip
		}
	}

	if form.Phone != "" {
		upsertTelecom(patient, constvars.PatientPhoneTelecomSystem, form.Phone)
	}
	if form.ContactEmail != "" {
		upsertTelecom(patient, constvars.PatientEmailTelecomSystem, form.ContactEmail)
	}

	if form.Active != nil {
		patient.Active = form.Active
	}

	return s.FhirClient.PutResource(ctx, constvars.ResourcePatient, patientID, patient)
}

// UpdatePatientActive flips the Patient's active flag with a JSON Patch, so
// the rest of the resource is left untouched.
func (s *Service) UpdatePatientActive(ctx context.Context, patientID string, active bool) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("registrationService.UpdatePatientActive called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.Bool("active", active),
	)

	return s.FhirClient.PatchResource(ctx, constvars.ResourcePatient, patientID, []contracts.PatchOperation{
		{Op: "replace", Path: "/active", Value: active},
	})
}

// UpdateTwitter sets or clears the patient's Twitter contact point and keeps
// the uses-twitter extension in sync. An empty handle removes the contact
// point and marks the patient as not using Twitter.
func (s *Service) UpdateTwitter(ctx context.Context, email, handle string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("registrationService.UpdateTwitter called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingEmailKey, email),
	)

	query, err := participants.PatientQuery(email)
	if err != nil {
		return err
	}
	raw, err := s.FhirClient.QueryResource(ctx, constvars.ResourcePatient, query)
	if err != nil {
		return err
	}
	patient := new(fhir_dto.Patient)
	if err := json.Unmarshal(raw, patient); err != nil {
		return exceptions.ErrCannotParseJSON(err)
	}

	if handle != "" {
		patient.Telecom = append(patient.Telecom, fhir_dto.ContactPoint{
			System: constvars.PatientTwitterTelecomSystem,
			Value:  constvars.TwitterURLPrefix + handle,
		})
	} else {
		kept := patient.Telecom[:0]
		for _, telecom := range patient.Telecom {
			if !strings.Contains(telecom.Value, "twitter.com") {
				kept = append(kept, telecom)
			}
		}
		patient.Telecom = kept
	}

	usesTwitter := handle != ""
	updated := false
	for i := range patient.Extension {
		if strings.Contains(patient.Extension[i].Url, "uses-twitter") {
			patient.Extension[i].ValueBoolean = &usesTwitter
			updated = true
			break
		}
	}
	if !updated {
		patient.Extension = append(patient.Extension, fhir_dto.Extension{
			Url:          constvars.ExtensionUsesTwitter,
			ValueBoolean: &usesTwitter,
		})
	}

	return s.FhirClient.PutResource(ctx, constvars.ResourcePatient, patient.ID, patient)
}

func upsertTelecom(patient *fhir_dto.Patient, system, value string) {
	for i := range patient.Telecom {
		if patient.Telecom[i].System == system {
			patient.Telecom[i].Value = value
			return
		}
	}
	patient.Telecom = append(patient.Telecom, fhir_dto.ContactPoint{System: system, Value: value})
}

func bundleEntry(resource interface{}, request *fhir_dto.BundleEntryRequest, fullURL string) (fhir_dto.Entry, error) {
	raw, err := json.Marshal(resource)
	if err != nil {
		return fhir_dto.Entry{}, exceptions.ErrCannotMarshalJSON(err)
	}
	return fhir_dto.Entry{
		FullURL:  fullURL,
		Resource: raw,
		Request:  request,
	}, nil
}
