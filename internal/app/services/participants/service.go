// Package participants queries and flattens the FHIR record of a study
// participant.
package participants

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/app/config"
	"ppm-client/internal/app/contracts"
	"ppm-client/internal/app/services/consents"
	"ppm-client/internal/app/services/fhir"
	"ppm-client/internal/app/services/questionnaires"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/dto/responses"
	"ppm-client/internal/pkg/exceptions"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/pkg/utils"
	"ppm-client/internal/ppm"
)

type Service struct {
	FhirClient     contracts.FhirClient
	Questionnaires *questionnaires.Service
	Consents       *consents.Service
	Log            *zap.Logger

	location          *time.Location
	testEmailPatterns []string
}

func NewService(
	fhirClient contracts.FhirClient,
	questionnaireService *questionnaires.Service,
	consentService *consents.Service,
	logger *zap.Logger,
	internalConfig *config.InternalConfig,
) *Service {
	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		logger.Warn("participantService invalid timezone, falling back to UTC",
			zap.String("timezone", internalConfig.App.Timezone),
		)
		location = time.UTC
	}
	return &Service{
		FhirClient:        fhirClient,
		Questionnaires:    questionnaireService,
		Consents:          consentService,
		Log:               logger,
		location:          location,
		testEmailPatterns: internalConfig.Study.TestEmailPatterns,
	}
}

// PatientQuery maps a patient identifier onto Patient search parameters. A
// numeric value searches by logical ID, an email by the email identifier
// system. Anything else is rejected.
func PatientQuery(identifier string) (url.Values, error) {
	query := url.Values{}
	switch {
	case utils.IsFHIRID(identifier):
		query.Set(constvars.ParamID, identifier)
	case utils.IsEmail(identifier):
		query.Set(constvars.ParamIdentifier, constvars.PatientEmailIdentifierSystem+"|"+identifier)
	default:
		return nil, exceptions.ErrUnknownPatientIdentifier(fmt.Errorf("identifier: %q", identifier))
	}
	return query, nil
}

// PatientResourceQuery maps a patient identifier onto search parameters for a
// resource that references the patient through the given search parameter,
// usually "patient", "subject", or "source".
func PatientResourceQuery(identifier, key string) (url.Values, error) {
	if key == "" {
		key = constvars.ParamPatient
	}
	query := url.Values{}
	switch {
	case utils.IsFHIRID(identifier):
		query.Set(key, identifier)
	case utils.IsEmail(identifier):
		query.Set(key+":patient.identifier", constvars.PatientEmailIdentifierSystem+"|"+identifier)
	default:
		return nil, exceptions.ErrUnknownPatientIdentifier(fmt.Errorf("identifier: %q", identifier))
	}
	return query, nil
}

// QueryParticipantBundle fetches the patient and everything referencing or
// referenced by them in one bundle.
func (s *Service) QueryParticipantBundle(ctx context.Context, patient string) (*fhir_dto.Bundle, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("participantService.QueryParticipantBundle called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patient),
	)

	query, err := PatientQuery(patient)
	if err != nil {
		return nil, err
	}
	query.Set(constvars.ParamInclude, constvars.IncludeAll)
	query.Set(constvars.ParamRevInclude, constvars.IncludeAll)

	return s.FhirClient.QueryBundle(ctx, constvars.ResourcePatient, query)
}

// QueryPatientResource fetches the bare Patient resource by ID or email.
func (s *Service) QueryPatientResource(ctx context.Context, patient string) (*fhir_dto.Patient, error) {
	query, err := PatientQuery(patient)
	if err != nil {
		return nil, err
	}

	raw, err := s.FhirClient.QueryResource(ctx, constvars.ResourcePatient, query)
	if err != nil {
		return nil, err
	}

	resource := new(fhir_dto.Patient)
	if err := json.Unmarshal(raw, resource); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return resource, nil
}

// QueryPatients returns the administrative listing of patients, each with
// their enrollment status and study. Test accounts are skipped unless testing
// is set, and the optional study and enrollment values filter the listing.
func (s *Service) QueryPatients(ctx context.Context, study, enrollment string, active, testing bool) ([]responses.PatientSummary, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("participantService.QueryPatients called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingStudyKey, study),
		zap.String(constvars.LoggingStatusKey, enrollment),
	)

	query := url.Values{}
	if active {
		query.Set(constvars.ParamActive, "true")
	} else {
		query.Set(constvars.ParamActive, "false")
	}
	query.Add(constvars.ParamRevInclude, constvars.RevIncludeSubjects)
	query.Add(constvars.ParamRevInclude, constvars.RevIncludeFlags)

	bundle, err := s.FhirClient.QueryBundle(ctx, constvars.ResourcePatient, query)
	if err != nil {
		return nil, err
	}
	if len(bundle.Entry) == 0 {
		return nil, nil
	}

	// Index enrollment status and study by patient ID.
	enrollments := make(map[string]string)
	for _, raw := range fhir.Resources(bundle, constvars.ResourceFlag) {
		var flag fhir_dto.Flag
		if err := json.Unmarshal(raw, &flag); err != nil {
			continue
		}
		if len(flag.Code.Coding) > 0 {
			enrollments[fhir.ReferenceID(flag.Subject.Reference)] = flag.Code.Coding[0].Code
		}
	}

	type studyEntry struct {
		study          string
		dateRegistered string
	}
	studies := make(map[string]studyEntry)
	for _, raw := range fhir.Resources(bundle, constvars.ResourceResearchSubject) {
		var subject fhir_dto.ResearchSubject
		if err := json.Unmarshal(raw, &subject); err != nil {
			continue
		}
		if !IsPPMResearchSubject(&subject) {
			continue
		}
		start := ""
		if subject.Period != nil {
			start = subject.Period.Start
		}
		studies[fhir.ReferenceID(subject.Individual.Reference)] = studyEntry{
			study:          StudyFromResearchSubject(&subject),
			dateRegistered: start,
		}
	}

	var patients []responses.PatientSummary
	for _, raw := range fhir.Resources(bundle, constvars.ResourcePatient) {
		var patient fhir_dto.Patient
		if err := json.Unmarshal(raw, &patient); err != nil {
			continue
		}

		email := ""
		for _, identifier := range patient.Identifier {
			if identifier.System == constvars.PatientEmailIdentifierSystem {
				email = identifier.Value
				break
			}
		}
		if email == "" {
			s.Log.Error("participantService.QueryPatients patient without email identifier",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingPatientIDKey, patient.ID),
			)
			continue
		}
		if !testing && ppm.IsTester(s.testEmailPatterns, email) {
			continue
		}

		patientEnrollment := enrollments[patient.ID]
		patientStudy := studies[patient.ID]

		if enrollment != "" && !strings.EqualFold(enrollment, patientEnrollment) {
			continue
		}
		if study != "" && !strings.EqualFold(study, patientStudy.study) {
			continue
		}

		summary := responses.PatientSummary{
			Email:          email,
			FHIRID:         patient.ID,
			PPMID:          patient.ID,
			Enrollment:     patientEnrollment,
			Status:         enrollment,
			Study:          patientStudy.study,
			Project:        patientStudy.study,
			DateRegistered: utils.FormatFHIRDate(patientStudy.dateRegistered, "01/02/2006", s.location),
		}

		summary.Firstname = "---"
		summary.Lastname = "---"
		if len(patient.Name) > 0 {
			if len(patient.Name[0].Given) > 0 && patient.Name[0].Given[0] != "" {
				summary.Firstname = patient.Name[0].Given[0]
			} else {
				s.Log.Warn("participantService.QueryPatients patient without firstname",
					zap.String(constvars.LoggingPatientIDKey, patient.ID),
				)
			}
			if patient.Name[0].Family != "" {
				summary.Lastname = patient.Name[0].Family
			} else {
				s.Log.Warn("participantService.QueryPatients patient without lastname",
					zap.String(constvars.LoggingPatientIDKey, patient.ID),
				)
			}
		}

		for _, telecom := range patient.Telecom {
			if telecom.System == constvars.PatientTwitterTelecomSystem && strings.HasPrefix(telecom.Value, constvars.TwitterURLPrefix) {
				summary.TwitterHandle = telecom.Value
			}
		}

		patients = append(patients, summary)
	}

	s.Log.Info("participantService.QueryPatients succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingCountKey, len(patients)),
	)
	return patients, nil
}

// GetResearchStudies returns the titles of the studies outside the program
// that the bundle's participant is a subject of.
func (s *Service) GetResearchStudies(ctx context.Context, bundle *fhir_dto.Bundle) ([]string, error) {
	var studyIDs []string
	for _, subject := range ExternalResearchSubjects(bundle) {
		if subject.Study.Reference != "" {
			studyIDs = append(studyIDs, fhir.ReferenceID(subject.Study.Reference))
		}
	}
	if len(studyIDs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set(constvars.ParamID, strings.Join(studyIDs, ","))

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceResearchStudy, query)
	if err != nil {
		return nil, err
	}

	var titles []string
	for _, raw := range resources {
		var study fhir_dto.ResearchStudy
		if err := json.Unmarshal(raw, &study); err != nil {
			continue
		}
		titles = append(titles, study.Title)
	}
	return titles, nil
}

// QueryResearchSubjects fetches the patient's ResearchSubjects from the
// server, split into program subjects and subjects of external studies.
func (s *Service) QueryResearchSubjects(ctx context.Context, patient string) (ppmSubjects, external []fhir_dto.ResearchSubject, err error) {
	query, err := PatientResourceQuery(patient, constvars.ParamPatient)
	if err != nil {
		return nil, nil, err
	}

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceResearchSubject, query)
	if err != nil {
		return nil, nil, err
	}

	for _, raw := range resources {
		var subject fhir_dto.ResearchSubject
		if err := json.Unmarshal(raw, &subject); err != nil {
			continue
		}
		if isPPMStudyReference(subject.Study.Reference) {
			ppmSubjects = append(ppmSubjects, subject)
		} else {
			external = append(external, subject)
		}
	}
	return ppmSubjects, external, nil
}

// QueryDocumentReferences fetches and flattens the patient's
// DocumentReferences.
func (s *Service) QueryDocumentReferences(ctx context.Context, patient string) ([]responses.DocumentReferenceRecord, error) {
	query, err := PatientResourceQuery(patient, constvars.ParamSubject)
	if err != nil {
		return nil, err
	}

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceDocumentReference, query)
	if err != nil {
		return nil, err
	}

	var records []responses.DocumentReferenceRecord
	for _, raw := range resources {
		if record := s.FlattenDocumentReference(raw); record != nil {
			records = append(records, *record)
		}
	}
	return records, nil
}

// GetQuestionnaireResponse fetches the patient's response to the given
// questionnaire. Returns nil without error when they have not answered it.
func (s *Service) GetQuestionnaireResponse(ctx context.Context, patient, questionnaireID string) (*fhir_dto.QuestionnaireResponse, error) {
	query, err := PatientResourceQuery(patient, constvars.ParamSource)
	if err != nil {
		return nil, err
	}
	query.Set(constvars.ParamQuestionnaire, constvars.ResourceQuestionnaire+"/"+questionnaireID)

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceQuestionnaireResponse, query)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, nil
	}

	response := new(fhir_dto.QuestionnaireResponse)
	if err := json.Unmarshal(resources[0], response); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return response, nil
}

// PPMResearchSubjects returns the decoded ResearchSubjects in the bundle that
// belong to a PPM study.
func PPMResearchSubjects(bundle *fhir_dto.Bundle) []fhir_dto.ResearchSubject {
	return researchSubjects(bundle, true)
}

// ExternalResearchSubjects returns the decoded ResearchSubjects in the bundle
// that belong to studies outside the program.
func ExternalResearchSubjects(bundle *fhir_dto.Bundle) []fhir_dto.ResearchSubject {
	return researchSubjects(bundle, false)
}

func researchSubjects(bundle *fhir_dto.Bundle, wantPPM bool) []fhir_dto.ResearchSubject {
	var subjects []fhir_dto.ResearchSubject
	for _, raw := range fhir.Resources(bundle, constvars.ResourceResearchSubject) {
		var subject fhir_dto.ResearchSubject
		if err := json.Unmarshal(raw, &subject); err != nil {
			continue
		}
		if isPPMStudyReference(subject.Study.Reference) == wantPPM {
			subjects = append(subjects, subject)
		}
	}
	return subjects
}

func isPPMStudyReference(reference string) bool {
	for _, identifier := range ppm.StudyIdentifiers() {
		if reference == constvars.ResourceResearchStudy+"/"+identifier {
			return true
		}
	}
	return false
}

// IsPPMResearchSubject reports whether the ResearchSubject carries the PPM
// subject identifier of a known study.
func IsPPMResearchSubject(subject *fhir_dto.ResearchSubject) bool {
	return subject.Identifier != nil &&
		subject.Identifier.System == constvars.ResearchSubjectIdentifierSystem &&
		ppm.IsPPMStudy(subject.Identifier.Value)
}

// StudyFromResearchSubject parses the study code out of the subject's
// identifier, stripping the "ppm-" prefix. DSTU3 does not allow searching
// ResearchSubject by study, so the identifier is the only place it lives.
func StudyFromResearchSubject(subject *fhir_dto.ResearchSubject) string {
	if subject.Identifier == nil {
		return ""
	}
	return strings.ReplaceAll(subject.Identifier.Value, "ppm-", "")
}
