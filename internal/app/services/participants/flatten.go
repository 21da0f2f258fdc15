package participants

import (
	"context"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/app/services/fhir"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/dto/responses"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/pkg/utils"
	"ppm-client/internal/ppm"
)

// FlattenPatient pulls the Patient out of the bundle and flattens it.
// Returns nil when the bundle has no Patient; a Patient without an email
// identifier yields an empty record.
func (s *Service) FlattenPatient(bundle *fhir_dto.Bundle) *responses.PatientRecord {
	raw, found := fhir.FirstResource(bundle, constvars.ResourcePatient)
	if !found {
		s.Log.Debug("participantService cannot flatten Patient, none in bundle")
		return nil
	}

	var resource fhir_dto.Patient
	if err := json.Unmarshal(raw, &resource); err != nil {
		return nil
	}

	record := &responses.PatientRecord{UsesTwitter: true}
	record.FHIRID = resource.ID
	record.PPMID = resource.ID

	for _, identifier := range resource.Identifier {
		if identifier.System == constvars.PatientEmailIdentifierSystem {
			record.Email = identifier.Value
			break
		}
	}
	if record.Email == "" {
		s.Log.Error("participantService could not parse email from patient",
			zap.String(constvars.LoggingPatientIDKey, resource.ID),
		)
		return &responses.PatientRecord{}
	}

	if resource.Active != nil {
		record.Active = *resource.Active
	}

	if len(resource.Name) > 0 {
		if len(resource.Name[0].Given) > 0 {
			record.Firstname = resource.Name[0].Given[0]
		}
		record.Lastname = resource.Name[0].Family
	}

	if len(resource.Address) > 0 {
		address := resource.Address[0]
		if len(address.Line) > 0 {
			record.StreetAddress1 = address.Line[0]
		}
		if len(address.Line) > 1 {
			record.StreetAddress2 = address.Line[1]
		}
		record.City = address.City
		record.State = address.State
		record.Zip = address.PostalCode
	}

	for _, telecom := range resource.Telecom {
		switch telecom.System {
		case constvars.PatientPhoneTelecomSystem:
			if record.Phone == "" {
				record.Phone = telecom.Value
			}
		case constvars.PatientTwitterTelecomSystem:
			if record.TwitterHandle == "" {
				record.TwitterHandle = telecom.Value
			}
		case constvars.PatientEmailTelecomSystem:
			if record.ContactEmail == "" {
				record.ContactEmail = telecom.Value
			}
		}
	}

	for _, extension := range resource.Extension {
		switch {
		case strings.Contains(extension.Url, "how-did-you-hear-about-us"):
			if record.HowDidYouHearAboutUs == "" {
				record.HowDidYouHearAboutUs = extension.ValueString
			}
		case strings.Contains(extension.Url, "uses-twitter"):
			if extension.ValueBoolean != nil {
				record.UsesTwitter = *extension.ValueBoolean
			}
		}
	}

	return record
}

// FlattenEnrollmentFlag flattens the enrollment Flag resource.
func FlattenEnrollmentFlag(flag *fhir_dto.Flag) *responses.EnrollmentRecord {
	record := &responses.EnrollmentRecord{Status: flag.Status}
	if len(flag.Code.Coding) > 0 {
		record.Enrollment = flag.Code.Coding[0].Code
	}
	if flag.Period != nil {
		record.Start = flag.Period.Start
		record.End = flag.Period.End
	}
	return record
}

// FlattenEnrollment finds the enrollment Flag in the bundle and flattens it.
func (s *Service) FlattenEnrollment(bundle *fhir_dto.Bundle) *responses.EnrollmentRecord {
	for _, raw := range fhir.Resources(bundle, constvars.ResourceFlag) {
		var flag fhir_dto.Flag
		if err := json.Unmarshal(raw, &flag); err != nil {
			continue
		}
		if len(flag.Code.Coding) > 0 && flag.Code.Coding[0].System == constvars.EnrollmentFlagCodingSystem {
			return FlattenEnrollmentFlag(&flag)
		}
		s.Log.Error("participantService flag without enrollment coding",
			zap.String(constvars.LoggingResourceIDKey, flag.ID),
		)
	}
	s.Log.Debug("participantService no enrollment flag in bundle")
	return nil
}

// FlattenResearchSubject flattens a PPM ResearchSubject to its study code and
// participation period.
func FlattenResearchSubject(subject *fhir_dto.ResearchSubject) responses.StudyRecord {
	record := responses.StudyRecord{Study: StudyFromResearchSubject(subject)}
	if subject.Period != nil {
		record.Start = subject.Period.Start
		record.End = subject.Period.End
	}
	return record
}

// FlattenResearchStudy flattens a ResearchStudy resource.
func FlattenResearchStudy(study *fhir_dto.ResearchStudy) responses.ResearchStudyRecord {
	record := responses.ResearchStudyRecord{
		Title:  study.Title,
		Status: study.Status,
	}
	if study.Period != nil {
		record.Start = study.Period.Start
		record.End = study.Period.End
	}
	if len(study.Identifier) > 0 {
		record.Identifier = study.Identifier[0].Value
	}
	return record
}

// FlattenPPMStudies returns the flattened PPM ResearchSubjects in the bundle.
func (s *Service) FlattenPPMStudies(bundle *fhir_dto.Bundle) []responses.StudyRecord {
	var records []responses.StudyRecord
	for _, raw := range fhir.Resources(bundle, constvars.ResourceResearchSubject) {
		var subject fhir_dto.ResearchSubject
		if err := json.Unmarshal(raw, &subject); err != nil {
			continue
		}
		if IsPPMResearchSubject(&subject) {
			records = append(records, FlattenResearchSubject(&subject))
		}
	}
	if len(records) == 0 {
		s.Log.Debug("participantService no PPM research subjects in bundle")
	}
	return records
}

// FlattenDocumentReference flattens a DocumentReference and its first content
// attachment.
func (s *Service) FlattenDocumentReference(raw json.RawMessage) *responses.DocumentReferenceRecord {
	var resource fhir_dto.DocumentReference
	if err := json.Unmarshal(raw, &resource); err != nil {
		return nil
	}

	record := &responses.DocumentReferenceRecord{ID: resource.ID}

	record.Timestamp = resource.Indexed
	if record.Timestamp != "" {
		record.Date = utils.FormatFHIRDate(record.Timestamp, "01-02-2006", s.location)
	}

	if resource.Type != nil && len(resource.Type.Coding) > 0 {
		record.Code = resource.Type.Coding[0].Code
		record.Display = resource.Type.Coding[0].Display
	}

	if len(resource.Content) > 0 {
		attachment := resource.Content[0].Attachment
		record.Title = attachment.Title
		if attachment.Size > 0 {
			record.Size = strconv.FormatInt(attachment.Size, 10)
		}
		record.Hash = attachment.Hash
		record.URL = attachment.Url
		record.Data = attachment.Data
	}

	if len(resource.Identifier) > 0 {
		record.Identifiers = make(map[string]string)
		for _, identifier := range resource.Identifier {
			if identifier.System != "" && identifier.Value != "" {
				record.Identifiers[identifier.System] = identifier.Value
			}
		}
	}

	if resource.Subject.Reference != "" {
		record.Patient = resource.Subject.Reference
		record.PPMID = fhir.ReferenceID(resource.Subject.Reference)
	}

	return record
}

// FlattenParticipant assembles the complete flattened view of one
// participant's record bundle.
func (s *Service) FlattenParticipant(ctx context.Context, bundle *fhir_dto.Bundle) *responses.Participant {
	patient := s.FlattenPatient(bundle)
	if patient == nil {
		s.Log.Debug("participantService no patient in bundle")
		return nil
	}

	participant := &responses.Participant{PatientRecord: *patient}

	studies := s.FlattenPPMStudies(bundle)
	if len(studies) == 0 {
		return participant
	}
	if len(studies) > 1 {
		s.Log.Warn("participantService patient has more than one PPM study",
			zap.String(constvars.LoggingPatientIDKey, patient.FHIRID),
		)
	}
	participant.Study = studies[0].Study
	participant.Project = studies[0].Study
	participant.DateRegistered = utils.FormatFHIRDate(studies[0].Start, "01/02/2006", s.location)

	if enrollment := s.FlattenEnrollment(bundle); enrollment != nil {
		participant.Enrollment = enrollment.Enrollment
		if enrollment.Enrollment == ppm.EnrollmentAccepted.Value() && enrollment.Start != "" {
			participant.EnrollmentAcceptedDate = utils.FormatFHIRDate(enrollment.Start, "1/2/2006", s.location)
		}
	}

	participant.Composition = s.Consents.FlattenConsentComposition(bundle)

	study, ok := ppm.StudyFromValue(participant.Project)
	if ok {
		questionnaireID := ppm.QuestionnaireForStudy(study)
		participant.Questionnaire = s.Questionnaires.FlattenQuestionnaireResponse(bundle, questionnaireID)
	}

	participant.PointsOfCare = fhir.FlattenList(s.Log, bundle, constvars.ResourceOrganization)

	switch study {
	case ppm.StudyNEER:
		titles, err := s.GetResearchStudies(ctx, bundle)
		if err != nil {
			s.Log.Error("participantService could not fetch research studies",
				zap.String(constvars.LoggingPatientIDKey, patient.FHIRID),
				zap.Error(err),
			)
		}
		participant.ResearchStudies = titles

	case ppm.StudyASD:
		compositionType := ""
		if participant.Composition != nil {
			compositionType = participant.Composition.Type
		}
		quizID := ppm.QuestionnaireForConsent(compositionType)

		participant.ConsentQuiz = s.Questionnaires.FlattenQuestionnaireResponse(bundle, quizID)
		if len(participant.ConsentQuiz) > 0 {
			participant.ConsentQuizAnswers = s.Questionnaires.QuestionnaireAnswers(bundle, quizID)
		}
	}

	return participant
}

// QueryParticipant fetches and flattens the participant's whole record.
func (s *Service) QueryParticipant(ctx context.Context, patient string) (*responses.Participant, error) {
	bundle, err := s.QueryParticipantBundle(ctx, patient)
	if err != nil {
		return nil, err
	}
	return s.FlattenParticipant(ctx, bundle), nil
}
