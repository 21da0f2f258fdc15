// Package deletions removes participant resources from the FHIR server, from
// single resources up to a participant's whole record.
package deletions

import (
	"context"
	"net/url"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/app/contracts"
	"ppm-client/internal/app/services/participants"
	"ppm-client/internal/app/services/pointsofcare"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

// participantResourceTypes are the types purged when a participant's record
// is deleted.
var participantResourceTypes = []string{
	constvars.ResourcePatient,
	constvars.ResourceQuestionnaireResponse,
	constvars.ResourceFlag,
	constvars.ResourceConsent,
	constvars.ResourceContract,
	constvars.ResourceRelatedPerson,
	constvars.ResourceComposition,
	constvars.ResourceList,
	constvars.ResourceDocumentReference,
	constvars.ResourceResearchSubject,
}

type Service struct {
	FhirClient   contracts.FhirClient
	PointsOfCare *pointsofcare.Service
	Log          *zap.Logger
}

func NewService(fhirClient contracts.FhirClient, pointOfCareService *pointsofcare.Service, logger *zap.Logger) *Service {
	return &Service{
		FhirClient:   fhirClient,
		PointsOfCare: pointOfCareService,
		Log:          logger,
	}
}

// DeleteRelatedResources fetches the source resource together with everything
// referencing or referenced by it, then deletes every match of the target
// types in one transaction. This bypasses dependency ordering and deletes
// with impunity, so use with caution.
func (s *Service) DeleteRelatedResources(ctx context.Context, resourceType, resourceID string, targetResourceTypes []string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("deletionService.DeleteRelatedResources called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resourceID),
	)

	query := url.Values{}
	query.Set(constvars.ParamID, resourceID)
	query.Set(constvars.ParamInclude, constvars.IncludeAll)
	query.Set(constvars.ParamRevInclude, constvars.IncludeAll)

	bundle, err := s.FhirClient.QueryBundle(ctx, resourceType, query)
	if err != nil {
		return err
	}

	targets := make(map[string]bool, len(targetResourceTypes))
	for _, target := range targetResourceTypes {
		targets[target] = true
	}

	transaction := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
	}
	for _, entry := range bundle.Entry {
		header := entry.Header()
		if header.ID == "" || !targets[header.ResourceType] {
			continue
		}
		transaction.Entry = append(transaction.Entry, fhir_dto.Entry{
			Request: &fhir_dto.BundleEntryRequest{
				Method: constvars.MethodDelete,
				URL:    header.ResourceType + "/" + header.ID,
			},
		})
	}

	if len(transaction.Entry) == 0 {
		s.Log.Debug("deletionService.DeleteRelatedResources nothing to delete",
			zap.String(constvars.LoggingRequestIDKey, requestID),
		)
		return nil
	}

	_, err = s.FhirClient.PostTransactionBundle(ctx, transaction)
	return err
}

// DeleteParticipant purges the participant's entire FHIR record.
func (s *Service) DeleteParticipant(ctx context.Context, patientID string) error {
	return s.DeleteRelatedResources(ctx, constvars.ResourcePatient, patientID, participantResourceTypes)
}

// DeletePatient deletes just the Patient resource.
func (s *Service) DeletePatient(ctx context.Context, patientID string) error {
	return s.FhirClient.DeleteResource(ctx, constvars.ResourcePatient, patientID)
}

// DeleteResearchSubjects deletes the patient's ResearchSubjects for studies
// outside the program.
func (s *Service) DeleteResearchSubjects(ctx context.Context, patient string) error {
	query, err := participants.PatientResourceQuery(patient, constvars.ParamPatient)
	if err != nil {
		return err
	}

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceResearchSubject, query)
	if err != nil {
		return err
	}

	deleted := 0
	for _, raw := range resources {
		var subject fhir_dto.ResearchSubject
		if err := json.Unmarshal(raw, &subject); err != nil {
			continue
		}
		if isPPMStudyReference(subject.Study.Reference) {
			continue
		}
		if err := s.FhirClient.DeleteResource(ctx, constvars.ResourceResearchSubject, subject.ID); err != nil {
			return err
		}
		deleted++
	}

	if deleted == 0 {
		s.Log.Warn("deletionService.DeleteResearchSubjects nothing to delete",
			zap.String(constvars.LoggingPatientIDKey, patient),
		)
	}
	return nil
}

// DeletePointOfCareList deletes the patient's point of care List.
func (s *Service) DeletePointOfCareList(ctx context.Context, patient string) error {
	bundle, err := s.PointsOfCare.QueryListBundle(ctx, patient)
	if err != nil {
		return err
	}

	for _, entry := range bundle.Entry {
		header := entry.Header()
		if header.ResourceType == constvars.ResourceList && header.ID != "" {
			return s.FhirClient.DeleteResource(ctx, constvars.ResourceList, header.ID)
		}
	}

	s.Log.Warn("deletionService.DeletePointOfCareList no list to delete",
		zap.String(constvars.LoggingPatientIDKey, patient),
	)
	return nil
}

// DeleteQuestionnaireResponse deletes the patient's response to the study's
// registration questionnaire.
func (s *Service) DeleteQuestionnaireResponse(ctx context.Context, patient string, study ppm.Study) error {
	questionnaireID := ppm.QuestionnaireForStudy(study)

	query, err := participants.PatientResourceQuery(patient, constvars.ParamSource)
	if err != nil {
		return err
	}
	query.Set(constvars.ParamQuestionnaire, constvars.ResourceQuestionnaire+"/"+questionnaireID)

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceQuestionnaireResponse, query)
	if err != nil {
		return err
	}
	if len(resources) == 0 {
		s.Log.Error("deletionService.DeleteQuestionnaireResponse response does not exist",
			zap.String(constvars.LoggingPatientIDKey, patient),
			zap.String(constvars.LoggingQuestionnaireKey, questionnaireID),
		)
		return nil
	}

	var response fhir_dto.QuestionnaireResponse
	if err := json.Unmarshal(resources[0], &response); err != nil {
		return nil
	}
	return s.FhirClient.DeleteResource(ctx, constvars.ResourceQuestionnaireResponse, response.ID)
}

// DeleteConsent removes everything recorded when the patient signed their
// consent: the Composition, Consent, and Contracts, plus the per-study
// signature questionnaire responses. Conditional delete URLs let the server
// resolve the matching resources.
func (s *Service) DeleteConsent(ctx context.Context, patientID string, study ppm.Study) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("deletionService.DeleteConsent called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.String(constvars.LoggingStudyKey, study.Value()),
	)

	patientRef := constvars.ResourcePatient + "/" + patientID

	transaction := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
	}
	addDelete := func(target string) {
		transaction.Entry = append(transaction.Entry, fhir_dto.Entry{
			Request: &fhir_dto.BundleEntryRequest{
				Method: constvars.MethodDelete,
				URL:    target,
			},
		})
	}

	addDelete(constvars.ResourceComposition + "?" + constvars.ParamSubject + "=" + patientRef)
	addDelete(constvars.ResourceConsent + "?" + constvars.ParamPatient + "=" + patientRef)
	addDelete(constvars.ResourceContract + "?" + constvars.ParamSigner + "=" + patientRef)

	switch study {
	case ppm.StudyASD:
		questionnaireIDs := []string{
			ppm.QuestionnaireASDGuardianConsent,
			ppm.QuestionnaireASDIndividualConsent,
			"individual-signature-part-1",
			"guardian-signature-part-1",
			"guardian-signature-part-2",
			"guardian-signature-part-3",
		}
		for _, questionnaireID := range questionnaireIDs {
			addDelete(constvars.ResourceQuestionnaireResponse +
				"?" + constvars.ParamQuestionnaire + "=" + constvars.ResourceQuestionnaire + "/" + questionnaireID +
				"&" + constvars.ParamSource + "=" + patientRef)
		}
		addDelete(constvars.ResourceContract + "?signer.patient=" + patientID)
		addDelete(constvars.ResourceRelatedPerson + "?" + constvars.ParamPatient + "=" + patientRef)

	case ppm.StudyNEER:
		addDelete(constvars.ResourceQuestionnaireResponse +
			"?" + constvars.ParamQuestionnaire + "=" + constvars.ResourceQuestionnaire + "/neer-signature" +
			"&" + constvars.ParamSource + "=" + patientRef)

	default:
		s.Log.Error("deletionService.DeleteConsent unsupported study",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingStudyKey, study.Value()),
		)
	}

	_, err := s.FhirClient.PostTransactionBundle(ctx, transaction)
	return err
}

func isPPMStudyReference(reference string) bool {
	for _, identifier := range ppm.StudyIdentifiers() {
		if reference == constvars.ResourceResearchStudy+"/"+identifier {
			return true
		}
	}
	return false
}
