// Package consents reconstructs a participant's signed consent from the
// Consent, Composition, and Contract resources in their record bundle.
package consents

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/app/config"
	"ppm-client/internal/app/services/fhir"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/dto/responses"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/pkg/utils"
	"ppm-client/internal/ppm"
)

// notApplicable fills the guardian-only fields of an individual consent.
const notApplicable = "N/A"

// unexplainedText is the fixed "no" label of the guardian explanation block.
const unexplainedText = "I was not able to explain this study to my child or " +
	"individual in my care who will be participating"

type Service struct {
	Log *zap.Logger

	location *time.Location
}

func NewService(logger *zap.Logger, internalConfig *config.InternalConfig) *Service {
	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		location = time.UTC
	}
	return &Service{Log: logger, location: location}
}

// FlattenConsentComposition walks the bundle and assembles the signed consent
// view: date signed, narrative text, declined procedures, and the signature
// questionnaires of each Contract. Returns nil when the bundle holds no
// consent resources.
func (s *Service) FlattenConsentComposition(bundle *fhir_dto.Bundle) *responses.ConsentComposition {
	if bundle == nil {
		return nil
	}

	consent := &responses.ConsentComposition{}
	found := false

	for _, entry := range bundle.Entry {
		header := entry.Header()
		switch header.ResourceType {
		case constvars.ResourceConsent:
			var signedConsent fhir_dto.Consent
			if err := json.Unmarshal(entry.Resource, &signedConsent); err != nil {
				continue
			}
			found = true
			consent.DateSigned = utils.FormatFHIRDate(signedConsent.DateTime, "2006-01-02", s.location)

			// Exceptions are for when they refuse part of the consent.
			for _, except := range signedConsent.Except {
				if len(except.Code) > 0 {
					consent.Exceptions = append(consent.Exceptions, s.exceptionDescription(except.Code[0].Display))
				}
			}

		case constvars.ResourceComposition:
			var composition fhir_dto.Composition
			if err := json.Unmarshal(entry.Resource, &composition); err != nil {
				continue
			}
			found = true

			text := ""
			referencesConsent := false
			for _, section := range composition.Section {
				if section.Text != nil && text == "" {
					text = section.Text.Div
				}
				for _, ref := range section.Entry {
					if strings.Contains(ref.Reference, constvars.ResourceConsent) {
						referencesConsent = true
					}
				}
			}

			if referencesConsent {
				consent.ConsentText = text
			} else {
				consent.AssentText = text
			}

		case constvars.ResourceContract:
			var contract fhir_dto.Contract
			if err := json.Unmarshal(entry.Resource, &contract); err != nil {
				continue
			}
			if contract.BindingReference == nil {
				continue
			}
			found = true
			s.flattenContract(bundle, &contract, consent)
		}
	}

	if !found {
		return nil
	}
	return consent
}

// flattenContract resolves the contract's bound QuestionnaireResponse and
// fills in the consent fields for the signature step it represents.
func (s *Service) flattenContract(bundle *fhir_dto.Bundle, contract *fhir_dto.Contract, consent *responses.ConsentComposition) {
	questionnaireResponse := findQuestionnaireResponse(bundle, contract.BindingReference.Reference)
	if questionnaireResponse == nil {
		// A dangling bindingReference must not abort the walk.
		s.Log.Error("consentService could not resolve contract bindingReference",
			zap.String(constvars.LoggingResourceIDKey, contract.ID),
			zap.String("binding_reference", contract.BindingReference.Reference),
		)
		return
	}
	if questionnaireResponse.Questionnaire == nil {
		s.Log.Error("consentService contract response without questionnaire reference",
			zap.String(constvars.LoggingResourceIDKey, contract.ID),
		)
		return
	}

	questionnaireRef := questionnaireResponse.Questionnaire.Reference
	questionnaire := findQuestionnaire(bundle, fhir.ReferenceID(questionnaireRef))
	if questionnaire == nil {
		s.Log.Error("consentService could not resolve contract questionnaire",
			zap.String(constvars.LoggingResourceIDKey, contract.ID),
			zap.String(constvars.LoggingQuestionnaireKey, questionnaireRef),
		)
		return
	}

	switch questionnaireRef {
	case constvars.QuestionnaireRefIndividualSignature, constvars.QuestionnaireRefNEERSignature:
		// A person consenting for themselves.
		consent.Type = ppm.ConsentCompositionTypeIndividual
		consent.SignerSignature = decodeSignature(contract)
		consent.ParticipantName = signerDisplay(contract)

		// Guardian-only fields do not apply.
		consent.ParticipantAcknowledgementReason = notApplicable
		consent.ParticipantAcknowledgement = notApplicable
		consent.SignerName = notApplicable
		consent.SignerRelationship = notApplicable
		consent.AssentSignature = notApplicable
		consent.AssentDate = notApplicable
		consent.ExplainedSignature = notApplicable

	case constvars.QuestionnaireRefGuardianSignature1:
		// A person consenting for someone else.
		consent.Type = ppm.ConsentCompositionTypeGuardian

		if len(contract.Signer) > 0 {
			relatedPerson := findRelatedPerson(bundle, fhir.ReferenceID(contract.Signer[0].Party.Reference))
			if relatedPerson != nil {
				if len(relatedPerson.Name) > 0 {
					consent.SignerName = relatedPerson.Name[0].Text
				}
				if relatedPerson.Relationship != nil {
					consent.SignerRelationship = relatedPerson.Relationship.Text
				}
			} else {
				s.Log.Error("consentService could not resolve contract signer",
					zap.String(constvars.LoggingResourceIDKey, contract.ID),
				)
			}
			if len(contract.Signer[0].Signature) > 0 && contract.Signer[0].Signature[0].OnBehalfOfReference != nil {
				consent.ParticipantName = contract.Signer[0].Signature[0].OnBehalfOfReference.Display
			}
		}
		consent.SignerSignature = decodeSignature(contract)

	case constvars.QuestionnaireRefGuardianSignature2:
		// Whether the guardian could get acknowledgement from the participant.
		acknowledgement := answerString(questionnaireResponse, "question-1")
		consent.ParticipantAcknowledgement = ppm.TitleCase(acknowledgement)
		if strings.EqualFold(acknowledgement, "no") {
			consent.ParticipantAcknowledgementReason = answerString(questionnaireResponse, "question-1-1")
		}

		// The guardian's signature confirming they tried to explain the study.
		consent.ExplainedSignature = decodeSignature(contract)

	case constvars.QuestionnaireRefGuardianSignature3:
		consent.AssentSignature = decodeSignature(contract)
		consent.AssentDate = contract.Issued

		// Items answered true are declined procedures on the assent.
		for _, responseItem := range questionnaireResponse.Item {
			if len(responseItem.Answer) == 0 || responseItem.Answer[0].ValueBoolean == nil || !*responseItem.Answer[0].ValueBoolean {
				continue
			}
			for _, item := range questionnaire.Item {
				if item.LinkID == responseItem.LinkID {
					consent.AssentExceptions = append(consent.AssentExceptions, s.exceptionDescription(item.Text))
					break
				}
			}
		}
	}

	rendered := renderQuestionnaire(questionnaire, questionnaireResponse)
	if questionnaireRef == constvars.QuestionnaireRefGuardianSignature3 {
		consent.AssentQuestionnaires = append(consent.AssentQuestionnaires, rendered)
	} else {
		consent.ConsentQuestionnaires = append(consent.ConsentQuestionnaires, rendered)
	}
}

// renderQuestionnaire builds the dashboard rendering descriptor for one
// signature questionnaire.
func renderQuestionnaire(questionnaire *fhir_dto.Questionnaire, questionnaireResponse *fhir_dto.QuestionnaireResponse) responses.ConsentQuestionnaire {
	rendered := responses.ConsentQuestionnaire{
		Template:  "dashboard/" + questionnaire.ID + ".html",
		Questions: []responses.ConsentQuestion{},
	}

	for _, item := range questionnaire.Item {
		question := responses.ConsentQuestion{Type: item.Type}

		switch item.Type {
		case "display":
			question.Text = item.Text

		case "boolean", "question":
			for _, responseItem := range questionnaireResponse.Item {
				if responseItem.LinkID != item.LinkID || len(responseItem.Answer) == 0 {
					continue
				}
				if item.Type == "boolean" {
					question.Text = item.Text
					question.Answer = responseItem.Answer[0].ValueBoolean
				} else {
					question.Yes = item.Text
					question.No = unexplainedText
					if responseItem.Answer[0].ValueString != nil {
						answered := strings.EqualFold(*responseItem.Answer[0].ValueString, "yes")
						question.Answer = &answered
					}
				}
			}
		}

		rendered.Questions = append(rendered.Questions, question)
	}
	return rendered
}

// exceptionDescription maps a declined consent item's display text onto the
// badge shown on the dashboard. Unrecognized displays pass through untouched.
func (s *Service) exceptionDescription(display string) string {
	lowered := strings.ToLower(display)
	switch {
	case strings.Contains(lowered, "equipment monitoring") || strings.Contains(lowered, "fitbit"):
		return exceptionBadge("Fitbit monitoring")
	case strings.Contains(lowered, "referral to clinical trial"):
		return exceptionBadge("Future contact/questionnaires")
	case strings.Contains(lowered, "saliva"):
		return exceptionBadge("Saliva sample")
	case strings.Contains(lowered, "blood sample"):
		return exceptionBadge("Blood sample")
	case strings.Contains(lowered, "stool sample"):
		return exceptionBadge("Stool sample")
	case strings.Contains(lowered, "tumor"):
		return exceptionBadge("Tumor tissue samples")
	}
	s.Log.Warn("consentService could not format exception", zap.String("display", display))
	return display
}

func exceptionBadge(text string) string {
	return `<span class="label label-danger">` + text + `</span>`
}

func decodeSignature(contract *fhir_dto.Contract) string {
	if len(contract.Signer) == 0 || len(contract.Signer[0].Signature) == 0 {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(contract.Signer[0].Signature[0].Blob)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func signerDisplay(contract *fhir_dto.Contract) string {
	if len(contract.Signer) == 0 || len(contract.Signer[0].Signature) == 0 {
		return ""
	}
	if contract.Signer[0].Signature[0].WhoReference == nil {
		return ""
	}
	return contract.Signer[0].Signature[0].WhoReference.Display
}

func answerString(questionnaireResponse *fhir_dto.QuestionnaireResponse, linkID string) string {
	for _, item := range questionnaireResponse.Item {
		if item.LinkID == linkID && len(item.Answer) > 0 && item.Answer[0].ValueString != nil {
			return *item.Answer[0].ValueString
		}
	}
	return ""
}

func findQuestionnaireResponse(bundle *fhir_dto.Bundle, reference string) *fhir_dto.QuestionnaireResponse {
	responseID := fhir.ReferenceID(reference)
	for _, entry := range bundle.Entry {
		header := entry.Header()
		if header.ResourceType == constvars.ResourceQuestionnaireResponse && header.ID == responseID {
			resource := new(fhir_dto.QuestionnaireResponse)
			if err := json.Unmarshal(entry.Resource, resource); err != nil {
				return nil
			}
			return resource
		}
	}
	return nil
}

func findQuestionnaire(bundle *fhir_dto.Bundle, questionnaireID string) *fhir_dto.Questionnaire {
	for _, entry := range bundle.Entry {
		header := entry.Header()
		if header.ResourceType == constvars.ResourceQuestionnaire && header.ID == questionnaireID {
			resource := new(fhir_dto.Questionnaire)
			if err := json.Unmarshal(entry.Resource, resource); err != nil {
				return nil
			}
			return resource
		}
	}
	return nil
}

func findRelatedPerson(bundle *fhir_dto.Bundle, relatedPersonID string) *fhir_dto.RelatedPerson {
	for _, entry := range bundle.Entry {
		header := entry.Header()
		if header.ResourceType == constvars.ResourceRelatedPerson && header.ID == relatedPersonID {
			resource := new(fhir_dto.RelatedPerson)
			if err := json.Unmarshal(entry.Resource, resource); err != nil {
				return nil
			}
			return resource
		}
	}
	return nil
}
