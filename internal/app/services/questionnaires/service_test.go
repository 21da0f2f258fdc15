package questionnaires

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

func testBundle(resources ...string) *fhir_dto.Bundle {
	bundle := &fhir_dto.Bundle{ResourceType: constvars.ResourceBundle, Type: "searchset"}
	for _, resource := range resources {
		bundle.Entry = append(bundle.Entry, fhir_dto.Entry{Resource: json.RawMessage(resource)})
	}
	return bundle
}

func registrationBundle() *fhir_dto.Bundle {
	return testBundle(
		`{"resourceType": "Questionnaire", "id": "ppm-neer-registration-questionnaire", "status": "active",
			"item": [
				{"linkId": "display-1", "type": "display", "text": "Welcome to the study."},
				{"linkId": "question-1", "type": "question", "text": "Have you ever been diagnosed with cancer?"},
				{"linkId": "question-1-1", "type": "string",
					"enableWhen": [{"question": "question-1", "answerString": "Yes"}]},
				{"linkId": "question-2", "type": "group", "item": [
					{"linkId": "question-3", "type": "question", "text": "Are you currently receiving treatment?"}
				]},
				{"linkId": "question-10", "type": "question", "text": "Anything else we should know?"}
			]}`,
		`{"resourceType": "QuestionnaireResponse", "id": "76", "status": "completed",
			"questionnaire": {"reference": "Questionnaire/ppm-neer-registration-questionnaire"},
			"item": [
				{"linkId": "question-1", "answer": [{"valueString": "Yes"}]},
				{"linkId": "question-1-1", "answer": [{"valueString": "Melanoma, Lymphoma"}]},
				{"linkId": "question-3", "answer": [{"valueBoolean": true}]}
			]}`,
	)
}

func TestFlattenQuestionnaireResponse(t *testing.T) {
	service := NewService(zap.NewNop())

	t.Run("Orders Numbers And Splices", func(t *testing.T) {
		result := service.FlattenQuestionnaireResponse(registrationBundle(), ppm.QuestionnaireNEERRegistration)

		assert.Len(t, result, 3, "display items are dropped, groups are spliced, sub-questions fold into their parent")

		assert.Equal(t, "1. Have you ever been diagnosed with cancer?", result[0].Question)
		assert.Equal(t, []string{
			`Yes <span class="label label-primary">Melanoma</span>&nbsp;<span class="label label-primary">Lymphoma</span>`,
		}, result[0].Answers)

		assert.Equal(t, "2. Are you currently receiving treatment?", result[1].Question)
		assert.Equal(t, []string{"true"}, result[1].Answers)

		assert.Equal(t, "3. Anything else we should know?", result[2].Question)
		assert.Equal(t, []string{UnansweredPlaceholder}, result[2].Answers)
	})

	t.Run("Sub Answer Not Spliced When Parent Answer Differs", func(t *testing.T) {
		bundle := testBundle(
			`{"resourceType": "Questionnaire", "id": "q", "item": [
				{"linkId": "question-1", "type": "question", "text": "Diagnosed?"},
				{"linkId": "question-1-1", "type": "string",
					"enableWhen": [{"question": "question-1", "answerString": "Yes"}]}
			]}`,
			`{"resourceType": "QuestionnaireResponse", "id": "1",
				"questionnaire": {"reference": "Questionnaire/q"},
				"item": [{"linkId": "question-1", "answer": [{"valueString": "No"}]}]}`,
		)

		result := service.FlattenQuestionnaireResponse(bundle, "q")
		assert.Len(t, result, 1)
		assert.Equal(t, []string{"No"}, result[0].Answers)
	})

	t.Run("Missing Questionnaire Or Response", func(t *testing.T) {
		assert.Nil(t, service.FlattenQuestionnaireResponse(testBundle(), ppm.QuestionnaireNEERRegistration))
		assert.Nil(t, service.FlattenQuestionnaireResponse(nil, ppm.QuestionnaireNEERRegistration))

		// A response for a different questionnaire does not pair up.
		bundle := testBundle(
			`{"resourceType": "Questionnaire", "id": "ppm-neer-registration-questionnaire"}`,
			`{"resourceType": "QuestionnaireResponse", "id": "1",
				"questionnaire": {"reference": "Questionnaire/other"}}`,
		)
		assert.Nil(t, service.FlattenQuestionnaireResponse(bundle, ppm.QuestionnaireNEERRegistration))
	})

	t.Run("Response Item Without Answers", func(t *testing.T) {
		bundle := testBundle(
			`{"resourceType": "Questionnaire", "id": "q", "item": [
				{"linkId": "question-1", "type": "question", "text": "Diagnosed?"}
			]}`,
			`{"resourceType": "QuestionnaireResponse", "id": "1",
				"questionnaire": {"reference": "Questionnaire/q"},
				"item": [{"linkId": "question-1"}]}`,
		)

		result := service.FlattenQuestionnaireResponse(bundle, "q")
		assert.Len(t, result, 1)
		assert.Equal(t, []string{MissingAnswerText}, result[0].Answers)
	})

	t.Run("Nested Response Items Merge By Link ID", func(t *testing.T) {
		bundle := testBundle(
			`{"resourceType": "Questionnaire", "id": "q", "item": [
				{"linkId": "question-1", "type": "question", "text": "Parent",
					"item": [{"linkId": "question-2", "type": "question", "text": "Child"}]}
			]}`,
			`{"resourceType": "QuestionnaireResponse", "id": "1",
				"questionnaire": {"reference": "Questionnaire/q"},
				"item": [
					{"linkId": "question-1", "answer": [{"valueString": "outer"}],
						"item": [{"linkId": "question-2", "answer": [{"valueInteger": 7}]}]}
				]}`,
		)

		result := service.FlattenQuestionnaireResponse(bundle, "q")
		assert.Len(t, result, 2)
		assert.Equal(t, []string{"outer"}, result[0].Answers)
		assert.Equal(t, []string{"7"}, result[1].Answers)
	})
}

func TestQuestionnaireAnswers(t *testing.T) {
	service := NewService(zap.NewNop())

	quiz := `{"resourceType": "Questionnaire", "id": "ppm-asd-consent-individual-quiz", "item": [
		{"linkId": "question-1", "option": [{"valueString": "To learn about autism"}, {"valueString": "Wrong"}]},
		{"linkId": "question-2", "option": [{"valueString": "Saliva and blood"}, {"valueString": "Wrong"}]},
		{"linkId": "question-3", "option": [{"valueString": "Wrong"}, {"valueString": "Yes, at any time"}]},
		{"linkId": "question-4", "option": [{"valueString": "A"}, {"valueString": "B"}, {"valueString": "C"}, {"valueString": "There is no cost"}]}
	]}`

	t.Run("Correct Options By Position", func(t *testing.T) {
		answers := service.QuestionnaireAnswers(testBundle(quiz), ppm.QuestionnaireASDIndividualConsent)
		assert.Equal(t, []string{
			"To learn about autism",
			"Saliva and blood",
			"Yes, at any time",
			"There is no cost",
		}, answers)
	})

	t.Run("Only The Consent Quizzes Have Fixed Answers", func(t *testing.T) {
		bundle := testBundle(`{"resourceType": "Questionnaire", "id": "ppm-neer-registration-questionnaire", "item": []}`)
		assert.Nil(t, service.QuestionnaireAnswers(bundle, ppm.QuestionnaireNEERRegistration))
	})

	t.Run("Unexpected Quiz Shape", func(t *testing.T) {
		short := testBundle(`{"resourceType": "Questionnaire", "id": "ppm-asd-consent-individual-quiz", "item": [
			{"linkId": "question-1", "option": [{"valueString": "Only"}]}
		]}`)
		assert.Nil(t, service.QuestionnaireAnswers(short, ppm.QuestionnaireASDIndividualConsent))
	})

	t.Run("Missing Questionnaire", func(t *testing.T) {
		assert.Nil(t, service.QuestionnaireAnswers(testBundle(), ppm.QuestionnaireASDIndividualConsent))
	})
}
