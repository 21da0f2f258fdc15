// Package questionnaires reconstructs questionnaire responses from a
// participant's record bundle for display.
package questionnaires

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/dto/responses"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

// Markup used by the dashboard when rendering reconstructed answers.
const (
	MissingAnswerText     = "------"
	UnansweredPlaceholder = `<span class="label label-info">N/A</span>`

	subAnswerOpen      = `<span class="label label-primary">`
	subAnswerClose     = `</span>`
	subAnswerSeparator = subAnswerClose + "&nbsp;" + subAnswerOpen
)

type Service struct {
	Log *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{Log: logger}
}

// question is one entry of the questionnaire's flattened question index.
// Conditional sub-questions carry the parent link ID and the answer that
// reveals them instead of text.
type question struct {
	text      string
	condition *condition
}

type condition struct {
	parent string
	answer string
}

// questions flattens the questionnaire item tree into a map keyed by link ID.
// Display items are skipped, group items are spliced into their parent, and
// items with enableWhen conditions become conditional sub-questions.
func (s *Service) questions(items []fhir_dto.QuestionnaireItem, questionnaireID string) map[string]question {
	index := make(map[string]question)
	for _, item := range items {
		switch {
		case item.Type == "display":
			continue

		case item.Type == "group" && len(item.Item) > 0:
			for linkID, q := range s.questions(item.Item, questionnaireID) {
				index[linkID] = q
			}

		case len(item.EnableWhen) > 0:
			if len(item.EnableWhen) > 1 {
				s.Log.Warn("questionnaireService sub-question has multiple conditions, using the first",
					zap.String(constvars.LoggingQuestionnaireKey, questionnaireID),
					zap.String(constvars.LoggingLinkIDKey, item.LinkID),
				)
			}
			index[item.LinkID] = question{condition: &condition{
				parent: item.EnableWhen[0].Question,
				answer: item.EnableWhen[0].AnswerString,
			}}

		default:
			text := item.Text
			if text == "" {
				// Blank question text, presumably a sub-question.
				text = "-"
			}
			index[item.LinkID] = question{text: text}

			for linkID, q := range s.questions(item.Item, questionnaireID) {
				index[linkID] = q
			}
		}
	}
	return index
}

// answers flattens the response item tree into a map of link ID to answer
// values. Child items are merged in under their own link IDs.
func (s *Service) answers(items []fhir_dto.QuestionnaireResponseItem) map[string][]string {
	index := make(map[string][]string)
	for _, item := range items {
		values := []string{}

		if len(item.Answer) == 0 {
			s.Log.Error("questionnaireService response item without answers",
				zap.String(constvars.LoggingLinkIDKey, item.LinkID),
			)
			values = []string{MissingAnswerText}
		}

		for _, answer := range item.Answer {
			switch {
			case answer.ValueBoolean != nil:
				values = append(values, strconv.FormatBool(*answer.ValueBoolean))
			case answer.ValueString != nil:
				values = append(values, *answer.ValueString)
			case answer.ValueInteger != nil:
				values = append(values, strconv.Itoa(*answer.ValueInteger))
			case answer.ValueDate != nil:
				values = append(values, *answer.ValueDate)
			case answer.ValueDateTime != nil:
				values = append(values, *answer.ValueDateTime)
			default:
				s.Log.Warn("questionnaireService unhandled answer value type",
					zap.String(constvars.LoggingLinkIDKey, item.LinkID),
				)
			}
		}

		index[item.LinkID] = values

		for linkID, subValues := range s.answers(item.Item) {
			index[linkID] = subValues
		}
	}
	return index
}

// FlattenQuestionnaireResponse pairs the Questionnaire in the bundle with its
// QuestionnaireResponse and returns each question's text with the rendered
// answers, in questionnaire order. Both resources must be present.
func (s *Service) FlattenQuestionnaireResponse(bundle *fhir_dto.Bundle, questionnaireID string) []responses.QuestionAnswer {
	questionnaire, questionnaireResponse := findQuestionnairePair(bundle, questionnaireID)
	if questionnaire == nil || questionnaireResponse == nil {
		s.Log.Debug("questionnaireService missing questionnaire or response",
			zap.String(constvars.LoggingQuestionnaireKey, questionnaireID),
		)
		return nil
	}

	questions := s.questions(questionnaire.Item, questionnaireID)
	answers := s.answers(questionnaireResponse.Item)

	// Splice conditional sub-answers into the parent answer they qualify.
	for linkID, q := range questions {
		if q.condition == nil {
			continue
		}
		if q.condition.parent == "" {
			s.Log.Warn("questionnaireService sub-question without parent condition",
				zap.String(constvars.LoggingQuestionnaireKey, questionnaireID),
				zap.String(constvars.LoggingLinkIDKey, linkID),
			)
			continue
		}

		parentAnswers := answers[q.condition.parent]
		index := -1
		for i, value := range parentAnswers {
			if value == q.condition.answer {
				index = i
				break
			}
		}
		if index < 0 {
			continue
		}

		subAnswers := answers[linkID]
		if len(subAnswers) == 0 {
			continue
		}
		if strings.Contains(subAnswers[0], ",") {
			parts := strings.Split(subAnswers[0], ",")
			subAnswers = make([]string, 0, len(parts))
			for _, part := range parts {
				subAnswers = append(subAnswers, strings.TrimSpace(part))
			}
		}

		parentAnswers[index] = fmt.Sprintf("%s %s%s%s",
			parentAnswers[index], subAnswerOpen, strings.Join(subAnswers, subAnswerSeparator), subAnswerClose)
	}

	// Order top-level questions by the numeric suffix of their link IDs.
	type orderedQuestion struct {
		linkID string
		order  int
		text   string
	}
	var ordered []orderedQuestion
	for linkID, q := range questions {
		if q.condition != nil {
			continue
		}
		ordered = append(ordered, orderedQuestion{linkID: linkID, order: linkIDOrder(linkID), text: q.text})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	result := make([]responses.QuestionAnswer, 0, len(ordered))
	for _, q := range ordered {
		answer := answers[q.linkID]
		if len(answer) == 0 {
			answer = []string{UnansweredPlaceholder}
			s.Log.Debug("questionnaireService no answer found for question",
				zap.String(constvars.LoggingQuestionnaireKey, questionnaireID),
				zap.String(constvars.LoggingLinkIDKey, q.linkID),
			)
		}
		result = append(result, responses.QuestionAnswer{
			Question: fmt.Sprintf("%d. %s", len(result)+1, q.text),
			Answers:  answer,
		})
	}
	return result
}

// QuestionnaireAnswers returns the correct answer values for the ASD consent
// quizzes. The positions of the correct options are fixed by the quiz
// definitions.
func (s *Service) QuestionnaireAnswers(bundle *fhir_dto.Bundle, questionnaireID string) []string {
	questionnaire := FindQuestionnaire(bundle, questionnaireID)
	if questionnaire == nil {
		s.Log.Debug("questionnaireService missing questionnaire",
			zap.String(constvars.LoggingQuestionnaireKey, questionnaireID),
		)
		return nil
	}

	if questionnaireID != ppm.QuestionnaireASDIndividualConsent && questionnaireID != ppm.QuestionnaireASDGuardianConsent {
		return nil
	}

	correct := [][2]int{{0, 0}, {1, 0}, {2, 1}, {3, 3}}
	answers := make([]string, 0, len(correct))
	for _, position := range correct {
		item, option := position[0], position[1]
		if item >= len(questionnaire.Item) || option >= len(questionnaire.Item[item].Option) {
			s.Log.Error("questionnaireService quiz shape unexpected",
				zap.String(constvars.LoggingQuestionnaireKey, questionnaireID),
			)
			return nil
		}
		answers = append(answers, questionnaire.Item[item].Option[option].ValueString)
	}
	return answers
}

// FindQuestionnaire returns the Questionnaire with the given ID from the
// bundle, or nil.
func FindQuestionnaire(bundle *fhir_dto.Bundle, questionnaireID string) *fhir_dto.Questionnaire {
	questionnaire, _ := findQuestionnairePair(bundle, questionnaireID)
	return questionnaire
}

func findQuestionnairePair(bundle *fhir_dto.Bundle, questionnaireID string) (*fhir_dto.Questionnaire, *fhir_dto.QuestionnaireResponse) {
	if bundle == nil {
		return nil, nil
	}

	var questionnaire *fhir_dto.Questionnaire
	var questionnaireResponse *fhir_dto.QuestionnaireResponse
	reference := constvars.ResourceQuestionnaire + "/" + questionnaireID

	for _, entry := range bundle.Entry {
		header := entry.Header()
		switch header.ResourceType {
		case constvars.ResourceQuestionnaire:
			if header.ID == questionnaireID && questionnaire == nil {
				resource := new(fhir_dto.Questionnaire)
				if err := json.Unmarshal(entry.Resource, resource); err == nil {
					questionnaire = resource
				}
			}
		case constvars.ResourceQuestionnaireResponse:
			if questionnaireResponse != nil {
				continue
			}
			resource := new(fhir_dto.QuestionnaireResponse)
			if err := json.Unmarshal(entry.Resource, resource); err != nil {
				continue
			}
			if resource.Questionnaire != nil && resource.Questionnaire.Reference == reference {
				questionnaireResponse = resource
			}
		}
	}
	return questionnaire, questionnaireResponse
}

// linkIDOrder parses the numeric suffix of link IDs such as "question-12".
func linkIDOrder(linkID string) int {
	parts := strings.Split(linkID, "-")
	if len(parts) < 2 {
		return 0
	}
	order, _ := strconv.Atoi(parts[1])
	return order
}
