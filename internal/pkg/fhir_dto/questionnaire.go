package fhir_dto

type Questionnaire struct {
	ResourceType string              `json:"resourceType"`
	ID           string              `json:"id,omitempty"`
	Status       string              `json:"status,omitempty"`
	Title        string              `json:"title,omitempty"`
	Item         []QuestionnaireItem `json:"item,omitempty"`
}

type QuestionnaireItem struct {
	LinkID     string                        `json:"linkId"`
	Text       string                        `json:"text,omitempty"`
	Type       string                        `json:"type,omitempty"`
	Required   *bool                         `json:"required,omitempty"`
	EnableWhen []QuestionnaireItemEnableWhen `json:"enableWhen,omitempty"`
	Option     []QuestionnaireItemOption     `json:"option,omitempty"`
	Item       []QuestionnaireItem           `json:"item,omitempty"`
}

type QuestionnaireItemEnableWhen struct {
	Question      string `json:"question"`
	AnswerString  string `json:"answerString,omitempty"`
	AnswerBoolean *bool  `json:"answerBoolean,omitempty"`
}

type QuestionnaireItemOption struct {
	ValueString string `json:"valueString,omitempty"`
}
