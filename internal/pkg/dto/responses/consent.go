package responses

// QuestionAnswer pairs a questionnaire question with its rendered answers, in
// questionnaire order.
type QuestionAnswer struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

// ConsentQuestion is one rendered block of a signed consent or assent
// questionnaire. Answer is set for boolean and question blocks only.
type ConsentQuestion struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Answer *bool  `json:"answer,omitempty"`
	Yes    string `json:"yes,omitempty"`
	No     string `json:"no,omitempty"`
}

// ConsentQuestionnaire is the rendering descriptor for one signature
// questionnaire inside a consent composition.
type ConsentQuestionnaire struct {
	Template  string            `json:"template"`
	Questions []ConsentQuestion `json:"questions"`
}

// ConsentComposition is the reconstructed view of a participant's signed
// consent: the composition narrative plus everything referenced from it.
type ConsentComposition struct {
	Type                             string                 `json:"type"`
	DateSigned                       string                 `json:"date_signed"`
	ConsentText                      string                 `json:"consent_text,omitempty"`
	AssentText                       string                 `json:"assent_text,omitempty"`
	Exceptions                       []string               `json:"exceptions,omitempty"`
	AssentExceptions                 []string               `json:"assent_exceptions,omitempty"`
	ParticipantName                  string                 `json:"participant_name"`
	ParticipantAcknowledgement       string                 `json:"participant_acknowledgement,omitempty"`
	ParticipantAcknowledgementReason string                 `json:"participant_acknowledgement_reason,omitempty"`
	SignerName                       string                 `json:"signer_name"`
	SignerRelationship               string                 `json:"signer_relationship"`
	SignerSignature                  string                 `json:"signer_signature"`
	ExplainedSignature               string                 `json:"explained_signature,omitempty"`
	AssentSignature                  string                 `json:"assent_signature,omitempty"`
	AssentDate                       string                 `json:"assent_date,omitempty"`
	ConsentQuestionnaires            []ConsentQuestionnaire `json:"consent_questionnaires,omitempty"`
	AssentQuestionnaires             []ConsentQuestionnaire `json:"assent_questionnaires,omitempty"`
}
