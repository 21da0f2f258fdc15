package constvars

type contextKey string

// CONTEXT_REQUEST_ID_KEY carries the caller supplied request ID through
// context.Context for log correlation.
const CONTEXT_REQUEST_ID_KEY contextKey = "request_id"

const (
	LoggingRequestIDKey     = "request_id"
	LoggingPatientIDKey     = "patient_id"
	LoggingResourceKey      = "resource"
	LoggingResourceIDKey    = "resource_id"
	LoggingStudyKey         = "study"
	LoggingStatusKey        = "status"
	LoggingQuestionnaireKey = "questionnaire"
	LoggingLinkIDKey        = "link_id"
	LoggingEmailKey         = "email"
	LoggingURLKey           = "url"
	LoggingCountKey         = "count"
	LoggingPageKey          = "page"
	LoggingQueryParamsKey   = "query_params"
)
