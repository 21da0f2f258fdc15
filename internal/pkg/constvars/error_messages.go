package constvars

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "cannot process request, please try again later"
	ErrClientSomethingWrongWithApplication = "something is wrong with the application, please try again later"
	ErrClientResourceNotFound              = "the requested record could not be found"
)

// Error messages for developers
const (
	ErrDevCreateHTTPRequest = "Failed to create HTTP request"
	ErrDevSendHTTPRequest   = "Failed to send HTTP request"
	ErrDevReadResponseBody  = "Failed to read response body"

	ErrDevCannotMarshalJSON = "Failed to marshal data to JSON"
	ErrDevCannotParseJSON   = "Failed to parse JSON data"
	ErrDevCannotParseDate   = "Failed to parse date value"

	ErrDevValidationFailed = "Request input validation failed"

	ErrDevFHIRCreateResource  = "Failed to create FHIR resource: %s"
	ErrDevFHIRGetResource     = "Failed to get FHIR resource: %s"
	ErrDevFHIRUpdateResource  = "Failed to update FHIR resource: %s"
	ErrDevFHIRDeleteResource  = "Failed to delete FHIR resource: %s"
	ErrDevFHIRDecodeResponse  = "Failed to decode FHIR response for resource: %s"
	ErrDevFHIRNoDataResource  = "No data found for FHIR resource: %s"
	ErrDevFHIRPostTransaction = "Failed to post FHIR transaction bundle"

	ErrDevUnknownPatientIdentifier = "Unhandled form of Patient identifier"

	ErrDevInvalidInput = "Invalid input"

	ResponseUnknown = "unknown"
)
