package constvars

// FHIR search parameter names.
const (
	ParamID         = "_id"
	ParamCount      = "_count"
	ParamInclude    = "_include"
	ParamRevInclude = "_revinclude"

	ParamActive        = "active"
	ParamCode          = "code"
	ParamIdentifier    = "identifier"
	ParamName          = "name"
	ParamNameExact     = "name:exact"
	ParamPatient       = "patient"
	ParamQuestionnaire = "questionnaire"
	ParamSigner        = "signer"
	ParamSource        = "source"
	ParamStatus        = "status"
	ParamSubject       = "subject"
	ParamTitleExact    = "title:exact"
)

const (
	IncludeAll         = "*"
	IncludeListItem    = "List:item"
	RevIncludeSubjects = "ResearchSubject:individual"
	RevIncludeFlags    = "Flag:subject"
)

// DefaultPageCount is the page size hint sent with every search. The server
// may ignore it.
const DefaultPageCount = "1000"

const LinkRelationNext = "next"

const BundleTypeTransaction = "transaction"
