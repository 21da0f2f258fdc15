package constvars

const (
	ResourceBundle                = "Bundle"
	ResourcePatient               = "Patient"
	ResourceFlag                  = "Flag"
	ResourceResearchStudy         = "ResearchStudy"
	ResourceResearchSubject       = "ResearchSubject"
	ResourceConsent               = "Consent"
	ResourceComposition           = "Composition"
	ResourceContract              = "Contract"
	ResourceRelatedPerson         = "RelatedPerson"
	ResourceList                  = "List"
	ResourceOrganization          = "Organization"
	ResourceDocumentReference     = "DocumentReference"
	ResourceQuestionnaire         = "Questionnaire"
	ResourceQuestionnaireResponse = "QuestionnaireResponse"
)

// Identifier and coding systems used across PPM resources.
const (
	PatientEmailIdentifierSystem = "http://schema.org/email"
	PatientIdentifierSystem      = "https://peoplepoweredmedicine.org/fhir/patient"

	EnrollmentFlagCodingSystem = "https://peoplepoweredmedicine.org/enrollment-status"

	ResearchStudyIdentifierSystem = "https://peoplepoweredmedicine.org/fhir/study"
	ResearchStudyCodingSystem     = "https://peoplepoweredmedicine.org/study"

	ResearchSubjectIdentifierSystem = "https://peoplepoweredmedicine.org/fhir/subject"
	ResearchSubjectCodingSystem     = "https://peoplepoweredmedicine.org/subject"
)

// Telecom systems used to disambiguate contact points on Patient resources.
const (
	PatientEmailTelecomSystem   = "email"
	PatientPhoneTelecomSystem   = "phone"
	PatientTwitterTelecomSystem = "other"
)

// Patient extension URLs.
const (
	ExtensionHowDidYouHearAboutUs = "https://p2m2.dbmi.hms.harvard.edu/fhir/StructureDefinition/how-did-you-hear-about-us"
	ExtensionUsesTwitter          = "https://p2m2.dbmi.hms.harvard.edu/fhir/StructureDefinition/uses-twitter"
)

// Point of care list codes.
const (
	SNOMEDLocationCode = "SNOMED:43741000"
	SNOMEDVersionURI   = "http://snomed.info/sct/900000000000207008"
)

const (
	FlagCategorySystem  = "http://hl7.org/fhir/flag-category"
	FlagCategoryAdmin   = "admin"
	FlagCategoryDisplay = "Admin"

	FlagStatusActive   = "active"
	FlagStatusInactive = "inactive"
)

const (
	ListStatusCurrent = "current"
	ListModeWorking   = "working"
)

// Consent signature questionnaire references, used to identify which step of
// the e-consent flow a Contract's bindingReference resolves to.
const (
	QuestionnaireRefIndividualSignature = "Questionnaire/individual-signature-part-1"
	QuestionnaireRefNEERSignature       = "Questionnaire/neer-signature"
	QuestionnaireRefGuardianSignature1  = "Questionnaire/guardian-signature-part-1"
	QuestionnaireRefGuardianSignature2  = "Questionnaire/guardian-signature-part-2"
	QuestionnaireRefGuardianSignature3  = "Questionnaire/guardian-signature-part-3"
)

const (
	TwitterURLPrefix = "https://twitter.com/"
)
