// Package ppm carries the static study, enrollment, and device vocabulary of
// the People-Powered Medicine program.
package ppm

import (
	"regexp"
	"strings"
)

// Choice pairs a coded value with its display title.
type Choice struct {
	Value string
	Title string
}

type Study string

const (
	StudyNEER Study = "neer"
	StudyASD  Study = "autism"
)

// studyAliases maps every accepted spelling of a study to its canonical value.
var studyAliases = map[string]Study{
	"neer":       StudyNEER,
	"ppm-neer":   StudyNEER,
	"autism":     StudyASD,
	"ppm-autism": StudyASD,
	"asd":        StudyASD,
}

func Studies() []Study {
	return []Study{StudyNEER, StudyASD}
}

func (s Study) Value() string {
	return string(s)
}

// Identifier returns the study identifier used in FHIR resources, e.g. "ppm-neer".
func (s Study) Identifier() string {
	return "ppm-" + string(s)
}

func (s Study) Title() string {
	switch s {
	case StudyNEER:
		return "NEER"
	case StudyASD:
		return "Autism"
	}
	return ""
}

// StudyFromValue converts a study value or alias to its Study. The second
// return is false for unrecognized values.
func StudyFromValue(value string) (Study, bool) {
	study, ok := studyAliases[strings.ToLower(value)]
	return study, ok
}

// StudyIdentifiers returns every PPM study identifier used in FHIR resources.
func StudyIdentifiers() []string {
	identifiers := make([]string, 0, len(Studies()))
	for _, study := range Studies() {
		identifiers = append(identifiers, study.Identifier())
	}
	return identifiers
}

// IsPPMStudy reports whether a study identifier belongs to this program.
func IsPPMStudy(identifier string) bool {
	for _, known := range StudyIdentifiers() {
		if strings.ToLower(identifier) == known {
			return true
		}
	}
	return false
}

func StudyChoices() []Choice {
	choices := make([]Choice, 0, len(Studies()))
	for _, study := range Studies() {
		choices = append(choices, Choice{Value: study.Value(), Title: study.Title()})
	}
	return choices
}

type Enrollment string

const (
	EnrollmentRegistered Enrollment = "registered"
	EnrollmentConsented  Enrollment = "consented"
	EnrollmentProposed   Enrollment = "proposed"
	EnrollmentAccepted   Enrollment = "accepted"
	EnrollmentPending    Enrollment = "pending"
	EnrollmentIneligible Enrollment = "ineligible"
	EnrollmentTerminated Enrollment = "terminated"
	EnrollmentCompleted  Enrollment = "completed"
)

func Enrollments() []Enrollment {
	return []Enrollment{
		EnrollmentRegistered,
		EnrollmentConsented,
		EnrollmentProposed,
		EnrollmentAccepted,
		EnrollmentPending,
		EnrollmentIneligible,
		EnrollmentTerminated,
		EnrollmentCompleted,
	}
}

func (e Enrollment) Value() string {
	return string(e)
}

func (e Enrollment) Title() string {
	switch e {
	case EnrollmentIneligible:
		return "Queue"
	case EnrollmentTerminated:
		return "Finished"
	}
	return TitleCase(string(e))
}

func EnrollmentFromValue(value string) (Enrollment, bool) {
	for _, enrollment := range Enrollments() {
		if strings.ToLower(value) == string(enrollment) {
			return enrollment, true
		}
	}
	return "", false
}

func EnrollmentChoices() []Choice {
	choices := make([]Choice, 0, len(Enrollments()))
	for _, enrollment := range Enrollments() {
		choices = append(choices, Choice{Value: enrollment.Value(), Title: enrollment.Title()})
	}
	return choices
}

// TrackedItem identifies a device or sample kit tracked per participant.
type TrackedItem string

// Device is an alias kept for callers still using the older name.
type Device = TrackedItem

const (
	TrackedItemFitbit               TrackedItem = "fitbit"
	TrackedItemSalivaSampleKit      TrackedItem = "spitkit"
	TrackedItemUBiomeFecalSampleKit TrackedItem = "ubiome"
	TrackedItemBloodSampleKit       TrackedItem = "blood"
)

func (t TrackedItem) Value() string {
	return string(t)
}

func (t TrackedItem) Title() string {
	switch t {
	case TrackedItemFitbit:
		return "FitBit"
	case TrackedItemSalivaSampleKit:
		return "Saliva Kit"
	case TrackedItemUBiomeFecalSampleKit:
		return "uBiome"
	case TrackedItemBloodSampleKit:
		return "Blood Sample"
	}
	return ""
}

// Devices returns the tracked item codes for the given study.
func Devices(study Study) []TrackedItem {
	switch study {
	case StudyNEER:
		return []TrackedItem{TrackedItemFitbit, TrackedItemUBiomeFecalSampleKit, TrackedItemBloodSampleKit}
	case StudyASD:
		return []TrackedItem{TrackedItemFitbit, TrackedItemSalivaSampleKit}
	}
	return nil
}

type Communication string

const CommunicationPicnicHealthRegistration Communication = "picnichealth-registration"

func (c Communication) Title() string {
	if c == CommunicationPicnicHealthRegistration {
		return "PicnicHealth Registration"
	}
	return ""
}

// Questionnaire IDs for the per-study registration questionnaires and the
// ASD consent quizzes.
const (
	QuestionnaireNEERRegistration     = "ppm-neer-registration-questionnaire"
	QuestionnaireASDRegistration      = "ppm-asd-questionnaire"
	QuestionnaireASDGuardianConsent   = "ppm-asd-consent-guardian-quiz"
	QuestionnaireASDIndividualConsent = "ppm-asd-consent-individual-quiz"
	ConsentCompositionTypeGuardian    = "GUARDIAN"
	ConsentCompositionTypeIndividual  = "INDIVIDUAL"
)

// QuestionnaireForStudy returns the registration questionnaire ID for a study.
func QuestionnaireForStudy(study Study) string {
	switch study {
	case StudyNEER:
		return QuestionnaireNEERRegistration
	case StudyASD:
		return QuestionnaireASDRegistration
	}
	return ""
}

// QuestionnaireForConsent returns the ASD consent quiz ID matching the
// reconstructed consent composition type.
func QuestionnaireForConsent(compositionType string) string {
	if strings.EqualFold(compositionType, ConsentCompositionTypeGuardian) {
		return QuestionnaireASDGuardianConsent
	}
	return QuestionnaireASDIndividualConsent
}

// DefaultTestEmailPatterns matches the internal test accounts excluded from
// participant listings by default.
var DefaultTestEmailPatterns = []string{
	`(b32147|bryan.n.larson)\+[a-zA-Z0-9_.+-]*@gmail.com`,
	`b32147@gmail.com`,
	`bryan.n.larson@gmail.com`,
	`bryan_larson@hms.harvard.edu`,
}

// IsTester reports whether the email matches any of the configured test
// account patterns. A nil pattern list falls back to the defaults.
func IsTester(patterns []string, email string) bool {
	if patterns == nil {
		patterns = DefaultTestEmailPatterns
	}
	for _, pattern := range patterns {
		// Anchor at the start of the address only.
		matched, err := regexp.MatchString("^(?:"+pattern+")", email)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// TitleCase uppercases the first letter of each space-separated word.
func TitleCase(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
