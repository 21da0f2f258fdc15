package responses

// PatientRecord is the flattened view of a Patient resource. String fields
// default to "" when the source element is absent.
type PatientRecord struct {
	FHIRID               string `json:"fhir_id"`
	PPMID                string `json:"ppm_id"`
	Email                string `json:"email"`
	Active               bool   `json:"active"`
	Firstname            string `json:"firstname"`
	Lastname             string `json:"lastname"`
	StreetAddress1       string `json:"street_address1"`
	StreetAddress2       string `json:"street_address2"`
	City                 string `json:"city"`
	State                string `json:"state"`
	Zip                  string `json:"zip"`
	Phone                string `json:"phone"`
	TwitterHandle        string `json:"twitter_handle"`
	ContactEmail         string `json:"contact_email"`
	HowDidYouHearAboutUs string `json:"how_did_you_hear_about_us"`
	UsesTwitter          bool   `json:"uses_twitter"`
}

// EnrollmentRecord is the flattened view of an enrollment Flag.
type EnrollmentRecord struct {
	Enrollment string `json:"enrollment"`
	Status     string `json:"status"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// StudyRecord is the flattened view of a PPM ResearchSubject.
type StudyRecord struct {
	Study string `json:"study"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ResearchStudyRecord is the flattened view of a non-PPM ResearchStudy a
// participant also takes part in.
type ResearchStudyRecord struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// DocumentReferenceRecord is the flattened view of a DocumentReference and
// its first content attachment.
type DocumentReferenceRecord struct {
	ID          string            `json:"id"`
	Timestamp   string            `json:"timestamp"`
	Date        string            `json:"date"`
	Code        string            `json:"code"`
	Display     string            `json:"display"`
	Title       string            `json:"title"`
	Size        string            `json:"size"`
	Hash        string            `json:"hash"`
	URL         string            `json:"url"`
	Data        string            `json:"data"`
	Patient     string            `json:"patient"`
	PPMID       string            `json:"ppm_id"`
	Identifiers map[string]string `json:"identifiers"`
}

// Participant aggregates every flattened view of one participant's record.
type Participant struct {
	PatientRecord
	Study                  string              `json:"study"`
	Project                string              `json:"project"`
	DateRegistered         string              `json:"date_registered"`
	Enrollment             string              `json:"enrollment"`
	EnrollmentAcceptedDate string              `json:"enrollment_accepted_date"`
	Composition            *ConsentComposition `json:"composition,omitempty"`
	Questionnaire          []QuestionAnswer    `json:"questionnaire,omitempty"`
	PointsOfCare           []string            `json:"points_of_care,omitempty"`
	ResearchStudies        []string            `json:"research_studies,omitempty"`
	ConsentQuiz            []QuestionAnswer    `json:"consent_quiz,omitempty"`
	ConsentQuizAnswers     []string            `json:"consent_quiz_answers,omitempty"`
}

// PatientSummary is one row of the administrative participant listing.
type PatientSummary struct {
	Email          string `json:"email"`
	FHIRID         string `json:"fhir_id"`
	PPMID          string `json:"ppm_id"`
	Enrollment     string `json:"enrollment"`
	Status         string `json:"status"`
	Study          string `json:"study"`
	Project        string `json:"project"`
	DateRegistered string `json:"date_registered"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	TwitterHandle  string `json:"twitter_handle"`
}
