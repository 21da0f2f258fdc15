package requests

// RegistrationForm carries the participant signup form used to build the
// initial Patient resource.
type RegistrationForm struct {
	Email                string `json:"email" validate:"required,email"`
	Firstname            string `json:"firstname" validate:"required"`
	Lastname             string `json:"lastname" validate:"required"`
	StreetAddress1       string `json:"street_address1"`
	StreetAddress2       string `json:"street_address2"`
	City                 string `json:"city"`
	State                string `json:"state"`
	Zip                  string `json:"zip"`
	Phone                string `json:"phone"`
	ContactEmail         string `json:"contact_email" validate:"omitempty,email"`
	TwitterHandle        string `json:"twitter_handle"`
	HowDidYouHearAboutUs string `json:"how_did_you_hear_about_us"`
}

// PatientUpdateForm carries the subset of patient demographics an update may
// change. Empty fields leave the stored value untouched.
type PatientUpdateForm struct {
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	StreetAddress1 string `json:"street_address1"`
	StreetAddress2 string `json:"street_address2"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
	Phone          string `json:"phone"`
	ContactEmail   string `json:"contact_email" validate:"omitempty,email"`
	Active         *bool  `json:"active"`
}
