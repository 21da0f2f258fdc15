package utils

import "regexp"

var (
	fhirIDRegex = regexp.MustCompile(`^\d+$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
)

// IsFHIRID reports whether the value looks like a numeric FHIR logical ID.
func IsFHIRID(value string) bool {
	return fhirIDRegex.MatchString(value)
}

// IsEmail reports whether the value looks like an email address.
func IsEmail(value string) bool {
	return emailRegex.MatchString(value)
}
