package fhir

import (
	"time"

	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/dto/requests"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

// Builders for the resources this module creates. Shapes mirror what the
// dashboard and API servers expect to find.

// NewEnrollmentFlag builds the administrative Flag tracking a participant's
// enrollment status.
func NewEnrollmentFlag(patientRef string, status ppm.Enrollment, start, end *time.Time) *fhir_dto.Flag {
	flagStatus := constvars.FlagStatusInactive
	if status == ppm.EnrollmentAccepted {
		flagStatus = constvars.FlagStatusActive
	}

	flag := &fhir_dto.Flag{
		ResourceType: constvars.ResourceFlag,
		Status:       flagStatus,
		Category: &fhir_dto.CodeableConcept{
			Coding: []fhir_dto.Coding{{
				System:  constvars.FlagCategorySystem,
				Code:    constvars.FlagCategoryAdmin,
				Display: constvars.FlagCategoryDisplay,
			}},
			Text: constvars.FlagCategoryDisplay,
		},
		Code: fhir_dto.CodeableConcept{
			Coding: []fhir_dto.Coding{{
				System:  constvars.EnrollmentFlagCodingSystem,
				Code:    status.Value(),
				Display: status.Title(),
			}},
			Text: status.Title(),
		},
		Subject: fhir_dto.Reference{Reference: patientRef},
	}

	if start != nil {
		flag.Period = &fhir_dto.Period{Start: start.Format(time.RFC3339)}
		if end != nil {
			flag.Period.End = end.Format(time.RFC3339)
		}
	}
	return flag
}

// NewPPMResearchStudy builds the ResearchStudy resource for a PPM study. The
// study start dates are fixed program launch dates.
func NewPPMResearchStudy(study ppm.Study) *fhir_dto.ResearchStudy {
	resource := &fhir_dto.ResearchStudy{
		ResourceType: constvars.ResourceResearchStudy,
		ID:           study.Value(),
		Identifier: []fhir_dto.Identifier{{
			System: constvars.ResearchStudyIdentifierSystem,
			Value:  study.Identifier(),
		}},
		Status: "in-progress",
		Title:  "People-Powered Medicine - " + study.Title(),
	}

	switch study {
	case ppm.StudyNEER:
		resource.Period = &fhir_dto.Period{Start: "2018-05-01T00:00:00Z"}
	case ppm.StudyASD:
		resource.Period = &fhir_dto.Period{Start: "2017-07-01T00:00:00Z"}
	}
	return resource
}

// NewPPMResearchSubject builds the ResearchSubject linking a patient to a PPM
// study.
func NewPPMResearchSubject(study ppm.Study, patientRef, status string) *fhir_dto.ResearchSubject {
	return &fhir_dto.ResearchSubject{
		ResourceType: constvars.ResourceResearchSubject,
		Identifier: &fhir_dto.Identifier{
			System: constvars.ResearchSubjectIdentifierSystem,
			Value:  study.Identifier(),
		},
		Period:     &fhir_dto.Period{Start: time.Now().Format(time.RFC3339)},
		Status:     status,
		Study:      fhir_dto.Reference{Reference: constvars.ResourceResearchStudy + "/" + study.Identifier()},
		Individual: fhir_dto.Reference{Reference: patientRef},
	}
}

// NewResearchStudy builds a minimal ResearchStudy for a study outside the
// program that a participant also takes part in.
func NewResearchStudy(title, status string) *fhir_dto.ResearchStudy {
	return &fhir_dto.ResearchStudy{
		ResourceType: constvars.ResourceResearchStudy,
		Title:        title,
		Status:       status,
	}
}

// NewResearchSubject builds a ResearchSubject linking a patient to a study
// outside the program.
func NewResearchSubject(patientRef, studyRef, status string) *fhir_dto.ResearchSubject {
	return &fhir_dto.ResearchSubject{
		ResourceType: constvars.ResourceResearchSubject,
		Status:       status,
		Study:        fhir_dto.Reference{Reference: studyRef},
		Individual:   fhir_dto.Reference{Reference: patientRef},
	}
}

// NewPatient builds a Patient resource from the signup form.
func NewPatient(form *requests.RegistrationForm) *fhir_dto.Patient {
	active := true
	patient := &fhir_dto.Patient{
		ResourceType: constvars.ResourcePatient,
		Active:       &active,
		Identifier: []fhir_dto.Identifier{{
			System: constvars.PatientEmailIdentifierSystem,
			Value:  form.Email,
		}},
		Name: []fhir_dto.HumanName{{
			Use:    "official",
			Family: form.Lastname,
			Given:  []string{form.Firstname},
		}},
		Address: []fhir_dto.Address{{
			Line:       []string{form.StreetAddress1, form.StreetAddress2},
			City:       form.City,
			PostalCode: form.Zip,
			State:      form.State,
		}},
		Telecom: []fhir_dto.ContactPoint{{
			System: constvars.PatientPhoneTelecomSystem,
			Value:  form.Phone,
		}},
	}

	if form.ContactEmail != "" {
		patient.Telecom = append(patient.Telecom, fhir_dto.ContactPoint{
			System: constvars.PatientEmailTelecomSystem,
			Value:  form.ContactEmail,
		})
	}

	if form.HowDidYouHearAboutUs != "" {
		patient.Extension = append(patient.Extension, fhir_dto.Extension{
			Url:         constvars.ExtensionHowDidYouHearAboutUs,
			ValueString: form.HowDidYouHearAboutUs,
		})
	}

	if form.TwitterHandle != "" {
		patient.Telecom = append(patient.Telecom, fhir_dto.ContactPoint{
			System: constvars.PatientTwitterTelecomSystem,
			Value:  constvars.TwitterURLPrefix + form.TwitterHandle,
		})
	}
	return patient
}

// NewPointOfCareList builds the current point of care List for a patient.
func NewPointOfCareList(patientRef string, organizationRefs []string) *fhir_dto.List {
	list := &fhir_dto.List{
		ResourceType: constvars.ResourceList,
		Status:       constvars.ListStatusCurrent,
		Mode:         constvars.ListModeWorking,
		Code: &fhir_dto.CodeableConcept{
			Coding: []fhir_dto.Coding{{
				System: constvars.SNOMEDVersionURI,
				Code:   constvars.SNOMEDLocationCode,
			}},
		},
		Subject: fhir_dto.Reference{Reference: patientRef},
	}
	for _, ref := range organizationRefs {
		list.Entry = append(list.Entry, fhir_dto.ListEntry{Item: fhir_dto.Reference{Reference: ref}})
	}
	return list
}

// NewOrganization builds a minimal Organization with just a name.
func NewOrganization(name string) *fhir_dto.Organization {
	return &fhir_dto.Organization{
		ResourceType: constvars.ResourceOrganization,
		Name:         name,
	}
}
