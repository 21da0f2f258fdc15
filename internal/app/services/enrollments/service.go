// Package enrollments manages the administrative Flag tracking where a
// participant is in the enrollment pipeline.
package enrollments

import (
	"context"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"ppm-client/internal/app/contracts"
	"ppm-client/internal/app/services/fhir"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/exceptions"
	"ppm-client/internal/pkg/fhir_dto"
	"ppm-client/internal/ppm"
)

type Service struct {
	FhirClient contracts.FhirClient
	Log        *zap.Logger
}

func NewService(fhirClient contracts.FhirClient, logger *zap.Logger) *Service {
	return &Service{FhirClient: fhirClient, Log: logger}
}

// QueryEnrollmentFlag fetches the enrollment Flag for the patient. Returns
// nil without error when none exists yet.
func (s *Service) QueryEnrollmentFlag(ctx context.Context, patientID string) (*fhir_dto.Flag, error) {
	query := url.Values{}
	query.Set(constvars.ParamSubject, constvars.ResourcePatient+"/"+patientID)

	resources, err := s.FhirClient.QueryResources(ctx, constvars.ResourceFlag, query)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, nil
	}

	flag := new(fhir_dto.Flag)
	if err := json.Unmarshal(resources[0], flag); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return flag, nil
}

// QueryEnrollmentStatus returns the enrollment code carried by the patient's
// Flag, or the empty Enrollment when no flag exists.
func (s *Service) QueryEnrollmentStatus(ctx context.Context, patientID string) (ppm.Enrollment, error) {
	flag, err := s.QueryEnrollmentFlag(ctx, patientID)
	if err != nil {
		return "", err
	}
	if flag == nil || len(flag.Code.Coding) == 0 {
		return "", nil
	}
	enrollment, _ := ppm.EnrollmentFromValue(flag.Code.Coding[0].Code)
	return enrollment, nil
}

// CreateEnrollment creates the enrollment Flag for the patient. An accepted
// status stamps the period start.
func (s *Service) CreateEnrollment(ctx context.Context, patientID string, status ppm.Enrollment) (*fhir_dto.Flag, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("enrollmentService.CreateEnrollment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.String(constvars.LoggingStatusKey, status.Value()),
	)

	var start *time.Time
	if status == ppm.EnrollmentAccepted {
		now := time.Now()
		start = &now
	}

	flag := fhir.NewEnrollmentFlag(constvars.ResourcePatient+"/"+patientID, status, start, nil)

	raw, err := s.FhirClient.CreateResource(ctx, constvars.ResourceFlag, flag)
	if err != nil {
		return nil, err
	}

	created := new(fhir_dto.Flag)
	if err := json.Unmarshal(raw, created); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return created, nil
}

// UpdateEnrollment moves the patient's enrollment Flag to the given status.
// The flag's own active/inactive state and period follow the transition: an
// acceptance stamps a start date, a termination stamps an end date, and
// leaving accepted or entering ineligible clears the period. A missing flag
// is created instead.
func (s *Service) UpdateEnrollment(ctx context.Context, patientID string, status ppm.Enrollment) (*fhir_dto.Flag, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("enrollmentService.UpdateEnrollment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.String(constvars.LoggingStatusKey, status.Value()),
	)

	flag, err := s.QueryEnrollmentFlag(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		s.Log.Error("enrollmentService.UpdateEnrollment flag does not exist yet, creating",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPatientIDKey, patientID),
		)
		return s.CreateEnrollment(ctx, patientID, status)
	}

	code := ""
	if len(flag.Code.Coding) > 0 {
		code = flag.Code.Coding[0].Code
	}
	now := time.Now().Format(time.RFC3339)

	switch {
	case code != ppm.EnrollmentAccepted.Value() && status == ppm.EnrollmentAccepted:
		flag.Status = constvars.FlagStatusActive
		flag.Period = &fhir_dto.Period{Start: now}

	case code != ppm.EnrollmentTerminated.Value() && status == ppm.EnrollmentTerminated:
		flag.Status = constvars.FlagStatusInactive
		if flag.Period == nil {
			flag.Period = &fhir_dto.Period{}
		}
		flag.Period.End = now

	case code == ppm.EnrollmentAccepted.Value() && status != ppm.EnrollmentAccepted:
		flag.Status = constvars.FlagStatusInactive
		flag.Period = nil

	case code != ppm.EnrollmentIneligible.Value() && status == ppm.EnrollmentIneligible:
		flag.Status = constvars.FlagStatusInactive
		flag.Period = nil

	default:
		s.Log.Debug("enrollmentService.UpdateEnrollment unhandled transition",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String("from", code),
			zap.String("to", status.Value()),
		)
	}

	// The coding always follows the requested status.
	if len(flag.Code.Coding) > 0 {
		flag.Code.Coding[0].Code = status.Value()
		flag.Code.Coding[0].Display = status.Title()
	} else {
		flag.Code.Coding = []fhir_dto.Coding{{
			System:  constvars.EnrollmentFlagCodingSystem,
			Code:    status.Value(),
			Display: status.Title(),
		}}
	}
	flag.Code.Text = status.Title()

	if err := s.FhirClient.PutResource(ctx, constvars.ResourceFlag, flag.ID, flag); err != nil {
		return nil, err
	}

	s.Log.Info("enrollmentService.UpdateEnrollment succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.String(constvars.LoggingStatusKey, status.Value()),
	)
	return flag, nil
}
