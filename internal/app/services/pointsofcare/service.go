// Package pointsofcare manages the List of care organizations attached to a
// participant.
package pointsofcare

import (
	"context"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ppm-client/internal/app/contracts"
	"ppm-client/internal/app/services/fhir"
	"ppm-client/internal/app/services/participants"
	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/exceptions"
	"ppm-client/internal/pkg/fhir_dto"
)

type Service struct {
	FhirClient contracts.FhirClient
	Log        *zap.Logger
}

func NewService(fhirClient contracts.FhirClient, logger *zap.Logger) *Service {
	return &Service{FhirClient: fhirClient, Log: logger}
}

// CreateList creates the patient's point of care List alongside the named
// Organizations in one transaction. Organizations are matched by exact name
// to avoid duplicates, and the List itself is guarded by a conditional
// create on patient, code, and status.
func (s *Service) CreateList(ctx context.Context, patientID string, pointsOfCare []string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("pointOfCareService.CreateList called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.Int(constvars.LoggingCountKey, len(pointsOfCare)),
	)

	var entries []fhir_dto.Entry
	var organizationRefs []string

	for _, name := range pointsOfCare {
		organizationURN := uuid.New().URN()

		entry, err := bundleEntry(fhir.NewOrganization(name), &fhir_dto.BundleEntryRequest{
			Method:      constvars.MethodPost,
			URL:         constvars.ResourceOrganization,
			IfNoneExist: constvars.ParamNameExact + "=" + name,
		}, organizationURN)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		organizationRefs = append(organizationRefs, organizationURN)
	}

	list := fhir.NewPointOfCareList(constvars.ResourcePatient+"/"+patientID, organizationRefs)
	listEntry, err := bundleEntry(list, &fhir_dto.BundleEntryRequest{
		Method: constvars.MethodPost,
		URL:    constvars.ResourceList,
		IfNoneExist: constvars.ParamPatient + "=" + patientID +
			"&" + constvars.ParamCode + "=" + constvars.SNOMEDVersionURI + "|" + constvars.SNOMEDLocationCode +
			"&" + constvars.ParamStatus + "=" + constvars.ListStatusCurrent,
	}, "")
	if err != nil {
		return err
	}
	entries = append(entries, listEntry)

	bundle := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
		Entry:        entries,
	}

	_, err = s.FhirClient.PostTransactionBundle(ctx, bundle)
	return err
}

// QueryListBundle fetches the patient's point of care List with its
// Organizations included.
func (s *Service) QueryListBundle(ctx context.Context, patient string) (*fhir_dto.Bundle, error) {
	query, err := participants.PatientResourceQuery(patient, constvars.ParamPatient)
	if err != nil {
		return nil, err
	}
	query.Set(constvars.ParamCode, constvars.SNOMEDVersionURI+"|"+constvars.SNOMEDLocationCode)
	query.Set(constvars.ParamInclude, constvars.IncludeListItem)

	return s.FhirClient.QueryBundle(ctx, constvars.ResourceList, query)
}

// GetList returns the names of the patient's points of care.
func (s *Service) GetList(ctx context.Context, patient string) ([]string, error) {
	bundle, err := s.QueryListBundle(ctx, patient)
	if err != nil {
		return nil, err
	}
	return fhir.FlattenList(s.Log, bundle, constvars.ResourceOrganization), nil
}

// AddPointOfCare appends one organization to the patient's existing List and
// returns the updated names. The organization is reused when one with the
// exact name already exists. Adding a name already on the list is a no-op.
func (s *Service) AddPointOfCare(ctx context.Context, patient, pointOfCare string) ([]string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("pointOfCareService.AddPointOfCare called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patient),
	)

	bundle, err := s.QueryListBundle(ctx, patient)
	if err != nil {
		return nil, err
	}

	pointsOfCare := fhir.FlattenList(s.Log, bundle, constvars.ResourceOrganization)
	for _, name := range pointsOfCare {
		if name == pointOfCare {
			s.Log.Debug("pointOfCareService.AddPointOfCare organization already in list",
				zap.String(constvars.LoggingRequestIDKey, requestID),
			)
			return pointsOfCare, nil
		}
	}

	list, found := fhir.FindListFor(bundle, constvars.ResourceOrganization)
	if !found {
		// Fall back to the bare List when it has no resolvable entries yet.
		raw, ok := fhir.FirstResource(bundle, constvars.ResourceList)
		if !ok {
			return nil, exceptions.ErrNoDataFHIRResource(nil, constvars.ResourceList)
		}
		list = new(fhir_dto.List)
		if err := json.Unmarshal(raw, list); err != nil {
			return nil, exceptions.ErrCannotParseJSON(err)
		}
	}

	transaction := &fhir_dto.Bundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
	}

	// Reuse an existing Organization when one matches by name.
	organizationRef := ""
	query := url.Values{}
	query.Set(constvars.ParamName, pointOfCare)
	existing, err := s.FhirClient.QueryResources(ctx, constvars.ResourceOrganization, query)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		var organization fhir_dto.Organization
		if err := json.Unmarshal(existing[0], &organization); err != nil {
			return nil, exceptions.ErrCannotParseJSON(err)
		}
		organizationRef = constvars.ResourceOrganization + "/" + organization.ID
	} else {
		organizationRef = uuid.New().URN()
		entry, err := bundleEntry(fhir.NewOrganization(pointOfCare), &fhir_dto.BundleEntryRequest{
			Method: constvars.MethodPost,
			URL:    constvars.ResourceOrganization,
		}, organizationRef)
		if err != nil {
			return nil, err
		}
		transaction.Entry = append(transaction.Entry, entry)
	}

	list.Entry = append(list.Entry, fhir_dto.ListEntry{Item: fhir_dto.Reference{Reference: organizationRef}})

	listEntry, err := bundleEntry(list, &fhir_dto.BundleEntryRequest{
		Method: constvars.MethodPut,
		URL:    constvars.ResourceList + "/" + list.ID,
	}, "")
	if err != nil {
		return nil, err
	}
	transaction.Entry = append(transaction.Entry, listEntry)

	if _, err := s.FhirClient.PostTransactionBundle(ctx, transaction); err != nil {
		return nil, err
	}

	return append(pointsOfCare, pointOfCare), nil
}

func bundleEntry(resource interface{}, request *fhir_dto.BundleEntryRequest, fullURL string) (fhir_dto.Entry, error) {
	raw, err := json.Marshal(resource)
	if err != nil {
		return fhir_dto.Entry{}, exceptions.ErrCannotMarshalJSON(err)
	}
	return fhir_dto.Entry{
		FullURL:  fullURL,
		Resource: raw,
		Request:  request,
	}, nil
}
