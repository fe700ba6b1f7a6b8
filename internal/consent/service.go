package consent

import (
	"context"
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/audit"
	"github.com/wso2/xs2a-sca-engine/internal/consent/model"
	"github.com/wso2/xs2a-sca-engine/internal/consent/validator"
	"github.com/wso2/xs2a-sca-engine/internal/loggingcontext"
	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/validation"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/serviceerror"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// ConsentService defines the SCA operations on AIS and PIIS consents
type ConsentService interface {
	CreateConsentAuthorisation(ctx context.Context, rec loggingcontext.Recorder, kind scamodel.ResourceKind,
		consentID string, update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError)
	UpdateConsentPsuData(ctx context.Context, rec loggingcontext.Recorder, kind scamodel.ResourceKind,
		consentID, authorisationID string, update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError)
	GetConsentAuthorisationScaStatus(ctx context.Context, rec loggingcontext.Recorder, kind scamodel.ResourceKind,
		consentID, authorisationID string) (*scamodel.ScaStatusResponse, *serviceerror.ServiceError)
	GetConsentAuthorisations(ctx context.Context, kind scamodel.ResourceKind,
		consentID string) (*scamodel.AuthorisationListResponse, *serviceerror.ServiceError)
	GetConsentStatus(ctx context.Context, rec loggingcontext.Recorder, kind scamodel.ResourceKind,
		consentID string) (*model.ConsentStatusResponse, *serviceerror.ServiceError)
}

// consentService implements ConsentService
type consentService struct {
	engine    *engine.Engine
	connector spi.ConsentConnector
	logger    *log.Logger
}

// newConsentService creates a new consent service
func newConsentService(e *engine.Engine, connector spi.ConsentConnector) ConsentService {
	return &consentService{
		engine:    e,
		connector: connector,
		logger:    log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentService")),
	}
}

// CreateConsentAuthorisation starts an authorisation of the consent
func (s *consentService) CreateConsentAuthorisation(ctx context.Context, rec loggingcontext.Recorder,
	kind scamodel.ResourceKind, consentID string,
	update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, audit.EventCreateConsentAuthorisation, map[string]string{"consentId": consentID})

	consent, svcErr := s.loadConsent(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}

	service := kind.Service()
	if svcErr := s.engine.Validate("CreateConsentAuthorisation",
		validator.ConsentExists(service, consent, kind),
		validator.ConsentOwnedBy(service, consent, s.engine.Requests.TppID(ctx)),
		validator.ConsentNotExpired(service, consent, s.engine.Clock()),
		validator.ConsentNotFinal(service, consent),
		validator.ConsentAcceptsAuthorisation(service, consent),
		validator.PsuAllowed(service, consent, update.Psu),
	); svcErr != nil {
		return nil, svcErr
	}

	snapshot, svcErr := s.snapshot(ctx, consent)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.engine.StartAuthorisation(ctx, rec, snapshot, update)
}

// UpdateConsentPsuData moves an authorisation of the consent one step forward
func (s *consentService) UpdateConsentPsuData(ctx context.Context, rec loggingcontext.Recorder,
	kind scamodel.ResourceKind, consentID, authorisationID string,
	update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, audit.EventUpdateConsentPsuData, map[string]string{
		"consentId":       consentID,
		"authorisationId": authorisationID,
	})

	consent, svcErr := s.loadConsent(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	authorisation, svcErr := s.engine.LoadAuthorisation(ctx, authorisationID)
	if svcErr != nil {
		return nil, svcErr
	}

	service := kind.Service()
	if svcErr := s.engine.Validate("UpdateConsentPsuData",
		validator.ConsentExists(service, consent, kind),
		validator.ConsentOwnedBy(service, consent, s.engine.Requests.TppID(ctx)),
		validation.AuthorisationBelongsTo(service, authorisation, consentID, kind, codes.ResourceUnknown403),
		validator.ConsentNotExpired(service, consent, s.engine.Clock()),
		validator.ConsentNotFinal(service, consent),
		validation.AuthorisationNotFinal(service, authorisation),
		validation.EndpointAccessible(ctx, s.engine.Checker, service, authorisationID, update.ConfirmationCode != ""),
		validation.AuthorisationPsuMatches(service, authorisation, update.Psu),
		validator.UpdatePsuAllowed(service, consent, authorisation, update.Psu),
		s.engine.ConfirmationCodeAllowed(ctx, service, update),
		validation.UpdatePayload(service, authorisation, update),
	); svcErr != nil {
		return nil, svcErr
	}

	snapshot, svcErr := s.snapshot(ctx, consent)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.engine.ContinueAuthorisation(ctx, rec, snapshot, authorisation, update)
}

// GetConsentAuthorisationScaStatus returns the SCA status of an authorisation of the consent
func (s *consentService) GetConsentAuthorisationScaStatus(ctx context.Context, rec loggingcontext.Recorder,
	kind scamodel.ResourceKind, consentID, authorisationID string) (*scamodel.ScaStatusResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, audit.EventGetConsentScaStatus, map[string]string{
		"consentId":       consentID,
		"authorisationId": authorisationID,
	})

	consent, svcErr := s.loadConsent(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	authorisation, svcErr := s.engine.LoadAuthorisation(ctx, authorisationID)
	if svcErr != nil {
		return nil, svcErr
	}

	service := kind.Service()
	if svcErr := s.engine.Validate("GetConsentAuthorisationScaStatus",
		validator.ConsentExists(service, consent, kind),
		validator.ConsentOwnedBy(service, consent, s.engine.Requests.TppID(ctx)),
		validation.AuthorisationBelongsTo(service, authorisation, consentID, kind, codes.ResourceUnknown404),
	); svcErr != nil {
		return nil, svcErr
	}

	rec.StoreConsentStatus(consent.Status)
	snapshot, svcErr := s.snapshot(ctx, consent)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.engine.ReadScaStatus(ctx, rec, snapshot, authorisation)
}

// GetConsentAuthorisations lists the authorisation ids of the consent
func (s *consentService) GetConsentAuthorisations(ctx context.Context, kind scamodel.ResourceKind,
	consentID string) (*scamodel.AuthorisationListResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, audit.EventGetConsentAuthorisations, map[string]string{"consentId": consentID})

	consent, svcErr := s.loadConsent(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}

	service := kind.Service()
	if svcErr := s.engine.Validate("GetConsentAuthorisations",
		validator.ConsentExists(service, consent, kind),
		validator.ConsentOwnedBy(service, consent, s.engine.Requests.TppID(ctx)),
	); svcErr != nil {
		return nil, svcErr
	}

	return s.engine.ListAuthorisationIDs(ctx, kind, consentID)
}

// GetConsentStatus returns the consent status. Consents still awaiting authorisation are
// refreshed from the ASPSP, and consents past their validity date are expired.
func (s *consentService) GetConsentStatus(ctx context.Context, rec loggingcontext.Recorder,
	kind scamodel.ResourceKind, consentID string) (*model.ConsentStatusResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, audit.EventGetConsentStatus, map[string]string{"consentId": consentID})

	consent, svcErr := s.loadConsent(ctx, consentID)
	if svcErr != nil {
		return nil, svcErr
	}

	service := kind.Service()
	if svcErr := s.engine.Validate("GetConsentStatus",
		validator.ConsentExists(service, consent, kind),
		validator.ConsentOwnedBy(service, consent, s.engine.Requests.TppID(ctx)),
	); svcErr != nil {
		return nil, svcErr
	}

	status := consent.Status
	reason := ""
	switch {
	case scamodel.IsFinalConsentStatus(status):
	case consent.IsExpired(s.engine.Clock()):
		status, reason = scamodel.ConsentStatusExpired, "validity date passed"
	case status == scamodel.ConsentStatusReceived || status == scamodel.ConsentStatusPartiallyAuthorised:
		reported, err := s.connector.GetConsentStatus(ctx, kind, consentID)
		if err != nil {
			holder := s.engine.Mapper.MapToErrorHolder(err, service)
			return nil, serviceerror.FromMessageError(holder.ToMessageError())
		}
		if reported != "" {
			status, reason = reported, "reported by ASPSP"
		}
	}

	if status != consent.Status {
		if err := s.engine.Stores.UpdateResourceStatus(ctx, consent.Snapshot(nil), status, reason); err != nil {
			s.logger.Error("Failed to update consent status", log.String("consentId", consentID), log.Error(err))
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to update consent status")
		}
	}

	rec.StoreConsentStatus(status)
	return &model.ConsentStatusResponse{ConsentStatus: status}, nil
}

// loadConsent reads a consent. A missing consent is returned as nil so that the validators
// report it.
func (s *consentService) loadConsent(ctx context.Context, consentID string) (*model.Consent, *serviceerror.ServiceError) {
	consent, err := s.engine.Stores.Consent.GetByID(ctx, consentID)
	if errors.Is(err, model.ErrConsentNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to load consent", log.String("consentId", consentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to read consent")
	}
	return consent, nil
}

func (s *consentService) snapshot(ctx context.Context, consent *model.Consent) (scamodel.ResourceSnapshot, *serviceerror.ServiceError) {
	var authorised []scamodel.PsuIdData
	if consent.MultilevelScaRequired {
		psus, err := s.engine.AuthorisedPsus(ctx, consent.Kind, consent.ConsentID)
		if err != nil {
			s.logger.Error("Failed to read authorised PSUs", log.String("consentId", consent.ConsentID), log.Error(err))
			return scamodel.ResourceSnapshot{}, serviceerror.CustomServiceError(serviceerror.DatabaseError,
				"failed to read authorisations")
		}
		authorised = psus
	}
	return consent.Snapshot(authorised), nil
}
