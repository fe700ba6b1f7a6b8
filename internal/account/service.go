package account

import (
	"context"
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/account/model"
	"github.com/wso2/xs2a-sca-engine/internal/audit"
	consentmodel "github.com/wso2/xs2a-sca-engine/internal/consent/model"
	"github.com/wso2/xs2a-sca-engine/internal/consent/validator"
	"github.com/wso2/xs2a-sca-engine/internal/loggingcontext"
	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/serviceerror"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// AccountService reads account data under an AIS consent
type AccountService interface {
	GetAccountDetails(ctx context.Context, rec loggingcontext.Recorder, consentID,
		accountID string) (*model.AccountDetailsResponse, *serviceerror.ServiceError)
}

type accountService struct {
	engine    *engine.Engine
	connector spi.AccountConnector
	logger    *log.Logger
}

func newAccountService(e *engine.Engine, connector spi.AccountConnector) AccountService {
	return &accountService{
		engine:    e,
		connector: connector,
		logger:    log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AccountService")),
	}
}

// GetAccountDetails reads an account after checking that the consent is valid and grants
// access to it.
func (s *accountService) GetAccountDetails(ctx context.Context, rec loggingcontext.Recorder, consentID,
	accountID string) (*model.AccountDetailsResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, audit.EventGetAccountDetails, map[string]string{
		"consentId": consentID,
		"accountId": accountID,
	})

	consent, err := s.engine.Stores.Consent.GetByID(ctx, consentID)
	if errors.Is(err, consentmodel.ErrConsentNotFound) {
		consent = nil
	} else if err != nil {
		s.logger.Error("Failed to load consent", log.String("consentId", consentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to read consent")
	}

	service := scamodel.KindAISConsent.Service()
	if svcErr := s.engine.Validate("GetAccountDetails",
		validator.ConsentExists(service, consent, scamodel.KindAISConsent),
		validator.ConsentOwnedBy(service, consent, s.engine.Requests.TppID(ctx)),
		validator.ConsentNotExpired(service, consent, s.engine.Clock()),
		validator.ConsentValid(service, consent),
		validator.AccountAccessible(service, consent, accountID),
	); svcErr != nil {
		return nil, svcErr
	}
	rec.StoreConsentStatus(consent.Status)

	details, err := s.connector.RequestAccountDetails(ctx, consentID, accountID)
	if err != nil {
		holder := s.engine.Mapper.MapToErrorHolder(err, service)
		s.logger.Info("Account details request failed",
			log.String("consentId", consentID),
			log.String("errorType", holder.ErrorType.String()),
			log.Error(err))
		return nil, serviceerror.FromMessageError(holder.ToMessageError())
	}

	return &model.AccountDetailsResponse{Account: *details}, nil
}
