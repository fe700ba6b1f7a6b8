package payment

import (
	"context"
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/audit"
	"github.com/wso2/xs2a-sca-engine/internal/loggingcontext"
	"github.com/wso2/xs2a-sca-engine/internal/payment/model"
	"github.com/wso2/xs2a-sca-engine/internal/payment/validator"
	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/validation"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/serviceerror"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// PaymentPath identifies a payment the way the request path does.
type PaymentPath struct {
	PaymentService string `json:"paymentService"`
	PaymentProduct string `json:"paymentProduct"`
	PaymentID      string `json:"paymentId"`
}

// PaymentService defines the SCA operations on payment initiations and their cancellations
type PaymentService interface {
	CreatePisAuthorisation(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
		update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError)
	UpdatePisPsuData(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath, authorisationID string,
		update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError)
	GetPisAuthorisationScaStatus(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
		authorisationID string) (*scamodel.ScaStatusResponse, *serviceerror.ServiceError)
	GetPisAuthorisations(ctx context.Context, path PaymentPath) (*scamodel.AuthorisationListResponse, *serviceerror.ServiceError)

	CreatePisCancellationAuthorisation(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
		update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError)
	UpdatePisCancellationPsuData(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath, authorisationID string,
		update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError)
	GetPisCancellationAuthorisationScaStatus(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
		authorisationID string) (*scamodel.ScaStatusResponse, *serviceerror.ServiceError)
	GetPisCancellationAuthorisations(ctx context.Context, path PaymentPath) (*scamodel.AuthorisationListResponse, *serviceerror.ServiceError)
}

// flow holds what differs between the initiation and the cancellation authorisations.
type flow struct {
	kind        scamodel.ResourceKind
	createEvent audit.EventType
	updateEvent audit.EventType
	statusEvent audit.EventType
	listEvent   audit.EventType
}

var (
	initiation = flow{
		kind:        scamodel.KindPayment,
		createEvent: audit.EventCreatePisAuthorisation,
		updateEvent: audit.EventUpdatePisPsuData,
		statusEvent: audit.EventGetPisScaStatus,
		listEvent:   audit.EventGetPisAuthorisations,
	}
	cancellation = flow{
		kind:        scamodel.KindPaymentCancellation,
		createEvent: audit.EventCreatePisCancellationAuth,
		updateEvent: audit.EventUpdatePisCancellationPsuData,
		statusEvent: audit.EventGetPisCancellationScaStatus,
		listEvent:   audit.EventGetPisCancellationAuthorisation,
	}
)

// paymentService implements PaymentService
type paymentService struct {
	engine *engine.Engine
	logger *log.Logger
}

// newPaymentService creates a new payment service
func newPaymentService(e *engine.Engine) PaymentService {
	return &paymentService{
		engine: e,
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "PaymentService")),
	}
}

func (s *paymentService) CreatePisAuthorisation(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
	update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	return s.create(ctx, rec, initiation, path, update)
}

func (s *paymentService) UpdatePisPsuData(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
	authorisationID string, update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	return s.update(ctx, rec, initiation, path, authorisationID, update)
}

func (s *paymentService) GetPisAuthorisationScaStatus(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
	authorisationID string) (*scamodel.ScaStatusResponse, *serviceerror.ServiceError) {
	return s.scaStatus(ctx, rec, initiation, path, authorisationID)
}

func (s *paymentService) GetPisAuthorisations(ctx context.Context,
	path PaymentPath) (*scamodel.AuthorisationListResponse, *serviceerror.ServiceError) {
	return s.list(ctx, initiation, path)
}

func (s *paymentService) CreatePisCancellationAuthorisation(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
	update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	return s.create(ctx, rec, cancellation, path, update)
}

func (s *paymentService) UpdatePisCancellationPsuData(ctx context.Context, rec loggingcontext.Recorder, path PaymentPath,
	authorisationID string, update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	return s.update(ctx, rec, cancellation, path, authorisationID, update)
}

func (s *paymentService) GetPisCancellationAuthorisationScaStatus(ctx context.Context, rec loggingcontext.Recorder,
	path PaymentPath, authorisationID string) (*scamodel.ScaStatusResponse, *serviceerror.ServiceError) {
	return s.scaStatus(ctx, rec, cancellation, path, authorisationID)
}

func (s *paymentService) GetPisCancellationAuthorisations(ctx context.Context,
	path PaymentPath) (*scamodel.AuthorisationListResponse, *serviceerror.ServiceError) {
	return s.list(ctx, cancellation, path)
}

// create starts an authorisation. Initiations need a RCVD or PATC payment; cancellations
// need a cancellable payment that has not reached a final status.
func (s *paymentService) create(ctx context.Context, rec loggingcontext.Recorder, f flow, path PaymentPath,
	update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, f.createEvent, path)

	payment, svcErr := s.loadPayment(ctx, path.PaymentID)
	if svcErr != nil {
		return nil, svcErr
	}

	service := f.kind.Service()
	rules := s.paymentRules(ctx, f, payment, path, codes.ResourceUnknown403)
	if f.kind == scamodel.KindPaymentCancellation {
		rules = append(rules,
			validator.CancellationAllowed(service, payment),
			validator.PaymentNotFinal(service, payment))
	} else {
		rules = append(rules, validator.PaymentAcceptsAuthorisation(service, payment))
	}
	rules = append(rules, validator.PsuAllowed(service, payment, update.Psu))

	if svcErr := s.engine.Validate(string(f.createEvent), rules...); svcErr != nil {
		return nil, svcErr
	}

	snapshot, svcErr := s.snapshot(ctx, f, payment)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.engine.StartAuthorisation(ctx, rec, snapshot, update)
}

func (s *paymentService) update(ctx context.Context, rec loggingcontext.Recorder, f flow, path PaymentPath,
	authorisationID string, update scamodel.UpdateData) (*scamodel.AuthorisationResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, f.updateEvent, map[string]string{
		"paymentId":       path.PaymentID,
		"authorisationId": authorisationID,
	})

	payment, svcErr := s.loadPayment(ctx, path.PaymentID)
	if svcErr != nil {
		return nil, svcErr
	}
	authorisation, svcErr := s.engine.LoadAuthorisation(ctx, authorisationID)
	if svcErr != nil {
		return nil, svcErr
	}

	service := f.kind.Service()
	rules := s.paymentRules(ctx, f, payment, path, codes.ResourceUnknown403)
	rules = append(rules,
		validation.AuthorisationBelongsTo(service, authorisation, path.PaymentID, f.kind, codes.ResourceUnknown403),
		validator.PaymentNotFinal(service, payment),
		validation.AuthorisationNotFinal(service, authorisation),
		validation.EndpointAccessible(ctx, s.engine.Checker, service, authorisationID, update.ConfirmationCode != ""),
		validation.AuthorisationPsuMatches(service, authorisation, update.Psu),
		validator.UpdatePsuAllowed(service, payment, authorisation, update.Psu),
		s.engine.ConfirmationCodeAllowed(ctx, service, update),
		validation.UpdatePayload(service, authorisation, update),
	)
	if svcErr := s.engine.Validate(string(f.updateEvent), rules...); svcErr != nil {
		return nil, svcErr
	}

	snapshot, svcErr := s.snapshot(ctx, f, payment)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.engine.ContinueAuthorisation(ctx, rec, snapshot, authorisation, update)
}

func (s *paymentService) scaStatus(ctx context.Context, rec loggingcontext.Recorder, f flow, path PaymentPath,
	authorisationID string) (*scamodel.ScaStatusResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, f.statusEvent, map[string]string{
		"paymentId":       path.PaymentID,
		"authorisationId": authorisationID,
	})

	payment, svcErr := s.loadPayment(ctx, path.PaymentID)
	if svcErr != nil {
		return nil, svcErr
	}
	authorisation, svcErr := s.engine.LoadAuthorisation(ctx, authorisationID)
	if svcErr != nil {
		return nil, svcErr
	}

	rules := s.paymentRules(ctx, f, payment, path, codes.ResourceUnknown404)
	rules = append(rules, validation.AuthorisationBelongsTo(f.kind.Service(), authorisation, path.PaymentID, f.kind,
		codes.ResourceUnknown404))
	if svcErr := s.engine.Validate(string(f.statusEvent), rules...); svcErr != nil {
		return nil, svcErr
	}

	rec.StoreTransactionStatus(payment.TransactionStatus)
	snapshot, svcErr := s.snapshot(ctx, f, payment)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.engine.ReadScaStatus(ctx, rec, snapshot, authorisation)
}

func (s *paymentService) list(ctx context.Context, f flow,
	path PaymentPath) (*scamodel.AuthorisationListResponse, *serviceerror.ServiceError) {
	s.engine.Audit.RecordRequest(ctx, f.listEvent, path)

	payment, svcErr := s.loadPayment(ctx, path.PaymentID)
	if svcErr != nil {
		return nil, svcErr
	}
	if svcErr := s.engine.Validate(string(f.listEvent),
		s.paymentRules(ctx, f, payment, path, codes.ResourceUnknown404)...); svcErr != nil {
		return nil, svcErr
	}

	return s.engine.ListAuthorisationIDs(ctx, f.kind, path.PaymentID)
}

// paymentRules are the checks every payment operation starts with.
func (s *paymentService) paymentRules(ctx context.Context, f flow, payment *model.Payment, path PaymentPath,
	notFound codes.MessageErrorCode) []validation.Rule {
	service := f.kind.Service()
	return []validation.Rule{
		validator.PaymentExists(service, payment, notFound),
		validator.PaymentOwnedBy(service, payment, s.engine.Requests.TppID(ctx)),
		validator.PaymentMatchesPath(service, payment, path.PaymentService, path.PaymentProduct),
	}
}

// loadPayment reads a payment. A missing payment is returned as nil so that the validators
// report it.
func (s *paymentService) loadPayment(ctx context.Context, paymentID string) (*model.Payment, *serviceerror.ServiceError) {
	payment, err := s.engine.Stores.Payment.GetByID(ctx, paymentID)
	if errors.Is(err, model.ErrPaymentNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to load payment", log.String("paymentId", paymentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to read payment")
	}
	return payment, nil
}

func (s *paymentService) snapshot(ctx context.Context, f flow, payment *model.Payment) (scamodel.ResourceSnapshot, *serviceerror.ServiceError) {
	var authorised []scamodel.PsuIdData
	if payment.MultilevelScaRequired {
		psus, err := s.engine.AuthorisedPsus(ctx, f.kind, payment.PaymentID)
		if err != nil {
			s.logger.Error("Failed to read authorised PSUs", log.String("paymentId", payment.PaymentID), log.Error(err))
			return scamodel.ResourceSnapshot{}, serviceerror.CustomServiceError(serviceerror.DatabaseError,
				"failed to read authorisations")
		}
		authorised = psus
	}
	return payment.Snapshot(f.kind, authorised), nil
}
