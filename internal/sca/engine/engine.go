// Package engine runs an authorisation step end to end for the orchestrating services:
// approach resolution, chain dispatch, the transactional commit of the new state and the
// status recording.
package engine

import (
	"context"
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/audit"
	"github.com/wso2/xs2a-sca-engine/internal/loggingcontext"
	"github.com/wso2/xs2a-sca-engine/internal/profile"
	"github.com/wso2/xs2a-sca-engine/internal/sca/accesscheck"
	"github.com/wso2/xs2a-sca-engine/internal/sca/approach"
	"github.com/wso2/xs2a-sca-engine/internal/sca/chain"
	"github.com/wso2/xs2a-sca-engine/internal/sca/errormapper"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/validation"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/serviceerror"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores"
	"github.com/wso2/xs2a-sca-engine/internal/system/utils"
)

// Engine bundles the SCA components shared by the consent, payment and account services.
type Engine struct {
	Stores   *stores.StoreRegistry
	Resolver approach.ScaApproachResolver
	Chain    chain.AuthorisationChainResponsibilityService
	Gate     *validation.Gate
	Checker  accesscheck.EndpointAccessChecker
	Profiles profile.Service
	Mapper   errormapper.ErrorMapper
	Requests requestctx.Provider
	Audit    audit.Sink
	Clock    utils.Clock

	logger *log.Logger
}

// New creates an engine. Nil Requests, Audit and Clock fall back to the context provider, a
// no-op sink and the wall clock.
func New(e Engine) *Engine {
	if e.Requests == nil {
		e.Requests = requestctx.NewProvider()
	}
	if e.Audit == nil {
		e.Audit = audit.Nop{}
	}
	if e.Clock == nil {
		e.Clock = utils.SystemClock
	}
	e.logger = log.GetLogger().With(log.String(log.LoggerKeyComponentName, "SCAEngine"))
	return &e
}

// StartAuthorisation creates an authorisation for resource with the resolved approach.
func (e *Engine) StartAuthorisation(ctx context.Context, rec loggingcontext.Recorder, resource model.ResourceSnapshot,
	update model.UpdateData) (*model.AuthorisationResponse, *serviceerror.ServiceError) {
	chosen, err := e.Resolver.ResolveForNewAuthorisation(ctx)
	if err != nil {
		e.logger.Error("Failed to resolve SCA approach", log.String("resourceId", resource.ID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.ConfigurationError, "no SCA approach available")
	}

	return e.dispatch(ctx, rec, &model.ProcessorRequest{
		Kind:       resource.Kind,
		Approach:   chosen,
		Resource:   resource,
		Update:     update,
		InstanceID: e.Requests.InstanceID(ctx),
	})
}

// ContinueAuthorisation applies update to an existing authorisation with its stored approach.
func (e *Engine) ContinueAuthorisation(ctx context.Context, rec loggingcontext.Recorder, resource model.ResourceSnapshot,
	authorisation *model.Authorisation, update model.UpdateData) (*model.AuthorisationResponse, *serviceerror.ServiceError) {
	chosen, err := e.Resolver.ResolveForExistingAuthorisation(ctx, authorisation.ID)
	if err != nil {
		e.logger.Error("Failed to read SCA approach", log.String("authorisationId", authorisation.ID), log.Error(err))
		if errors.Is(err, model.ErrAuthorisationNotFound) {
			return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, "authorisation disappeared")
		}
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to read authorisation")
	}

	return e.dispatch(ctx, rec, &model.ProcessorRequest{
		Kind:          resource.Kind,
		Approach:      chosen,
		Resource:      resource,
		Authorisation: authorisation,
		Update:        update,
		InstanceID:    e.Requests.InstanceID(ctx),
	})
}

// ReadScaStatus returns the status of authorisation. A decoupled authorisation waiting for the
// PSU is polled at the ASPSP first and any change is persisted.
func (e *Engine) ReadScaStatus(ctx context.Context, rec loggingcontext.Recorder, resource model.ResourceSnapshot,
	authorisation *model.Authorisation) (*model.ScaStatusResponse, *serviceerror.ServiceError) {
	if authorisation.ChosenScaApproach != model.ApproachDecoupled ||
		authorisation.ScaStatus != model.ScaStatusScaMethodSelected {
		rec.StoreScaStatus(authorisation.ScaStatus)
		return &model.ScaStatusResponse{ScaStatus: authorisation.ScaStatus}, nil
	}

	resp, svcErr := e.ContinueAuthorisation(ctx, rec, resource, authorisation, model.UpdateData{})
	if svcErr != nil {
		return nil, svcErr
	}
	return &model.ScaStatusResponse{
		ScaStatus:      resp.ScaStatus,
		PsuMessage:     resp.PsuMessage,
		ResourceStatus: resp.ResourceStatus,
	}, nil
}

// ListAuthorisationIDs returns the ids of the authorisations of a resource, oldest first.
func (e *Engine) ListAuthorisationIDs(ctx context.Context, kind model.ResourceKind,
	parentID string) (*model.AuthorisationListResponse, *serviceerror.ServiceError) {
	authorisations, err := e.Stores.Authorisation.ListByParent(ctx, kind, parentID)
	if err != nil {
		e.logger.Error("Failed to list authorisations", log.String("resourceId", parentID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to list authorisations")
	}

	ids := make([]string, 0, len(authorisations))
	for _, a := range authorisations {
		ids = append(ids, a.ID)
	}
	return &model.AuthorisationListResponse{AuthorisationIDs: ids}, nil
}

// AuthorisedPsus returns the PSUs of the authorisations of a resource that completed
// successfully. Authorisations without a PSU identity are skipped.
func (e *Engine) AuthorisedPsus(ctx context.Context, kind model.ResourceKind, parentID string) ([]model.PsuIdData, error) {
	authorisations, err := e.Stores.Authorisation.ListByParent(ctx, kind, parentID)
	if err != nil {
		return nil, err
	}
	var psus []model.PsuIdData
	for _, a := range authorisations {
		if a.ScaStatus.IsSuccessful() && !a.Psu.IsEmpty() {
			psus = append(psus, a.Psu)
		}
	}
	return psus, nil
}

// LoadAuthorisation reads an authorisation. A missing one is returned as nil so that the
// validators report it.
func (e *Engine) LoadAuthorisation(ctx context.Context, authorisationID string) (*model.Authorisation, *serviceerror.ServiceError) {
	authorisation, err := e.Stores.Authorisation.GetAuthorisationByID(ctx, authorisationID)
	if errors.Is(err, model.ErrAuthorisationNotFound) {
		return nil, nil
	}
	if err != nil {
		e.logger.Error("Failed to load authorisation", log.String("authorisationId", authorisationID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to read authorisation")
	}
	return authorisation, nil
}

// ConfirmationCodeAllowed fails with SERVICE_INVALID_405 when a confirmation code is sent to
// an ASPSP that does not request authorisation confirmation.
func (e *Engine) ConfirmationCodeAllowed(ctx context.Context, service tpperror.ServiceType, update model.UpdateData) validation.Rule {
	return func() tpperror.ValidationResult {
		if update.ConfirmationCode == "" {
			return tpperror.Valid()
		}
		settings, err := e.Profiles.GetAspspSettings(ctx, e.Requests.InstanceID(ctx))
		if err != nil {
			e.logger.Error("Failed to read ASPSP settings", log.Error(err))
			return tpperror.InvalidWith(service, codes.InternalServerError)
		}
		if !settings.AuthorisationConfirmationRequestMandated {
			return tpperror.InvalidWith(service, codes.ServiceInvalid405,
				"Authorisation confirmation is not supported")
		}
		return tpperror.Valid()
	}
}

// Validate runs the gate and converts a failure to a ServiceError.
func (e *Engine) Validate(operation string, rules ...validation.Rule) *serviceerror.ServiceError {
	result := e.Gate.Run(operation, rules...)
	if result.IsValid() {
		return nil
	}
	return serviceerror.FromMessageError(result.MessageError())
}

func (e *Engine) dispatch(ctx context.Context, rec loggingcontext.Recorder,
	req *model.ProcessorRequest) (*model.AuthorisationResponse, *serviceerror.ServiceError) {
	resp, err := e.Chain.Apply(ctx, req)
	if err != nil {
		var configErr *chain.ConfigurationError
		if errors.As(err, &configErr) {
			return nil, serviceerror.CustomServiceError(serviceerror.ConfigurationError, "no processor for authorisation stage")
		}
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, "authorisation step failed")
	}
	if resp.Authorisation == nil {
		e.logger.Error("Processor returned no authorisation", log.String("kind", string(req.Kind)))
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, "authorisation step failed")
	}
	if req.Authorisation != nil && !req.Authorisation.ScaStatus.CanTransitionTo(resp.ScaStatus) {
		e.logger.Error("Processor moved SCA status backwards",
			log.String("authorisationId", req.Authorisation.ID),
			log.String("from", string(req.Authorisation.ScaStatus)),
			log.String("to", string(resp.ScaStatus)))
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, "invalid SCA status transition")
	}

	if err := e.Stores.CommitAuthorisation(ctx, resp.Authorisation, req.Resource, resp.ResourceStatus); err != nil {
		e.logger.Error("Failed to persist authorisation", log.String("authorisationId", resp.Authorisation.ID), log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "failed to persist authorisation")
	}

	resourceStatus := req.Resource.Status
	if resp.ResourceStatus != "" {
		resourceStatus = resp.ResourceStatus
	}
	RecordResourceStatus(rec, req.Kind, resourceStatus)
	rec.StoreScaStatus(resp.ScaStatus)

	if resp.ErrorHolder != nil {
		return nil, serviceerror.FromMessageError(resp.ErrorHolder.ToMessageError())
	}
	return toAuthorisationResponse(resp), nil
}

// RecordResourceStatus stores status as a consent or a transaction status depending on kind.
func RecordResourceStatus(rec loggingcontext.Recorder, kind model.ResourceKind, status string) {
	if kind.IsConsent() {
		rec.StoreConsentStatus(status)
		return
	}
	rec.StoreTransactionStatus(status)
}

func toAuthorisationResponse(resp *model.ProcessorResponse) *model.AuthorisationResponse {
	out := &model.AuthorisationResponse{
		AuthorisationID:   resp.Authorisation.ID,
		ScaStatus:         resp.ScaStatus,
		ChosenScaApproach: resp.ChosenApproach,
		PsuMessage:        resp.PsuMessage,
		ScaMethods:        resp.AvailableMethods,
		ChosenScaMethod:   resp.ChosenMethod,
		ChallengeData:     resp.Challenge,
		ResourceStatus:    resp.ResourceStatus,
	}
	if resp.RedirectLink != "" {
		out.Links = &model.Links{ScaRedirect: &model.Href{Href: resp.RedirectLink}}
	}
	return out
}
