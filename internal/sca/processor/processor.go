// Package processor implements the steps of the SCA state machine. Each processor serves one
// resource kind and approach for a group of authorisation stages, calls the bank connector and
// returns the new authorisation state without persisting it.
package processor

import (
	"context"
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/profile"
	"github.com/wso2/xs2a-sca-engine/internal/sca/errormapper"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/utils"
)

// Stage is the point of the flow a processor serves: StageStart for creation, otherwise the
// current SCA status of the authorisation.
type Stage string

// StageStart is the stage of a request that creates an authorisation.
const StageStart Stage = "start"

// StageOf returns the stage of an existing authorisation.
func StageOf(status model.ScaStatus) Stage {
	return Stage(status)
}

// StageOfRequest returns StageStart when the request carries no authorisation.
func StageOfRequest(req *model.ProcessorRequest) Stage {
	if req.Authorisation == nil {
		return StageStart
	}
	return StageOf(req.Authorisation.ScaStatus)
}

// ErrMissingAuthorisation is returned when an update stage is dispatched without an
// authorisation.
var ErrMissingAuthorisation = errors.New("processor requires an existing authorisation")

// Processor is one step of the SCA state machine.
type Processor interface {
	Name() string
	Kind() model.ResourceKind
	Approach() model.ScaApproach
	Stages() []Stage
	Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error)
}

// Deps are the collaborators shared by all processors.
type Deps struct {
	Connector spi.AuthorisationConnector
	Mapper    errormapper.ErrorMapper
	Profiles  profile.Service
	Clock     utils.Clock
}

type base struct {
	name     string
	kind     model.ResourceKind
	approach model.ScaApproach
	stages   []Stage
	deps     Deps
	logger   *log.Logger
}

func newBase(name string, kind model.ResourceKind, approach model.ScaApproach, deps Deps, stages ...Stage) base {
	if deps.Clock == nil {
		deps.Clock = utils.SystemClock
	}
	return base{
		name:     name,
		kind:     kind,
		approach: approach,
		stages:   stages,
		deps:     deps,
		logger: log.GetLogger().With(
			log.String(log.LoggerKeyComponentName, "AuthorisationProcessor"),
			log.String("processor", name),
			log.String("kind", string(kind))),
	}
}

func (b *base) Name() string { return b.name }
func (b *base) Kind() model.ResourceKind { return b.kind }
func (b *base) Approach() model.ScaApproach { return b.approach }
func (b *base) Stages() []Stage { return append([]Stage(nil), b.stages...) }

func (b *base) now() int64 {
	return b.deps.Clock().UnixMilli()
}

// newAuthorisation builds the authorisation a start processor creates.
func (b *base) newAuthorisation(req *model.ProcessorRequest, status model.ScaStatus) *model.Authorisation {
	now := b.now()
	return &model.Authorisation{
		ID:                utils.GenerateUUID(),
		ParentID:          req.Resource.ID,
		Kind:              b.kind,
		Psu:               req.Update.Psu,
		ScaStatus:         status,
		ChosenScaApproach: b.approach,
		InstanceID:        req.InstanceID,
		CreatedTime:       now,
		UpdatedTime:       now,
	}
}

// current returns a working copy of the request's authorisation with the PSU filled in from
// the update when it was not known yet.
func (b *base) current(req *model.ProcessorRequest) (*model.Authorisation, error) {
	if req.Authorisation == nil {
		return nil, ErrMissingAuthorisation
	}
	auth := *req.Authorisation
	auth.AvailableMethods = append([]model.AuthenticationObject(nil), req.Authorisation.AvailableMethods...)
	if auth.Psu.IsEmpty() {
		auth.Psu = req.Update.Psu
	}
	return &auth, nil
}

func (b *base) spiContext(auth *model.Authorisation, req *model.ProcessorRequest) spi.AuthorisationContext {
	return spi.AuthorisationContext{
		Kind:            b.kind,
		ResourceID:      auth.ParentID,
		AuthorisationID: auth.ID,
		Psu:             auth.Psu,
		InstanceID:      req.InstanceID,
	}
}

// respond moves auth to status and builds the response around it.
func (b *base) respond(auth *model.Authorisation, status model.ScaStatus) *model.ProcessorResponse {
	auth.ScaStatus = status
	auth.UpdatedTime = b.now()
	return &model.ProcessorResponse{
		Authorisation:  auth,
		ScaStatus:      status,
		ChosenApproach: auth.ChosenScaApproach,
	}
}

// fail maps a connector failure and moves the authorisation to FAILED.
func (b *base) fail(auth *model.Authorisation, failure error) *model.ProcessorResponse {
	holder := b.deps.Mapper.MapToErrorHolder(failure, b.kind.Service())
	b.logger.Info("Authorisation failed at the ASPSP",
		log.String("authorisationId", auth.ID),
		log.String("errorType", holder.ErrorType.String()),
		log.Error(failure))

	resp := b.respond(auth, model.ScaStatusFailed)
	resp.ErrorHolder = holder
	resp.ResourceStatus = failureStatus(b.kind)
	return resp
}

// succeed moves the authorisation to a successful final status and sets the parent status.
func (b *base) succeed(auth *model.Authorisation, req *model.ProcessorRequest, status model.ScaStatus,
	reportedStatus string) *model.ProcessorResponse {
	resp := b.respond(auth, status)
	resp.ResourceStatus = successStatus(b.kind, req, auth.Psu, reportedStatus)
	return resp
}

// notConfirmed is reported when the ASPSP answers a confirmation without an error but does
// not confirm it.
func notConfirmed() error {
	return spi.NewFailure(codes.ScaInvalid, "")
}

// partial reports whether listed PSUs other than psu still have to authorise a multilevel
// resource.
func partial(req *model.ProcessorRequest, psu model.PsuIdData) bool {
	r := req.Resource
	return r.MultilevelScaRequired && r.CoveredPsuCount(psu) < len(r.PsuIDs)
}

func successStatus(kind model.ResourceKind, req *model.ProcessorRequest, psu model.PsuIdData, reportedStatus string) string {
	switch kind {
	case model.KindAISConsent, model.KindPIISConsent:
		if partial(req, psu) {
			return model.ConsentStatusPartiallyAuthorised
		}
		return model.ConsentStatusValid
	case model.KindPayment:
		if partial(req, psu) {
			return model.TransactionStatusPartiallyAccepted
		}
		if reportedStatus != "" {
			return reportedStatus
		}
		return model.TransactionStatusAcceptedCustomer
	case model.KindPaymentCancellation:
		if partial(req, psu) {
			return ""
		}
		if reportedStatus != "" {
			return reportedStatus
		}
		return model.TransactionStatusCancelled
	}
	return ""
}

// failureStatus is the parent status after a failed authorisation. A failed cancellation
// leaves the payment untouched.
func failureStatus(kind model.ResourceKind) string {
	switch kind {
	case model.KindAISConsent, model.KindPIISConsent:
		return model.ConsentStatusRejected
	case model.KindPayment:
		return model.TransactionStatusRejected
	}
	return ""
}

