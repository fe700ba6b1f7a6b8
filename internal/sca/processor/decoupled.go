package processor

import (
	"context"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// DecoupledStart creates decoupled authorisations and, once the PSU is known, asks the ASPSP
// to notify the PSU's device. The same processor resumes authorisations created without a PSU.
type DecoupledStart struct{ base }

// NewDecoupledStart creates the decoupled start processor for kind.
func NewDecoupledStart(kind model.ResourceKind, deps Deps) *DecoupledStart {
	return &DecoupledStart{newBase("decoupled-start", kind, model.ApproachDecoupled, deps,
		StageStart, StageOf(model.ScaStatusReceived), StageOf(model.ScaStatusPsuIdentified))}
}

func (p *DecoupledStart) Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	var auth *model.Authorisation
	if req.Authorisation == nil {
		auth = p.newAuthorisation(req, model.ScaStatusReceived)
		if auth.Psu.IsEmpty() {
			return p.respond(auth, model.ScaStatusReceived), nil
		}
	} else {
		var err error
		if auth, err = p.current(req); err != nil {
			return nil, err
		}
	}

	result, err := p.deps.Connector.StartDecoupledSca(ctx, p.spiContext(auth, req))
	if err != nil {
		return p.fail(auth, err), nil
	}

	if result.ChosenMethod != nil {
		auth.AuthenticationMethodID = result.ChosenMethod.AuthenticationMethodID
	}
	p.logger.Debug("Decoupled SCA started", log.String("authorisationId", auth.ID))

	resp := p.respond(auth, model.ScaStatusScaMethodSelected)
	resp.ChosenMethod = result.ChosenMethod
	resp.PsuMessage = result.PsuMessage
	return resp, nil
}

// DecoupledFinalise polls the ASPSP for the outcome of a running decoupled SCA.
type DecoupledFinalise struct{ base }

// NewDecoupledFinalise creates the decoupled status processor for kind.
func NewDecoupledFinalise(kind model.ResourceKind, deps Deps) *DecoupledFinalise {
	return &DecoupledFinalise{newBase("decoupled-finalise", kind, model.ApproachDecoupled, deps,
		StageOf(model.ScaStatusScaMethodSelected))}
}

func (p *DecoupledFinalise) Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	auth, err := p.current(req)
	if err != nil {
		return nil, err
	}

	result, err := p.deps.Connector.GetDecoupledScaStatus(ctx, p.spiContext(auth, req))
	if err != nil {
		return p.fail(auth, err), nil
	}

	var resp *model.ProcessorResponse
	switch {
	case result.ScaStatus.IsSuccessful():
		resp = p.succeed(auth, req, result.ScaStatus, result.ResourceStatus)
	case result.ScaStatus == model.ScaStatusFailed:
		resp = p.respond(auth, model.ScaStatusFailed)
		resp.ResourceStatus = failureStatus(p.kind)
	default:
		// still running at the PSU's device
		resp = p.respond(auth, auth.ScaStatus)
	}
	resp.PsuMessage = result.PsuMessage
	return resp, nil
}
