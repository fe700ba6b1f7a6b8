package processor

import (
	"context"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// EmbeddedStart creates embedded authorisations. Credentials sent with the creation request
// mark the PSU as identified; they are verified by the first PSU-data update.
type EmbeddedStart struct{ base }

// NewEmbeddedStart creates the embedded start processor for kind.
func NewEmbeddedStart(kind model.ResourceKind, deps Deps) *EmbeddedStart {
	return &EmbeddedStart{newBase("embedded-start", kind, model.ApproachEmbedded, deps, StageStart)}
}

func (p *EmbeddedStart) Process(_ context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	status := model.ScaStatusReceived
	if req.Update.Password != "" {
		status = model.ScaStatusPsuIdentified
	}
	auth := p.newAuthorisation(req, status)
	p.logger.Debug("Embedded authorisation created",
		log.String("authorisationId", auth.ID),
		log.String("scaStatus", string(status)))
	return p.respond(auth, status), nil
}

// EmbeddedAuthenticate identifies the PSU and verifies the password.
type EmbeddedAuthenticate struct{ base }

// NewEmbeddedAuthenticate creates the embedded authentication processor for kind.
func NewEmbeddedAuthenticate(kind model.ResourceKind, deps Deps) *EmbeddedAuthenticate {
	return &EmbeddedAuthenticate{newBase("embedded-authenticate", kind, model.ApproachEmbedded, deps,
		StageOf(model.ScaStatusReceived), StageOf(model.ScaStatusPsuIdentified))}
}

func (p *EmbeddedAuthenticate) Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	auth, err := p.current(req)
	if err != nil {
		return nil, err
	}
	if req.Update.Password == "" {
		return p.respond(auth, model.ScaStatusPsuIdentified), nil
	}

	result, err := p.deps.Connector.VerifyCredentials(ctx, p.spiContext(auth, req), req.Update.Password)
	if err != nil {
		return p.fail(auth, err), nil
	}

	if result.ScaExempted || len(result.AvailableMethods) == 0 {
		resp := p.succeed(auth, req, model.ScaStatusExempted, "")
		resp.PsuMessage = result.PsuMessage
		return resp, nil
	}

	auth.AvailableMethods = result.AvailableMethods
	if result.ChosenMethod != nil {
		auth.AuthenticationMethodID = result.ChosenMethod.AuthenticationMethodID
		resp := p.respond(auth, model.ScaStatusScaMethodSelected)
		resp.ChosenMethod = result.ChosenMethod
		resp.Challenge = result.Challenge
		resp.PsuMessage = result.PsuMessage
		return resp, nil
	}

	resp := p.respond(auth, model.ScaStatusPsuAuthenticated)
	resp.AvailableMethods = result.AvailableMethods
	resp.PsuMessage = result.PsuMessage
	return resp, nil
}

// EmbeddedSelectMethod sends the chosen SCA method to the ASPSP.
type EmbeddedSelectMethod struct{ base }

// NewEmbeddedSelectMethod creates the method selection processor for kind.
func NewEmbeddedSelectMethod(kind model.ResourceKind, deps Deps) *EmbeddedSelectMethod {
	return &EmbeddedSelectMethod{newBase("embedded-select-method", kind, model.ApproachEmbedded, deps,
		StageOf(model.ScaStatusPsuAuthenticated))}
}

func (p *EmbeddedSelectMethod) Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	auth, err := p.current(req)
	if err != nil {
		return nil, err
	}

	methodID := req.Update.AuthenticationMethodID
	result, err := p.deps.Connector.SelectScaMethod(ctx, p.spiContext(auth, req), methodID)
	if err != nil {
		return p.fail(auth, err), nil
	}

	auth.AuthenticationMethodID = methodID
	resp := p.respond(auth, model.ScaStatusScaMethodSelected)
	resp.ChosenMethod = result.ChosenMethod
	if resp.ChosenMethod == nil {
		for i := range auth.AvailableMethods {
			if auth.AvailableMethods[i].AuthenticationMethodID == methodID {
				resp.ChosenMethod = &auth.AvailableMethods[i]
				break
			}
		}
	}
	resp.Challenge = result.Challenge
	resp.PsuMessage = result.PsuMessage
	return resp, nil
}

// EmbeddedFinalise confirms the SCA with the authentication data entered by the PSU.
type EmbeddedFinalise struct{ base }

// NewEmbeddedFinalise creates the embedded finalisation processor for kind.
func NewEmbeddedFinalise(kind model.ResourceKind, deps Deps) *EmbeddedFinalise {
	return &EmbeddedFinalise{newBase("embedded-finalise", kind, model.ApproachEmbedded, deps,
		StageOf(model.ScaStatusScaMethodSelected))}
}

func (p *EmbeddedFinalise) Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	auth, err := p.current(req)
	if err != nil {
		return nil, err
	}

	result, err := p.deps.Connector.ConfirmScaMethod(ctx, p.spiContext(auth, req), req.Update.ScaAuthenticationData)
	if err != nil {
		return p.fail(auth, err), nil
	}
	if !result.Confirmed {
		return p.fail(auth, notConfirmed()), nil
	}

	resp := p.succeed(auth, req, model.ScaStatusFinalised, result.ResourceStatus)
	resp.PsuMessage = result.PsuMessage
	return resp, nil
}
