package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/utils"
)

// Placeholders of the redirect link templates in the ASPSP profile.
const (
	placeholderRedirectID         = "{redirect-id}"
	placeholderEncryptedConsentID = "{encrypted-consent-id}"
	placeholderEncryptedPaymentID = "{encrypted-payment-id}"
)

// RedirectStart creates redirect authorisations and builds the link to the ASPSP's SCA page.
type RedirectStart struct{ base }

// NewRedirectStart creates the redirect start processor for kind.
func NewRedirectStart(kind model.ResourceKind, deps Deps) *RedirectStart {
	return &RedirectStart{newBase("redirect-start", kind, model.ApproachRedirect, deps, StageStart)}
}

func (p *RedirectStart) Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	settings, err := p.deps.Profiles.GetAspspSettings(ctx, req.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to read redirect link template: %w", err)
	}
	template := settings.RedirectURLTemplate(p.kind)
	if template == "" {
		return nil, fmt.Errorf("no redirect link template configured for %s", p.kind)
	}

	auth := p.newAuthorisation(req, model.ScaStatusReceived)
	auth.RedirectID = utils.GenerateRedirectID()

	resp := p.respond(auth, model.ScaStatusReceived)
	resp.RedirectLink = buildRedirectLink(template, auth.RedirectID, p.kind, req.Resource.ID)
	return resp, nil
}

func buildRedirectLink(template, redirectID string, kind model.ResourceKind, resourceID string) string {
	encoded := utils.EncodeResourceID(resourceID)
	replacer := strings.NewReplacer(
		placeholderRedirectID, redirectID,
		placeholderEncryptedConsentID, consentOnly(kind, encoded),
		placeholderEncryptedPaymentID, paymentOnly(kind, encoded),
	)
	return replacer.Replace(template)
}

func consentOnly(kind model.ResourceKind, v string) string {
	if kind.IsConsent() {
		return v
	}
	return ""
}

func paymentOnly(kind model.ResourceKind, v string) string {
	if kind.IsConsent() {
		return ""
	}
	return v
}

// RedirectConfirmation checks the confirmation code the TPP received after the redirect.
// The ASPSP's redirect page sets the shared authorisation row to UNCONFIRMED before the TPP
// gets the code; nothing in this module writes that status.
type RedirectConfirmation struct{ base }

// NewRedirectConfirmation creates the confirmation processor for kind.
func NewRedirectConfirmation(kind model.ResourceKind, deps Deps) *RedirectConfirmation {
	return &RedirectConfirmation{newBase("redirect-confirmation", kind, model.ApproachRedirect, deps,
		StageOf(model.ScaStatusUnconfirmed))}
}

func (p *RedirectConfirmation) Process(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	auth, err := p.current(req)
	if err != nil {
		return nil, err
	}

	result, err := p.deps.Connector.CheckConfirmationCode(ctx, p.spiContext(auth, req), req.Update.ConfirmationCode)
	if err != nil {
		return p.fail(auth, err), nil
	}
	if !result.Confirmed {
		return p.fail(auth, notConfirmed()), nil
	}

	auth.ConfirmationCode = req.Update.ConfirmationCode
	resp := p.succeed(auth, req, model.ScaStatusFinalised, result.ResourceStatus)
	resp.PsuMessage = result.PsuMessage
	return resp, nil
}
