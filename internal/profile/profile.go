// Package profile provides the ASPSP profile: per-instance SCA approaches, redirect link
// templates and flow flags.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/config"
)

// ErrUnknownInstance is returned when no profile exists for an instance id.
var ErrUnknownInstance = errors.New("unknown ASPSP profile instance")

// AspspSettings is the profile of one ASPSP instance. SupportedScaApproaches is ordered by
// the ASPSP's preference.
type AspspSettings struct {
	SupportedScaApproaches                   []model.ScaApproach `json:"supportedScaApproaches"`
	AisRedirectURL                           string              `json:"aisRedirectUrlToAspsp"`
	PiisRedirectURL                          string              `json:"piisRedirectUrlToAspsp"`
	PisRedirectURL                           string              `json:"pisRedirectUrlToAspsp"`
	PisCancellationRedirectURL               string              `json:"pisPaymentCancellationRedirectUrlToAspsp"`
	AuthorisationConfirmationRequestMandated bool                `json:"authorisationConfirmationRequestMandated"`
}

// RedirectURLTemplate returns the redirect link template of the resource kind.
func (s *AspspSettings) RedirectURLTemplate(kind model.ResourceKind) string {
	switch kind {
	case model.KindAISConsent:
		return s.AisRedirectURL
	case model.KindPIISConsent:
		return s.PiisRedirectURL
	case model.KindPayment:
		return s.PisRedirectURL
	case model.KindPaymentCancellation:
		return s.PisCancellationRedirectURL
	}
	return ""
}

func (s *AspspSettings) clone() *AspspSettings {
	c := *s
	c.SupportedScaApproaches = append([]model.ScaApproach(nil), s.SupportedScaApproaches...)
	return &c
}

// Service reads ASPSP profiles.
type Service interface {
	GetSupportedScaApproaches(ctx context.Context, instanceID string) ([]model.ScaApproach, error)
	GetAspspSettings(ctx context.Context, instanceID string) (*AspspSettings, error)
}

// StaticService serves profiles from the deployment configuration.
type StaticService struct {
	cfg config.ProfileConfig
}

var _ Service = (*StaticService)(nil)

// NewStaticService creates a config-backed profile service.
func NewStaticService(cfg config.ProfileConfig) *StaticService {
	return &StaticService{cfg: cfg}
}

// GetSupportedScaApproaches returns the instance's approaches in preference order.
func (s *StaticService) GetSupportedScaApproaches(ctx context.Context, instanceID string) ([]model.ScaApproach, error) {
	settings, err := s.GetAspspSettings(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return settings.SupportedScaApproaches, nil
}

// GetAspspSettings returns the settings of instanceID, or of the default instance when empty.
func (s *StaticService) GetAspspSettings(_ context.Context, instanceID string) (*AspspSettings, error) {
	instance, ok := s.cfg.Instance(instanceID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstance, instanceID)
	}

	approaches := make([]model.ScaApproach, 0, len(instance.SupportedScaApproaches))
	for _, raw := range instance.SupportedScaApproaches {
		approach, err := model.ParseScaApproach(raw)
		if err != nil {
			return nil, err
		}
		approaches = append(approaches, approach)
	}

	return &AspspSettings{
		SupportedScaApproaches:                   approaches,
		AisRedirectURL:                           instance.AisRedirectURL,
		PiisRedirectURL:                          instance.PiisRedirectURL,
		PisRedirectURL:                           instance.PisRedirectURL,
		PisCancellationRedirectURL:               instance.PisCancellationRedirectURL,
		AuthorisationConfirmationRequestMandated: instance.AuthorisationConfirmationRequestMandated,
	}, nil
}
