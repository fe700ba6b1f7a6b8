// Package approach resolves the SCA approach of an authorisation from the ASPSP profile and
// the TPP preference headers.
package approach

import (
	"context"
	"errors"
	"fmt"

	"github.com/wso2/xs2a-sca-engine/internal/profile"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
)

// ErrNoSupportedApproach is returned when the ASPSP profile lists no SCA approach.
var ErrNoSupportedApproach = errors.New("ASPSP profile supports no SCA approach")

// AuthorisationLookup reads a stored authorisation.
type AuthorisationLookup interface {
	GetAuthorisationByID(ctx context.Context, authorisationID string) (*model.Authorisation, error)
}

// ScaApproachResolver picks the approach for new authorisations and reports the approach
// fixed on existing ones.
type ScaApproachResolver interface {
	ResolveForNewAuthorisation(ctx context.Context) (model.ScaApproach, error)
	ResolveForExistingAuthorisation(ctx context.Context, authorisationID string) (model.ScaApproach, error)
}

// Resolver is the default ScaApproachResolver.
type Resolver struct {
	profiles       profile.Service
	requests       requestctx.Provider
	authorisations AuthorisationLookup
	metrics        *metrics.Metrics
	logger         *log.Logger
}

var _ ScaApproachResolver = (*Resolver)(nil)

// NewResolver creates a resolver.
func NewResolver(profiles profile.Service, requests requestctx.Provider, authorisations AuthorisationLookup,
	m *metrics.Metrics) *Resolver {
	return &Resolver{
		profiles:       profiles,
		requests:       requests,
		authorisations: authorisations,
		metrics:        m,
		logger:         log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ScaApproachResolver")),
	}
}

// ResolveForNewAuthorisation picks the approach for an authorisation about to be created.
func (r *Resolver) ResolveForNewAuthorisation(ctx context.Context) (model.ScaApproach, error) {
	instanceID := r.requests.InstanceID(ctx)
	supported, err := r.profiles.GetSupportedScaApproaches(ctx, instanceID)
	if err != nil {
		return "", fmt.Errorf("failed to read supported SCA approaches: %w", err)
	}

	redirectPreferred := r.requests.ResolveTppRedirectPreferred(ctx)
	decoupledPreferred := r.requests.ResolveTppDecoupledPreferred(ctx)

	chosen, err := Resolve(supported, redirectPreferred, decoupledPreferred)
	if err != nil {
		r.logger.Error("No SCA approach can be resolved", log.String("instanceId", instanceID), log.Error(err))
		return "", err
	}

	r.logger.Debug("Resolved SCA approach",
		log.Any("supported", supported),
		log.String("redirectPreferred", redirectPreferred.String()),
		log.String("decoupledPreferred", decoupledPreferred.String()),
		log.String("approach", string(chosen)))
	r.metrics.ObserveApproach(string(chosen))
	return chosen, nil
}

// ResolveForExistingAuthorisation returns the approach stored on the authorisation. The
// approach never changes after creation.
func (r *Resolver) ResolveForExistingAuthorisation(ctx context.Context, authorisationID string) (model.ScaApproach, error) {
	authorisation, err := r.authorisations.GetAuthorisationByID(ctx, authorisationID)
	if err != nil {
		return "", err
	}
	if authorisation == nil {
		return "", fmt.Errorf("%w: %s", model.ErrAuthorisationNotFound, authorisationID)
	}
	return authorisation.ChosenScaApproach, nil
}

// Resolve applies the TPP preferences to the ASPSP's ordered list of approaches.
//
// A true preference boosts its approach: the first boosted approach in supported order wins.
// A false preference excludes its approach. When nothing is boosted, or no boosted approach is
// supported, the first approach left after exclusions is returned. If exclusions remove every
// approach the ASPSP's first choice is used.
func Resolve(supported []model.ScaApproach, redirectPreferred, decoupledPreferred model.Preference) (model.ScaApproach, error) {
	if len(supported) == 0 {
		return "", ErrNoSupportedApproach
	}

	excluded := make(map[model.ScaApproach]bool, 2)
	boosted := make(map[model.ScaApproach]bool, 2)
	apply := func(approach model.ScaApproach, pref model.Preference) {
		switch pref {
		case model.Preferred:
			boosted[approach] = true
		case model.NotPreferred:
			excluded[approach] = true
		}
	}
	apply(model.ApproachRedirect, redirectPreferred)
	apply(model.ApproachDecoupled, decoupledPreferred)

	if len(boosted) > 0 {
		for _, a := range supported {
			if boosted[a] {
				return a, nil
			}
		}
		return supported[0], nil
	}

	for _, a := range supported {
		if !excluded[a] {
			return a, nil
		}
	}
	return supported[0], nil
}
