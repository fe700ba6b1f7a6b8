// Package accesscheck decides whether an authorisation may receive a PSU-data update at its
// current stage.
package accesscheck

import (
	"context"
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
)

// AuthorisationLookup reads a stored authorisation.
type AuthorisationLookup interface {
	GetAuthorisationByID(ctx context.Context, authorisationID string) (*model.Authorisation, error)
}

// EndpointAccessChecker guards the update-PSU-data endpoints.
type EndpointAccessChecker interface {
	IsEndpointAccessible(ctx context.Context, authorisationID string, confirmationCodeReceived bool) (bool, error)
}

// Checker is the store-backed EndpointAccessChecker.
type Checker struct {
	authorisations AuthorisationLookup
}

var _ EndpointAccessChecker = (*Checker)(nil)

// NewChecker creates a checker.
func NewChecker(authorisations AuthorisationLookup) *Checker {
	return &Checker{authorisations: authorisations}
}

// IsEndpointAccessible loads the authorisation and applies IsAccessible. An unknown
// authorisation is reported accessible; existence is checked by the validators.
func (c *Checker) IsEndpointAccessible(ctx context.Context, authorisationID string, confirmationCodeReceived bool) (bool, error) {
	authorisation, err := c.authorisations.GetAuthorisationByID(ctx, authorisationID)
	if errors.Is(err, model.ErrAuthorisationNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if authorisation == nil {
		return true, nil
	}
	return IsAccessible(authorisation, confirmationCodeReceived), nil
}

// IsAccessible reports whether a PSU-data update may reach the authorisation.
//
// An authorisation waiting for a confirmation code takes nothing else, and a confirmation code
// is only taken by such an authorisation. A decoupled authorisation whose SCA is running at the
// PSU's device cannot be updated until the ASPSP reports the outcome.
func IsAccessible(authorisation *model.Authorisation, confirmationCodeReceived bool) bool {
	if confirmationCodeReceived {
		return authorisation.ScaStatus == model.ScaStatusUnconfirmed
	}
	if authorisation.ScaStatus == model.ScaStatusUnconfirmed {
		return false
	}
	if authorisation.ChosenScaApproach == model.ApproachDecoupled &&
		authorisation.ScaStatus == model.ScaStatusScaMethodSelected {
		return false
	}
	return true
}
