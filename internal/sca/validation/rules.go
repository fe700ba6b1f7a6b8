// Package validation holds the rule checks shared by the consent, payment and account
// validators, and the gate that runs them in order.
package validation

import (
	"context"

	"github.com/wso2/xs2a-sca-engine/internal/sca/accesscheck"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
)

// Rule is one check. Rules are evaluated lazily so that later rules may assume earlier ones
// passed.
type Rule func() tpperror.ValidationResult

// Gate runs rules in order and stops at the first failure.
type Gate struct {
	metrics *metrics.Metrics
	logger  *log.Logger
}

// NewGate creates a gate. m may be nil.
func NewGate(m *metrics.Metrics) *Gate {
	return &Gate{
		metrics: m,
		logger:  log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ValidationGate")),
	}
}

// Run evaluates rules and returns the first failure, or Valid.
func (g *Gate) Run(operation string, rules ...Rule) tpperror.ValidationResult {
	for _, rule := range rules {
		result := rule()
		if result.IsValid() {
			continue
		}
		me := result.MessageError()
		g.logger.Debug("Validation failed",
			log.String("operation", operation),
			log.String("errorType", me.ErrorType.String()),
			log.String("code", string(me.FirstCode())))
		g.metrics.ObserveValidationFailure(string(me.ErrorType.Service), string(me.FirstCode()))
		return result
	}
	return tpperror.Valid()
}

// Check turns a condition into a rule failing with code.
func Check(ok func() bool, service tpperror.ServiceType, code codes.MessageErrorCode, text ...string) Rule {
	return func() tpperror.ValidationResult {
		if ok() {
			return tpperror.Valid()
		}
		return tpperror.InvalidWith(service, code, text...)
	}
}

// AuthorisationBelongsTo fails with notFound when the authorisation is missing or belongs to
// another resource.
func AuthorisationBelongsTo(service tpperror.ServiceType, authorisation *model.Authorisation, parentID string,
	kind model.ResourceKind, notFound codes.MessageErrorCode) Rule {
	return func() tpperror.ValidationResult {
		if authorisation == nil || authorisation.ParentID != parentID || authorisation.Kind != kind {
			return tpperror.InvalidWith(service, notFound, "Authorisation not found")
		}
		return tpperror.Valid()
	}
}

// AuthorisationNotFinal fails with STATUS_INVALID on finalised, failed or exempted
// authorisations.
func AuthorisationNotFinal(service tpperror.ServiceType, authorisation *model.Authorisation) Rule {
	return func() tpperror.ValidationResult {
		if authorisation.ScaStatus.IsFinal() {
			return tpperror.InvalidWith(service, codes.StatusInvalid,
				"Authorisation is already "+string(authorisation.ScaStatus))
		}
		return tpperror.Valid()
	}
}

// EndpointAccessible fails with SERVICE_BLOCKED when the checker rejects the update.
func EndpointAccessible(ctx context.Context, checker accesscheck.EndpointAccessChecker, service tpperror.ServiceType,
	authorisationID string, confirmationCodeReceived bool) Rule {
	return func() tpperror.ValidationResult {
		ok, err := checker.IsEndpointAccessible(ctx, authorisationID, confirmationCodeReceived)
		if err != nil {
			return tpperror.InvalidWith(service, codes.InternalServerError)
		}
		if !ok {
			return tpperror.InvalidWith(service, codes.ServiceBlocked,
				"Endpoint is not accessible at the current authorisation stage")
		}
		return tpperror.Valid()
	}
}

// PsuMatches fails with PSU_CREDENTIALS_INVALID when psu conflicts with the known identity.
func PsuMatches(service tpperror.ServiceType, known, psu model.PsuIdData) Rule {
	return func() tpperror.ValidationResult {
		if !known.Matches(psu) {
			return tpperror.InvalidWith(service, codes.PsuCredentialsInvalid, "PSU-ID does not match")
		}
		return tpperror.Valid()
	}
}

// AuthorisationPsuMatches is PsuMatches against the PSU stored on authorisation.
func AuthorisationPsuMatches(service tpperror.ServiceType, authorisation *model.Authorisation, psu model.PsuIdData) Rule {
	return func() tpperror.ValidationResult {
		return PsuMatches(service, authorisation.Psu, psu)()
	}
}

// PsuAllowed fails with PSU_CREDENTIALS_INVALID when psu is not one of the resource's PSUs.
// A missing identity passes and is checked again once the PSU is identified.
func PsuAllowed(service tpperror.ServiceType, resource *model.ResourceSnapshot, psu model.PsuIdData) Rule {
	return func() tpperror.ValidationResult {
		if psu.IsEmpty() || len(resource.PsuIDs) == 0 {
			return tpperror.Valid()
		}
		if !resource.ListsPsu(psu) {
			return tpperror.InvalidWith(service, codes.PsuCredentialsInvalid, "PSU is not authorised for this resource")
		}
		return tpperror.Valid()
	}
}

// UpdatePayload checks that the PSU-data update carries what the authorisation's stage needs.
func UpdatePayload(service tpperror.ServiceType, authorisation *model.Authorisation, update model.UpdateData) Rule {
	return func() tpperror.ValidationResult {
		switch authorisation.ChosenScaApproach {
		case model.ApproachRedirect:
			if update.ConfirmationCode == "" {
				return tpperror.InvalidWith(service, codes.ServiceInvalid405,
					"Redirect authorisations only accept a confirmation code")
			}
		case model.ApproachEmbedded:
			return embeddedPayload(service, authorisation, update)
		case model.ApproachDecoupled:
			if update.Psu.IsEmpty() && authorisation.Psu.IsEmpty() {
				return tpperror.InvalidWith(service, codes.FormatError, "PSU-ID is missing")
			}
		}
		return tpperror.Valid()
	}
}

func embeddedPayload(service tpperror.ServiceType, authorisation *model.Authorisation, update model.UpdateData) tpperror.ValidationResult {
	switch authorisation.ScaStatus {
	case model.ScaStatusReceived, model.ScaStatusPsuIdentified:
		if update.Password == "" && update.Psu.IsEmpty() {
			return tpperror.InvalidWith(service, codes.FormatError, "PSU data is missing")
		}
	case model.ScaStatusPsuAuthenticated:
		if update.AuthenticationMethodID == "" {
			return tpperror.InvalidWith(service, codes.FormatError, "authenticationMethodId is missing")
		}
		if !authorisation.HasMethod(update.AuthenticationMethodID) {
			return tpperror.InvalidWith(service, codes.ScaMethodUnknown)
		}
	case model.ScaStatusScaMethodSelected:
		if update.ScaAuthenticationData == "" {
			return tpperror.InvalidWith(service, codes.FormatError, "scaAuthenticationData is missing")
		}
	}
	return tpperror.Valid()
}
