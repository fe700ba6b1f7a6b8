package validator

import (
	"time"

	"github.com/wso2/xs2a-sca-engine/internal/consent/model"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/validation"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
)

// ConsentExists fails with CONSENT_UNKNOWN_403 when the consent is missing or is of another kind
func ConsentExists(service tpperror.ServiceType, consent *model.Consent, kind scamodel.ResourceKind) validation.Rule {
	return func() tpperror.ValidationResult {
		if consent == nil || consent.Kind != kind {
			return tpperror.InvalidWith(service, codes.ConsentUnknown403)
		}
		return tpperror.Valid()
	}
}

// ConsentOwnedBy fails with CONSENT_UNKNOWN_400 when another TPP created the consent
func ConsentOwnedBy(service tpperror.ServiceType, consent *model.Consent, tppID string) validation.Rule {
	return func() tpperror.ValidationResult {
		if consent.TppID != tppID {
			return tpperror.InvalidWith(service, codes.ConsentUnknown400,
				"Consent was not created by this TPP")
		}
		return tpperror.Valid()
	}
}

// ConsentNotExpired fails with CONSENT_EXPIRED after the validity date
func ConsentNotExpired(service tpperror.ServiceType, consent *model.Consent, now time.Time) validation.Rule {
	return func() tpperror.ValidationResult {
		if consent.IsExpired(now) {
			return tpperror.InvalidWith(service, codes.ConsentExpired)
		}
		return tpperror.Valid()
	}
}

// ConsentNotFinal fails with CONSENT_INVALID on rejected, revoked or terminated consents
func ConsentNotFinal(service tpperror.ServiceType, consent *model.Consent) validation.Rule {
	return func() tpperror.ValidationResult {
		if scamodel.IsFinalConsentStatus(consent.Status) {
			return tpperror.InvalidWith(service, codes.ConsentInvalid,
				"Consent is in status "+consent.Status)
		}
		return tpperror.Valid()
	}
}

// ConsentAcceptsAuthorisation fails with STATUS_INVALID unless the consent still awaits
// authorisation
func ConsentAcceptsAuthorisation(service tpperror.ServiceType, consent *model.Consent) validation.Rule {
	return func() tpperror.ValidationResult {
		switch consent.Status {
		case scamodel.ConsentStatusReceived, scamodel.ConsentStatusPartiallyAuthorised:
			return tpperror.Valid()
		}
		return tpperror.InvalidWith(service, codes.StatusInvalid,
			"Consent in status "+consent.Status+" cannot be authorised")
	}
}

// ConsentValid fails with CONSENT_INVALID unless the consent is valid
func ConsentValid(service tpperror.ServiceType, consent *model.Consent) validation.Rule {
	return func() tpperror.ValidationResult {
		if consent.Status != scamodel.ConsentStatusValid {
			return tpperror.InvalidWith(service, codes.ConsentInvalid,
				"Consent is in status "+consent.Status)
		}
		return tpperror.Valid()
	}
}

// AccountAccessible fails with CONSENT_INVALID when the consent grants no access to accountID
func AccountAccessible(service tpperror.ServiceType, consent *model.Consent, accountID string) validation.Rule {
	return func() tpperror.ValidationResult {
		if !consent.Access.Contains(accountID) {
			return tpperror.InvalidWith(service, codes.ConsentInvalid,
				"Consent does not grant access to the account")
		}
		return tpperror.Valid()
	}
}

// PsuAllowed checks the PSU starting an authorisation against the consent's PSUs
func PsuAllowed(service tpperror.ServiceType, consent *model.Consent, psu scamodel.PsuIdData) validation.Rule {
	return func() tpperror.ValidationResult {
		snapshot := consent.Snapshot(nil)
		return validation.PsuAllowed(service, &snapshot, psu)()
	}
}

// UpdatePsuAllowed applies PsuAllowed to the PSU an update identifies when the authorisation
// was started without one.
func UpdatePsuAllowed(service tpperror.ServiceType, consent *model.Consent, authorisation *scamodel.Authorisation,
	psu scamodel.PsuIdData) validation.Rule {
	return func() tpperror.ValidationResult {
		if !authorisation.Psu.IsEmpty() {
			return tpperror.Valid()
		}
		return PsuAllowed(service, consent, psu)()
	}
}
