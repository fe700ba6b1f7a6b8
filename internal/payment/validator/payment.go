// Package validator holds the payment-specific validation rules.
package validator

import (
	"github.com/wso2/xs2a-sca-engine/internal/payment/model"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/validation"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
)

// PaymentExists fails with notFound when the payment is missing. Writes report
// RESOURCE_UNKNOWN_403, reads RESOURCE_UNKNOWN_404.
func PaymentExists(service tpperror.ServiceType, payment *model.Payment, notFound codes.MessageErrorCode) validation.Rule {
	return func() tpperror.ValidationResult {
		if payment == nil {
			return tpperror.InvalidWith(service, notFound)
		}
		return tpperror.Valid()
	}
}

// PaymentOwnedBy fails with RESOURCE_UNKNOWN_400 when another TPP initiated the payment.
func PaymentOwnedBy(service tpperror.ServiceType, payment *model.Payment, tppID string) validation.Rule {
	return func() tpperror.ValidationResult {
		if payment.TppID != tppID {
			return tpperror.InvalidWith(service, codes.ResourceUnknown400,
				"Payment was not initiated by this TPP")
		}
		return tpperror.Valid()
	}
}

// PaymentMatchesPath fails with SERVICE_INVALID_405 on a payment service mismatch and with
// PRODUCT_INVALID on a payment product mismatch.
func PaymentMatchesPath(service tpperror.ServiceType, payment *model.Payment, paymentService, paymentProduct string) validation.Rule {
	return func() tpperror.ValidationResult {
		if payment.PaymentService != paymentService {
			return tpperror.InvalidWith(service, codes.ServiceInvalid405,
				"Payment was not initiated as "+paymentService)
		}
		if !payment.Matches(paymentService, paymentProduct) {
			return tpperror.InvalidWith(service, codes.ProductInvalid,
				"Payment product "+paymentProduct+" does not match the payment")
		}
		return tpperror.Valid()
	}
}

// PaymentAcceptsAuthorisation fails with STATUS_INVALID unless the payment is RCVD or PATC.
func PaymentAcceptsAuthorisation(service tpperror.ServiceType, payment *model.Payment) validation.Rule {
	return func() tpperror.ValidationResult {
		switch payment.TransactionStatus {
		case scamodel.TransactionStatusReceived, scamodel.TransactionStatusPartiallyAccepted:
			return tpperror.Valid()
		}
		return tpperror.InvalidWith(service, codes.StatusInvalid,
			"Payment in status "+payment.TransactionStatus+" cannot be authorised")
	}
}

// CancellationAllowed fails with FORBIDDEN_INCORRECT_FLOW when the ASPSP does not allow the
// payment to be cancelled.
func CancellationAllowed(service tpperror.ServiceType, payment *model.Payment) validation.Rule {
	return func() tpperror.ValidationResult {
		if !payment.CancellationAllowed {
			return tpperror.InvalidWith(service, codes.ForbiddenIncorrectFlow,
				"Payment cancellation is not allowed")
		}
		return tpperror.Valid()
	}
}

// PaymentNotFinal fails with STATUS_INVALID when the payment reached a final status.
func PaymentNotFinal(service tpperror.ServiceType, payment *model.Payment) validation.Rule {
	return func() tpperror.ValidationResult {
		if scamodel.IsFinalTransactionStatus(payment.TransactionStatus) {
			return tpperror.InvalidWith(service, codes.StatusInvalid,
				"Payment is in final status "+payment.TransactionStatus)
		}
		return tpperror.Valid()
	}
}

// PsuAllowed checks the PSU starting an authorisation against the payment's PSUs.
func PsuAllowed(service tpperror.ServiceType, payment *model.Payment, psu scamodel.PsuIdData) validation.Rule {
	return func() tpperror.ValidationResult {
		snapshot := payment.Snapshot(scamodel.KindPayment, nil)
		return validation.PsuAllowed(service, &snapshot, psu)()
	}
}

// UpdatePsuAllowed applies PsuAllowed to the PSU an update identifies when the authorisation
// was started without one.
func UpdatePsuAllowed(service tpperror.ServiceType, payment *model.Payment, authorisation *scamodel.Authorisation,
	psu scamodel.PsuIdData) validation.Rule {
	return func() tpperror.ValidationResult {
		if !authorisation.Psu.IsEmpty() {
			return tpperror.Valid()
		}
		return PsuAllowed(service, payment, psu)()
	}
}
