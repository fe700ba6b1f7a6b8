package model

import "github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"

// Consent statuses.
const (
	ConsentStatusReceived            = "received"
	ConsentStatusPartiallyAuthorised = "partiallyAuthorised"
	ConsentStatusValid               = "valid"
	ConsentStatusRejected            = "rejected"
	ConsentStatusExpired             = "expired"
	ConsentStatusTerminatedByTpp     = "terminatedByTpp"
	ConsentStatusRevokedByPsu        = "revokedByPsu"
)

// Payment transaction statuses.
const (
	TransactionStatusReceived            = "RCVD"
	TransactionStatusPartiallyAccepted   = "PATC"
	TransactionStatusAcceptedTechnical   = "ACTC"
	TransactionStatusAcceptedCustomer    = "ACCP"
	TransactionStatusAcceptedSettlement  = "ACSC"
	TransactionStatusAcceptedCredit      = "ACCC"
	TransactionStatusAcceptedWithChange  = "ACWC"
	TransactionStatusPending             = "PDNG"
	TransactionStatusRejected            = "RJCT"
	TransactionStatusCancelled           = "CANC"
	TransactionStatusAcceptedFundsCheck  = "ACFC"
	TransactionStatusPartiallyAuthorised = "PART"
)

// IsFinalConsentStatus reports whether a consent can no longer change.
func IsFinalConsentStatus(status string) bool {
	switch status {
	case ConsentStatusRejected, ConsentStatusExpired, ConsentStatusTerminatedByTpp, ConsentStatusRevokedByPsu:
		return true
	}
	return false
}

// IsFinalTransactionStatus reports whether a payment reached a final status.
func IsFinalTransactionStatus(status string) bool {
	switch status {
	case TransactionStatusAcceptedSettlement, TransactionStatusAcceptedCredit,
		TransactionStatusRejected, TransactionStatusCancelled:
		return true
	}
	return false
}

// Service returns the TPP error service of the kind.
func (k ResourceKind) Service() tpperror.ServiceType {
	switch k {
	case KindAISConsent:
		return tpperror.ServiceAIS
	case KindPIISConsent:
		return tpperror.ServicePIIS
	case KindPaymentCancellation:
		return tpperror.ServicePISCancellation
	default:
		return tpperror.ServicePIS
	}
}

// StatusAudit records one status change of a consent or payment.
type StatusAudit struct {
	ID              string
	ResourceID      string
	Kind            ResourceKind
	CurrentStatus   string
	PreviousStatus  string
	AuthorisationID string
	Reason          string
	ActionTime      int64
}
