package model

import (
	"errors"
	"strings"

	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
)

// ErrPaymentNotFound is returned by the store when no payment exists for an id.
var ErrPaymentNotFound = errors.New("payment not found")

// Payment services as they appear in the request path.
const (
	ServicePayments         = "payments"
	ServiceBulkPayments     = "bulk-payments"
	ServicePeriodicPayments = "periodic-payments"
)

// IsPaymentService reports whether s names a known payment service.
func IsPaymentService(s string) bool {
	switch s {
	case ServicePayments, ServiceBulkPayments, ServicePeriodicPayments:
		return true
	}
	return false
}

// AccountReference identifies the debtor account.
type AccountReference struct {
	Iban     string `json:"iban,omitempty"`
	Bban     string `json:"bban,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Amount is an instructed amount.
type Amount struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// Payment is a payment initiation as stored in the XS2A_PAYMENT table.
type Payment struct {
	PaymentID             string
	PaymentService        string
	PaymentProduct        string
	TransactionStatus     string
	TppID                 string
	Psus                  []scamodel.PsuIdData
	MultilevelScaRequired bool
	CancellationAllowed   bool
	DebtorAccount         *AccountReference
	InstructedAmount      *Amount
	InstanceID            string
	CreatedTime           int64
	UpdatedTime           int64
}

// Matches reports whether the payment was initiated for the given service and product.
// Products are compared case-insensitively.
func (p *Payment) Matches(service, product string) bool {
	return p.PaymentService == service && strings.EqualFold(p.PaymentProduct, product)
}

// Snapshot is the view of the payment handed to the authorisation processors. kind selects
// between the initiation and cancellation flows.
func (p *Payment) Snapshot(kind scamodel.ResourceKind, authorisedPsus []scamodel.PsuIdData) scamodel.ResourceSnapshot {
	return scamodel.ResourceSnapshot{
		ID:                    p.PaymentID,
		Kind:                  kind,
		Status:                p.TransactionStatus,
		TppID:                 p.TppID,
		PsuIDs:                append([]scamodel.PsuIdData(nil), p.Psus...),
		MultilevelScaRequired: p.MultilevelScaRequired,
		AuthorisedPsus:        authorisedPsus,
	}
}
