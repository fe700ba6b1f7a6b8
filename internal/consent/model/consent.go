package model

import (
	"errors"
	"time"

	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
)

// ErrConsentNotFound is returned by the store when no consent exists for an id.
var ErrConsentNotFound = errors.New("consent not found")

// AccountAccess lists the account resource ids a consent grants access to.
type AccountAccess struct {
	Accounts     []string `json:"accounts,omitempty"`
	Balances     []string `json:"balances,omitempty"`
	Transactions []string `json:"transactions,omitempty"`
}

// Contains reports whether any access list holds accountID.
func (a AccountAccess) Contains(accountID string) bool {
	for _, list := range [][]string{a.Accounts, a.Balances, a.Transactions} {
		for _, id := range list {
			if id == accountID {
				return true
			}
		}
	}
	return false
}

// Consent is an AIS or PIIS consent as stored in the XS2A_CONSENT table.
type Consent struct {
	ConsentID             string
	Kind                  scamodel.ResourceKind
	TppID                 string
	Status                string
	ValidUntil            time.Time
	FrequencyPerDay       int
	RecurringIndicator    bool
	MultilevelScaRequired bool
	Psus                  []scamodel.PsuIdData
	Access                AccountAccess
	InstanceID            string
	CreatedTime           int64
	UpdatedTime           int64
}

// IsExpired reports whether the validity date lies before today. A consent stays usable on the
// day it expires.
func (c *Consent) IsExpired(now time.Time) bool {
	if c.Status == scamodel.ConsentStatusExpired {
		return true
	}
	if c.ValidUntil.IsZero() {
		return false
	}
	validUntil := c.ValidUntil.UTC()
	today := now.UTC()
	return time.Date(validUntil.Year(), validUntil.Month(), validUntil.Day(), 0, 0, 0, 0, time.UTC).
		Before(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC))
}

// Snapshot is the view of the consent handed to the authorisation processors.
func (c *Consent) Snapshot(authorisedPsus []scamodel.PsuIdData) scamodel.ResourceSnapshot {
	return scamodel.ResourceSnapshot{
		ID:                    c.ConsentID,
		Kind:                  c.Kind,
		Status:                c.Status,
		TppID:                 c.TppID,
		PsuIDs:                append([]scamodel.PsuIdData(nil), c.Psus...),
		MultilevelScaRequired: c.MultilevelScaRequired,
		AuthorisedPsus:        authorisedPsus,
	}
}

// ConsentStatusResponse is the body of a consent status read.
type ConsentStatusResponse struct {
	ConsentStatus string `json:"consentStatus"`
}
