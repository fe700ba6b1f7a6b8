// Package model defines the types shared by the SCA resolver, processors, validators and
// the orchestrating services.
package model

import (
	"fmt"
	"strings"
)

// ResourceKind identifies the resource an authorisation belongs to.
type ResourceKind string

const (
	KindAISConsent          ResourceKind = "AIS_CONSENT"
	KindPIISConsent         ResourceKind = "PIIS_CONSENT"
	KindPayment             ResourceKind = "PAYMENT"
	KindPaymentCancellation ResourceKind = "PAYMENT_CANCELLATION"
)

// AllResourceKinds lists every kind in a stable order.
var AllResourceKinds = []ResourceKind{KindAISConsent, KindPIISConsent, KindPayment, KindPaymentCancellation}

// IsConsent reports whether the kind refers to a consent.
func (k ResourceKind) IsConsent() bool {
	return k == KindAISConsent || k == KindPIISConsent
}

// ScaApproach is the SCA style chosen for an authorisation.
type ScaApproach string

const (
	ApproachRedirect  ScaApproach = "REDIRECT"
	ApproachEmbedded  ScaApproach = "EMBEDDED"
	ApproachDecoupled ScaApproach = "DECOUPLED"
)

// AllScaApproaches lists every approach in a stable order.
var AllScaApproaches = []ScaApproach{ApproachRedirect, ApproachEmbedded, ApproachDecoupled}

// ParseScaApproach parses an approach name case-insensitively.
func ParseScaApproach(s string) (ScaApproach, error) {
	switch a := ScaApproach(strings.ToUpper(strings.TrimSpace(s))); a {
	case ApproachRedirect, ApproachEmbedded, ApproachDecoupled:
		return a, nil
	}
	return "", fmt.Errorf("unknown SCA approach %q", s)
}

// ScaStatus is the status of one authorisation.
type ScaStatus string

const (
	ScaStatusReceived          ScaStatus = "received"
	ScaStatusPsuIdentified     ScaStatus = "psuIdentified"
	ScaStatusPsuAuthenticated  ScaStatus = "psuAuthenticated"
	ScaStatusScaMethodSelected ScaStatus = "scaMethodSelected"
	ScaStatusStarted           ScaStatus = "started"
	ScaStatusUnconfirmed       ScaStatus = "unconfirmed"
	ScaStatusFinalised         ScaStatus = "finalised"
	ScaStatusFailed            ScaStatus = "failed"
	ScaStatusExempted          ScaStatus = "exempted"
)

// AllScaStatuses lists every status in rank order.
var AllScaStatuses = []ScaStatus{
	ScaStatusReceived,
	ScaStatusPsuIdentified,
	ScaStatusPsuAuthenticated,
	ScaStatusScaMethodSelected,
	ScaStatusStarted,
	ScaStatusUnconfirmed,
	ScaStatusFinalised,
	ScaStatusFailed,
	ScaStatusExempted,
}

var scaStatusRanks = map[ScaStatus]int{
	ScaStatusReceived:          0,
	ScaStatusPsuIdentified:     1,
	ScaStatusPsuAuthenticated:  2,
	ScaStatusScaMethodSelected: 3,
	ScaStatusStarted:           4,
	ScaStatusUnconfirmed:       5,
	ScaStatusFinalised:         6,
	ScaStatusFailed:            6,
	ScaStatusExempted:          6,
}

// ParseScaStatus parses a stored status value.
func ParseScaStatus(s string) (ScaStatus, error) {
	for _, status := range AllScaStatuses {
		if strings.EqualFold(string(status), s) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown SCA status %q", s)
}

// IsFinal reports whether no further transition is possible.
func (s ScaStatus) IsFinal() bool {
	return s == ScaStatusFinalised || s == ScaStatusFailed || s == ScaStatusExempted
}

// IsSuccessful reports whether the authorisation completed without failure.
func (s ScaStatus) IsSuccessful() bool {
	return s == ScaStatusFinalised || s == ScaStatusExempted
}

// Rank orders statuses along the SCA flow. Final statuses share the highest rank.
func (s ScaStatus) Rank() int {
	if r, ok := scaStatusRanks[s]; ok {
		return r
	}
	return -1
}

// CanTransitionTo reports whether moving to next keeps the status monotonic.
func (s ScaStatus) CanTransitionTo(next ScaStatus) bool {
	if s.IsFinal() {
		return s == next
	}
	return next.Rank() >= s.Rank()
}

// PsuIdData identifies the PSU as sent by the TPP.
type PsuIdData struct {
	PsuID              string `json:"psuId,omitempty"`
	PsuIDType          string `json:"psuIdType,omitempty"`
	PsuCorporateID     string `json:"psuCorporateId,omitempty"`
	PsuCorporateIDType string `json:"psuCorporateIdType,omitempty"`
}

// IsEmpty reports whether no PSU identity was supplied.
func (p PsuIdData) IsEmpty() bool {
	return strings.TrimSpace(p.PsuID) == "" && strings.TrimSpace(p.PsuCorporateID) == ""
}

// Matches compares two PSU identities on the fields both sides carry.
func (p PsuIdData) Matches(other PsuIdData) bool {
	if p.IsEmpty() || other.IsEmpty() {
		return true
	}
	if p.PsuID != "" && other.PsuID != "" && p.PsuID != other.PsuID {
		return false
	}
	if p.PsuCorporateID != "" && other.PsuCorporateID != "" && p.PsuCorporateID != other.PsuCorporateID {
		return false
	}
	return true
}

// Identifies reports whether p and other name the same PSU. An empty identity names nobody.
func (p PsuIdData) Identifies(other PsuIdData) bool {
	return !p.IsEmpty() && !other.IsEmpty() && p.Matches(other)
}

// Preference is the tri-state TPP preference carried by the *-Preferred headers.
type Preference int

const (
	NoPreference Preference = iota
	Preferred
	NotPreferred
)

// ParsePreference maps a header value to a Preference. Only "true" and "false" are
// recognised; anything else means the TPP expressed no preference.
func ParsePreference(value string) Preference {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return Preferred
	case "false":
		return NotPreferred
	default:
		return NoPreference
	}
}

func (p Preference) String() string {
	switch p {
	case Preferred:
		return "true"
	case NotPreferred:
		return "false"
	default:
		return "unset"
	}
}
