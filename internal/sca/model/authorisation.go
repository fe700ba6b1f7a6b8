package model

import (
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
)

// ErrAuthorisationNotFound is returned when no authorisation exists for an id.
var ErrAuthorisationNotFound = errors.New("authorisation not found")

// AuthenticationObject describes one SCA method offered to the PSU.
type AuthenticationObject struct {
	AuthenticationType     string `json:"authenticationType"`
	AuthenticationVersion  string `json:"authenticationVersion,omitempty"`
	AuthenticationMethodID string `json:"authenticationMethodId"`
	Name                   string `json:"name,omitempty"`
	ExplanationText        string `json:"explanation,omitempty"`
	Decoupled              bool   `json:"-"`
}

// ChallengeData is the challenge shown to the PSU for the chosen method.
type ChallengeData struct {
	Image                 []byte   `json:"image,omitempty"`
	Data                  []string `json:"data,omitempty"`
	ImageLink             string   `json:"imageLink,omitempty"`
	OtpMaxLength          int      `json:"otpMaxLength,omitempty"`
	OtpFormat             string   `json:"otpFormat,omitempty"`
	AdditionalInformation string   `json:"additionalInformation,omitempty"`
}

// Authorisation is one SCA attempt against a consent or payment.
type Authorisation struct {
	ID                     string
	ParentID               string
	Kind                   ResourceKind
	Psu                    PsuIdData
	ScaStatus              ScaStatus
	ChosenScaApproach      ScaApproach
	AuthenticationMethodID string
	AvailableMethods       []AuthenticationObject
	RedirectID             string
	ConfirmationCode       string
	InstanceID             string
	CreatedTime            int64
	UpdatedTime            int64
}

// HasMethod reports whether methodID is one of the offered methods.
func (a *Authorisation) HasMethod(methodID string) bool {
	for _, m := range a.AvailableMethods {
		if m.AuthenticationMethodID == methodID {
			return true
		}
	}
	return false
}

// ResourceSnapshot is the read-only view of the parent resource handed to processors.
type ResourceSnapshot struct {
	ID                    string
	Kind                  ResourceKind
	Status                string
	TppID                 string
	PsuIDs                []PsuIdData
	MultilevelScaRequired bool
	// AuthorisedPsus are the PSUs of the resource's finalised or exempted authorisations.
	AuthorisedPsus []PsuIdData
}

// ListsPsu reports whether psu is one of the resource's PSUs.
func (r ResourceSnapshot) ListsPsu(psu PsuIdData) bool {
	for _, listed := range r.PsuIDs {
		if listed.Identifies(psu) {
			return true
		}
	}
	return false
}

// CoveredPsuCount counts the listed PSUs that authorised the resource, current included.
// Each listed PSU counts once however many authorisations it completed.
func (r ResourceSnapshot) CoveredPsuCount(current PsuIdData) int {
	count := 0
	for _, listed := range r.PsuIDs {
		if listed.Identifies(current) {
			count++
			continue
		}
		for _, psu := range r.AuthorisedPsus {
			if listed.Identifies(psu) {
				count++
				break
			}
		}
	}
	return count
}

// UpdateData is the PSU-data payload of an update request.
type UpdateData struct {
	Psu                    PsuIdData
	Password               string
	ScaAuthenticationData  string
	AuthenticationMethodID string
	ConfirmationCode       string
}

// ProcessorRequest is the input of one chain dispatch.
type ProcessorRequest struct {
	Kind          ResourceKind
	Approach      ScaApproach
	Resource      ResourceSnapshot
	Authorisation *Authorisation
	Update        UpdateData
	InstanceID    string
}

// ProcessorResponse is the outcome of one chain dispatch. Authorisation carries the state to
// persist; ResourceStatus is empty when the parent resource status does not change. ErrorHolder
// is set when the bank connector rejected the step.
type ProcessorResponse struct {
	Authorisation    *Authorisation
	ScaStatus        ScaStatus
	ChosenApproach   ScaApproach
	PsuMessage       string
	AvailableMethods []AuthenticationObject
	ChosenMethod     *AuthenticationObject
	Challenge        *ChallengeData
	RedirectLink     string
	ResourceStatus   string
	ErrorHolder      *tpperror.ErrorHolder
}
