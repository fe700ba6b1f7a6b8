// Package spi defines the bank connector interfaces the SCA engine calls and the failure type
// the connector reports provider errors with.
package spi

import (
	"context"
	"fmt"
	"strings"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
)

// FailureMessage is one provider error code with optional text.
type FailureMessage struct {
	Code codes.MessageErrorCode `json:"code"`
	Text string                 `json:"text,omitempty"`
}

// Failure is a business rejection reported by the ASPSP. Any other error returned by a
// connector is treated as a technical failure.
type Failure struct {
	Messages []FailureMessage
}

// NewFailure builds a single-message failure.
func NewFailure(code codes.MessageErrorCode, text string) *Failure {
	return &Failure{Messages: []FailureMessage{{Code: code, Text: text}}}
}

func (f *Failure) Error() string {
	parts := make([]string, 0, len(f.Messages))
	for _, m := range f.Messages {
		parts = append(parts, string(m.Code))
	}
	return fmt.Sprintf("connector failure: %s", strings.Join(parts, ","))
}

// AuthorisationContext identifies the authorisation a connector call works on.
type AuthorisationContext struct {
	Kind            model.ResourceKind `json:"kind"`
	ResourceID      string             `json:"resourceId"`
	AuthorisationID string             `json:"authorisationId"`
	Psu             model.PsuIdData    `json:"psu"`
	InstanceID      string             `json:"instanceId,omitempty"`
}

// CredentialsResult is the outcome of PSU credential verification.
type CredentialsResult struct {
	ScaExempted      bool                         `json:"scaExempted"`
	AvailableMethods []model.AuthenticationObject `json:"availableMethods,omitempty"`
	ChosenMethod     *model.AuthenticationObject  `json:"chosenMethod,omitempty"`
	Challenge        *model.ChallengeData         `json:"challengeData,omitempty"`
	PsuMessage       string                       `json:"psuMessage,omitempty"`
}

// MethodSelectionResult is the outcome of selecting an SCA method.
type MethodSelectionResult struct {
	ChosenMethod *model.AuthenticationObject `json:"chosenMethod,omitempty"`
	Challenge    *model.ChallengeData        `json:"challengeData,omitempty"`
	PsuMessage   string                      `json:"psuMessage,omitempty"`
}

// ConfirmationResult is the outcome of an SCA confirmation. ResourceStatus, when set,
// overrides the default success status of the parent resource.
type ConfirmationResult struct {
	Confirmed      bool   `json:"confirmed"`
	ResourceStatus string `json:"resourceStatus,omitempty"`
	PsuMessage     string `json:"psuMessage,omitempty"`
}

// DecoupledStartResult is the outcome of triggering decoupled SCA.
type DecoupledStartResult struct {
	ChosenMethod *model.AuthenticationObject `json:"chosenMethod,omitempty"`
	PsuMessage   string                      `json:"psuMessage,omitempty"`
}

// DecoupledStatusResult is the current state of a decoupled SCA.
type DecoupledStatusResult struct {
	ScaStatus      model.ScaStatus `json:"scaStatus"`
	ResourceStatus string          `json:"resourceStatus,omitempty"`
	PsuMessage     string          `json:"psuMessage,omitempty"`
}

// AccountDetails is the account data returned for an account-details read.
type AccountDetails struct {
	ResourceID string `json:"resourceId"`
	Iban       string `json:"iban,omitempty"`
	Bban       string `json:"bban,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Name       string `json:"name,omitempty"`
	Product    string `json:"product,omitempty"`
	Status     string `json:"status,omitempty"`
}

// AuthorisationConnector performs the SCA steps at the ASPSP.
type AuthorisationConnector interface {
	VerifyCredentials(ctx context.Context, actx AuthorisationContext, password string) (*CredentialsResult, error)
	SelectScaMethod(ctx context.Context, actx AuthorisationContext, methodID string) (*MethodSelectionResult, error)
	ConfirmScaMethod(ctx context.Context, actx AuthorisationContext, scaAuthenticationData string) (*ConfirmationResult, error)
	StartDecoupledSca(ctx context.Context, actx AuthorisationContext) (*DecoupledStartResult, error)
	GetDecoupledScaStatus(ctx context.Context, actx AuthorisationContext) (*DecoupledStatusResult, error)
	CheckConfirmationCode(ctx context.Context, actx AuthorisationContext, confirmationCode string) (*ConfirmationResult, error)
}

// ConsentConnector reads consent state held by the ASPSP.
type ConsentConnector interface {
	GetConsentStatus(ctx context.Context, kind model.ResourceKind, consentID string) (string, error)
}

// AccountConnector reads account data.
type AccountConnector interface {
	RequestAccountDetails(ctx context.Context, consentID, accountID string) (*AccountDetails, error)
}

// Connector is the full bank connector.
type Connector interface {
	AuthorisationConnector
	ConsentConnector
	AccountConnector
}
