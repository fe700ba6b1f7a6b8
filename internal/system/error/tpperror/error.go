// Package tpperror holds the TPP-facing error model: error types scoped by service and the
// message lists carried in tppMessages bodies.
package tpperror

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
)

// ServiceType identifies the XS2A service an error belongs to.
type ServiceType string

const (
	ServiceAIS             ServiceType = "AIS"
	ServicePIS             ServiceType = "PIS"
	ServicePIIS            ServiceType = "PIIS"
	ServicePISCancellation ServiceType = "PIS_CANCELLATION"
)

func (s ServiceType) prefix() string {
	if s == ServicePISCancellation {
		return "PIS_CANC"
	}
	return string(s)
}

// IsConsentService reports whether the service works on consents rather than payments.
func (s ServiceType) IsConsentService() bool {
	return s == ServiceAIS || s == ServicePIIS
}

// ErrorType is a service type paired with an HTTP status family.
type ErrorType struct {
	Service ServiceType
	Status  int
}

// NewErrorType creates an ErrorType. Statuses outside the supported families collapse to 500.
func NewErrorType(service ServiceType, status int) ErrorType {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound,
		http.StatusMethodNotAllowed, http.StatusConflict, http.StatusTooManyRequests:
	default:
		status = http.StatusInternalServerError
	}
	return ErrorType{Service: service, Status: status}
}

// ErrorTypeFor derives the ErrorType from a message code's intrinsic status.
func ErrorTypeFor(service ServiceType, code codes.MessageErrorCode) ErrorType {
	return NewErrorType(service, code.HTTPStatus())
}

// String renders the type as SERVICE_STATUS, e.g. AIS_403 or PIS_CANC_405.
func (e ErrorType) String() string {
	return fmt.Sprintf("%s_%d", e.Service.prefix(), e.Status)
}

// MessageCategory is the category of a TPP message.
type MessageCategory string

const (
	CategoryError   MessageCategory = "ERROR"
	CategoryWarning MessageCategory = "WARNING"
)

// TppMessageInformation is one entry of a tppMessages list.
type TppMessageInformation struct {
	Category MessageCategory
	Code     codes.MessageErrorCode
	Text     string
	Path     string
}

// Of builds an ERROR message with the code's default text, or the given text when set.
func Of(code codes.MessageErrorCode, text ...string) TppMessageInformation {
	msg := TppMessageInformation{Category: CategoryError, Code: code, Text: code.DefaultText()}
	if len(text) > 0 && strings.TrimSpace(text[0]) != "" {
		msg.Text = text[0]
	}
	return msg
}

// Warning builds a WARNING message.
func Warning(code codes.MessageErrorCode, text string) TppMessageInformation {
	return TppMessageInformation{Category: CategoryWarning, Code: code, Text: text}
}

// MessageError is a typed validation or provider failure addressed to the TPP.
type MessageError struct {
	ErrorType   ErrorType
	TppMessages []TppMessageInformation
}

// NewMessageError builds a MessageError whose type follows the first message code.
func NewMessageError(service ServiceType, first TppMessageInformation, rest ...TppMessageInformation) *MessageError {
	return &MessageError{
		ErrorType:   ErrorTypeFor(service, first.Code),
		TppMessages: append([]TppMessageInformation{first}, rest...),
	}
}

// Error implements error.
func (m *MessageError) Error() string {
	codeNames := make([]string, 0, len(m.TppMessages))
	for _, msg := range m.TppMessages {
		codeNames = append(codeNames, string(msg.Code))
	}
	return fmt.Sprintf("%s: %s", m.ErrorType, strings.Join(codeNames, ","))
}

// FirstCode returns the code of the first message, or INTERNAL_SERVER_ERROR when there is none.
func (m *MessageError) FirstCode() codes.MessageErrorCode {
	if len(m.TppMessages) == 0 {
		return codes.InternalServerError
	}
	return m.TppMessages[0].Code
}

// ErrorHolder is the mapped form of a provider failure.
type ErrorHolder struct {
	ErrorType   ErrorType
	TppMessages []TppMessageInformation
}

// ToMessageError converts the holder to a MessageError for the response path.
func (h *ErrorHolder) ToMessageError() *MessageError {
	return &MessageError{ErrorType: h.ErrorType, TppMessages: h.TppMessages}
}

// ValidationResult is the outcome of a validation rule chain.
type ValidationResult struct {
	err *MessageError
}

// Valid returns a passing result.
func Valid() ValidationResult {
	return ValidationResult{}
}

// Invalid returns a failing result carrying the error.
func Invalid(err *MessageError) ValidationResult {
	return ValidationResult{err: err}
}

// InvalidWith is shorthand for a single-message failure.
func InvalidWith(service ServiceType, code codes.MessageErrorCode, text ...string) ValidationResult {
	return Invalid(NewMessageError(service, Of(code, text...)))
}

// IsValid reports whether validation passed.
func (r ValidationResult) IsValid() bool {
	return r.err == nil
}

// MessageError returns the failure, nil when valid.
func (r ValidationResult) MessageError() *MessageError {
	return r.err
}
