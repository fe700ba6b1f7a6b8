package serviceerror

import (
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
)

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

// ServiceError is returned by every service operation. TPP-facing failures carry the
// MessageError that the handler renders as tppMessages.
type ServiceError struct {
	Code             string                 `json:"code"`
	Type             ServiceErrorType       `json:"type"`
	Error            string                 `json:"error"`
	ErrorDescription string                 `json:"error_description,omitempty"`
	MessageError     *tpperror.MessageError `json:"-"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5000",
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	DatabaseError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5001",
		Error:            "database_error",
		ErrorDescription: "A database error occurred",
	}

	ConfigurationError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5002",
		Error:            "configuration_error",
		ErrorDescription: "The server is not configured to handle this request",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4000",
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}
)

func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}

// FromMessageError wraps a TPP message error. The type follows the HTTP status family.
func FromMessageError(messageError *tpperror.MessageError) *ServiceError {
	errType := ClientErrorType
	if messageError.ErrorType.Status >= 500 {
		errType = ServerErrorType
	}
	description := ""
	if len(messageError.TppMessages) > 0 {
		description = messageError.TppMessages[0].Text
	}
	return &ServiceError{
		Type:             errType,
		Code:             messageError.ErrorType.String(),
		Error:            string(messageError.FirstCode()),
		ErrorDescription: description,
		MessageError:     messageError,
	}
}
