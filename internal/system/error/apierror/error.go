package apierror

import (
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
)

// ErrorResponse is the body of server-side failures.
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// TppMessage is one entry of a tppMessages body.
type TppMessage struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Text     string `json:"text,omitempty"`
	Path     string `json:"path,omitempty"`
}

// TppMessagesResponse is the Berlin Group error body.
type TppMessagesResponse struct {
	TppMessages []TppMessage `json:"tppMessages"`
}

// NewTppMessagesResponse renders a MessageError for the wire.
func NewTppMessagesResponse(messageError *tpperror.MessageError) TppMessagesResponse {
	messages := make([]TppMessage, 0, len(messageError.TppMessages))
	for _, m := range messageError.TppMessages {
		messages = append(messages, TppMessage{
			Category: string(m.Category),
			Code:     m.Code.Name(),
			Text:     m.Text,
			Path:     m.Path,
		})
	}
	return TppMessagesResponse{TppMessages: messages}
}
