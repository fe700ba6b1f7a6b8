package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/system/error/apierror"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/serviceerror"
)

// SendError writes a ServiceError. TPP message errors are rendered as a tppMessages body with
// the status of their error type, everything else as an error/error_description body.
func SendError(c *gin.Context, err *serviceerror.ServiceError) {
	if err.MessageError != nil {
		c.JSON(err.MessageError.ErrorType.Status, apierror.NewTppMessagesResponse(err.MessageError))
		return
	}

	statusCode := http.StatusInternalServerError
	if err.Type == serviceerror.ClientErrorType {
		statusCode = http.StatusBadRequest
	}
	c.JSON(statusCode, apierror.ErrorResponse{
		Code:        err.Error,
		Description: err.ErrorDescription,
	})
}
