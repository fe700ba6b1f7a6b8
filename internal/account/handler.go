package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/loggingcontext"
	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/serviceerror"
	"github.com/wso2/xs2a-sca-engine/internal/system/utils"
)

type accountHandler struct {
	service AccountService
}

func newAccountHandler(service AccountService) *accountHandler {
	return &accountHandler{service: service}
}

// getAccountDetails handles GET /accounts/{account-id}
func (h *accountHandler) getAccountDetails(c *gin.Context) {
	consentID := c.GetHeader(constants.ConsentIDHeader)
	if consentID == "" {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError,
			"Consent-ID header is required"))
		return
	}

	resp, serviceErr := h.service.GetAccountDetails(c.Request.Context(), loggingcontext.FromGin(c),
		consentID, c.Param("accountId"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}
