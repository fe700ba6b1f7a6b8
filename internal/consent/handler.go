package consent

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/loggingcontext"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/serviceerror"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
	"github.com/wso2/xs2a-sca-engine/internal/system/utils"
)

type consentHandler struct {
	service ConsentService
	kind    scamodel.ResourceKind
	base    string
}

func newConsentHandler(service ConsentService, kind scamodel.ResourceKind, base string) *consentHandler {
	return &consentHandler{
		service: service,
		kind:    kind,
		base:    base,
	}
}

// createAuthorisation handles POST {base}/{consentId}/authorisations
func (h *consentHandler) createAuthorisation(c *gin.Context) {
	consentID := c.Param("consentId")

	var req scamodel.UpdatePsuDataRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
			return
		}
	}
	update := req.ToUpdateData(requestctx.FromContext(c.Request.Context()).Psu)

	resp, serviceErr := h.service.CreateConsentAuthorisation(c.Request.Context(), loggingcontext.FromGin(c),
		h.kind, consentID, update)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	resp.AddLinks(h.authorisationPath(consentID, resp.AuthorisationID))
	c.JSON(http.StatusCreated, resp)
}

// updatePsuData handles PUT {base}/{consentId}/authorisations/{authorisationId}
func (h *consentHandler) updatePsuData(c *gin.Context) {
	consentID := c.Param("consentId")
	authorisationID := c.Param("authorisationId")

	var req scamodel.UpdatePsuDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}
	update := req.ToUpdateData(requestctx.FromContext(c.Request.Context()).Psu)

	resp, serviceErr := h.service.UpdateConsentPsuData(c.Request.Context(), loggingcontext.FromGin(c),
		h.kind, consentID, authorisationID, update)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	resp.AddLinks(h.authorisationPath(consentID, authorisationID))
	c.JSON(http.StatusOK, resp)
}

// getScaStatus handles GET {base}/{consentId}/authorisations/{authorisationId}
func (h *consentHandler) getScaStatus(c *gin.Context) {
	resp, serviceErr := h.service.GetConsentAuthorisationScaStatus(c.Request.Context(), loggingcontext.FromGin(c),
		h.kind, c.Param("consentId"), c.Param("authorisationId"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getAuthorisations handles GET {base}/{consentId}/authorisations
func (h *consentHandler) getAuthorisations(c *gin.Context) {
	resp, serviceErr := h.service.GetConsentAuthorisations(c.Request.Context(), h.kind, c.Param("consentId"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getStatus handles GET {base}/{consentId}/status
func (h *consentHandler) getStatus(c *gin.Context) {
	resp, serviceErr := h.service.GetConsentStatus(c.Request.Context(), loggingcontext.FromGin(c),
		h.kind, c.Param("consentId"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *consentHandler) authorisationPath(consentID, authorisationID string) string {
	return constants.APIBasePath + h.base + "/" + consentID + "/authorisations/" + authorisationID
}
