package payment

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

const (
	authorisationsSegment             = "authorisations"
	cancellationAuthorisationsSegment = "cancellation-authorisations"
)

type paymentHandler struct {
	service        PaymentService
	paymentService string
}

func newPaymentHandler(service PaymentService, paymentService string) *paymentHandler {
	return &paymentHandler{
		service:        service,
		paymentService: paymentService,
	}
}

func (h *paymentHandler) path(c *gin.Context) PaymentPath {
	return PaymentPath{
		PaymentService: h.paymentService,
		PaymentProduct: c.Param("paymentProduct"),
		PaymentID:      c.Param("paymentId"),
	}
}

func (h *paymentHandler) authorisationPath(p PaymentPath, segment, authorisationID string) string {
	return constants.APIBasePath + "/" + p.PaymentService + "/" + p.PaymentProduct + "/" + p.PaymentID +
		"/" + segment + "/" + authorisationID
}

// bindUpdate reads the optional PSU-data body. Start requests may come without a body.
func bindUpdate(c *gin.Context, required bool) (scamodel.UpdateData, bool) {
	var req scamodel.UpdatePsuDataRequest
	if required || c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
			return scamodel.UpdateData{}, false
		}
	}
	return req.ToUpdateData(requestctx.FromContext(c.Request.Context()).Psu), true
}

// createAuthorisation handles POST /{payment-service}/{payment-product}/{paymentId}/authorisations
func (h *paymentHandler) createAuthorisation(c *gin.Context) {
	update, ok := bindUpdate(c, false)
	if !ok {
		return
	}
	p := h.path(c)

	resp, serviceErr := h.service.CreatePisAuthorisation(c.Request.Context(), loggingcontext.FromGin(c), p, update)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	resp.AddLinks(h.authorisationPath(p, authorisationsSegment, resp.AuthorisationID))
	c.JSON(http.StatusCreated, resp)
}

// updatePsuData handles PUT .../authorisations/{authorisationId}
func (h *paymentHandler) updatePsuData(c *gin.Context) {
	update, ok := bindUpdate(c, true)
	if !ok {
		return
	}
	p := h.path(c)
	authorisationID := c.Param("authorisationId")

	resp, serviceErr := h.service.UpdatePisPsuData(c.Request.Context(), loggingcontext.FromGin(c), p, authorisationID, update)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	resp.AddLinks(h.authorisationPath(p, authorisationsSegment, authorisationID))
	c.JSON(http.StatusOK, resp)
}

// getScaStatus handles GET .../authorisations/{authorisationId}
func (h *paymentHandler) getScaStatus(c *gin.Context) {
	resp, serviceErr := h.service.GetPisAuthorisationScaStatus(c.Request.Context(), loggingcontext.FromGin(c),
		h.path(c), c.Param("authorisationId"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getAuthorisations handles GET .../authorisations
func (h *paymentHandler) getAuthorisations(c *gin.Context) {
	resp, serviceErr := h.service.GetPisAuthorisations(c.Request.Context(), h.path(c))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// createCancellationAuthorisation handles POST .../cancellation-authorisations
func (h *paymentHandler) createCancellationAuthorisation(c *gin.Context) {
	update, ok := bindUpdate(c, false)
	if !ok {
		return
	}
	p := h.path(c)

	resp, serviceErr := h.service.CreatePisCancellationAuthorisation(c.Request.Context(), loggingcontext.FromGin(c), p, update)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	resp.AddLinks(h.authorisationPath(p, cancellationAuthorisationsSegment, resp.AuthorisationID))
	c.JSON(http.StatusCreated, resp)
}

// updateCancellationPsuData handles PUT .../cancellation-authorisations/{authorisationId}
func (h *paymentHandler) updateCancellationPsuData(c *gin.Context) {
	update, ok := bindUpdate(c, true)
	if !ok {
		return
	}
	p := h.path(c)
	authorisationID := c.Param("authorisationId")

	resp, serviceErr := h.service.UpdatePisCancellationPsuData(c.Request.Context(), loggingcontext.FromGin(c), p,
		authorisationID, update)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	resp.AddLinks(h.authorisationPath(p, cancellationAuthorisationsSegment, authorisationID))
	c.JSON(http.StatusOK, resp)
}

// getCancellationScaStatus handles GET .../cancellation-authorisations/{authorisationId}
func (h *paymentHandler) getCancellationScaStatus(c *gin.Context) {
	resp, serviceErr := h.service.GetPisCancellationAuthorisationScaStatus(c.Request.Context(), loggingcontext.FromGin(c),
		h.path(c), c.Param("authorisationId"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getCancellationAuthorisations handles GET .../cancellation-authorisations
func (h *paymentHandler) getCancellationAuthorisations(c *gin.Context) {
	resp, serviceErr := h.service.GetPisCancellationAuthorisations(c.Request.Context(), h.path(c))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}
