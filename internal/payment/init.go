// Package payment serves the SCA endpoints of payment initiations and payment cancellations.
package payment

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/payment/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

// NewStore creates the payment store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interfaces.PaymentStore {
	return &store{dbClient: dbClient}
}

// Initialize sets up the payment module and registers routes for every payment service
func Initialize(group *gin.RouterGroup, eng *engine.Engine) PaymentService {
	service := newPaymentService(eng)

	for _, paymentService := range []string{model.ServicePayments, model.ServiceBulkPayments, model.ServicePeriodicPayments} {
		registerRoutes(group.Group("/"+paymentService+"/:paymentProduct/:paymentId"), newPaymentHandler(service, paymentService))
	}

	return service
}

func registerRoutes(group *gin.RouterGroup, handler *paymentHandler) {
	group.POST("/"+authorisationsSegment, handler.createAuthorisation)
	group.GET("/"+authorisationsSegment, handler.getAuthorisations)
	group.GET("/"+authorisationsSegment+"/:authorisationId", handler.getScaStatus)
	group.PUT("/"+authorisationsSegment+"/:authorisationId", handler.updatePsuData)

	group.POST("/"+cancellationAuthorisationsSegment, handler.createCancellationAuthorisation)
	group.GET("/"+cancellationAuthorisationsSegment, handler.getCancellationAuthorisations)
	group.GET("/"+cancellationAuthorisationsSegment+"/:authorisationId", handler.getCancellationScaStatus)
	group.PUT("/"+cancellationAuthorisationsSegment+"/:authorisationId", handler.updateCancellationPsuData)
}
