// Package consent serves the SCA endpoints of AIS and PIIS consents and the consent status
// read.
package consent

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

const (
	aisBasePath  = "/consents"
	piisBasePath = "/consents/confirmation-of-funds"
)

// NewStore creates the consent store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interfaces.ConsentStore {
	return &store{dbClient: dbClient}
}

// Initialize sets up the consent module and registers the AIS and PIIS routes on group
func Initialize(group *gin.RouterGroup, eng *engine.Engine, connector spi.ConsentConnector) ConsentService {
	service := newConsentService(eng, connector)

	registerRoutes(group.Group(aisBasePath), newConsentHandler(service, scamodel.KindAISConsent, aisBasePath))
	registerRoutes(group.Group(piisBasePath), newConsentHandler(service, scamodel.KindPIISConsent, piisBasePath))

	return service
}

func registerRoutes(group *gin.RouterGroup, handler *consentHandler) {
	group.POST("/:consentId/authorisations", handler.createAuthorisation)
	group.GET("/:consentId/authorisations", handler.getAuthorisations)
	group.GET("/:consentId/authorisations/:authorisationId", handler.getScaStatus)
	group.PUT("/:consentId/authorisations/:authorisationId", handler.updatePsuData)
	group.GET("/:consentId/status", handler.getStatus)
}
