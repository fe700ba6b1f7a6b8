// Package account serves account reads guarded by AIS consent access rights.
package account

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
)

// Initialize sets up the account module and registers its routes
func Initialize(group *gin.RouterGroup, eng *engine.Engine, connector spi.AccountConnector) AccountService {
	service := newAccountService(eng, connector)
	handler := newAccountHandler(service)

	group.GET("/accounts/:accountId", handler.getAccountDetails)

	return service
}
