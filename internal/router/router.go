package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/account"
	"github.com/wso2/xs2a-sca-engine/internal/consent"
	"github.com/wso2/xs2a-sca-engine/internal/loggingcontext"
	"github.com/wso2/xs2a-sca-engine/internal/payment"
	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
	"github.com/wso2/xs2a-sca-engine/internal/system/middleware"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies are what the HTTP modules are built from
type Dependencies struct {
	Engine      *engine.Engine
	Connector   spi.Connector
	Metrics     *metrics.Metrics
	MetricsPath string
	// Health is checked by /health when set.
	Health HealthChecker
}

// Services are the module services created while registering routes
type Services struct {
	Consent consent.ConsentService
	Payment payment.PaymentService
	Account account.AccountService
}

// SetupRouter configures all API routes
func SetupRouter(deps Dependencies) (*gin.Engine, Services) {
	router := gin.New()
	router.Use(gin.Recovery())

	// correlation id first, the request data and access log read it
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.RequestDataMiddleware())
	router.Use(loggingcontext.Middleware())
	router.Use(deps.Metrics.GinMiddleware())

	router.GET("/health", healthHandler(deps.Health))
	if deps.MetricsPath != "" {
		router.GET(deps.MetricsPath, gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group(constants.APIBasePath)
	services := Services{
		Consent: consent.Initialize(v1, deps.Engine, deps.Connector),
		Payment: payment.Initialize(v1, deps.Engine),
		Account: account.Initialize(v1, deps.Engine, deps.Connector),
	}

	return router, services
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Health"))
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()
			if err := checker.HealthCheck(ctx); err != nil {
				logger.Warn("Health check failed", log.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
