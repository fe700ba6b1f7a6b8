package main

import (
	"fmt"
	"net/http"

	"github.com/wso2/xs2a-sca-engine/internal/audit"
	"github.com/wso2/xs2a-sca-engine/internal/authresource"
	"github.com/wso2/xs2a-sca-engine/internal/consent"
	"github.com/wso2/xs2a-sca-engine/internal/payment"
	"github.com/wso2/xs2a-sca-engine/internal/profile"
	"github.com/wso2/xs2a-sca-engine/internal/router"
	"github.com/wso2/xs2a-sca-engine/internal/sca/accesscheck"
	"github.com/wso2/xs2a-sca-engine/internal/sca/approach"
	"github.com/wso2/xs2a-sca-engine/internal/sca/chain"
	"github.com/wso2/xs2a-sca-engine/internal/sca/engine"
	"github.com/wso2/xs2a-sca-engine/internal/sca/errormapper"
	"github.com/wso2/xs2a-sca-engine/internal/sca/processor"
	"github.com/wso2/xs2a-sca-engine/internal/sca/validation"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/statusaudit"
	"github.com/wso2/xs2a-sca-engine/internal/system/config"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores"
)

// Package-level references for cleanup during shutdown
var (
	services   router.Services
	closeAudit func() error
)

// registerServices builds the SCA engine and mounts every module on a gin router.
func registerServices(cfg *config.Config) (http.Handler, error) {
	logger := log.GetLogger()

	dbClient, err := provider.GetDBProvider().GetXs2aDBClient()
	if err != nil {
		return nil, fmt.Errorf("xs2a db client: %w", err)
	}

	var m *metrics.Metrics
	metricsPath := ""
	if cfg.Metrics.Enabled {
		if m, err = metrics.Default(); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metricsPath = cfg.Metrics.Path
	}

	auditSink, closer, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, err
	}
	closeAudit = closer

	profiles := newProfileService(cfg.Profile)
	connector := spi.NewHTTPConnector(&cfg.Connector)
	mapper := errormapper.New(m)

	registry := chain.NewRegistry()
	for _, p := range processor.Defaults(processor.Deps{
		Connector: connector,
		Mapper:    mapper,
		Profiles:  profiles,
	}) {
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("register processor: %w", err)
		}
	}
	if err := registry.Verify(chain.ProductionRoutes()); err != nil {
		return nil, err
	}
	logger.Info("Authorisation chain initialized", log.Int("routes", len(registry.Routes())))

	authorisationStore := authresource.NewStore(dbClient)
	storeRegistry := stores.NewStoreRegistry(dbClient,
		authorisationStore,
		consent.NewStore(dbClient),
		payment.NewStore(dbClient),
		statusaudit.NewStore(),
	)

	requests := requestctx.NewProvider()
	eng := engine.New(engine.Engine{
		Stores:   storeRegistry,
		Resolver: approach.NewResolver(profiles, requests, authorisationStore, m),
		Chain:    chain.NewService(registry, m),
		Gate:     validation.NewGate(m),
		Checker:  accesscheck.NewChecker(authorisationStore),
		Profiles: profiles,
		Mapper:   mapper,
		Requests: requests,
		Audit:    auditSink,
	})

	handler, svc := router.SetupRouter(router.Dependencies{
		Engine:      eng,
		Connector:   connector,
		Metrics:     m,
		MetricsPath: metricsPath,
		Health:      provider.GetDBProvider(),
	})
	services = svc
	logger.Info("Consent, payment and account modules initialized")

	return handler, nil
}

// newProfileService reads the ASPSP profile from the remote profile service when one is
// configured, otherwise from the deployment file.
func newProfileService(cfg config.ProfileConfig) profile.Service {
	var svc profile.Service
	if cfg.RemoteURL != "" {
		svc = profile.NewRemoteService(cfg.RemoteURL, cfg.RemoteTimeout)
	} else {
		svc = profile.NewStaticService(cfg)
	}
	if cfg.CacheTTL > 0 {
		svc = profile.NewCachedService(svc, cfg.CacheTTL)
	}
	return svc
}

// unregisterServices flushes the audit sinks.
func unregisterServices() {
	services = router.Services{}
	if closeAudit == nil {
		return
	}
	if err := closeAudit(); err != nil {
		log.GetLogger().Warn("Failed to close audit sinks", log.Error(err))
	}
}
