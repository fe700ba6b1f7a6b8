package chain

import (
	"context"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/processor"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
)

// AuthorisationChainResponsibilityService runs the processor matching a request.
type AuthorisationChainResponsibilityService interface {
	Apply(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error)
}

// Service is the registry-backed chain.
type Service struct {
	registry *Registry
	metrics  *metrics.Metrics
	logger   *log.Logger
}

var _ AuthorisationChainResponsibilityService = (*Service)(nil)

// NewService creates a chain over registry.
func NewService(registry *Registry, m *metrics.Metrics) *Service {
	return &Service{
		registry: registry,
		metrics:  m,
		logger:   log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthorisationChain")),
	}
}

// Apply dispatches req to exactly one processor and returns its response unchanged. A request
// no processor serves yields a *ConfigurationError.
func (s *Service) Apply(ctx context.Context, req *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	route := Route{Kind: req.Kind, Approach: req.Approach, Stage: processor.StageOfRequest(req)}

	p, ok := s.registry.Lookup(route)
	if !ok {
		s.logger.Error("No authorisation processor for route", log.String("route", route.String()))
		s.observe(route, "unrouted")
		return nil, &ConfigurationError{Route: route, Reason: "no matching processor"}
	}

	logger := s.logger.With(log.String("route", route.String()), log.String("processor", p.Name()))
	logger.Debug("Dispatching authorisation request")

	resp, err := p.Process(ctx, req)
	switch {
	case err != nil:
		logger.Error("Authorisation processor failed", log.Error(err))
		s.observe(route, "error")
		return nil, err
	case resp.ErrorHolder != nil:
		s.observe(route, "rejected")
	default:
		s.observe(route, "ok")
	}

	logger.Debug("Authorisation request processed", log.String("scaStatus", string(resp.ScaStatus)))
	return resp, nil
}

func (s *Service) observe(route Route, result string) {
	s.metrics.ObserveDispatch(string(route.Kind), string(route.Approach), string(route.Stage), result)
}
