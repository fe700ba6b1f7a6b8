// Package chain dispatches authorisation requests to the processor registered for the
// request's resource kind, approach and stage.
package chain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/processor"
)

// Route is the dispatch key of a processor.
type Route struct {
	Kind     model.ResourceKind
	Approach model.ScaApproach
	Stage    processor.Stage
}

func (r Route) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Kind, r.Approach, r.Stage)
}

// ConfigurationError reports a dispatch that no processor can serve, or a broken registry.
// It is a programming or deployment fault, never a TPP error.
type ConfigurationError struct {
	Route  Route
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("authorisation chain misconfigured for %s: %s", e.Route, e.Reason)
}

// Registry maps routes to processors.
type Registry struct {
	processors map[Route]processor.Processor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{processors: make(map[Route]processor.Processor)}
}

// Register adds p under every stage it declares. A route that already has a processor is
// rejected and nothing is registered.
func (r *Registry) Register(p processor.Processor) error {
	routes := make([]Route, 0, len(p.Stages()))
	for _, stage := range p.Stages() {
		route := Route{Kind: p.Kind(), Approach: p.Approach(), Stage: stage}
		if existing, ok := r.processors[route]; ok {
			return &ConfigurationError{
				Route:  route,
				Reason: fmt.Sprintf("%s already registered, cannot add %s", existing.Name(), p.Name()),
			}
		}
		routes = append(routes, route)
	}
	for _, route := range routes {
		r.processors[route] = p
	}
	return nil
}

// MustRegister registers every processor and panics on the first conflict.
func (r *Registry) MustRegister(processors ...processor.Processor) *Registry {
	for _, p := range processors {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the processor of route.
func (r *Registry) Lookup(route Route) (processor.Processor, bool) {
	p, ok := r.processors[route]
	return p, ok
}

// Routes lists the registered routes in a stable order.
func (r *Registry) Routes() []Route {
	routes := make([]Route, 0, len(r.processors))
	for route := range r.processors {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].String() < routes[j].String() })
	return routes
}

// Verify checks that every route in required has a processor.
func (r *Registry) Verify(required []Route) error {
	var missing []string
	for _, route := range required {
		if _, ok := r.processors[route]; !ok {
			missing = append(missing, route.String())
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Route: required[0], Reason: "no processor for " + strings.Join(missing, ", ")}
	}
	return nil
}

// ProductionRoutes are the routes reachable through the services: creation for every approach,
// then each non-final stage the approach passes through.
func ProductionRoutes() []Route {
	stages := map[model.ScaApproach][]processor.Stage{
		model.ApproachEmbedded: {
			processor.StageStart,
			processor.StageOf(model.ScaStatusReceived),
			processor.StageOf(model.ScaStatusPsuIdentified),
			processor.StageOf(model.ScaStatusPsuAuthenticated),
			processor.StageOf(model.ScaStatusScaMethodSelected),
		},
		model.ApproachDecoupled: {
			processor.StageStart,
			processor.StageOf(model.ScaStatusReceived),
			processor.StageOf(model.ScaStatusPsuIdentified),
			processor.StageOf(model.ScaStatusScaMethodSelected),
		},
		model.ApproachRedirect: {
			processor.StageStart,
			processor.StageOf(model.ScaStatusUnconfirmed),
		},
	}

	var routes []Route
	for _, kind := range model.AllResourceKinds {
		for _, approach := range model.AllScaApproaches {
			for _, stage := range stages[approach] {
				routes = append(routes, Route{Kind: kind, Approach: approach, Stage: stage})
			}
		}
	}
	return routes
}
