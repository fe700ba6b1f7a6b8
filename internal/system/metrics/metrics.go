// Package metrics holds the prometheus collectors of the SCA engine.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ApproachResolutions *prometheus.CounterVec
	Dispatches          *prometheus.CounterVec
	ValidationFailures  *prometheus.CounterVec
	ConnectorErrors     *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
	defaultErr     error
)

// Default returns the process-wide collectors registered on the default registry.
func Default() (*Metrics, error) {
	defaultOnce.Do(func() {
		defaultMetrics, defaultErr = New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
	return defaultMetrics, defaultErr
}

// New creates the collectors and registers them. Collectors already present on the
// registerer are reused.
func New(registry prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		ApproachResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xs2a_sca_approach_resolutions_total",
			Help: "SCA approaches chosen for new authorisations",
		}, []string{"approach"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xs2a_authorisation_dispatches_total",
			Help: "Authorisation chain dispatches by route and result",
		}, []string{"kind", "approach", "stage", "result"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xs2a_validation_failures_total",
			Help: "Requests rejected by the validation gate",
		}, []string{"service", "code"}),
		ConnectorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xs2a_connector_errors_total",
			Help: "Bank connector failures mapped to TPP errors",
		}, []string{"service", "code"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xs2a_http_requests_total",
			Help: "HTTP requests processed",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xs2a_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		gatherer: gatherer,
	}

	var err error
	m.ApproachResolutions, err = register(registry, m.ApproachResolutions)
	if err != nil {
		return nil, err
	}
	m.Dispatches, err = register(registry, m.Dispatches)
	if err != nil {
		return nil, err
	}
	m.ValidationFailures, err = register(registry, m.ValidationFailures)
	if err != nil {
		return nil, err
	}
	m.ConnectorErrors, err = register(registry, m.ConnectorErrors)
	if err != nil {
		return nil, err
	}
	m.HTTPRequests, err = register(registry, m.HTTPRequests)
	if err != nil {
		return nil, err
	}
	m.HTTPDuration, err = register(registry, m.HTTPDuration)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](registry prometheus.Registerer, c T) (T, error) {
	if err := registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveApproach counts one resolved approach.
func (m *Metrics) ObserveApproach(approach string) {
	if m == nil {
		return
	}
	m.ApproachResolutions.WithLabelValues(approach).Inc()
}

// ObserveDispatch counts one chain dispatch.
func (m *Metrics) ObserveDispatch(kind, approach, stage, result string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(kind, approach, stage, result).Inc()
}

// ObserveValidationFailure counts one rejected request.
func (m *Metrics) ObserveValidationFailure(service, code string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(service, code).Inc()
}

// ObserveConnectorError counts one mapped connector failure.
func (m *Metrics) ObserveConnectorError(service, code string) {
	if m == nil {
		return
	}
	m.ConnectorErrors.WithLabelValues(service, code).Inc()
}

// GinMiddleware records request count and latency using the matched route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
