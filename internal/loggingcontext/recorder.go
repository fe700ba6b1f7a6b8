// Package loggingcontext collects the statuses an operation produced so that the request log
// line can carry them.
package loggingcontext

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/middleware"
)

const recorderKey = "logging_context"

// Recorder receives the statuses of the current operation. It is write-only.
type Recorder interface {
	StoreConsentStatus(status string)
	StoreScaStatus(status model.ScaStatus)
	StoreTransactionStatus(status string)
}

// Statuses is the Recorder of one request.
type Statuses struct {
	mu                sync.Mutex
	consentStatus     string
	scaStatus         model.ScaStatus
	transactionStatus string
}

var _ Recorder = (*Statuses)(nil)

// New creates an empty recorder.
func New() *Statuses {
	return &Statuses{}
}

func (s *Statuses) StoreConsentStatus(status string) {
	s.mu.Lock()
	s.consentStatus = status
	s.mu.Unlock()
}

func (s *Statuses) StoreScaStatus(status model.ScaStatus) {
	s.mu.Lock()
	s.scaStatus = status
	s.mu.Unlock()
}

func (s *Statuses) StoreTransactionStatus(status string) {
	s.mu.Lock()
	s.transactionStatus = status
	s.mu.Unlock()
}

// Fields returns the recorded statuses as log fields. Unset statuses are omitted.
func (s *Statuses) Fields() []log.Field {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fields []log.Field
	if s.consentStatus != "" {
		fields = append(fields, log.String("consentStatus", s.consentStatus))
	}
	if s.scaStatus != "" {
		fields = append(fields, log.String("scaStatus", string(s.scaStatus)))
	}
	if s.transactionStatus != "" {
		fields = append(fields, log.String("transactionStatus", s.transactionStatus))
	}
	return fields
}

// Nop discards everything.
type Nop struct{}

func (Nop) StoreConsentStatus(string) {}
func (Nop) StoreScaStatus(model.ScaStatus) {}
func (Nop) StoreTransactionStatus(string) {}

// Middleware attaches a fresh recorder to each request and logs the recorded statuses once
// the handler returns.
func Middleware() gin.HandlerFunc {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Access"))
	return func(c *gin.Context) {
		start := time.Now()
		statuses := New()
		c.Set(recorderKey, statuses)

		c.Next()

		fields := append([]log.Field{
			log.String("method", c.Request.Method),
			log.String("path", c.FullPath()),
			log.Int("status", c.Writer.Status()),
			log.Int("durationMs", int(time.Since(start).Milliseconds())),
			log.String("correlationId", c.GetString(middleware.CorrelationIDKey)),
		}, statuses.Fields()...)
		logger.Info("Request completed", fields...)
	}
}

// FromGin returns the recorder attached by Middleware, or Nop.
func FromGin(c *gin.Context) Recorder {
	if v, ok := c.Get(recorderKey); ok {
		if r, ok := v.(Recorder); ok {
			return r
		}
	}
	return Nop{}
}
