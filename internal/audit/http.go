package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

const (
	// EventsEndpoint is the path events are posted to on the audit service
	EventsEndpoint = "/api/audit-logs"

	defaultHTTPTimeout = 10 * time.Second
)

// HTTPSink posts events to an audit service in the background.
type HTTPSink struct {
	endpoint   string
	httpClient *http.Client
	logger     *log.Logger
	wg         sync.WaitGroup
}

// NewHTTPSink creates a sink posting to baseURL.
func NewHTTPSink(baseURL string) (*HTTPSink, error) {
	endpoint, err := url.JoinPath(baseURL, EventsEndpoint)
	if err != nil {
		return nil, err
	}
	return &HTTPSink{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuditHTTPSink")),
	}, nil
}

// RecordRequest returns immediately; the event is sent with a background context so that it
// survives the end of the request.
func (s *HTTPSink) RecordRequest(ctx context.Context, eventType EventType, payload interface{}) {
	event := NewEvent(ctx, eventType, payload)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.send(context.Background(), event)
	}()
}

// Wait blocks until every in-flight event has been sent.
func (s *HTTPSink) Wait() {
	s.wg.Wait()
}

func (s *HTTPSink) send(ctx context.Context, event *Event) {
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal audit event", log.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("Failed to create audit request", log.Error(err))
		return
	}
	req.Header.Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	if event.RequestID != "" {
		req.Header.Set(constants.RequestIDHeaderName, event.RequestID)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Failed to send audit event", log.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		s.logger.Warn("Audit service rejected event",
			log.Int("status", resp.StatusCode),
			log.String("eventType", string(event.EventType)))
		return
	}
	s.logger.Debug("Audit event sent", log.String("eventType", string(event.EventType)))
}
