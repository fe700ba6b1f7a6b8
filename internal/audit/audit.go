// Package audit records the inbound SCA requests. Recording is fire-and-forget: sinks never
// return errors to the caller and never block the request on a slow backend.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
)

// EventType names the audited operation.
type EventType string

const (
	EventCreateConsentAuthorisation      EventType = "CREATE_CONSENT_AUTHORISATION"
	EventUpdateConsentPsuData            EventType = "UPDATE_CONSENT_PSU_DATA"
	EventGetConsentScaStatus             EventType = "GET_CONSENT_SCA_STATUS"
	EventGetConsentAuthorisations        EventType = "GET_CONSENT_AUTHORISATIONS"
	EventGetConsentStatus                EventType = "GET_CONSENT_STATUS"
	EventCreatePisAuthorisation          EventType = "CREATE_PIS_AUTHORISATION"
	EventUpdatePisPsuData                EventType = "UPDATE_PIS_PSU_DATA"
	EventGetPisScaStatus                 EventType = "GET_PIS_SCA_STATUS"
	EventGetPisAuthorisations            EventType = "GET_PIS_AUTHORISATIONS"
	EventCreatePisCancellationAuth       EventType = "CREATE_PIS_CANCELLATION_AUTHORISATION"
	EventUpdatePisCancellationPsuData    EventType = "UPDATE_PIS_CANCELLATION_PSU_DATA"
	EventGetPisCancellationScaStatus     EventType = "GET_PIS_CANCELLATION_SCA_STATUS"
	EventGetPisCancellationAuthorisation EventType = "GET_PIS_CANCELLATION_AUTHORISATIONS"
	EventGetAccountDetails               EventType = "GET_ACCOUNT_DETAILS"
)

// Event is one audited request.
type Event struct {
	EventType EventType       `json:"eventType"`
	Timestamp string          `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
	TppID     string          `json:"tppId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Sink receives audit events.
type Sink interface {
	RecordRequest(ctx context.Context, eventType EventType, payload interface{})
}

// NewEvent builds an event from the request context. A payload that cannot be encoded is
// dropped from the event.
func NewEvent(ctx context.Context, eventType EventType, payload interface{}) *Event {
	data := requestctx.FromContext(ctx)
	event := &Event{
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RequestID: data.RequestID,
		TppID:     data.TppID,
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			event.Payload = raw
		}
	}
	return event
}

// Multi fans an event out to every sink.
type Multi []Sink

func (m Multi) RecordRequest(ctx context.Context, eventType EventType, payload interface{}) {
	for _, sink := range m {
		sink.RecordRequest(ctx, eventType, payload)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) RecordRequest(context.Context, EventType, interface{}) {}
