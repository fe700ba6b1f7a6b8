// Package requestctx carries the per-request TPP and PSU data through context.Context and
// exposes it behind the Provider interface used by the SCA components.
package requestctx

import (
	"context"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
)

type contextKey struct{}

// RequestData is the request-scoped data extracted from the inbound headers.
type RequestData struct {
	RequestID          string
	TppID              string
	InstanceID         string
	Psu                model.PsuIdData
	RedirectPreferred  model.Preference
	DecoupledPreferred model.Preference
}

// WithRequestData stores data on the context.
func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, contextKey{}, data)
}

// FromContext returns the request data, or an empty value when none was stored.
func FromContext(ctx context.Context) *RequestData {
	if data, ok := ctx.Value(contextKey{}).(*RequestData); ok && data != nil {
		return data
	}
	return &RequestData{}
}

// Provider gives read access to the current request's data.
type Provider interface {
	ResolveTppRedirectPreferred(ctx context.Context) model.Preference
	ResolveTppDecoupledPreferred(ctx context.Context) model.Preference
	TppID(ctx context.Context) string
	PsuIdData(ctx context.Context) model.PsuIdData
	InstanceID(ctx context.Context) string
	RequestID(ctx context.Context) string
}

// ContextProvider reads the data stored by WithRequestData.
type ContextProvider struct{}

var _ Provider = ContextProvider{}

// NewProvider returns the context-backed provider.
func NewProvider() Provider {
	return ContextProvider{}
}

func (ContextProvider) ResolveTppRedirectPreferred(ctx context.Context) model.Preference {
	return FromContext(ctx).RedirectPreferred
}

func (ContextProvider) ResolveTppDecoupledPreferred(ctx context.Context) model.Preference {
	return FromContext(ctx).DecoupledPreferred
}

func (ContextProvider) TppID(ctx context.Context) string {
	return FromContext(ctx).TppID
}

func (ContextProvider) PsuIdData(ctx context.Context) model.PsuIdData {
	return FromContext(ctx).Psu
}

func (ContextProvider) InstanceID(ctx context.Context) string {
	return FromContext(ctx).InstanceID
}

func (ContextProvider) RequestID(ctx context.Context) string {
	return FromContext(ctx).RequestID
}
