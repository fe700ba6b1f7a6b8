package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/xs2a-sca-engine/internal/sca/errormapper"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/sca/processor"
	"github.com/wso2/xs2a-sca-engine/internal/spi/mocks"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
)

type stubProcessor struct {
	name     string
	kind     model.ResourceKind
	approach model.ScaApproach
	stages   []processor.Stage
	resp     *model.ProcessorResponse
	err      error
	calls    int
}

func (s *stubProcessor) Name() string { return s.name }
func (s *stubProcessor) Kind() model.ResourceKind { return s.kind }
func (s *stubProcessor) Approach() model.ScaApproach { return s.approach }
func (s *stubProcessor) Stages() []processor.Stage { return s.stages }
func (s *stubProcessor) Process(context.Context, *model.ProcessorRequest) (*model.ProcessorResponse, error) {
	s.calls++
	return s.resp, s.err
}

func productionRegistry(t *testing.T) *Registry {
	t.Helper()
	deps := processor.Deps{Connector: &mocks.MockConnector{}, Mapper: errormapper.New(nil)}
	registry := NewRegistry()
	for _, p := range processor.Defaults(deps) {
		require.NoError(t, registry.Register(p))
	}
	return registry
}

func TestProductionRoutesHaveExactlyOneProcessor(t *testing.T) {
	registry := productionRegistry(t)
	require.NoError(t, registry.Verify(ProductionRoutes()))

	for _, route := range ProductionRoutes() {
		p, ok := registry.Lookup(route)
		require.True(t, ok, route.String())
		assert.Equal(t, route.Kind, p.Kind(), route.String())
		assert.Equal(t, route.Approach, p.Approach(), route.String())
		assert.Contains(t, p.Stages(), route.Stage, route.String())
	}
	assert.ElementsMatch(t, ProductionRoutes(), registry.Routes(), "registry serves exactly the production routes")
}

func TestProductionRouteTable(t *testing.T) {
	registry := productionRegistry(t)
	expected := []struct {
		route Route
		name  string
	}{
		{Route{model.KindAISConsent, model.ApproachEmbedded, processor.StageStart}, "embedded-start"},
		{Route{model.KindAISConsent, model.ApproachEmbedded, processor.StageOf(model.ScaStatusReceived)}, "embedded-authenticate"},
		{Route{model.KindAISConsent, model.ApproachEmbedded, processor.StageOf(model.ScaStatusPsuIdentified)}, "embedded-authenticate"},
		{Route{model.KindPayment, model.ApproachEmbedded, processor.StageOf(model.ScaStatusPsuAuthenticated)}, "embedded-select-method"},
		{Route{model.KindPIISConsent, model.ApproachEmbedded, processor.StageOf(model.ScaStatusScaMethodSelected)}, "embedded-finalise"},
		{Route{model.KindPayment, model.ApproachDecoupled, processor.StageStart}, "decoupled-start"},
		{Route{model.KindPayment, model.ApproachDecoupled, processor.StageOf(model.ScaStatusPsuIdentified)}, "decoupled-start"},
		{Route{model.KindPaymentCancellation, model.ApproachDecoupled, processor.StageOf(model.ScaStatusScaMethodSelected)}, "decoupled-finalise"},
		{Route{model.KindAISConsent, model.ApproachRedirect, processor.StageStart}, "redirect-start"},
		{Route{model.KindPaymentCancellation, model.ApproachRedirect, processor.StageOf(model.ScaStatusUnconfirmed)}, "redirect-confirmation"},
	}
	for _, tc := range expected {
		p, ok := registry.Lookup(tc.route)
		require.True(t, ok, tc.route.String())
		assert.Equal(t, tc.name, p.Name(), tc.route.String())
	}
}

func TestUnreachableRoutesAreConfigurationErrors(t *testing.T) {
	service := NewService(productionRegistry(t), nil)

	unreachable := []*model.ProcessorRequest{
		{Kind: model.KindAISConsent, Approach: model.ApproachRedirect,
			Authorisation: &model.Authorisation{ScaStatus: model.ScaStatusReceived}},
		{Kind: model.KindPayment, Approach: model.ApproachEmbedded,
			Authorisation: &model.Authorisation{ScaStatus: model.ScaStatusFinalised}},
		{Kind: model.KindPIISConsent, Approach: model.ApproachDecoupled,
			Authorisation: &model.Authorisation{ScaStatus: model.ScaStatusUnconfirmed}},
		{Kind: "UNKNOWN", Approach: model.ApproachEmbedded},
	}
	for _, req := range unreachable {
		resp, err := service.Apply(context.Background(), req)
		assert.Nil(t, resp)

		var configErr *ConfigurationError
		require.True(t, errors.As(err, &configErr), "expected configuration error, got %v", err)

		var messageErr *tpperror.MessageError
		assert.False(t, errors.As(err, &messageErr))
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	first := &stubProcessor{name: "first", kind: model.KindPayment, approach: model.ApproachEmbedded,
		stages: []processor.Stage{processor.StageStart}}
	second := &stubProcessor{name: "second", kind: model.KindPayment, approach: model.ApproachEmbedded,
		stages: []processor.Stage{processor.StageOf(model.ScaStatusReceived), processor.StageStart}}

	require.NoError(t, registry.Register(first))
	err := registry.Register(second)

	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Len(t, registry.Routes(), 1, "a rejected processor registers none of its routes")

	assert.Panics(t, func() { NewRegistry().MustRegister(first, first) })
}

func TestVerifyReportsMissingRoutes(t *testing.T) {
	registry := NewRegistry()
	err := registry.Verify(ProductionRoutes())

	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, err.Error(), "AIS_CONSENT/REDIRECT/start")
}

func TestApplyReturnsProcessorResponseUnmodified(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry, registry)
	require.NoError(t, err)

	want := &model.ProcessorResponse{ScaStatus: model.ScaStatusPsuIdentified, PsuMessage: "hello"}
	stub := &stubProcessor{name: "stub", kind: model.KindAISConsent, approach: model.ApproachEmbedded,
		stages: []processor.Stage{processor.StageOf(model.ScaStatusReceived)}, resp: want}
	service := NewService(NewRegistry().MustRegister(stub), m)

	got, err := service.Apply(context.Background(), &model.ProcessorRequest{
		Kind: model.KindAISConsent, Approach: model.ApproachEmbedded,
		Authorisation: &model.Authorisation{ScaStatus: model.ScaStatusReceived},
	})
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.Dispatches.WithLabelValues("AIS_CONSENT", "EMBEDDED", "received", "ok")))
}

func TestApplyCountsRejectionsAndErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry, registry)
	require.NoError(t, err)

	rejected := &stubProcessor{name: "rejected", kind: model.KindPayment, approach: model.ApproachEmbedded,
		stages: []processor.Stage{processor.StageStart},
		resp:   &model.ProcessorResponse{ErrorHolder: &tpperror.ErrorHolder{}}}
	broken := &stubProcessor{name: "broken", kind: model.KindPayment, approach: model.ApproachRedirect,
		stages: []processor.Stage{processor.StageStart}, err: errors.New("profile down")}
	service := NewService(NewRegistry().MustRegister(rejected, broken), m)

	_, err = service.Apply(context.Background(), &model.ProcessorRequest{Kind: model.KindPayment, Approach: model.ApproachEmbedded})
	require.NoError(t, err)
	_, err = service.Apply(context.Background(), &model.ProcessorRequest{Kind: model.KindPayment, Approach: model.ApproachRedirect})
	assert.EqualError(t, err, "profile down")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Dispatches.WithLabelValues("PAYMENT", "EMBEDDED", "start", "rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Dispatches.WithLabelValues("PAYMENT", "REDIRECT", "start", "error")))
}
