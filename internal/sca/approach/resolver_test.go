package approach

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wso2/xs2a-sca-engine/internal/profile"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
)

const (
	R = model.ApproachRedirect
	E = model.ApproachEmbedded
	D = model.ApproachDecoupled

	T = model.Preferred
	F = model.NotPreferred
	U = model.NoPreference
)

var preferences = []model.Preference{T, F, U}

func TestResolveAllPreferenceCombinations(t *testing.T) {
	type row struct {
		redirect  model.Preference
		decoupled model.Preference
		expected  model.ScaApproach
	}
	orderings := []struct {
		supported []model.ScaApproach
		rows      []row
	}{
		{
			supported: []model.ScaApproach{R, E, D},
			rows: []row{
				{T, T, R}, {T, F, R}, {T, U, R},
				{F, T, D}, {F, F, E}, {F, U, E},
				{U, T, D}, {U, F, R}, {U, U, R},
			},
		},
		{
			supported: []model.ScaApproach{E, D, R},
			rows: []row{
				{T, T, D}, {T, F, R}, {T, U, R},
				{F, T, D}, {F, F, E}, {F, U, E},
				{U, T, D}, {U, F, E}, {U, U, E},
			},
		},
		{
			supported: []model.ScaApproach{D, R, E},
			rows: []row{
				{T, T, D}, {T, F, R}, {T, U, R},
				{F, T, D}, {F, F, E}, {F, U, D},
				{U, T, D}, {U, F, R}, {U, U, D},
			},
		},
	}

	for _, ordering := range orderings {
		require.Len(t, ordering.rows, len(preferences)*len(preferences))
		for _, tc := range ordering.rows {
			name := fmt.Sprintf("%v/redirect=%s/decoupled=%s", ordering.supported, tc.redirect, tc.decoupled)
			t.Run(name, func(t *testing.T) {
				got, err := Resolve(ordering.supported, tc.redirect, tc.decoupled)
				require.NoError(t, err)
				assert.Equal(t, tc.expected, got)
			})
		}
	}
}

func TestResolveEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		supported []model.ScaApproach
		redirect  model.Preference
		decoupled model.Preference
		expected  model.ScaApproach
	}{
		{"boost not satisfiable falls back to first supported", []model.ScaApproach{E}, T, U, E},
		{"unsatisfiable boost ignores exclusions", []model.ScaApproach{D, E}, T, F, D},
		{"exclusion emptying the list falls back to first", []model.ScaApproach{R}, F, U, R},
		{"both excluded with no embedded falls back to first", []model.ScaApproach{D, R}, F, F, D},
		{"excluded redirect skipped", []model.ScaApproach{R, E}, F, U, E},
		{"decoupled boost beats earlier redirect", []model.ScaApproach{R, D}, U, T, D},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.supported, tc.redirect, tc.decoupled)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestResolveEmptySupportedList(t *testing.T) {
	_, err := Resolve(nil, U, U)
	assert.ErrorIs(t, err, ErrNoSupportedApproach)
}

// orderedSubsets returns every ordered, non-empty selection of distinct approaches.
func orderedSubsets() [][]model.ScaApproach {
	var out [][]model.ScaApproach
	var build func(prefix []model.ScaApproach, used map[model.ScaApproach]bool)
	build = func(prefix []model.ScaApproach, used map[model.ScaApproach]bool) {
		if len(prefix) > 0 {
			out = append(out, append([]model.ScaApproach(nil), prefix...))
		}
		for _, a := range model.AllScaApproaches {
			if used[a] {
				continue
			}
			used[a] = true
			build(append(prefix, a), used)
			used[a] = false
		}
	}
	build(nil, map[model.ScaApproach]bool{})
	return out
}

func contains(list []model.ScaApproach, a model.ScaApproach) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func indexOf(list []model.ScaApproach, a model.ScaApproach) int {
	for i, x := range list {
		if x == a {
			return i
		}
	}
	return -1
}

func TestResolveProperties(t *testing.T) {
	subsets := orderedSubsets()
	require.Len(t, subsets, 15)

	for _, supported := range subsets {
		for _, redirect := range preferences {
			for _, decoupled := range preferences {
				got, err := Resolve(supported, redirect, decoupled)
				require.NoError(t, err)

				assert.True(t, contains(supported, got), "result %s outside %v", got, supported)

				if redirect == T && contains(supported, R) && !(decoupled == T && contains(supported, D)) {
					assert.Equal(t, R, got, "redirect boost on %v", supported)
				}
				if decoupled == T && contains(supported, D) && !(redirect == T && contains(supported, R)) {
					assert.Equal(t, D, got, "decoupled boost on %v", supported)
				}
				if redirect == T && decoupled == T && contains(supported, R) && contains(supported, D) {
					expected := R
					if indexOf(supported, D) < indexOf(supported, R) {
						expected = D
					}
					assert.Equal(t, expected, got, "tie-break on %v", supported)
				}
			}
		}
	}
}

func TestResolveBoostIgnoresListOrder(t *testing.T) {
	for _, supported := range orderedSubsets() {
		if !contains(supported, R) {
			continue
		}
		for _, decoupled := range []model.Preference{F, U} {
			got, err := Resolve(supported, T, decoupled)
			require.NoError(t, err)
			assert.Equal(t, R, got)
		}
	}
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) GetSupportedScaApproaches(ctx context.Context, instanceID string) ([]model.ScaApproach, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScaApproach), args.Error(1)
}

func (m *mockProfileService) GetAspspSettings(ctx context.Context, instanceID string) (*profile.AspspSettings, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.AspspSettings), args.Error(1)
}

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) GetAuthorisationByID(ctx context.Context, authorisationID string) (*model.Authorisation, error) {
	args := m.Called(ctx, authorisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Authorisation), args.Error(1)
}

func TestResolveForNewAuthorisationUsesRequestPreferences(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry, registry)
	require.NoError(t, err)

	profiles := &mockProfileService{}
	profiles.On("GetSupportedScaApproaches", mock.Anything, "bank-a").
		Return([]model.ScaApproach{E, R, D}, nil)

	resolver := NewResolver(profiles, requestctx.NewProvider(), &mockLookup{}, m)
	ctx := requestctx.WithRequestData(context.Background(), &requestctx.RequestData{
		InstanceID:         "bank-a",
		DecoupledPreferred: model.Preferred,
	})

	got, err := resolver.ResolveForNewAuthorisation(ctx)
	require.NoError(t, err)
	assert.Equal(t, D, got)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ApproachResolutions.WithLabelValues("DECOUPLED")))
	profiles.AssertExpectations(t)
}

func TestResolveForNewAuthorisationWithoutPreferences(t *testing.T) {
	profiles := &mockProfileService{}
	profiles.On("GetSupportedScaApproaches", mock.Anything, "").Return([]model.ScaApproach{E}, nil)

	resolver := NewResolver(profiles, requestctx.NewProvider(), &mockLookup{}, nil)
	got, err := resolver.ResolveForNewAuthorisation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, E, got)
}

func TestResolveForNewAuthorisationProfileErrors(t *testing.T) {
	t.Run("profile lookup fails", func(t *testing.T) {
		profiles := &mockProfileService{}
		profiles.On("GetSupportedScaApproaches", mock.Anything, "").Return(nil, profile.ErrUnknownInstance)

		resolver := NewResolver(profiles, requestctx.NewProvider(), &mockLookup{}, nil)
		_, err := resolver.ResolveForNewAuthorisation(context.Background())
		assert.ErrorIs(t, err, profile.ErrUnknownInstance)
	})

	t.Run("empty approach list", func(t *testing.T) {
		profiles := &mockProfileService{}
		profiles.On("GetSupportedScaApproaches", mock.Anything, "").Return([]model.ScaApproach{}, nil)

		resolver := NewResolver(profiles, requestctx.NewProvider(), &mockLookup{}, nil)
		_, err := resolver.ResolveForNewAuthorisation(context.Background())
		assert.ErrorIs(t, err, ErrNoSupportedApproach)
	})
}

func TestResolveForExistingAuthorisation(t *testing.T) {
	lookup := &mockLookup{}
	lookup.On("GetAuthorisationByID", mock.Anything, "auth-1").
		Return(&model.Authorisation{ID: "auth-1", ChosenScaApproach: D}, nil)
	lookup.On("GetAuthorisationByID", mock.Anything, "missing").
		Return(nil, nil)
	lookup.On("GetAuthorisationByID", mock.Anything, "broken").
		Return(nil, errors.New("db down"))

	resolver := NewResolver(&mockProfileService{}, requestctx.NewProvider(), lookup, nil)
	ctx := context.Background()

	first, err := resolver.ResolveForExistingAuthorisation(ctx, "auth-1")
	require.NoError(t, err)
	second, err := resolver.ResolveForExistingAuthorisation(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, D, first)
	assert.Equal(t, first, second)

	_, err = resolver.ResolveForExistingAuthorisation(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrAuthorisationNotFound)

	_, err = resolver.ResolveForExistingAuthorisation(ctx, "broken")
	assert.EqualError(t, err, "db down")
}
