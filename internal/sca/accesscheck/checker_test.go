package accesscheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
)

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

func TestIsAccessible(t *testing.T) {
	tests := []struct {
		name     string
		approach model.ScaApproach
		status   model.ScaStatus
		code     bool
		expected bool
	}{
		{"embedded received", model.ApproachEmbedded, model.ScaStatusReceived, false, true},
		{"embedded method selected", model.ApproachEmbedded, model.ScaStatusScaMethodSelected, false, true},
		{"decoupled received", model.ApproachDecoupled, model.ScaStatusReceived, false, true},
		{"decoupled running at the device", model.ApproachDecoupled, model.ScaStatusScaMethodSelected, false, false},
		{"unconfirmed without code", model.ApproachRedirect, model.ScaStatusUnconfirmed, false, false},
		{"unconfirmed with code", model.ApproachRedirect, model.ScaStatusUnconfirmed, true, true},
		{"code on redirect received", model.ApproachRedirect, model.ScaStatusReceived, true, false},
		{"code on embedded", model.ApproachEmbedded, model.ScaStatusPsuAuthenticated, true, false},
		{"code on decoupled running", model.ApproachDecoupled, model.ScaStatusScaMethodSelected, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			auth := &model.Authorisation{ChosenScaApproach: tc.approach, ScaStatus: tc.status}
			assert.Equal(t, tc.expected, IsAccessible(auth, tc.code))
		})
	}
}

func TestIsEndpointAccessible(t *testing.T) {
	lookup := &mockLookup{}
	lookup.On("GetAuthorisationByID", mock.Anything, "decoupled").Return(&model.Authorisation{
		ID:                "decoupled",
		ChosenScaApproach: model.ApproachDecoupled,
		ScaStatus:         model.ScaStatusScaMethodSelected,
	}, nil)
	lookup.On("GetAuthorisationByID", mock.Anything, "unknown").Return(nil, model.ErrAuthorisationNotFound)
	lookup.On("GetAuthorisationByID", mock.Anything, "broken").Return(nil, errors.New("db down"))

	checker := NewChecker(lookup)
	ctx := context.Background()

	ok, err := checker.IsEndpointAccessible(ctx, "decoupled", false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checker.IsEndpointAccessible(ctx, "unknown", true)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = checker.IsEndpointAccessible(ctx, "broken", false)
	assert.Error(t, err)
}
