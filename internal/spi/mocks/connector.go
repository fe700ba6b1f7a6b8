package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
)

// MockConnector is a mock implementation of spi.Connector
type MockConnector struct {
	mock.Mock
}

var _ spi.Connector = (*MockConnector)(nil)

func (m *MockConnector) VerifyCredentials(ctx context.Context, actx spi.AuthorisationContext, password string) (*spi.CredentialsResult, error) {
	args := m.Called(ctx, actx, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spi.CredentialsResult), args.Error(1)
}

func (m *MockConnector) SelectScaMethod(ctx context.Context, actx spi.AuthorisationContext, methodID string) (*spi.MethodSelectionResult, error) {
	args := m.Called(ctx, actx, methodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spi.MethodSelectionResult), args.Error(1)
}

func (m *MockConnector) ConfirmScaMethod(ctx context.Context, actx spi.AuthorisationContext, scaAuthenticationData string) (*spi.ConfirmationResult, error) {
	args := m.Called(ctx, actx, scaAuthenticationData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spi.ConfirmationResult), args.Error(1)
}

func (m *MockConnector) StartDecoupledSca(ctx context.Context, actx spi.AuthorisationContext) (*spi.DecoupledStartResult, error) {
	args := m.Called(ctx, actx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spi.DecoupledStartResult), args.Error(1)
}

func (m *MockConnector) GetDecoupledScaStatus(ctx context.Context, actx spi.AuthorisationContext) (*spi.DecoupledStatusResult, error) {
	args := m.Called(ctx, actx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spi.DecoupledStatusResult), args.Error(1)
}

func (m *MockConnector) CheckConfirmationCode(ctx context.Context, actx spi.AuthorisationContext, confirmationCode string) (*spi.ConfirmationResult, error) {
	args := m.Called(ctx, actx, confirmationCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spi.ConfirmationResult), args.Error(1)
}

func (m *MockConnector) GetConsentStatus(ctx context.Context, kind model.ResourceKind, consentID string) (string, error) {
	args := m.Called(ctx, kind, consentID)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) RequestAccountDetails(ctx context.Context, consentID, accountID string) (*spi.AccountDetails, error) {
	args := m.Called(ctx, consentID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spi.AccountDetails), args.Error(1)
}
