package processor

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wso2/xs2a-sca-engine/internal/profile"
	"github.com/wso2/xs2a-sca-engine/internal/sca/errormapper"
	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/spi/mocks"
	"github.com/wso2/xs2a-sca-engine/internal/system/config"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/utils"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newDeps(connector *mocks.MockConnector) Deps {
	profiles := profile.NewStaticService(config.ProfileConfig{
		DefaultInstance: "default",
		Instances: map[string]config.AspspSettingsConfig{
			"default": {
				SupportedScaApproaches:     []string{"REDIRECT", "EMBEDDED", "DECOUPLED"},
				AisRedirectURL:             "https://bank.example/ais/{redirect-id}/{encrypted-consent-id}",
				PisRedirectURL:             "https://bank.example/pis/{redirect-id}/{encrypted-payment-id}",
				PisCancellationRedirectURL: "https://bank.example/pis-cancellation/{redirect-id}/{encrypted-payment-id}",
			},
		},
	})
	return Deps{
		Connector: connector,
		Mapper:    errormapper.New(nil),
		Profiles:  profiles,
		Clock:     func() time.Time { return fixedNow },
	}
}

func consentResource() model.ResourceSnapshot {
	return model.ResourceSnapshot{
		ID:     "consent-1",
		Kind:   model.KindAISConsent,
		Status: model.ConsentStatusReceived,
		PsuIDs: []model.PsuIdData{{PsuID: "alice"}},
	}
}

func existing(approach model.ScaApproach, status model.ScaStatus) *model.Authorisation {
	return &model.Authorisation{
		ID:                "auth-1",
		ParentID:          "consent-1",
		Kind:              model.KindAISConsent,
		Psu:               model.PsuIdData{PsuID: "alice"},
		ScaStatus:         status,
		ChosenScaApproach: approach,
		AvailableMethods:  []model.AuthenticationObject{{AuthenticationType: "SMS_OTP", AuthenticationMethodID: "sms"}},
	}
}

func TestEmbeddedStart(t *testing.T) {
	connector := &mocks.MockConnector{}
	p := NewEmbeddedStart(model.KindAISConsent, newDeps(connector))

	withoutPassword, err := p.Process(context.Background(), &model.ProcessorRequest{
		Kind: model.KindAISConsent, Approach: model.ApproachEmbedded, Resource: consentResource(),
		Update: model.UpdateData{Psu: model.PsuIdData{PsuID: "alice"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusReceived, withoutPassword.ScaStatus)
	assert.NotEmpty(t, withoutPassword.Authorisation.ID)
	assert.Equal(t, "consent-1", withoutPassword.Authorisation.ParentID)
	assert.Equal(t, model.ApproachEmbedded, withoutPassword.Authorisation.ChosenScaApproach)
	assert.Equal(t, fixedNow.UnixMilli(), withoutPassword.Authorisation.CreatedTime)

	withPassword, err := p.Process(context.Background(), &model.ProcessorRequest{
		Resource: consentResource(),
		Update:   model.UpdateData{Psu: model.PsuIdData{PsuID: "alice"}, Password: "secret"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusPsuIdentified, withPassword.ScaStatus)
	assert.NotEqual(t, withoutPassword.Authorisation.ID, withPassword.Authorisation.ID)

	connector.AssertNotCalled(t, "VerifyCredentials", mock.Anything, mock.Anything, mock.Anything)
}

func TestEmbeddedAuthenticate(t *testing.T) {
	methods := []model.AuthenticationObject{
		{AuthenticationType: "SMS_OTP", AuthenticationMethodID: "sms"},
		{AuthenticationType: "PUSH_OTP", AuthenticationMethodID: "push"},
	}
	sms := methods[0]

	tests := []struct {
		name           string
		result         *spi.CredentialsResult
		expected       model.ScaStatus
		resourceStatus string
	}{
		{"several methods", &spi.CredentialsResult{AvailableMethods: methods}, model.ScaStatusPsuAuthenticated, ""},
		{"single method chosen by the ASPSP", &spi.CredentialsResult{AvailableMethods: methods[:1], ChosenMethod: &sms}, model.ScaStatusScaMethodSelected, ""},
		{"exempted", &spi.CredentialsResult{ScaExempted: true}, model.ScaStatusExempted, model.ConsentStatusValid},
		{"no methods", &spi.CredentialsResult{}, model.ScaStatusExempted, model.ConsentStatusValid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			connector := &mocks.MockConnector{}
			connector.On("VerifyCredentials", mock.Anything, mock.MatchedBy(func(actx spi.AuthorisationContext) bool {
				return actx.AuthorisationID == "auth-1" && actx.ResourceID == "consent-1" && actx.Kind == model.KindAISConsent
			}), "secret").Return(tc.result, nil).Once()

			p := NewEmbeddedAuthenticate(model.KindAISConsent, newDeps(connector))
			original := existing(model.ApproachEmbedded, model.ScaStatusReceived)
			resp, err := p.Process(context.Background(), &model.ProcessorRequest{
				Resource: consentResource(), Authorisation: original,
				Update: model.UpdateData{Password: "secret"},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resp.ScaStatus)
			assert.Equal(t, tc.expected, resp.Authorisation.ScaStatus)
			assert.Equal(t, tc.resourceStatus, resp.ResourceStatus)
			assert.Nil(t, resp.ErrorHolder)
			assert.Equal(t, model.ScaStatusReceived, original.ScaStatus, "request authorisation must not be mutated")
			connector.AssertExpectations(t)
		})
	}
}

func TestEmbeddedAuthenticateIdentificationOnly(t *testing.T) {
	connector := &mocks.MockConnector{}
	p := NewEmbeddedAuthenticate(model.KindAISConsent, newDeps(connector))

	auth := existing(model.ApproachEmbedded, model.ScaStatusReceived)
	auth.Psu = model.PsuIdData{}
	resp, err := p.Process(context.Background(), &model.ProcessorRequest{
		Resource: consentResource(), Authorisation: auth,
		Update: model.UpdateData{Psu: model.PsuIdData{PsuID: "alice"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusPsuIdentified, resp.ScaStatus)
	assert.Equal(t, "alice", resp.Authorisation.Psu.PsuID)
	connector.AssertNotCalled(t, "VerifyCredentials", mock.Anything, mock.Anything, mock.Anything)
}

func TestEmbeddedAuthenticateRejectedCredentials(t *testing.T) {
	connector := &mocks.MockConnector{}
	connector.On("VerifyCredentials", mock.Anything, mock.Anything, "wrong").
		Return(nil, spi.NewFailure(codes.PsuCredentialsInvalid, "bad password")).Once()

	p := NewEmbeddedAuthenticate(model.KindAISConsent, newDeps(connector))
	resp, err := p.Process(context.Background(), &model.ProcessorRequest{
		Resource: consentResource(), Authorisation: existing(model.ApproachEmbedded, model.ScaStatusPsuIdentified),
		Update: model.UpdateData{Password: "wrong"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusFailed, resp.ScaStatus)
	assert.Equal(t, model.ScaStatusFailed, resp.Authorisation.ScaStatus)
	require.NotNil(t, resp.ErrorHolder)
	assert.Equal(t, "AIS_401", resp.ErrorHolder.ErrorType.String())
	assert.Equal(t, codes.PsuCredentialsInvalid, resp.ErrorHolder.TppMessages[0].Code)
	assert.Equal(t, model.ConsentStatusRejected, resp.ResourceStatus)
}

func TestEmbeddedAuthenticateRequiresAuthorisation(t *testing.T) {
	p := NewEmbeddedAuthenticate(model.KindAISConsent, newDeps(&mocks.MockConnector{}))
	_, err := p.Process(context.Background(), &model.ProcessorRequest{Resource: consentResource()})
	assert.ErrorIs(t, err, ErrMissingAuthorisation)
}

func TestEmbeddedSelectMethod(t *testing.T) {
	connector := &mocks.MockConnector{}
	challenge := &model.ChallengeData{OtpMaxLength: 6, OtpFormat: "integer"}
	connector.On("SelectScaMethod", mock.Anything, mock.Anything, "sms").
		Return(&spi.MethodSelectionResult{Challenge: challenge, PsuMessage: "Enter the code"}, nil).Once()

	p := NewEmbeddedSelectMethod(model.KindAISConsent, newDeps(connector))
	resp, err := p.Process(context.Background(), &model.ProcessorRequest{
		Resource: consentResource(), Authorisation: existing(model.ApproachEmbedded, model.ScaStatusPsuAuthenticated),
		Update: model.UpdateData{AuthenticationMethodID: "sms"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusScaMethodSelected, resp.ScaStatus)
	assert.Equal(t, "sms", resp.Authorisation.AuthenticationMethodID)
	require.NotNil(t, resp.ChosenMethod)
	assert.Equal(t, "SMS_OTP", resp.ChosenMethod.AuthenticationType)
	assert.Equal(t, challenge, resp.Challenge)
	assert.Equal(t, "Enter the code", resp.PsuMessage)
	connector.AssertExpectations(t)
}

func TestEmbeddedFinalise(t *testing.T) {
	t.Run("consent becomes valid", func(t *testing.T) {
		connector := &mocks.MockConnector{}
		connector.On("ConfirmScaMethod", mock.Anything, mock.Anything, "123456").
			Return(&spi.ConfirmationResult{Confirmed: true}, nil).Once()

		p := NewEmbeddedFinalise(model.KindAISConsent, newDeps(connector))
		resp, err := p.Process(context.Background(), &model.ProcessorRequest{
			Resource: consentResource(), Authorisation: existing(model.ApproachEmbedded, model.ScaStatusScaMethodSelected),
			Update: model.UpdateData{ScaAuthenticationData: "123456"},
		})
		require.NoError(t, err)
		assert.Equal(t, model.ScaStatusFinalised, resp.ScaStatus)
		assert.Equal(t, model.ConsentStatusValid, resp.ResourceStatus)
	})

	t.Run("payment takes the reported status", func(t *testing.T) {
		connector := &mocks.MockConnector{}
		connector.On("ConfirmScaMethod", mock.Anything, mock.Anything, "123456").
			Return(&spi.ConfirmationResult{Confirmed: true, ResourceStatus: model.TransactionStatusAcceptedTechnical}, nil).Once()

		p := NewEmbeddedFinalise(model.KindPayment, newDeps(connector))
		resp, err := p.Process(context.Background(), &model.ProcessorRequest{
			Resource:      model.ResourceSnapshot{ID: "pay-1", Kind: model.KindPayment},
			Authorisation: existing(model.ApproachEmbedded, model.ScaStatusScaMethodSelected),
			Update:        model.UpdateData{ScaAuthenticationData: "123456"},
		})
		require.NoError(t, err)
		assert.Equal(t, model.TransactionStatusAcceptedTechnical, resp.ResourceStatus)
	})

	t.Run("not confirmed fails the authorisation", func(t *testing.T) {
		connector := &mocks.MockConnector{}
		connector.On("ConfirmScaMethod", mock.Anything, mock.Anything, "000000").
			Return(&spi.ConfirmationResult{Confirmed: false}, nil).Once()

		p := NewEmbeddedFinalise(model.KindPayment, newDeps(connector))
		resp, err := p.Process(context.Background(), &model.ProcessorRequest{
			Resource:      model.ResourceSnapshot{ID: "pay-1", Kind: model.KindPayment},
			Authorisation: existing(model.ApproachEmbedded, model.ScaStatusScaMethodSelected),
			Update:        model.UpdateData{ScaAuthenticationData: "000000"},
		})
		require.NoError(t, err)
		assert.Equal(t, model.ScaStatusFailed, resp.ScaStatus)
		require.NotNil(t, resp.ErrorHolder)
		assert.Equal(t, "PIS_400", resp.ErrorHolder.ErrorType.String())
		assert.Equal(t, codes.ScaInvalid, resp.ErrorHolder.TppMessages[0].Code)
		assert.Equal(t, model.TransactionStatusRejected, resp.ResourceStatus)
	})

	t.Run("technical failure", func(t *testing.T) {
		connector := &mocks.MockConnector{}
		connector.On("ConfirmScaMethod", mock.Anything, mock.Anything, "1").
			Return(nil, errors.New("timeout")).Once()

		p := NewEmbeddedFinalise(model.KindPaymentCancellation, newDeps(connector))
		resp, err := p.Process(context.Background(), &model.ProcessorRequest{
			Resource:      model.ResourceSnapshot{ID: "pay-1", Kind: model.KindPaymentCancellation},
			Authorisation: existing(model.ApproachEmbedded, model.ScaStatusScaMethodSelected),
			Update:        model.UpdateData{ScaAuthenticationData: "1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "PIS_CANC_500", resp.ErrorHolder.ErrorType.String())
		assert.Empty(t, resp.ResourceStatus)
	})
}

func TestMultilevelSuccessStatus(t *testing.T) {
	alice := model.PsuIdData{PsuID: "alice"}
	bob := model.PsuIdData{PsuID: "bob"}
	twoPsus := []model.PsuIdData{alice, bob}

	first := &model.ProcessorRequest{Resource: model.ResourceSnapshot{MultilevelScaRequired: true, PsuIDs: twoPsus}}
	afterAlice := &model.ProcessorRequest{Resource: model.ResourceSnapshot{
		MultilevelScaRequired: true, PsuIDs: twoPsus, AuthorisedPsus: []model.PsuIdData{alice},
	}}

	assert.Equal(t, model.ConsentStatusPartiallyAuthorised, successStatus(model.KindAISConsent, first, alice, ""))
	assert.Equal(t, model.ConsentStatusValid, successStatus(model.KindPIISConsent, afterAlice, bob, ""))
	assert.Equal(t, model.TransactionStatusPartiallyAccepted,
		successStatus(model.KindPayment, first, alice, model.TransactionStatusAcceptedCustomer))
	assert.Equal(t, model.TransactionStatusAcceptedCustomer, successStatus(model.KindPayment, afterAlice, bob, ""))
	assert.Empty(t, successStatus(model.KindPaymentCancellation, first, alice, ""))
	assert.Equal(t, model.TransactionStatusCancelled, successStatus(model.KindPaymentCancellation, afterAlice, bob, ""))

	t.Run("same PSU twice does not complete", func(t *testing.T) {
		assert.Equal(t, model.ConsentStatusPartiallyAuthorised, successStatus(model.KindAISConsent, afterAlice, alice, ""))
		assert.Equal(t, model.TransactionStatusPartiallyAccepted, successStatus(model.KindPayment, afterAlice, alice, ""))
	})

	t.Run("unlisted PSUs do not count", func(t *testing.T) {
		req := &model.ProcessorRequest{Resource: model.ResourceSnapshot{
			MultilevelScaRequired: true, PsuIDs: twoPsus, AuthorisedPsus: []model.PsuIdData{{PsuID: "mallory"}},
		}}
		assert.Equal(t, model.ConsentStatusPartiallyAuthorised, successStatus(model.KindAISConsent, req, alice, ""))
		assert.Equal(t, model.ConsentStatusPartiallyAuthorised, successStatus(model.KindAISConsent, afterAlice, model.PsuIdData{}, ""))
	})
}

func TestDecoupledStart(t *testing.T) {
	t.Run("without PSU waits for identification", func(t *testing.T) {
		connector := &mocks.MockConnector{}
		p := NewDecoupledStart(model.KindAISConsent, newDeps(connector))
		resp, err := p.Process(context.Background(), &model.ProcessorRequest{Resource: consentResource()})
		require.NoError(t, err)
		assert.Equal(t, model.ScaStatusReceived, resp.ScaStatus)
		connector.AssertNotCalled(t, "StartDecoupledSca", mock.Anything, mock.Anything)
	})

	t.Run("with PSU notifies the device", func(t *testing.T) {
		connector := &mocks.MockConnector{}
		connector.On("StartDecoupledSca", mock.Anything, mock.MatchedBy(func(actx spi.AuthorisationContext) bool {
			return actx.Psu.PsuID == "alice"
		})).Return(&spi.DecoupledStartResult{
			ChosenMethod: &model.AuthenticationObject{AuthenticationMethodID: "app", Decoupled: true},
			PsuMessage:   "Please check your app",
		}, nil).Once()

		p := NewDecoupledStart(model.KindAISConsent, newDeps(connector))
		resp, err := p.Process(context.Background(), &model.ProcessorRequest{
			Resource: consentResource(),
			Update:   model.UpdateData{Psu: model.PsuIdData{PsuID: "alice"}},
		})
		require.NoError(t, err)
		assert.Equal(t, model.ScaStatusScaMethodSelected, resp.ScaStatus)
		assert.Equal(t, model.ApproachDecoupled, resp.ChosenApproach)
		assert.Equal(t, "app", resp.Authorisation.AuthenticationMethodID)
		assert.Equal(t, "Please check your app", resp.PsuMessage)
		connector.AssertExpectations(t)
	})

	t.Run("resume after identification", func(t *testing.T) {
		connector := &mocks.MockConnector{}
		connector.On("StartDecoupledSca", mock.Anything, mock.Anything).
			Return(&spi.DecoupledStartResult{PsuMessage: "Check your app"}, nil).Once()

		auth := existing(model.ApproachDecoupled, model.ScaStatusReceived)
		auth.Psu = model.PsuIdData{}
		p := NewDecoupledStart(model.KindAISConsent, newDeps(connector))
		resp, err := p.Process(context.Background(), &model.ProcessorRequest{
			Resource: consentResource(), Authorisation: auth,
			Update: model.UpdateData{Psu: model.PsuIdData{PsuID: "alice"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "auth-1", resp.Authorisation.ID)
		assert.Equal(t, model.ScaStatusScaMethodSelected, resp.ScaStatus)
	})
}

func TestDecoupledFinalise(t *testing.T) {
	tests := []struct {
		name           string
		reported       model.ScaStatus
		expected       model.ScaStatus
		resourceStatus string
	}{
		{"finalised", model.ScaStatusFinalised, model.ScaStatusFinalised, model.ConsentStatusValid},
		{"rejected at the device", model.ScaStatusFailed, model.ScaStatusFailed, model.ConsentStatusRejected},
		{"still running", model.ScaStatusScaMethodSelected, model.ScaStatusScaMethodSelected, ""},
		{"backwards report is ignored", model.ScaStatusReceived, model.ScaStatusScaMethodSelected, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			connector := &mocks.MockConnector{}
			connector.On("GetDecoupledScaStatus", mock.Anything, mock.Anything).
				Return(&spi.DecoupledStatusResult{ScaStatus: tc.reported}, nil).Once()

			p := NewDecoupledFinalise(model.KindAISConsent, newDeps(connector))
			resp, err := p.Process(context.Background(), &model.ProcessorRequest{
				Resource: consentResource(), Authorisation: existing(model.ApproachDecoupled, model.ScaStatusScaMethodSelected),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resp.ScaStatus)
			assert.Equal(t, tc.resourceStatus, resp.ResourceStatus)
		})
	}
}

func TestRedirectStart(t *testing.T) {
	connector := &mocks.MockConnector{}
	p := NewRedirectStart(model.KindAISConsent, newDeps(connector))

	resp, err := p.Process(context.Background(), &model.ProcessorRequest{Resource: consentResource()})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusReceived, resp.ScaStatus)
	assert.NotEmpty(t, resp.Authorisation.RedirectID)

	expected := "https://bank.example/ais/" + resp.Authorisation.RedirectID + "/" + utils.EncodeResourceID("consent-1")
	assert.Equal(t, expected, resp.RedirectLink)
	_, err = url.Parse(resp.RedirectLink)
	assert.NoError(t, err)
}

func TestRedirectStartPaymentLink(t *testing.T) {
	p := NewRedirectStart(model.KindPaymentCancellation, newDeps(&mocks.MockConnector{}))
	resp, err := p.Process(context.Background(), &model.ProcessorRequest{Resource: model.ResourceSnapshot{ID: "pay-9"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.RedirectLink, "https://bank.example/pis-cancellation/"))
	assert.True(t, strings.HasSuffix(resp.RedirectLink, "/"+utils.EncodeResourceID("pay-9")))
}

func TestRedirectStartWithoutTemplate(t *testing.T) {
	p := NewRedirectStart(model.KindPIISConsent, newDeps(&mocks.MockConnector{}))
	_, err := p.Process(context.Background(), &model.ProcessorRequest{Resource: consentResource()})
	assert.Error(t, err)
}

func TestRedirectConfirmation(t *testing.T) {
	connector := &mocks.MockConnector{}
	connector.On("CheckConfirmationCode", mock.Anything, mock.Anything, "code-1").
		Return(&spi.ConfirmationResult{Confirmed: true}, nil).Once()
	connector.On("CheckConfirmationCode", mock.Anything, mock.Anything, "code-2").
		Return(&spi.ConfirmationResult{Confirmed: false}, nil).Once()

	p := NewRedirectConfirmation(model.KindAISConsent, newDeps(connector))

	ok, err := p.Process(context.Background(), &model.ProcessorRequest{
		Resource: consentResource(), Authorisation: existing(model.ApproachRedirect, model.ScaStatusUnconfirmed),
		Update: model.UpdateData{ConfirmationCode: "code-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusFinalised, ok.ScaStatus)
	assert.Equal(t, model.ConsentStatusValid, ok.ResourceStatus)

	rejected, err := p.Process(context.Background(), &model.ProcessorRequest{
		Resource: consentResource(), Authorisation: existing(model.ApproachRedirect, model.ScaStatusUnconfirmed),
		Update: model.UpdateData{ConfirmationCode: "code-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusFailed, rejected.ScaStatus)
	assert.Equal(t, "AIS_400", rejected.ErrorHolder.ErrorType.String())
	connector.AssertExpectations(t)
}

func TestDefaultsCoverEveryKind(t *testing.T) {
	processors := Defaults(newDeps(&mocks.MockConnector{}))
	perKind := map[model.ResourceKind]int{}
	for _, p := range processors {
		perKind[p.Kind()]++
	}
	for _, kind := range model.AllResourceKinds {
		assert.Equal(t, 8, perKind[kind], kind)
	}
}
