package spi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/config"
	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
)

var kindPaths = map[model.ResourceKind]string{
	model.KindAISConsent:          "ais-consents",
	model.KindPIISConsent:         "piis-consents",
	model.KindPayment:             "payments",
	model.KindPaymentCancellation: "payment-cancellations",
}

// envelope is the response body of every connector endpoint.
type envelope struct {
	Payload json.RawMessage  `json:"payload,omitempty"`
	Errors  []FailureMessage `json:"errors,omitempty"`
}

type authorisationCall struct {
	AuthorisationContext
	Password              string `json:"password,omitempty"`
	AuthenticationMethod  string `json:"authenticationMethodId,omitempty"`
	ScaAuthenticationData string `json:"scaAuthenticationData,omitempty"`
	ConfirmationCode      string `json:"confirmationCode,omitempty"`
}

// HTTPConnector talks JSON to the bank connector service.
type HTTPConnector struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

var _ Connector = (*HTTPConnector)(nil)

// NewHTTPConnector creates a connector client from configuration.
func NewHTTPConnector(cfg *config.ConnectorConfig) *HTTPConnector {
	timeout := 10 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &HTTPConnector{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  log.GetLogger().With(log.String(log.LoggerKeyComponentName, "BankConnector")),
	}
}

func (c *HTTPConnector) VerifyCredentials(ctx context.Context, actx AuthorisationContext, password string) (*CredentialsResult, error) {
	var out CredentialsResult
	err := c.authorisationCall(ctx, "verify-credentials", authorisationCall{AuthorisationContext: actx, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPConnector) SelectScaMethod(ctx context.Context, actx AuthorisationContext, methodID string) (*MethodSelectionResult, error) {
	var out MethodSelectionResult
	err := c.authorisationCall(ctx, "select-method", authorisationCall{AuthorisationContext: actx, AuthenticationMethod: methodID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPConnector) ConfirmScaMethod(ctx context.Context, actx AuthorisationContext, scaAuthenticationData string) (*ConfirmationResult, error) {
	var out ConfirmationResult
	err := c.authorisationCall(ctx, "confirm-method", authorisationCall{AuthorisationContext: actx, ScaAuthenticationData: scaAuthenticationData}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPConnector) StartDecoupledSca(ctx context.Context, actx AuthorisationContext) (*DecoupledStartResult, error) {
	var out DecoupledStartResult
	if err := c.authorisationCall(ctx, "start-decoupled", authorisationCall{AuthorisationContext: actx}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPConnector) GetDecoupledScaStatus(ctx context.Context, actx AuthorisationContext) (*DecoupledStatusResult, error) {
	var out DecoupledStatusResult
	if err := c.authorisationCall(ctx, "decoupled-status", authorisationCall{AuthorisationContext: actx}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPConnector) CheckConfirmationCode(ctx context.Context, actx AuthorisationContext, confirmationCode string) (*ConfirmationResult, error) {
	var out ConfirmationResult
	err := c.authorisationCall(ctx, "check-confirmation-code", authorisationCall{AuthorisationContext: actx, ConfirmationCode: confirmationCode}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConsentStatus returns the ASPSP-side status of a consent.
func (c *HTTPConnector) GetConsentStatus(ctx context.Context, kind model.ResourceKind, consentID string) (string, error) {
	var out struct {
		ConsentStatus string `json:"consentStatus"`
	}
	body := map[string]string{"consentId": consentID}
	if err := c.post(ctx, kindPaths[kind]+"/status", body, &out); err != nil {
		return "", err
	}
	return out.ConsentStatus, nil
}

// RequestAccountDetails reads one account under a consent.
func (c *HTTPConnector) RequestAccountDetails(ctx context.Context, consentID, accountID string) (*AccountDetails, error) {
	var out AccountDetails
	body := map[string]string{"consentId": consentID, "accountId": accountID}
	if err := c.post(ctx, "accounts/details", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPConnector) authorisationCall(ctx context.Context, operation string, call authorisationCall, out interface{}) error {
	path, ok := kindPaths[call.Kind]
	if !ok {
		return fmt.Errorf("no connector path for resource kind %q", call.Kind)
	}
	return c.post(ctx, path+"/authorisations/"+operation, call, out)
}

// post sends body and decodes the envelope payload into out. A business rejection is
// returned as *Failure; transport and decoding problems are plain errors.
func (c *HTTPConnector) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	url := c.baseURL + "/" + path

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	req.Header.Set("Accept", constants.ContentTypeJSON)
	if requestID := requestctx.FromContext(ctx).RequestID; requestID != "" {
		req.Header.Set(constants.RequestIDHeaderName, requestID)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Error("Connector call failed", log.String("url", url), log.Any("duration", duration), log.Error(err))
		return fmt.Errorf("connector call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Connector response received",
		log.String("url", url),
		log.Int("statusCode", resp.StatusCode),
		log.Any("duration", duration))

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if decodeErr == nil && len(env.Errors) > 0 {
		return &Failure{Messages: env.Errors}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Connector returned non-success status",
			log.Int("statusCode", resp.StatusCode),
			log.String("response", string(respBody)))
		return fmt.Errorf("connector returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to unmarshal response: %w", decodeErr)
	}
	if out != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	return nil
}
