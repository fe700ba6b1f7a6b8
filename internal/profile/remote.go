package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// RemoteService reads profiles from an ASPSP profile service over HTTP.
type RemoteService struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

var _ Service = (*RemoteService)(nil)

// NewRemoteService creates a remote profile client.
func NewRemoteService(baseURL string, timeout time.Duration) *RemoteService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteService{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     log.GetLogger().With(log.String(log.LoggerKeyComponentName, "RemoteProfile")),
	}
}

func (s *RemoteService) GetSupportedScaApproaches(ctx context.Context, instanceID string) ([]model.ScaApproach, error) {
	settings, err := s.GetAspspSettings(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return settings.SupportedScaApproaches, nil
}

// GetAspspSettings fetches <base>/aspsp-settings, passing the instance id as a header.
func (s *RemoteService) GetAspspSettings(ctx context.Context, instanceID string) (*AspspSettings, error) {
	endpoint, err := url.JoinPath(s.baseURL, "aspsp-settings")
	if err != nil {
		return nil, fmt.Errorf("invalid profile URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", constants.ContentTypeJSON)
	if instanceID != "" {
		req.Header.Set(constants.InstanceIDHeader, instanceID)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Profile service call failed", log.Error(err))
		return nil, fmt.Errorf("profile service call failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstance, instanceID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}

	var settings AspspSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	for i, approach := range settings.SupportedScaApproaches {
		parsed, err := model.ParseScaApproach(string(approach))
		if err != nil {
			return nil, err
		}
		settings.SupportedScaApproaches[i] = parsed
	}
	return &settings, nil
}
