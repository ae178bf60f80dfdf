package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kendall-kelly/shg-marketplace-api/config"
)

// ErrUserInfoRejected is returned when Auth0 refuses the caller's access token
var ErrUserInfoRejected = errors.New("auth0 rejected the access token")

// Auth0UserInfo is the profile served by Auth0's /userinfo endpoint
type Auth0UserInfo struct {
	Sub         string `json:"sub"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Auth0Service resolves access tokens to Auth0 profiles
type Auth0Service struct {
	endpoint   string
	httpClient *http.Client
}

// NewAuth0Service creates an Auth0Service for cfg.Auth0Domain
func NewAuth0Service(cfg *config.Config) *Auth0Service {
	return &Auth0Service{
		endpoint:   userInfoEndpoint(cfg.Auth0Domain),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// userInfoEndpoint accepts a bare tenant domain or, for local test servers, a full base URL
func userInfoEndpoint(domain string) string {
	domain = strings.TrimSuffix(domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain + "/userinfo"
	}
	return "https://" + domain + "/userinfo"
}

// GetUserInfo fetches the profile behind accessToken
func (s *Auth0Service) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call userinfo endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUserInfoRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, body)
	}

	var info Auth0UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}
	return &info, nil
}
