// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/contentjoy/content-approval-app-sub001/internal/pkg/log"
	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
)

// CredentialStrategy produces a bearer token for the cold-storage API.
// A strategy that does not apply (missing config) returns "" with no error
// so the chain can move on to the next one.
type CredentialStrategy interface {
	Name() string
	Token(ctx context.Context) (string, error)
}

// CredentialChain tries strategies in order; the first non-empty token wins.
type CredentialChain struct {
	strategies []CredentialStrategy
}

// NewCredentialChain builds the ordered chain from configuration:
// static token, then refresh-token exchange, then service-account assertion.
func NewCredentialChain(cfg *platformconfig.DriveConfig, httpClient *retryablehttp.Client) *CredentialChain {
	return &CredentialChain{
		strategies: []CredentialStrategy{
			&staticTokenStrategy{token: cfg.AccessToken},
			&refreshTokenStrategy{
				tokenURL:     cfg.TokenURL,
				clientID:     cfg.ClientID,
				clientSecret: cfg.ClientSecret,
				refreshToken: cfg.RefreshToken,
				httpClient:   httpClient,
			},
			&serviceAccountStrategy{
				tokenURL:   cfg.TokenURL,
				email:      cfg.ServiceAccount,
				privateKey: cfg.ServiceAccountKey,
				httpClient: httpClient,
			},
		},
	}
}

// NewCredentialChainFromStrategies builds a chain from explicit strategies.
func NewCredentialChainFromStrategies(strategies ...CredentialStrategy) *CredentialChain {
	return &CredentialChain{strategies: strategies}
}

// Resolve walks the chain and returns the first token produced.
// Exhaustion of the whole chain is its own failure mode, distinct from any
// individual strategy error.
func (c *CredentialChain) Resolve(ctx context.Context) (string, error) {
	for _, strategy := range c.strategies {
		token, err := strategy.Token(ctx)
		if err != nil {
			log.WarnWithContext(ctx, "Credential strategy %s failed: %v", strategy.Name(), err)
			continue
		}
		if token != "" {
			return token, nil
		}
	}
	return "", ErrAuthFailure
}

// staticTokenStrategy hands out a preconfigured access token.
type staticTokenStrategy struct {
	token string
}

func (s *staticTokenStrategy) Name() string { return "static" }

func (s *staticTokenStrategy) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// refreshTokenStrategy exchanges a long-lived refresh token for an access
// token at the remote token endpoint.
type refreshTokenStrategy struct {
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *retryablehttp.Client
}

func (s *refreshTokenStrategy) Name() string { return "refresh-token" }

func (s *refreshTokenStrategy) Token(ctx context.Context) (string, error) {
	if s.refreshToken == "" || s.clientID == "" {
		return "", nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.refreshToken)
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	return s.exchange(ctx, form)
}

func (s *refreshTokenStrategy) exchange(ctx context.Context, form url.Values) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, []byte(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	return tr.AccessToken, nil
}

// serviceAccountStrategy signs a JWT bearer assertion with the service
// account key and exchanges it for an access token.
type serviceAccountStrategy struct {
	tokenURL   string
	email      string
	privateKey string
	httpClient *retryablehttp.Client
}

func (s *serviceAccountStrategy) Name() string { return "service-account" }

func (s *serviceAccountStrategy) Token(ctx context.Context) (string, error) {
	if s.email == "" || s.privateKey == "" {
		return "", nil
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(s.privateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse service account key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.email,
		"scope": "https://www.googleapis.com/auth/drive",
		"aud":   s.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, []byte(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assertion exchange failed with status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if strings.TrimSpace(tr.AccessToken) == "" {
		return "", fmt.Errorf("assertion exchange returned an empty token")
	}
	return tr.AccessToken, nil
}
