// internal/infra/fcm/token_source.go
package fcm

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	messagingScope   = "https://www.googleapis.com/auth/firebase.messaging"
	jwtBearerGrant   = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL     = time.Hour
	expiryMargin     = 5 * time.Minute
	maxErrorBodySize = 4 << 10
)

// TokenSource exchanges a signed service-account JWT for an OAuth2 access token and
// caches it until shortly before it expires.
type TokenSource struct {
	account    *ServiceAccount
	key        *rsa.PrivateKey
	httpClient *http.Client
	now        func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewTokenSource(account *ServiceAccount, httpClient *http.Client) (*TokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrInvalidServiceAccount, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenSource{
		account:    account,
		key:        key,
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns a cached token or performs a fresh exchange.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	if ts.token != "" && now.Add(expiryMargin).Before(ts.expiry) {
		return ts.token, nil
	}

	assertion, err := ts.signAssertion(now)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.account.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned an empty access token")
	}

	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = assertionTTL
	}
	ts.token = tr.AccessToken
	ts.expiry = now.Add(ttl)
	return ts.token, nil
}

func (ts *TokenSource) signAssertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   ts.account.ClientEmail,
		"sub":   ts.account.ClientEmail,
		"scope": messagingScope,
		"aud":   ts.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if ts.account.PrivateKeyID != "" {
		t.Header["kid"] = ts.account.PrivateKeyID
	}
	signed, err := t.SignedString(ts.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}
