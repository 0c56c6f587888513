package gocardless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// renewalMargin is how long before the recorded expiry a token is treated as
// stale. Renewing early avoids sending a token the provider is about to
// reject.
const renewalMargin = 60 * time.Second

// Credentials are the secret pair issued in the provider's dashboard.
type Credentials struct {
	SecretID  string
	SecretKey string
}

// tokenSource caches the provider's access/refresh token pair and renews it
// on demand. All expiry bookkeeping is local: the provider reports TTLs in
// seconds and we pin them to wall-clock deadlines at receipt.
type tokenSource struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu               sync.RWMutex
	accessToken      string
	refreshToken     string
	accessExpiresAt  time.Time
	refreshExpiresAt time.Time
}

func newTokenSource(creds Credentials, baseURL string, httpClient *http.Client, logger *slog.Logger) *tokenSource {
	return &tokenSource{
		creds:      creds,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Token returns an access token valid for at least the renewal margin,
// renewing the pair first when needed. Concurrent callers collapse into a
// single renewal round-trip: the double-check under the write lock lets
// every waiter reuse the pair fetched by the first one through.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.RLock()
	if ts.validLocked(time.Now()) {
		token := ts.accessToken
		ts.mu.RUnlock()
		return token, nil
	}
	ts.mu.RUnlock()

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.validLocked(time.Now()) {
		return ts.accessToken, nil
	}
	if err := ts.renewLocked(ctx); err != nil {
		return "", err
	}
	return ts.accessToken, nil
}

// Invalidate discards the cached pair if it still matches the rejected
// access token, then returns a fresh token. Called after the provider
// answers 401 to a token we believed valid. The stale comparison keeps a
// racing caller from throwing away a pair someone else just renewed.
func (ts *tokenSource) Invalidate(ctx context.Context, stale string) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.accessToken == stale {
		ts.accessToken = ""
		ts.accessExpiresAt = time.Time{}
	}
	if ts.validLocked(time.Now()) {
		return ts.accessToken, nil
	}
	if err := ts.renewLocked(ctx); err != nil {
		return "", err
	}
	return ts.accessToken, nil
}

// HasRefreshToken reports whether a refresh token is currently held. The
// 401 retry path only fires when one is.
func (ts *tokenSource) HasRefreshToken() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.refreshToken != ""
}

func (ts *tokenSource) validLocked(now time.Time) bool {
	return ts.accessToken != "" && now.Before(ts.accessExpiresAt.Add(-renewalMargin))
}

// renewLocked obtains a fresh pair, preferring refresh over a full
// authenticate. Caller must hold the write lock.
func (ts *tokenSource) renewLocked(ctx context.Context) error {
	if ts.refreshToken != "" {
		return ts.refreshLocked(ctx)
	}
	return ts.authenticateLocked(ctx)
}

func (ts *tokenSource) authenticateLocked(ctx context.Context) error {
	if ts.creds.SecretID == "" || ts.creds.SecretKey == "" {
		return ErrCredentialsMissing
	}

	tr, err := ts.postToken(ctx, "/token/new/", map[string]string{
		"secret_id":  ts.creds.SecretID,
		"secret_key": ts.creds.SecretKey,
	})
	if err != nil {
		ts.logger.Error("provider authentication failed", "error", err)
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	ts.storePairLocked(tr)
	ts.logger.Debug("authenticated with provider")
	return nil
}

func (ts *tokenSource) refreshLocked(ctx context.Context) error {
	tr, err := ts.postToken(ctx, "/token/refresh/", map[string]string{
		"refresh": ts.refreshToken,
	})
	if err != nil {
		// Refresh tokens expire on their own schedule; fall back to a
		// full authenticate before giving up.
		ts.logger.Warn("token refresh failed, re-authenticating", "error", err)
		ts.refreshToken = ""
		ts.refreshExpiresAt = time.Time{}
		return ts.authenticateLocked(ctx)
	}

	ts.storePairLocked(tr)
	ts.logger.Debug("refreshed provider token")
	return nil
}

// storePairLocked assigns the whole pair at once so no reader ever observes
// a new access token alongside an old refresh token.
func (ts *tokenSource) storePairLocked(tr *tokenResponse) {
	now := time.Now()
	ts.accessToken = tr.Access
	ts.accessExpiresAt = now.Add(time.Duration(tr.AccessExpires) * time.Second)
	if tr.Refresh != "" {
		ts.refreshToken = tr.Refresh
		ts.refreshExpiresAt = now.Add(time.Duration(tr.RefreshExpires) * time.Second)
	}
}

func (ts *tokenSource) postToken(ctx context.Context, path string, payload map[string]string) (*tokenResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tr, nil
}
