package gocardless

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config configures a Client. Credentials are the only required field.
type Config struct {
	Credentials Credentials

	// BaseURL overrides DefaultBaseURL, mainly for tests.
	BaseURL string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is an authenticated client for the GoCardless Bank Account Data
// API. Every request rides on a bearer token the client keeps fresh on its
// own; callers never see the token lifecycle.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tokens     *tokenSource
}

func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		tokens:     newTokenSource(cfg.Credentials, baseURL, httpClient, logger),
	}
}

// Institutions lists the banks available in a country. An empty country
// defaults to Spain.
func (c *Client) Institutions(ctx context.Context, country string) ([]Institution, error) {
	if country == "" {
		country = "ES"
	}
	q := url.Values{"country": {country}}

	var out []Institution
	if err := c.do(ctx, http.MethodGet, "/institutions/", q, nil, &out); err != nil {
		c.logger.Error("failed to fetch institutions", "country", country, "error", err)
		return nil, c.domainError(ErrInstitutions, err)
	}
	return out, nil
}

// CreateRequisition starts a new bank link and returns the requisition with
// the redirect link the end user must visit.
func (c *Client) CreateRequisition(ctx context.Context, req CreateRequisitionRequest) (*Requisition, error) {
	var out Requisition
	if err := c.do(ctx, http.MethodPost, "/requisitions/", nil, req, &out); err != nil {
		c.logger.Error("failed to create requisition", "institution_id", req.InstitutionID, "error", err)
		return nil, c.domainError(ErrCreateRequisition, err)
	}
	return &out, nil
}

// Requisition fetches the current state of a requisition, including the
// account IDs granted once the user completes the flow.
func (c *Client) Requisition(ctx context.Context, id string) (*Requisition, error) {
	var out Requisition
	if err := c.do(ctx, http.MethodGet, "/requisitions/"+id+"/", nil, nil, &out); err != nil {
		c.logger.Error("failed to fetch requisition", "requisition_id", id, "error", err)
		return nil, c.domainError(ErrRequisition, err)
	}
	return &out, nil
}

// AccountDetails fetches identifying details for a linked account.
func (c *Client) AccountDetails(ctx context.Context, accountID string) (*AccountDetails, error) {
	var out AccountDetails
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID+"/details/", nil, nil, &out); err != nil {
		c.logger.Error("failed to fetch account details", "account_id", accountID, "error", err)
		return nil, c.domainError(ErrAccountDetails, err)
	}
	return &out, nil
}

// AccountBalances fetches the balance set for a linked account.
func (c *Client) AccountBalances(ctx context.Context, accountID string) (*Balances, error) {
	var out Balances
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID+"/balances/", nil, nil, &out); err != nil {
		c.logger.Error("failed to fetch account balances", "account_id", accountID, "error", err)
		return nil, c.domainError(ErrAccountBalances, err)
	}
	return &out, nil
}

// AccountTransactions fetches booked and pending transactions for a linked
// account. dateFrom and dateTo (YYYY-MM-DD) are optional; empty values are
// omitted from the query entirely.
func (c *Client) AccountTransactions(ctx context.Context, accountID, dateFrom, dateTo string) (*Transactions, error) {
	q := url.Values{}
	if dateFrom != "" {
		q.Set("date_from", dateFrom)
	}
	if dateTo != "" {
		q.Set("date_to", dateTo)
	}

	var out Transactions
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID+"/transactions/", q, nil, &out); err != nil {
		c.logger.Error("failed to fetch account transactions", "account_id", accountID, "error", err)
		return nil, c.domainError(ErrAccountTransactions, err)
	}
	return &out, nil
}

// domainError keeps credential failures distinguishable while flattening
// everything else to the per-operation sentinel.
func (c *Client) domainError(sentinel, cause error) error {
	if isCredentialErr(cause) {
		return cause
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

func isCredentialErr(err error) bool {
	return errors.Is(err, ErrCredentialsMissing) || errors.Is(err, ErrAuthentication)
}

// do sends one authenticated request. The access token is validated (and
// renewed when stale) before the request goes out. A 401 response while a
// refresh token is held triggers exactly one forced renewal and one resend;
// the retry's outcome is final either way.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens.HasRefreshToken() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		token, err = c.tokens.Invalidate(ctx, token)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, query, body, token)
		if err != nil {
			return err
		}
	}

	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte, token string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
