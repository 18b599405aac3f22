// Package viacep talks to the ViaCEP public API (https://viacep.com.br),
// the external authoritative source used to sync local address records.
package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/cep"
	"github.com/dukerupert/cepfinder/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://viacep.com.br/ws"

	// DefaultProbeCEP is a CEP that always exists (Praça da Sé, São Paulo).
	DefaultProbeCEP = "01001000"

	maxBodyBytes = 64 << 10
)

// Config holds ViaCEP client configuration.
type Config struct {
	// BaseURL is the API root, without trailing slash.
	BaseURL string

	// Timeout bounds each HTTP round trip.
	Timeout time.Duration

	// RatePerSecond and Burst throttle outgoing requests.
	// ViaCEP blocks clients that hammer it; zero RatePerSecond disables throttling.
	RatePerSecond float64
	Burst         int

	// ProbeCEP is looked up by Ping.
	ProbeCEP string

	// Transport overrides the HTTP transport, e.g. for tracing.
	Transport http.RoundTripper
}

// Client implements address.Fetcher against ViaCEP.
type Client struct {
	baseURL    string
	probeCEP   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ address.Fetcher = (*Client)(nil)

// NewClient creates a ViaCEP client, applying defaults for empty fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ProbeCEP == "" {
		cfg.ProbeCEP = DefaultProbeCEP
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		probeCEP:   cfg.ProbeCEP,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
	}
}

// response is the ViaCEP JSON payload.
type response struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	IBGE        string `json:"ibge"`
	DDD         string `json:"ddd"`
	Erro        flag   `json:"erro"`
}

// flag accepts both true and "true"; ViaCEP has used each for "not found".
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "true":
		*f = true
	default:
		*f = false
	}
	return nil
}

func (r response) toAddress() *address.Address {
	return &address.Address{
		CEP:          cep.Normalize(r.CEP).Digits,
		Street:       r.Logradouro,
		Complement:   r.Complemento,
		Neighborhood: r.Bairro,
		City:         r.Localidade,
		State:        r.UF,
		IBGE:         r.IBGE,
		DDD:          r.DDD,
		Source:       address.SourceViaCEP,
	}
}

// Fetch looks code up on ViaCEP. Returns (nil, nil) when ViaCEP reports
// the CEP does not exist.
func (c *Client) Fetch(ctx context.Context, code string) (*address.Address, error) {
	const op = "viacep.fetch"

	if !cep.IsComplete(code) {
		return nil, domain.Invalid(op, "CEP must have 8 digits")
	}

	status, body, err := c.get(ctx, code)
	if err != nil {
		return nil, domain.Unavailable(err, op, "address service unreachable")
	}

	switch {
	case status == http.StatusBadRequest:
		return nil, domain.Invalid(op, "address service rejected the CEP format")
	case status != http.StatusOK:
		return nil, domain.Unavailable(fmt.Errorf("unexpected status %d", status), op, "address service error")
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, domain.Internal(err, op, "failed to decode address service response")
	}
	if r.Erro {
		return nil, nil
	}

	return r.toAddress(), nil
}

// Ping looks up the probe CEP. A non-200 answer means the service is down
// (false, nil); a transport failure is returned as an error.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	status, body, err := c.get(ctx, c.probeCEP)
	if err != nil {
		return false, domain.Unavailable(err, "viacep.ping", "address service unreachable")
	}
	if status != http.StatusOK {
		return false, nil
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return false, nil
	}
	return !bool(r.Erro), nil
}

func (c *Client) get(ctx context.Context, code string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
