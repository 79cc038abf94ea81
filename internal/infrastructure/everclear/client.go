// Package everclear is the outbound REST client for the hub: fetching
// invoices, their min-amounts, and per-ticker economy data. The wire format
// is opaque JSON with no published SDK, so requests are built directly
// against net/http rather than through a generated client.
package everclear

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"mark/internal/domain/entities"
)

// DefaultTimeout bounds every outbound hub request.
const DefaultTimeout = 30 * time.Second

// Client talks to the Everclear hub's invoice and economy endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client against baseURL, attaching apiKey as a bearer
// token on every request when non-empty.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// economyResponse mirrors the hub's per-ticker economy payload; only these
// three fields are decoded, everything else is ignored.
type economyResponse struct {
	Domain       string `json:"domain"`
	TickerHash   string `json:"tickerHash"`
	LiquidityFee string `json:"liquidityFee"`
}

// EconomyInfo is the decoded subset of GET /economy/{domain}/{ticker}.
type EconomyInfo struct {
	Domain       string
	TickerHash   string
	LiquidityFee string
}

// GetInvoice fetches the invoice identified by id.
func (c *Client) GetInvoice(ctx context.Context, id string) (*entities.Invoice, error) {
	var invoice entities.Invoice
	if err := c.get(ctx, "/invoices/"+url.PathEscape(id), &invoice); err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return &invoice, nil
}

// GetMinAmounts fetches the hub's current minimum settlement amount per
// candidate destination chain for invoice id.
func (c *Client) GetMinAmounts(ctx context.Context, id string) (entities.MinAmounts, error) {
	var amounts entities.MinAmounts
	if err := c.get(ctx, "/invoices/"+url.PathEscape(id)+"/min-amounts", &amounts); err != nil {
		return nil, fmt.Errorf("get min-amounts for invoice %s: %w", id, err)
	}
	return amounts, nil
}

// GetEconomy fetches the ticker's economy data on domain (a destination
// ChainID). No other component of the engine calls it.
func (c *Client) GetEconomy(ctx context.Context, domain, tickerHash string) (*EconomyInfo, error) {
	var resp economyResponse
	path := "/economy/" + url.PathEscape(domain) + "/" + url.PathEscape(tickerHash)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get economy for %s/%s: %w", domain, tickerHash, err)
	}
	return &EconomyInfo{
		Domain:       resp.Domain,
		TickerHash:   resp.TickerHash,
		LiquidityFee: resp.LiquidityFee,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Path: path}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError reports a non-200 hub response; callers map 404 to "invoice
// not found" and everything else to a transient upstream failure.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hub request to %s failed with status %d", e.Path, e.StatusCode)
}

// NotFound reports whether the hub responded 404, the "invoice doesn't
// exist (yet)" case callers treat distinctly from a generic upstream error.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
