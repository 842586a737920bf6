// Package registry implements the whitelist eligibility source against the
// covenant signers-export endpoint.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/ports"
)

// Client queries the registry's export endpoint. The endpoint has no
// server-side filtering, so every lookup fetches the full list and matches
// locally.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type exportResponse struct {
	Signers []core.WhitelistEntry `json:"signers"`
}

// New creates a registry client with the given request timeout.
func New(baseURL, apiKey string, timeout time.Duration) ports.EligibilitySource {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Lookup fetches the whitelist and returns the entry making wallet eligible,
// or nil when no entry matches.
func (c *Client) Lookup(ctx context.Context, wallet string) (*core.WhitelistEntry, error) {
	reqURL := c.baseURL + "?apiKey=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build whitelist request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whitelist fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whitelist fetch failed: status %d", resp.StatusCode)
	}

	var export exportResponse
	if err := json.NewDecoder(resp.Body).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to parse whitelist: %w", err)
	}

	for i := range export.Signers {
		if export.Signers[i].Matches(wallet) {
			entry := export.Signers[i]
			return &entry, nil
		}
	}

	return nil, nil
}
