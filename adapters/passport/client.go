// Package passport implements the reputation source against the passport
// scoring API.
package passport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/human-tech/signatory/ports"
	"github.com/shopspring/decimal"
)

// scorePayload covers the two shapes the scoring API is known to return:
// {"score": X} and {"data": {"score": X}}, where X may be a JSON number or
// a numeric string. Anything else is a parse error.
type scorePayload struct {
	Score *decimal.Decimal `json:"score"`
	Data  *struct {
		Score *decimal.Decimal `json:"score"`
	} `json:"data"`
}

// Client queries the passport scoring endpoint. It only reports; the
// default-to-zero-on-failure policy lives in the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New creates a passport client with the given request timeout.
func New(baseURL, apiKey string, timeout time.Duration) ports.ReputationSource {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Score returns the wallet's reputation score.
func (c *Client) Score(ctx context.Context, wallet string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+wallet, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build score request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("score fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("score fetch failed: status %d", resp.StatusCode)
	}

	var payload scorePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse score: %w", err)
	}

	score := payload.Score
	if score == nil && payload.Data != nil {
		score = payload.Data.Score
	}
	if score == nil {
		return decimal.Zero, fmt.Errorf("score missing from response")
	}
	if score.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative score %s", score)
	}

	return *score, nil
}
