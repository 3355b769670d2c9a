// Package availability talks to the remote inventory service that computes
// which products are currently out of stock from recipes and stock levels.
package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Lookup returns the set of product IDs a company cannot currently sell.
type Lookup interface {
	UnavailableProducts(ctx context.Context, companyID string) (map[string]struct{}, error)
}

// Config holds the settings of the HTTP client. A zero Timeout keeps the
// http.Client default.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// client implements Lookup over the inventory service's HTTP endpoint.
type client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a new availability lookup client.
func NewClient(cfg Config, logger zerolog.Logger) Lookup {
	return &client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		logger:     logger.With().Str("component", "availability-client").Logger(),
	}
}

type lookupRequest struct {
	CompanyID string `json:"companyId"`
}

type lookupResponse struct {
	OK                    bool     `json:"ok"`
	UnavailableProductIDs []string `json:"unavailableProductIds"`
}

// UnavailableProducts invokes the remote availability procedure for one
// company. Failures are returned as-is; callers decide whether to surface
// them, and no retry is attempted here.
func (c *client) UnavailableProducts(ctx context.Context, companyID string) (map[string]struct{}, error) {
	body, err := json.Marshal(lookupRequest{CompanyID: companyID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode availability request: %w", err)
	}

	url := c.baseURL + "/get-unavailable-products"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build availability request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("company_id", companyID).Msg("availability request failed")
		return nil, fmt.Errorf("availability request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("company_id", companyID).
			Msg("availability service returned an error status")
		return nil, fmt.Errorf("availability service returned status %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode availability response: %w", err)
	}

	if !decoded.OK {
		c.logger.Warn().Str("company_id", companyID).Msg("availability service reported not ok")
		return nil, fmt.Errorf("availability service reported not ok")
	}

	unavailable := make(map[string]struct{}, len(decoded.UnavailableProductIDs))
	for _, id := range decoded.UnavailableProductIDs {
		unavailable[id] = struct{}{}
	}

	c.logger.Debug().
		Str("company_id", companyID).
		Int("unavailable_count", len(unavailable)).
		Msg("availability lookup completed")

	return unavailable, nil
}
