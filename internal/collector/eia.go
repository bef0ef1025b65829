package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEIABaseURL is the EIA API v2 petroleum retail price endpoint
const DefaultEIABaseURL = "https://api.eia.gov/v2/petroleum/pri/gnd/data/"

const (
	periodLayout  = "2006-01-02"
	historyLength = 5000
)

// ErrNoData is returned when the API answers without any usable data point
var ErrNoData = errors.New("eia: no data returned")

// GasPrice is one weekly US regular retail gasoline price
type GasPrice struct {
	Period time.Time
	Price  decimal.Decimal
}

// EIAClient fetches weekly US national average regular gasoline prices
type EIAClient struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
}

// NewEIAClient creates a new EIA client
func NewEIAClient(baseURL, apiKey string) *EIAClient {
	if baseURL == "" {
		baseURL = DefaultEIABaseURL
	}
	return &EIAClient{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
		APIKey:  apiKey,
	}
}

// eiaResponse is the response structure of the EIA v2 data API.
// value comes back as a string or a number depending on the route
type eiaResponse struct {
	Response struct {
		Data []struct {
			Period string          `json:"period"`
			Value  decimal.Decimal `json:"value"`
		} `json:"data"`
	} `json:"response"`
	Error string `json:"error"`
}

// FetchLatest returns the most recent weekly price
func (c *EIAClient) FetchLatest(ctx context.Context) (GasPrice, error) {
	prices, err := c.fetch(ctx, "desc", 1, time.Time{})
	if err != nil {
		return GasPrice{}, err
	}
	return prices[0], nil
}

// FetchSince returns every weekly price from start on, oldest first
func (c *EIAClient) FetchSince(ctx context.Context, start time.Time) ([]GasPrice, error) {
	return c.fetch(ctx, "asc", historyLength, start)
}

func (c *EIAClient) query(direction string, length int, start time.Time) string {
	params := url.Values{}
	params.Set("api_key", c.APIKey)
	params.Set("frequency", "weekly")
	params.Set("data[0]", "value")
	// Regular gasoline, all formulations, retail, US national
	params.Set("facets[product][]", "EPM0U")
	params.Set("facets[duoarea][]", "NUS")
	params.Set("facets[process][]", "PTE")
	params.Set("sort[0][column]", "period")
	params.Set("sort[0][direction]", direction)
	params.Set("offset", "0")
	params.Set("length", fmt.Sprintf("%d", length))
	if !start.IsZero() {
		params.Set("start", start.UTC().Format(periodLayout))
	}

	base := c.BaseURL
	if strings.Contains(base, "?") {
		return base + "&" + params.Encode()
	}
	return base + "?" + params.Encode()
}

func (c *EIAClient) fetch(ctx context.Context, direction string, length int, start time.Time) ([]GasPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.query(direction, length, start), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eia fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eia read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eia: status %d, body: %s", resp.StatusCode, string(body))
	}

	var decoded eiaResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("eia decode: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("eia api error: %s", decoded.Error)
	}

	prices := make([]GasPrice, 0, len(decoded.Response.Data))
	for _, row := range decoded.Response.Data {
		period, err := time.Parse(periodLayout, row.Period)
		if err != nil {
			return nil, fmt.Errorf("eia: invalid period %q: %w", row.Period, err)
		}
		if !row.Value.IsPositive() {
			continue // null or withheld values
		}
		prices = append(prices, GasPrice{Period: period, Price: row.Value})
	}

	if len(prices) == 0 {
		return nil, ErrNoData
	}

	return prices, nil
}
