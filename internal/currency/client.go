package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Currency is one entry of the rate API's currency catalogue.
type Currency struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// RateSource is the external exchange-rate API. The HTTP client below is the
// real implementation; tests substitute their own.
type RateSource interface {
	Latest(ctx context.Context, base, target string) (float64, error)
	Currencies(ctx context.Context) (map[string]Currency, error)
}

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) RateSource {
	return &client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Latest fetches the base->target exchange rate. A response that is non-2xx or
// missing the requested code is an error; the converter never reads a rate out
// of a malformed payload.
func (c *client) Latest(ctx context.Context, base, target string) (float64, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("base_currency", base)
	params.Set("currencies", target)

	var payload struct {
		Data map[string]float64 `json:"data"`
	}
	if err := c.get(ctx, "/latest", params, &payload); err != nil {
		return 0, err
	}

	rate, ok := payload.Data[target]
	if !ok {
		return 0, fmt.Errorf("rate API response is missing %s", target)
	}
	return rate, nil
}

func (c *client) Currencies(ctx context.Context) (map[string]Currency, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)

	var payload struct {
		Data map[string]Currency `json:"data"`
	}
	if err := c.get(ctx, "/currencies", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("rate API returned an empty currency list")
	}
	return payload.Data, nil
}

func (c *client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rate API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("rate API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode rate API response: %w", err)
	}
	return nil
}
