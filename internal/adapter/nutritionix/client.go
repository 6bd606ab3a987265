// Package nutritionix implements domain.FoodProvider against the Nutritionix
// natural-language nutrients endpoint.
package nutritionix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"foodpoints/internal/domain"
)

// DefaultBaseURL is the public Nutritionix API.
const DefaultBaseURL = "https://trackapi.nutritionix.com"

const nutrientsPath = "/v2/natural/nutrients"

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

var _ domain.FoodProvider = (*Client)(nil)

// Config holds client settings.
type Config struct {
	BaseURL string
	AppID   string
	AppKey  string
	Timeout time.Duration
	// Rate and Burst throttle outbound requests. A zero Rate disables throttling.
	Rate  float64
	Burst int
}

// Client performs food lookups. It is safe for concurrent use.
type Client struct {
	baseURL  string
	appID    string
	appKey   string
	http     *http.Client
	limiter  *rate.Limiter
	sanitize *bluemonday.Policy
}

// New creates a Client. A nil httpClient uses one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		appID:    cfg.AppID,
		appKey:   cfg.AppKey,
		http:     httpClient,
		limiter:  limiter,
		sanitize: bluemonday.StrictPolicy(),
	}
}

type nutrientsRequest struct {
	Query string `json:"query"`
}

type nutrientsResponse struct {
	Foods []foodRecord `json:"foods"`
}

// foodRecord mirrors the provider's fields. Numerics are pointers because any
// of them may be absent or null.
type foodRecord struct {
	FoodName           string   `json:"food_name"`
	ServingUnit        string   `json:"serving_unit"`
	ServingWeightGrams *float64 `json:"serving_weight_grams"`
	Calories           *float64 `json:"nf_calories"`
	SaturatedFat       *float64 `json:"nf_saturated_fat"`
	Sugars             *float64 `json:"nf_sugars"`
	Protein            *float64 `json:"nf_protein"`
}

// Lookup sends query to the provider and maps the returned foods. Records
// without a name are dropped; missing numerics become 0.
func (c *Client) Lookup(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nutritionix: rate limit: %w", err)
	}

	body, err := json.Marshal(nutrientsRequest{Query: query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+nutrientsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("nutritionix: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-app-id", c.appID)
	req.Header.Set("x-app-key", c.appKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nutritionix: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// The API answers 404 when it cannot match the query.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nutritionix: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out nutrientsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("nutritionix: decode response: %w", err)
	}

	foods := make([]domain.FoodCandidate, 0, len(out.Foods))
	for _, r := range out.Foods {
		name := c.cleanText(r.FoodName)
		if name == "" {
			continue
		}
		foods = append(foods, domain.FoodCandidate{
			Name:               name,
			ServingUnit:        c.cleanText(r.ServingUnit),
			ServingWeightGrams: value(r.ServingWeightGrams),
			Calories:           value(r.Calories),
			SaturatedFat:       value(r.SaturatedFat),
			Sugar:              value(r.Sugars),
			Protein:            value(r.Protein),
		})
	}
	return foods, nil
}

// cleanText strips markup from provider text. Entities escaped by the
// sanitizer are decoded again since the result is plain text, not HTML.
func (c *Client) cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitize.Sanitize(s)))
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
