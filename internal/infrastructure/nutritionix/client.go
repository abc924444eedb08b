package nutritionix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nutrisnap/backend/internal/domain"
)

const (
	// DefaultBaseURL is the Nutritionix track API root
	DefaultBaseURL = "https://trackapi.nutritionix.com"

	// DefaultTimezone is sent with every natural-language query
	DefaultTimezone = "US/Eastern"

	naturalNutrientsPath = "/v2/natural/nutrients"
	maxAttempts          = 3
)

// Client handles communication with the Nutritionix natural language API
type Client struct {
	httpClient  *http.Client
	appID       string
	appKey      string
	baseURL     string
	timezone    string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	debug       bool
}

var _ domain.NutritionSource = (*Client)(nil)

// NewClient creates a new Nutritionix API client
func NewClient(appID, appKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		appID:       appID,
		appKey:      appKey,
		baseURL:     baseURL,
		timezone:    DefaultTimezone,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 10), // burst of 10 requests
		backoff:     exponentialBackoff,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SetTimezone overrides the timezone hint sent with queries
func (c *Client) SetTimezone(tz string) {
	if tz != "" {
		c.timezone = tz
	}
}

// SetRateLimit caps outbound requests per minute. It is safe to call while requests
// are in flight.
func (c *Client) SetRateLimit(perMinute, burst int) {
	if perMinute <= 0 {
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.rateLimiter.SetLimit(rate.Limit(float64(perMinute) / 60.0))
	c.rateLimiter.SetBurst(burst)
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// NaturalNutrients submits a natural-language query such as "200g Steak" and
// returns the first matched food
func (c *Client) NaturalNutrients(ctx context.Context, query string) (*domain.NutritionixFood, error) {
	if c.debug {
		log.Printf("[Nutritionix] NaturalNutrients called with query: %q", query)
	}

	body, err := json.Marshal(domain.NutritionixRequest{Query: query, Timezone: c.timezone})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrNutritionSourceFailure, err)
		}

		status, respBody, err := c.post(ctx, body)
		if err != nil {
			log.Printf("[Nutritionix] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, lastErr
			}
			if err := c.wait(ctx, attempt); err != nil {
				return nil, lastErr
			}
			continue
		}

		switch {
		case status == http.StatusOK:
			var resp domain.NutritionixResponse
			if err := json.Unmarshal(respBody, &resp); err != nil {
				return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrNutritionSourceFailure, err)
			}
			if len(resp.Foods) == 0 {
				log.Printf("[Nutritionix] No foods found for query: %q", query)
				return nil, domain.ErrFoodNotFound
			}
			if c.debug {
				log.Printf("[Nutritionix] Found %d foods for query: %q", len(resp.Foods), query)
			}
			food := resp.Foods[0]
			return &food, nil

		case status == http.StatusNotFound:
			return nil, domain.ErrFoodNotFound

		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			log.Printf("[Nutritionix] API error (attempt %d) - Status: %d, Body: %s", attempt, status, string(respBody))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrNutritionSourceFailure, status)
			if err := c.wait(ctx, attempt); err != nil {
				return nil, lastErr
			}

		default:
			log.Printf("[Nutritionix] API error - Status: %d, Body: %s", status, string(respBody))
			return nil, fmt.Errorf("%w: status %d", domain.ErrNutritionSourceFailure, status)
		}
	}

	log.Printf("[Nutritionix] All retries failed for query: %q", query)
	return nil, lastErr
}

// post executes one request with the credential headers and returns status and body
func (c *Client) post(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+naturalNutrientsPath, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-app-id", c.appID)
	req.Header.Set("x-app-key", c.appKey)
	req.Header.Set("User-Agent", "NutriSnap/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrNutritionSourceFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading body: %v", domain.ErrNutritionSourceFailure, err)
	}
	return resp.StatusCode, respBody, nil
}

// wait sleeps for the backoff of attempt unless ctx ends first
func (c *Client) wait(ctx context.Context, attempt int) error {
	if attempt >= maxAttempts {
		return nil
	}
	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
