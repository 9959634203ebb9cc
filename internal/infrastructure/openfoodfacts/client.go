package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/upstream"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
	"golang.org/x/time/rate"
)

// Client handles communication with the Open Food Facts v2 API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
}

// NewClient creates a new Open Food Facts client. The service asks every
// caller to identify itself, so an empty userAgent falls back to the default.
func NewClient(baseURL, userAgent string, timeout time.Duration, requestsPerMinute int) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if userAgent == "" {
		userAgent = upstream.UserAgent
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		userAgent:   userAgent,
		rateLimiter: upstream.NewLimiter(requestsPerMinute),
	}
}

// Name identifies the source in provenance and logs
func (c *Client) Name() string {
	return domain.SourceOpenFoodFacts
}

// Lookup retrieves the product for a barcode
func (c *Client) Lookup(ctx context.Context, barcode string) (*domain.SourcePayload, error) {
	logger := logging.Component(ctx, c.Name()).With("barcode", barcode)

	code, err := domain.ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, upstream.Classify(c.Name(), err)
	}

	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.NewProviderError(c.Name(), domain.ErrConnection, "failed to create request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("request failed", "error", err)
		return nil, upstream.Classify(c.Name(), err)
	}
	defer resp.Body.Close()

	body, err := upstream.ReadLimitedBody(resp.Body, upstream.MaxBodySize)
	if err != nil {
		return nil, upstream.Classify(c.Name(), err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NewProviderError(c.Name(), domain.ErrNotFound, fmt.Sprintf("product %s does not exist in Open Food Facts", code), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		logger.Warn("rate limited, marked for retry")
		return nil, domain.NewRetryableError(c.Name(), domain.ErrRateLimited, "too many requests, wait a moment and try again")
	case resp.StatusCode >= 500:
		return nil, domain.NewProviderError(c.Name(), domain.ErrUpstreamServer, "server error, try again in a few minutes", nil)
	default:
		return nil, domain.NewProviderError(c.Name(), domain.ErrConnection, fmt.Sprintf("connection error (HTTP %d)", resp.StatusCode), nil)
	}

	var productResp ProductResponse
	if err := json.Unmarshal(body, &productResp); err != nil {
		return nil, domain.NewProviderError(c.Name(), domain.ErrProcessing, "failed to decode response", err)
	}

	if productResp.Status != 1 || productResp.Product == nil {
		logger.Info("product not found", "status", productResp.StatusVerbose)
		return nil, domain.NewProviderError(c.Name(), domain.ErrNotFound, fmt.Sprintf("product %s is not in the Open Food Facts database", code), nil)
	}

	logger.Info("product found", "name", productResp.Product.ProductName)
	return &domain.SourcePayload{
		Source: c.Name(),
		Fields: MapToFields(code, productResp.Product),
	}, nil
}
