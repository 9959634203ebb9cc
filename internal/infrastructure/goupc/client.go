package goupc

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

// Client handles communication with the Go-UPC barcode API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
}

// NewClient creates a new Go-UPC API client
func NewClient(apiKey, baseURL string, timeout time.Duration, requestsPerMinute int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: upstream.NewLimiter(requestsPerMinute),
	}
}

// Name identifies the source in provenance and logs
func (c *Client) Name() string {
	return domain.SourceGoUPC
}

// Lookup retrieves the product for a barcode.
// 400 and 429 answers are marked retryable: Go-UPC returns 400 under load for
// codes that resolve fine a minute later.
func (c *Client) Lookup(ctx context.Context, barcode string) (*domain.SourcePayload, error) {
	logger := logging.Component(ctx, c.Name()).With("barcode", barcode)

	code, err := domain.ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		return nil, domain.NewProviderError(c.Name(), domain.ErrCredentialMissing, "Go-UPC API key not configured", nil)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, upstream.Classify(c.Name(), err)
	}

	reqURL := fmt.Sprintf("%s/code/%s", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.NewProviderError(c.Name(), domain.ErrConnection, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", upstream.UserAgent)

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
		return nil, domain.NewProviderError(c.Name(), domain.ErrNotFound, "product not found in Go-UPC", nil)
	case resp.StatusCode == http.StatusBadRequest:
		logger.Warn("bad request, marked for retry", "status", resp.StatusCode)
		return nil, domain.NewRetryableError(c.Name(), domain.ErrRetryableUpstream, fmt.Sprintf("HTTP error %d: bad request", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		logger.Warn("rate limited, marked for retry", "status", resp.StatusCode)
		return nil, domain.NewRetryableError(c.Name(), domain.ErrRateLimited, fmt.Sprintf("HTTP error %d: too many requests", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, domain.NewProviderError(c.Name(), domain.ErrUpstreamServer, fmt.Sprintf("HTTP error %d: server error", resp.StatusCode), nil)
	default:
		return nil, domain.NewProviderError(c.Name(), domain.ErrConnection, fmt.Sprintf("HTTP error %d", resp.StatusCode), nil)
	}

	var codeResp CodeResponse
	if err := json.Unmarshal(body, &codeResp); err != nil {
		return nil, domain.NewProviderError(c.Name(), domain.ErrProcessing, "failed to decode response", err)
	}

	if codeResp.Product == nil {
		logger.Info("product not found")
		return nil, domain.NewProviderError(c.Name(), domain.ErrNotFound, "product not found in Go-UPC", nil)
	}

	logger.Info("product found", "name", codeResp.Product.Name)
	return &domain.SourcePayload{
		Source: c.Name(),
		Fields: MapToFields(&codeResp),
	}, nil
}
