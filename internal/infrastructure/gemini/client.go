package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/upstream"
	"google.golang.org/genai"
)

// Source is the provenance name of the generative service
const Source = "gemini"

// Client wraps the Gemini API client with the pipeline's error model
type Client struct {
	api *genai.Client
}

// NewClient creates a generative model client. An empty apiKey yields a client
// whose calls report a missing credential. baseURL overrides the API endpoint
// when set.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return &Client{}, nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			Headers: http.Header{"User-Agent": []string{upstream.UserAgent}},
		},
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimRight(baseURL, "/") + "/"
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{api: client}, nil
}

// Configured reports whether a credential is present
func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// GenerateContent sends one user turn made of parts to model. Failures come
// back as provider errors tagged with source; none of them are retryable.
func (c *Client) GenerateContent(ctx context.Context, source, model string, parts []*genai.Part,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if !c.Configured() {
		return nil, domain.NewProviderError(source, domain.ErrCredentialMissing, "Gemini API key not configured", nil)
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.api.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, classify(source, err)
	}
	return resp, nil
}

// classify maps API status codes and transport failures onto provider errors
func classify(source string, err error) error {
	code, ok := apiErrorCode(err)
	if !ok {
		return upstream.Classify(source, err)
	}

	msg := fmt.Sprintf("Gemini API error: %d", code)
	switch {
	case code == http.StatusTooManyRequests:
		return domain.NewProviderError(source, domain.ErrRateLimited, msg, err)
	case code >= 500:
		return domain.NewProviderError(source, domain.ErrUpstreamServer, msg, err)
	default:
		return domain.NewProviderError(source, domain.ErrConnection, msg, err)
	}
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// firstInlineData returns the first inline binary part of the first candidate
func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}
