package gemini

import (
	"context"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/imagecodec"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
	"google.golang.org/genai"
)

// EnhanceSource is the provenance name of enhanced images
const EnhanceSource = "gemini-enhance"

// Enhancer improves product photos with an image generation model
type Enhancer struct {
	client *Client
	model  string
	prompt string
}

// NewEnhancer creates an image enhancement adapter
func NewEnhancer(client *Client, model, prompt string) *Enhancer {
	return &Enhancer{client: client, model: model, prompt: prompt}
}

// Enhance sends the photo and the fixed instruction, and returns the first
// inline image of the first candidate.
func (e *Enhancer) Enhance(ctx context.Context, img *domain.ImageAsset) (*domain.ImageAsset, error) {
	logger := logging.Component(ctx, EnhanceSource)

	if img == nil || len(img.Data) == 0 {
		return nil, domain.NewProviderError(EnhanceSource, domain.ErrProcessing, "no image to enhance", nil)
	}

	mimeType := img.ContentType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(e.prompt),
		genai.NewPartFromBytes(img.Data, mimeType),
	}

	resp, err := e.client.GenerateContent(ctx, EnhanceSource, e.model, parts, nil)
	if err != nil {
		return nil, err
	}

	blob := firstInlineData(resp)
	if blob == nil {
		return nil, domain.NewProviderError(EnhanceSource, domain.ErrProcessing, "could not process the image with AI", nil)
	}
	data := blob.Data

	asset, err := imagecodec.NewAsset(data, EnhanceSource, "", domain.StageEnhanced)
	if err != nil {
		return nil, domain.NewProviderError(EnhanceSource, domain.ErrProcessing, "response image could not be decoded", err)
	}

	logger.Info("image enhanced", "width", asset.Width, "height", asset.Height, "bytes", len(data))
	return asset, nil
}
