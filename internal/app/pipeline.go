// Package app wires configuration into the product pipeline shared by the
// HTTP server and the batch CLI.
package app

import (
	"log/slog"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/config"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/bgremoval"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/cache"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/gemini"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/goupc"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/imagesource"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/openfoodfacts"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/usecase"
)

// cacheSweepInterval is how often expired lookup payloads are dropped
const cacheSweepInterval = 10 * time.Minute

// Pipeline is the assembled single-barcode pipeline
type Pipeline struct {
	Products     *usecase.ProductService
	Capabilities map[string]bool
	cache        *cache.MemoryCache
}

// Close stops background work owned by the pipeline
func (p *Pipeline) Close() {
	p.cache.Close()
}

// Options tweak the pipeline for one entry point
type Options struct {
	// Images disables the prober, enhancer and remover when false
	Images bool
}

// NewPipeline builds the lookup adapters, the optional generative and image
// stages and the product service from cfg. Stages without credentials or a
// runtime dependency are left out rather than failing.
func NewPipeline(cfg *config.Config, opts Options) *Pipeline {
	memoryCache := cache.NewMemoryCache(cacheSweepInterval)

	lookups := []domain.ProductLookup{
		usecase.NewCachedLookup(
			goupc.NewClient(cfg.GoUPC.APIKey, cfg.GoUPC.BaseURL, cfg.GoUPC.Timeout, cfg.GoUPC.RequestsPerMinute),
			memoryCache, cfg.Cache.TTL),
		usecase.NewCachedLookup(
			openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, cfg.OpenFoodFacts.UserAgent,
				cfg.OpenFoodFacts.Timeout, cfg.OpenFoodFacts.RequestsPerMinute),
			memoryCache, cfg.Cache.TTL),
	}
	if !cfg.HasGoUPC() {
		slog.Warn("go-upc API key not configured, barcode lookups use open data only")
	}

	capabilities := map[string]bool{
		"goupc":              cfg.HasGoUPC(),
		"gemini":             cfg.HasGemini(),
		"images":             opts.Images,
		"background_removal": false,
	}

	var (
		enricher domain.ProductEnricher
		prober   domain.ImageProber
		enhancer domain.ImageEnhancer
		remover  domain.BackgroundRemover
	)

	if cfg.HasGemini() {
		client, err := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Timeout)
		if err != nil {
			slog.Error("failed to create gemini client, enrichment and image enhancement are disabled", "error", err)
			capabilities["gemini"] = false
		} else {
			enricher = gemini.NewEnricher(client, cfg.Gemini.TextModel)
			if opts.Images {
				enhancer = gemini.NewEnhancer(client, cfg.Gemini.ImageModel, cfg.Gemini.EnhancePrompt)
			}
		}
	} else {
		slog.Warn("gemini API key not configured, enrichment and image enhancement are disabled")
	}

	if opts.Images {
		prober = imagesource.NewProber(imagesource.Options{
			ProductHosts: cfg.Images.ProductHosts,
			EANLookupURL: cfg.Images.EANLookupURL,
			Timeout:      cfg.Images.Timeout,
			MinBytes:     cfg.Images.MinBytes,
			MinDimension: cfg.Images.MinDimension,
		})

		if cfg.Background.Enabled {
			r := bgremoval.NewRemover(cfg.Background.Command, cfg.Background.CanvasSize,
				cfg.Background.Padding, cfg.Background.Timeout)
			if r.Available() {
				remover = r
				capabilities["background_removal"] = true
			} else {
				slog.Warn("background removal command not found, stage disabled", "command", cfg.Background.Command)
			}
		}
	}

	retry := usecase.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.Retry.MaxAttempts
	retry.Delay = cfg.Retry.Delay

	products := usecase.NewProductService(lookups, enricher, prober, enhancer, remover, usecase.ProductServiceConfig{
		Retry:        retry,
		Enrichment:   cfg.Batch.Enrichment,
		MinNameMatch: cfg.Batch.EnrichmentMinMatch,
	})

	return &Pipeline{
		Products:     products,
		Capabilities: capabilities,
		cache:        memoryCache,
	}
}
