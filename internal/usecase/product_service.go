package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
)

// ProductServiceConfig holds the pipeline switches
type ProductServiceConfig struct {
	Retry      RetryPolicy
	Enrichment bool

	// MinNameMatch rejects enrichment answers whose product name scores
	// below it against the looked-up name. Zero disables the check.
	MinNameMatch float64
}

// ProductService runs the full single-barcode pipeline: lookups with retry,
// optional web enrichment, aggregation and the image chain.
type ProductService struct {
	lookups    []domain.ProductLookup
	enricher   domain.ProductEnricher
	prober     domain.ImageProber
	enhancer   domain.ImageEnhancer
	remover    domain.BackgroundRemover
	aggregator *Aggregator
	retry      RetryPolicy
	enrich     bool
	minMatch   float64
}

// NewProductService creates a product service. lookups are given in merge
// priority order. enricher, prober, enhancer and remover may be nil, which
// skips the stage.
func NewProductService(
	lookups []domain.ProductLookup,
	enricher domain.ProductEnricher,
	prober domain.ImageProber,
	enhancer domain.ImageEnhancer,
	remover domain.BackgroundRemover,
	config ProductServiceConfig,
) *ProductService {
	return &ProductService{
		lookups:    lookups,
		enricher:   enricher,
		prober:     prober,
		enhancer:   enhancer,
		remover:    remover,
		aggregator: NewAggregator(),
		retry:      config.Retry,
		enrich:     config.Enrichment,
		minMatch:   config.MinNameMatch,
	}
}

// Process looks up one barcode. Validation errors return a nil result and no
// network call is made. For a valid barcode the result is always returned;
// when no source found the product, err explains why (ErrNotFound when every
// source answered not-found, the first upstream failure otherwise).
func (s *ProductService) Process(ctx context.Context, barcode string) (*domain.ProductResult, error) {
	code, err := domain.ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}

	logger := logging.Component(ctx, "pipeline").With("barcode", code)
	result := &domain.ProductResult{}

	payloads, attempts, lookupErr := s.lookup(ctx, code)

	var enrichment *domain.SourcePayload
	if len(payloads) > 0 && s.enrich && s.enricher != nil {
		first := payloads[0].Fields
		enrichment, err = s.enricher.Enrich(ctx, code, NameHint(first.Name, first.Brand))
		if err != nil {
			enrichment = nil
			if !domain.IsSkip(err) {
				logger.Warn("enrichment failed", "error", err)
				result.Warnings = append(result.Warnings, "enrichment: "+domain.Reason(err))
			}
		} else if s.minMatch > 0 && enrichment != nil && enrichment.Fields.Name != "" && !domain.IsPlaceholder(first.Name) {
			if score := NameMatchScore(first.Name, first.Brand, enrichment.Fields.Name); score < s.minMatch {
				logger.Warn("enrichment rejected, names do not match",
					"lookup_name", first.Name, "enriched_name", enrichment.Fields.Name, "score", score)
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("enrichment: answer describes a different product (name match %.0f%%)", score))
				enrichment = nil
			}
		}
	}

	merged := append([]*domain.SourcePayload{enrichment}, payloads...)
	record := s.aggregator.Merge(code, merged...)
	record.Attempts = attempts
	record.Enriched = enrichment != nil
	result.Record = record

	if !record.Found {
		record.Error = domain.Reason(lookupErr)
		logger.Info("product not found", "reason", record.Error)
		return result, lookupErr
	}

	s.images(ctx, record, result)

	logger.Info("product processed",
		"sources", strings.Join(record.Sources, ","),
		"attempts", attempts,
		"enriched", record.Enriched,
		"images", len(result.Images))
	return result, nil
}

// lookup queries every source in order, each under the retry policy. It
// returns the found payloads in priority order, the highest attempt count and
// the error that best explains an empty result.
func (s *ProductService) lookup(ctx context.Context, code string) ([]*domain.SourcePayload, int, error) {
	logger := logging.Component(ctx, "pipeline").With("barcode", code)

	var payloads []*domain.SourcePayload
	var failures []error
	attempts := 0

	for _, source := range s.lookups {
		payload, n, err := WithRetry(ctx, s.retry, func(ctx context.Context) (*domain.SourcePayload, error) {
			return source.Lookup(ctx, code)
		})
		attempts = max(attempts, n)

		switch {
		case err == nil:
			payloads = append(payloads, payload)
		case domain.IsSkip(err):
			logger.Debug("lookup skipped", "source", source.Name(), "reason", domain.Reason(err))
		default:
			logger.Info("lookup failed", "source", source.Name(), "attempts", n, "error", err)
			failures = append(failures, err)
		}
	}

	if len(payloads) > 0 {
		return payloads, attempts, nil
	}
	return nil, attempts, explainMissing(code, failures)
}

// explainMissing picks the error reported for a product no source returned
func explainMissing(code string, failures []error) error {
	for _, err := range failures {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return domain.NewProviderError("lookup", domain.ErrNotFound,
		fmt.Sprintf("product %s not found in any source", code), errors.Join(failures...))
}

// images runs prober -> enhancer -> background removal. Every stage is
// optional and a failed stage leaves the previous variant as the final one.
func (s *ProductService) images(ctx context.Context, record *domain.ProductRecord, result *domain.ProductResult) {
	logger := logging.Component(ctx, "pipeline").With("barcode", record.Barcode)

	if s.prober == nil {
		return
	}
	fallbackURL := ""
	if !domain.IsPlaceholder(record.ImageURL) {
		fallbackURL = record.ImageURL
	}

	current, err := s.prober.Probe(ctx, record.Barcode, fallbackURL)
	if err != nil {
		logger.Info("no product image", "reason", domain.Reason(err))
		result.Warnings = append(result.Warnings, "image: "+domain.Reason(err))
		return
	}
	result.Images = append(result.Images, current)

	if s.enhancer != nil {
		enhanced, err := s.enhancer.Enhance(ctx, current)
		switch {
		case err == nil:
			result.Images = append(result.Images, enhanced)
			current = enhanced
		case domain.IsSkip(err):
		default:
			logger.Warn("image enhancement failed", "error", err)
			result.AIError = domain.Reason(err)
			result.Warnings = append(result.Warnings, "enhancement: "+result.AIError)
		}
	}

	if s.remover != nil {
		final, err := s.remover.RemoveBackground(ctx, current)
		switch {
		case err == nil:
			result.Images = append(result.Images, final)
		case domain.IsSkip(err):
		default:
			logger.Warn("background removal failed", "error", err)
			result.Warnings = append(result.Warnings, "background removal: "+domain.Reason(err))
		}
	}
}
