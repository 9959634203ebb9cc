package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProductLookup fetches product data for a validated barcode from one source.
type ProductLookup interface {
	Name() string
	Lookup(ctx context.Context, barcode string) (*SourcePayload, error)
}

// ProductEnricher asks a generative model for the product fields of a barcode.
type ProductEnricher interface {
	Enrich(ctx context.Context, barcode, productName string) (*SourcePayload, error)
}

// ImageProber finds the first usable product image for a barcode.
type ImageProber interface {
	Probe(ctx context.Context, barcode, fallbackURL string) (*ImageAsset, error)
}

// ImageEnhancer produces an improved version of a product photo.
type ImageEnhancer interface {
	Enhance(ctx context.Context, img *ImageAsset) (*ImageAsset, error)
}

// BackgroundRemover cuts the product out of its background and recomposes it.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img *ImageAsset) (*ImageAsset, error)
}

// ArchiveStore keeps finished batch archives until they are retrieved once.
type ArchiveStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Take(ctx context.Context, id string) (io.ReadCloser, int64, error)
}
