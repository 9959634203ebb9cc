// Package imagesource finds a usable product photo for a barcode.
package imagesource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/imagecodec"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/upstream"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
)

const component = "imagesource"

// Source names reported in image provenance
const (
	SourceEANLookup = "ean-lookup"
	SourceFallback  = "fallback"
)

// Candidate is one URL to try, with the source name it reports on success
type Candidate struct {
	Source string
	URL    string
}

// Options configures a Prober
type Options struct {
	ProductHosts []string
	EANLookupURL string // %s is replaced by the barcode
	Timeout      time.Duration
	MinBytes     int
	MinDimension int
}

// Prober tries candidate image URLs in priority order
type Prober struct {
	httpClient *http.Client
	opts       Options
}

// NewProber creates an image source prober
func NewProber(opts Options) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Prober{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

// DigitPath splits a barcode into the folder layout used by product image
// hosts: codes are left-padded to 13 digits and split 3/3/3/rest. Codes of
// 8 digits or fewer are used as a single folder.
func DigitPath(barcode string) string {
	if len(barcode) <= 8 {
		return barcode
	}
	code := barcode
	if len(code) < 13 {
		code = strings.Repeat("0", 13-len(code)) + code
	}
	return strings.Join([]string{code[0:3], code[3:6], code[6:9], code[9:]}, "/")
}

// Candidates returns the ordered candidate list for barcode
func (p *Prober) Candidates(barcode, fallbackURL string) []Candidate {
	var candidates []Candidate
	seen := make(map[string]bool)
	add := func(source, rawURL string) {
		if rawURL == "" || seen[rawURL] {
			return
		}
		seen[rawURL] = true
		candidates = append(candidates, Candidate{Source: source, URL: rawURL})
	}

	path := DigitPath(barcode)
	for _, host := range p.opts.ProductHosts {
		host = strings.TrimRight(host, "/")
		add(hostSource(host), fmt.Sprintf("%s/%s/1.jpg", host, path))
	}
	if p.opts.EANLookupURL != "" {
		add(SourceEANLookup, fmt.Sprintf(p.opts.EANLookupURL, barcode))
	}
	if !domain.IsPlaceholder(fallbackURL) {
		add(SourceFallback, fallbackURL)
	}
	return candidates
}

// Probe returns the first candidate that answers 200 with enough bytes and
// decodes as an image at least MinDimension on both sides.
func (p *Prober) Probe(ctx context.Context, barcode, fallbackURL string) (*domain.ImageAsset, error) {
	logger := logging.Component(ctx, component).With("barcode", barcode)

	code, err := domain.ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}

	candidates := p.Candidates(code, fallbackURL)
	for _, c := range candidates {
		asset, err := p.fetch(ctx, c)
		if err != nil {
			logger.Debug("candidate skipped", "source", c.Source, "url", c.URL, "reason", err)
			continue
		}
		logger.Info("image found", "source", c.Source, "width", asset.Width, "height", asset.Height, "quality", asset.Quality)
		return asset, nil
	}

	return nil, domain.NewProviderError(component, domain.ErrNotFound,
		fmt.Sprintf("no usable image among %d candidates", len(candidates)), nil)
}

func (p *Prober) fetch(ctx context.Context, c Candidate) (*domain.ImageAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", upstream.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := upstream.ReadLimitedBody(resp.Body, upstream.MaxBodySize)
	if err != nil {
		return nil, err
	}
	if len(data) < p.opts.MinBytes {
		return nil, fmt.Errorf("only %d bytes", len(data))
	}

	asset, err := imagecodec.NewAsset(data, c.Source, c.URL, domain.StageOriginal)
	if err != nil {
		return nil, err
	}
	if asset.Width < p.opts.MinDimension || asset.Height < p.opts.MinDimension {
		return nil, fmt.Errorf("too small: %dx%d", asset.Width, asset.Height)
	}
	return asset, nil
}

// hostSource names a product host by its hostname
func hostSource(host string) string {
	if u, err := url.Parse(host); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return host
}
