package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
)

// MockCacheRepository is a mock implementation of CacheRepository
type MockCacheRepository struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockLookup answers from a script of results, one per call; the last entry repeats
type MockLookup struct {
	name    string
	results []lookupResult
	calls   []string
}

type lookupResult struct {
	payload *domain.SourcePayload
	err     error
}

func NewMockLookup(name string, results ...lookupResult) *MockLookup {
	return &MockLookup{name: name, results: results}
}

func (m *MockLookup) Name() string { return m.name }

func (m *MockLookup) Lookup(ctx context.Context, barcode string) (*domain.SourcePayload, error) {
	m.calls = append(m.calls, barcode)
	if len(m.results) == 0 {
		return nil, domain.NewProviderError(m.name, domain.ErrNotFound, "not found", nil)
	}
	i := min(len(m.calls), len(m.results)) - 1
	return m.results[i].payload, m.results[i].err
}

func found(source string, fields domain.ProductFields) lookupResult {
	return lookupResult{payload: &domain.SourcePayload{Source: source, Fields: fields}}
}

func failed(err error) lookupResult {
	return lookupResult{err: err}
}

// MockEnricher returns a fixed payload or error
type MockEnricher struct {
	payload *domain.SourcePayload
	err     error
	hints   []string
}

func (m *MockEnricher) Enrich(ctx context.Context, barcode, productName string) (*domain.SourcePayload, error) {
	m.hints = append(m.hints, productName)
	return m.payload, m.err
}

// MockProber returns a fixed image or error
type MockProber struct {
	asset     *domain.ImageAsset
	err       error
	fallbacks []string
}

func (m *MockProber) Probe(ctx context.Context, barcode, fallbackURL string) (*domain.ImageAsset, error) {
	m.fallbacks = append(m.fallbacks, fallbackURL)
	return m.asset, m.err
}

// MockEnhancer returns a fixed image or error
type MockEnhancer struct {
	asset *domain.ImageAsset
	err   error
}

func (m *MockEnhancer) Enhance(ctx context.Context, img *domain.ImageAsset) (*domain.ImageAsset, error) {
	return m.asset, m.err
}

// MockRemover records its input and returns a fixed image or error
type MockRemover struct {
	asset *domain.ImageAsset
	err   error
	input *domain.ImageAsset
}

func (m *MockRemover) RemoveBackground(ctx context.Context, img *domain.ImageAsset) (*domain.ImageAsset, error) {
	m.input = img
	return m.asset, m.err
}

// MockArchiveStore keeps archives in memory
type MockArchiveStore struct {
	archives map[string][]byte
	err      error
}

func (m *MockArchiveStore) Put(ctx context.Context, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.archives == nil {
		m.archives = make(map[string][]byte)
	}
	id := fmt.Sprintf("archive-%d", len(m.archives)+1)
	m.archives[id] = data
	return id, nil
}

func (m *MockArchiveStore) Take(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	return nil, 0, domain.ErrArchiveNotFound
}

// recordingSleep records requested delays without waiting
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func testImage(source string, stage domain.ImageStage) *domain.ImageAsset {
	return &domain.ImageAsset{Data: []byte(source), Format: "png", Source: source, Stage: stage, Width: 800, Height: 800}
}
