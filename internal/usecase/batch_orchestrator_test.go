package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/export"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcessor finds barcodes listed in products, panics on panics, and
// reports not-found for everything else
type fakeProcessor struct {
	products map[string]string
	panics   map[string]bool
	calls    []string
}

func (p *fakeProcessor) Process(ctx context.Context, barcode string) (*domain.ProductResult, error) {
	p.calls = append(p.calls, barcode)
	if p.panics[barcode] {
		panic("decoder exploded")
	}
	code, err := domain.ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}
	name, ok := p.products[code]
	if !ok {
		record := NewAggregator().Merge(code)
		record.Error = "not found"
		return &domain.ProductResult{Record: record},
			domain.NewProviderError("lookup", domain.ErrNotFound, "product "+code+" not found in any source", nil)
	}
	record := NewAggregator().Merge(code, &domain.SourcePayload{Source: "fake", Fields: domain.ProductFields{Name: name}})
	return &domain.ProductResult{
		Record: record,
		Images: []*domain.ImageAsset{testImage(name, domain.StageFinal)},
	}, nil
}

type eventLog struct {
	events []domain.BatchEvent
}

func (l *eventLog) emit(e domain.BatchEvent) {
	l.events = append(l.events, e)
}

func (l *eventLog) types() []domain.EventType {
	var out []domain.EventType
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) progressBarcodes() []string {
	var out []string
	for _, e := range l.events {
		if e.Type == domain.EventProgress {
			out = append(out, e.Barcode)
		}
	}
	return out
}

func TestBatch_EmptyInput(t *testing.T) {
	processor := &fakeProcessor{}
	log := &eventLog{}

	result := NewBatchOrchestrator(processor, &MockArchiveStore{}, BatchConfig{}).Run(context.Background(), nil, log.emit)

	assert.Equal(t, domain.BatchEmptyInputError, result.State)
	assert.Equal(t, []domain.EventType{domain.EventError}, log.types())
	assert.Empty(t, processor.calls)
}

func TestBatch_ProgressInOrderThenComplete(t *testing.T) {
	processor := &fakeProcessor{products: map[string]string{
		"3017620422003": "Nutella",
		"781138811156":  "Peanut Butter",
	}}
	store := &MockArchiveStore{}
	log := &eventLog{}
	input := []string{"3017620422003", "04963406", "bad", "781138811156"}

	result := NewBatchOrchestrator(processor, store, BatchConfig{MaxItems: 50}).Run(context.Background(), input, log.emit)

	wantTypes := []domain.EventType{
		domain.EventProgress, domain.EventProgress, domain.EventProgress, domain.EventProgress, domain.EventComplete,
	}
	if diff := cmp.Diff(wantTypes, log.types()); diff != "" {
		t.Fatalf("event types mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, input, log.progressBarcodes())
	assert.Equal(t, input, processor.calls)

	var successes []bool
	for i, e := range log.events[:4] {
		successes = append(successes, *e.Success)
		assert.Equal(t, i+1, e.Index)
		assert.Equal(t, 4, e.Total)
		assert.NotEmpty(t, e.Message)
	}
	assert.Equal(t, []bool{true, false, false, true}, successes)

	complete := log.events[4]
	assert.Equal(t, 2, complete.Succeeded)
	assert.Equal(t, 2, complete.Failed)
	assert.Equal(t, "archive-1", complete.ArchiveReference)
	assert.Empty(t, complete.Archive)

	assert.Equal(t, domain.BatchCompleted, result.State)
	assert.Equal(t, 2, result.Succeeded())
	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, "product 04963406 not found in any source", result.Outcomes[1].Reason)
	assert.True(t, result.Outcomes[1].NotFound)
	assert.Nil(t, result.Outcomes[2].Record, "invalid barcodes have no record")
	assert.False(t, result.Outcomes[2].NotFound)

	files := zipNames(t, store.archives["archive-1"])
	assert.ElementsMatch(t, []string{export.SpreadsheetName, "images/Nutella.png", "images/Peanut Butter.png"}, files)
}

func TestBatch_TruncatesWithWarningFirst(t *testing.T) {
	products := make(map[string]string)
	var input []string
	for i := 0; i < 60; i++ {
		code := fmt.Sprintf("%08d", 10000000+i)
		input = append(input, code)
		products[code] = "Product " + code
	}
	processor := &fakeProcessor{products: products}
	log := &eventLog{}

	result := NewBatchOrchestrator(processor, &MockArchiveStore{}, BatchConfig{MaxItems: 50}).Run(context.Background(), input, log.emit)

	require.Len(t, log.events, 52)
	assert.Equal(t, domain.EventWarning, log.events[0].Type)
	assert.Contains(t, log.events[0].Message, "50")
	assert.Equal(t, input[:50], log.progressBarcodes())
	assert.Equal(t, domain.EventComplete, log.events[51].Type)
	assert.Len(t, processor.calls, 50)
	assert.Equal(t, 10, result.Dropped)
}

func TestBatch_AllFailedEmitsError(t *testing.T) {
	processor := &fakeProcessor{}
	log := &eventLog{}

	result := NewBatchOrchestrator(processor, &MockArchiveStore{}, BatchConfig{}).Run(context.Background(),
		[]string{"04963406", "12345670"}, log.emit)

	assert.Equal(t, []domain.EventType{domain.EventProgress, domain.EventProgress, domain.EventError}, log.types())
	assert.Equal(t, domain.BatchNoOutputError, result.State)
	assert.Nil(t, result.Archive)
}

func TestBatch_PanicIsolatedToItem(t *testing.T) {
	processor := &fakeProcessor{
		products: map[string]string{"12345670": "Widget"},
		panics:   map[string]bool{"04963406": true},
	}
	log := &eventLog{}

	result := NewBatchOrchestrator(processor, &MockArchiveStore{}, BatchConfig{}).Run(context.Background(),
		[]string{"04963406", "12345670"}, log.emit)

	assert.Equal(t, []domain.EventType{domain.EventProgress, domain.EventProgress, domain.EventComplete}, log.types())
	assert.False(t, *log.events[0].Success)
	assert.Contains(t, log.events[0].Message, "decoder exploded")
	assert.True(t, *log.events[1].Success)
	assert.Equal(t, domain.BatchCompleted, result.State)
}

func TestBatch_InlineArchive(t *testing.T) {
	processor := &fakeProcessor{products: map[string]string{"12345670": "Widget"}}
	log := &eventLog{}

	NewBatchOrchestrator(processor, nil, BatchConfig{}).Run(context.Background(), []string{"12345670"}, log.emit)

	complete := log.events[len(log.events)-1]
	require.Equal(t, domain.EventComplete, complete.Type)
	assert.Empty(t, complete.ArchiveReference)
	data, err := base64.StdEncoding.DecodeString(complete.Archive)
	require.NoError(t, err)
	assert.Contains(t, zipNames(t, data), "images/Widget.png")
}

func TestBatch_StoreFailureFallsBackToInline(t *testing.T) {
	processor := &fakeProcessor{products: map[string]string{"12345670": "Widget"}}
	log := &eventLog{}
	store := &MockArchiveStore{err: errors.New("disk full")}

	NewBatchOrchestrator(processor, store, BatchConfig{}).Run(context.Background(), []string{"12345670"}, log.emit)

	complete := log.events[len(log.events)-1]
	assert.Equal(t, domain.EventComplete, complete.Type)
	assert.NotEmpty(t, complete.Archive)
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
