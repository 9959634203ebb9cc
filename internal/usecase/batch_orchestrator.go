package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/export"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
)

// DefaultMaxBatchItems caps how many barcodes one batch processes
const DefaultMaxBatchItems = 50

// ItemProcessor runs the pipeline for one barcode
type ItemProcessor interface {
	Process(ctx context.Context, barcode string) (*domain.ProductResult, error)
}

// BatchConfig holds batch limits and output options
type BatchConfig struct {
	MaxItems      int
	InlineArchive bool
}

// BatchOrchestrator processes barcodes one at a time, emitting one progress
// event per item, and packages the results into an archive.
type BatchOrchestrator struct {
	processor ItemProcessor
	archives  domain.ArchiveStore
	maxItems  int
	inline    bool
}

// NewBatchOrchestrator creates a batch orchestrator. archives may be nil when
// archives are always inlined.
func NewBatchOrchestrator(processor ItemProcessor, archives domain.ArchiveStore, config BatchConfig) *BatchOrchestrator {
	maxItems := config.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxBatchItems
	}
	return &BatchOrchestrator{
		processor: processor,
		archives:  archives,
		maxItems:  maxItems,
		inline:    config.InlineArchive || archives == nil,
	}
}

// Run processes barcodes in order. Events are emitted synchronously: an
// optional warning when input is truncated, exactly one progress event per
// processed item in input order, then exactly one complete or error event.
func (o *BatchOrchestrator) Run(ctx context.Context, barcodes []string, emit domain.EventSink) *domain.BatchResult {
	logger := logging.Component(ctx, "batch")
	result := &domain.BatchResult{State: domain.BatchPending}

	if len(barcodes) == 0 {
		result.State = domain.BatchEmptyInputError
		emit(domain.BatchEvent{Type: domain.EventError, Message: domain.ErrEmptyBatch.Error()})
		return result
	}

	if len(barcodes) > o.maxItems {
		result.Dropped = len(barcodes) - o.maxItems
		msg := fmt.Sprintf("Only the first %d of %d barcodes will be processed; %d were dropped",
			o.maxItems, len(barcodes), result.Dropped)
		emit(domain.BatchEvent{Type: domain.EventWarning, Message: msg})
		barcodes = barcodes[:o.maxItems]
	}

	result.State = domain.BatchProcessing
	total := len(barcodes)
	logger.Info("batch started", "items", total, "dropped", result.Dropped)

	for i, barcode := range barcodes {
		outcome := o.processItem(ctx, barcode)
		result.Outcomes = append(result.Outcomes, outcome)

		success := outcome.Success
		emit(domain.BatchEvent{
			Type:    domain.EventProgress,
			Barcode: outcome.Barcode,
			Success: &success,
			Message: progressMessage(outcome),
			Index:   i + 1,
			Total:   total,
		})
	}

	succeeded := result.Succeeded()
	failed := total - succeeded
	if succeeded == 0 {
		result.State = domain.BatchNoOutputError
		emit(domain.BatchEvent{
			Type:    domain.EventError,
			Message: fmt.Sprintf("None of the %d barcodes produced a product record", total),
			Total:   total,
			Failed:  failed,
		})
		return result
	}

	archive, err := o.bundle(result.Outcomes)
	if err != nil {
		logger.Error("failed to build archive", "error", err)
		result.State = domain.BatchNoOutputError
		emit(domain.BatchEvent{Type: domain.EventError, Message: "Failed to build the export archive: " + err.Error()})
		return result
	}
	result.Archive = archive
	result.State = domain.BatchCompleted

	complete := domain.BatchEvent{Type: domain.EventComplete, Total: total, Succeeded: succeeded, Failed: failed}
	if !o.inline {
		if ref, err := o.archives.Put(ctx, archive); err == nil {
			result.ArchiveReference = ref
			complete.ArchiveReference = ref
		} else {
			logger.Warn("failed to store archive, sending it inline", "error", err)
		}
	}
	if complete.ArchiveReference == "" {
		complete.Archive = base64.StdEncoding.EncodeToString(archive)
	}

	logger.Info("batch completed", "succeeded", succeeded, "failed", failed, "archive_bytes", len(archive))
	emit(complete)
	return result
}

// processItem runs one barcode. Any panic becomes a failed outcome so the
// batch carries on with the next item.
func (o *BatchOrchestrator) processItem(ctx context.Context, barcode string) (outcome domain.BatchItemOutcome) {
	outcome.Barcode = barcode

	defer func() {
		if r := recover(); r != nil {
			logging.Component(ctx, "batch").Error("item panicked", "barcode", barcode, "panic", r)
			outcome = domain.BatchItemOutcome{
				Barcode: barcode,
				Reason:  fmt.Sprintf("unexpected error: %v", r),
			}
		}
	}()

	res, err := o.processor.Process(ctx, barcode)
	if res != nil {
		outcome.Record = res.Record
		if res.Record != nil {
			outcome.Barcode = res.Record.Barcode
		}
	}

	switch {
	case res != nil && res.Record != nil && res.Record.Found:
		outcome.Success = true
		outcome.Image = res.FinalImage()
	case err != nil:
		outcome.Reason = domain.Reason(err)
		outcome.NotFound = errors.Is(err, domain.ErrNotFound)
	default:
		outcome.Reason = domain.ErrNotFound.Error()
		outcome.NotFound = true
	}
	return outcome
}

// bundle builds the spreadsheet from every record and zips it with the images
// of successful items
func (o *BatchOrchestrator) bundle(outcomes []domain.BatchItemOutcome) ([]byte, error) {
	var records []*domain.ProductRecord
	var images []export.NamedImage
	for _, out := range outcomes {
		if out.Record == nil {
			continue
		}
		records = append(records, out.Record)
		if out.Success && out.Image != nil {
			images = append(images, export.NamedImage{
				Name:  export.ImageFilename(out.Record, out.Image),
				Image: out.Image,
			})
		}
	}

	spreadsheet, err := export.BuildSpreadsheet(records)
	if err != nil {
		return nil, err
	}
	return export.BuildArchive(spreadsheet, images)
}

func progressMessage(o domain.BatchItemOutcome) string {
	if !o.Success {
		return fmt.Sprintf("%s: %s", o.Barcode, o.Reason)
	}
	msg := fmt.Sprintf("%s: %s", o.Barcode, o.Record.Name)
	if o.Image == nil {
		msg += " (no image)"
	}
	return msg
}
