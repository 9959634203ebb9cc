package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/config"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/app"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/export"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/usecase"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const timestampFormat = "20060102_150405"

type processOptions struct {
	file         string
	outputDir    string
	backupFormat string
	maxItems     int
	images       bool
	now          func() time.Time
}

var processFlags processOptions

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Look up every barcode in a file and export the results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))

		opts := processFlags
		if opts.maxItems <= 0 {
			opts.maxItems = cfg.Batch.MaxItems
		}

		pipeline := app.NewPipeline(cfg, app.Options{Images: opts.images})
		defer pipeline.Close()

		_, err = runProcess(cmd.Context(), opts, pipeline.Products, cmd.OutOrStdout())
		return err
	},
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&processFlags.file, "file", "f", "", "Newline-delimited barcodes file (required)")
	f.StringVarP(&processFlags.outputDir, "output", "o", "output", "Output directory")
	f.StringVar(&processFlags.backupFormat, "backup-format", "json", "Backup format: json or yaml")
	f.IntVar(&processFlags.maxItems, "max-items", 0, "Maximum barcodes to process (default from config)")
	f.BoolVar(&processFlags.images, "images", false, "Fetch product images and write a zip archive")
	_ = processCmd.MarkFlagRequired("file")
}

// Backup is the machine-readable dump written next to the spreadsheet
type Backup struct {
	GeneratedAt time.Time                 `json:"generatedAt" yaml:"generated_at"`
	Input       string                    `json:"input" yaml:"input"`
	Stats       Stats                     `json:"stats" yaml:"stats"`
	Outcomes    []domain.BatchItemOutcome `json:"outcomes" yaml:"outcomes"`
}

// runProcess reads the barcodes file, runs the batch and writes the outputs
// into opts.outputDir. Progress goes to out as one line per item.
func runProcess(ctx context.Context, opts processOptions, processor usecase.ItemProcessor, out io.Writer) (Stats, error) {
	if opts.backupFormat != "json" && opts.backupFormat != "yaml" {
		return Stats{}, fmt.Errorf("backup format must be json or yaml, got %q", opts.backupFormat)
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	codes, err := readBarcodesFile(opts.file)
	if err != nil {
		return Stats{}, err
	}
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create output directory: %w", err)
	}

	orchestrator := usecase.NewBatchOrchestrator(processor, nil, usecase.BatchConfig{MaxItems: opts.maxItems})
	result := orchestrator.Run(ctx, codes, func(e domain.BatchEvent) {
		switch e.Type {
		case domain.EventProgress:
			mark := "✓"
			if !*e.Success {
				mark = "✗"
			}
			fmt.Fprintf(out, "[%d/%d] %s %s\n", e.Index, e.Total, mark, e.Message)
		case domain.EventWarning, domain.EventError:
			fmt.Fprintf(out, "%s: %s\n", e.Type, e.Message)
		}
	})

	if result.State == domain.BatchEmptyInputError {
		return Stats{}, domain.ErrEmptyBatch
	}

	stats := computeStats(result)
	stamp := opts.now().Format(timestampFormat)

	var records []*domain.ProductRecord
	for _, o := range result.Outcomes {
		if o.Record != nil {
			records = append(records, o.Record)
		}
	}

	var g errgroup.Group
	if len(records) > 0 {
		g.Go(func() error {
			data, err := export.BuildSpreadsheet(records)
			if err != nil {
				return err
			}
			return writeOutput(opts.outputDir, "products_"+stamp+".xlsx", data)
		})
	}
	g.Go(func() error {
		backup := Backup{GeneratedAt: opts.now().UTC(), Input: opts.file, Stats: stats, Outcomes: result.Outcomes}
		data, err := encodeBackup(backup, opts.backupFormat)
		if err != nil {
			return err
		}
		return writeOutput(opts.outputDir, "backup_"+stamp+"."+opts.backupFormat, data)
	})
	if opts.images && len(result.Archive) > 0 {
		g.Go(func() error {
			return writeOutput(opts.outputDir, "products_"+stamp+".zip", result.Archive)
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	renderStats(out, stats)
	return stats, nil
}

func encodeBackup(b Backup, format string) ([]byte, error) {
	if format == "yaml" {
		return yaml.Marshal(b)
	}
	return json.MarshalIndent(b, "", "  ")
}

func writeOutput(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	slog.Info("output written", "path", path, "bytes", len(data))
	return nil
}
