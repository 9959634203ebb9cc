package main

import (
	"fmt"
	"io"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Stats summarizes one batch run
type Stats struct {
	Total    int `json:"total" yaml:"total"`
	Found    int `json:"found" yaml:"found"`
	NotFound int `json:"notFound" yaml:"not_found"`
	Errors   int `json:"errors" yaml:"errors"`
	Enriched int `json:"enriched" yaml:"enriched"`
	Retried  int `json:"retried" yaml:"retried"`
	Dropped  int `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

func computeStats(result *domain.BatchResult) Stats {
	s := Stats{Total: len(result.Outcomes), Dropped: result.Dropped}
	for _, o := range result.Outcomes {
		switch {
		case o.Success:
			s.Found++
		case o.NotFound:
			s.NotFound++
		default:
			s.Errors++
		}
		if o.Record != nil {
			if o.Record.Enriched {
				s.Enriched++
			}
			if o.Record.Attempts > 1 {
				s.Retried++
			}
		}
	}
	return s
}

// SuccessRate is the found share in percent
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Found) * 100 / float64(s.Total)
}

func renderStats(w io.Writer, s Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Batch statistics")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Total", s.Total},
		{"Found", s.Found},
		{"Not found", s.NotFound},
		{"Errors", s.Errors},
		{"Enriched", s.Enriched},
		{"Retried", s.Retried},
	})
	if s.Dropped > 0 {
		t.AppendRow(table.Row{"Dropped", s.Dropped})
	}
	t.AppendFooter(table.Row{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate())})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}
