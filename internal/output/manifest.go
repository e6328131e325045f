package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gyeh/pricebench/internal/model"
)

// Manifest is the run_manifest.json document describing one run.
type Manifest struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	InputDir    string         `json:"input_dir"`
	OutputDir   string         `json:"output_dir"`
	Files       ManifestFiles  `json:"files"`
	Rows        ManifestRows   `json:"rows"`
	OutputRows  map[string]int `json:"output_rows"`
	DurationsMS ManifestTiming `json:"durations_ms"`
}

type ManifestFiles struct {
	Seen    int `json:"seen"`
	Parsed  int `json:"parsed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type ManifestRows struct {
	Raw           int64 `json:"raw"`
	Resolved      int64 `json:"resolved"`
	NoPrice       int64 `json:"no_price"`
	UnmappedPayer int64 `json:"unmapped_payer"`
	Deduped       int64 `json:"deduped"`
	InScope       int64 `json:"in_scope"`
	Flagged       int64 `json:"outliers_flagged"`
}

type ManifestTiming struct {
	Parse int64 `json:"parse"`
	Stats int64 `json:"stats"`
	Total int64 `json:"total"`
}

// WriteManifest writes run_manifest.json from the run summary.
func WriteManifest(dir string, sum *model.RunSummary, started, finished time.Time) error {
	m := Manifest{
		RunID:      sum.RunID,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		InputDir:   sum.InputDir,
		OutputDir:  sum.OutputDir,
		Files: ManifestFiles{
			Seen:    sum.FilesSeen,
			Parsed:  sum.FilesParsed,
			Failed:  sum.FilesFailed,
			Skipped: sum.FilesSkipped,
		},
		Rows: ManifestRows{
			Raw:           sum.RowsRaw,
			Resolved:      sum.RowsResolved,
			NoPrice:       sum.RowsNoPrice,
			UnmappedPayer: sum.RowsUnmappedPayer,
			Deduped:       sum.RowsDeduped,
			InScope:       sum.RowsInScope,
			Flagged:       sum.RowsFlagged,
		},
		OutputRows: sum.OutputRows,
		DurationsMS: ManifestTiming{
			Parse: sum.DurationParse.Milliseconds(),
			Stats: sum.DurationStats.Milliseconds(),
			Total: sum.DurationTotal.Milliseconds(),
		},
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(filepath.Join(dir, "run_manifest.json"), buf, 0o644); err != nil {
		return fmt.Errorf("write run_manifest.json: %w", err)
	}
	return nil
}
