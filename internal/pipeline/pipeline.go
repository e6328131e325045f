// Package pipeline orchestrates a full benchmark run: discover sources,
// parse and normalize them in parallel, collapse duplicates, flag outliers,
// restrict to the configured scope, and write the benchmark tables.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/pricebench/internal/config"
	"github.com/gyeh/pricebench/internal/detect"
	"github.com/gyeh/pricebench/internal/logging"
	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
	"github.com/gyeh/pricebench/internal/output"
	"github.com/gyeh/pricebench/internal/parser"
	"github.com/gyeh/pricebench/internal/payer"
	"github.com/gyeh/pricebench/internal/stats"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ErrNoParsableSources means every candidate file failed to parse. A run
// tolerates individual file failures; it cannot proceed with zero rows.
var ErrNoParsableSources = errors.New("no parsable source files")

var sourceExtensions = map[string]bool{
	".csv":    true,
	".json":   true,
	".jsonl":  true,
	".ndjson": true,
	".zip":    true,
}

// DiscoverSources walks the input directory for candidate files. A ZIP is
// skipped when a sibling <stem>_unzipped/ directory exists: its extracted
// members are already on disk and would be double-counted.
func DiscoverSources(inputDir string) (candidates, skipped []string, err error) {
	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !sourceExtensions[ext] {
			return nil
		}
		if ext == ".zip" {
			stem := strings.TrimSuffix(path, filepath.Ext(path))
			if st, statErr := os.Stat(stem + "_unzipped"); statErr == nil && st.IsDir() {
				skipped = append(skipped, path)
				return nil
			}
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", inputDir, err)
	}
	sort.Strings(candidates)
	return candidates, skipped, nil
}

// fileResult is one worker's output for one source file.
type fileResult struct {
	audit   model.FileAudit
	records []model.PriceRecord
}

func errorType(err error) string {
	var sv *parser.SchemaViolation
	switch {
	case errors.Is(err, detect.ErrFormatUnrecognized):
		return "FORMAT_UNRECOGNIZED"
	case errors.As(err, &sv):
		return "SCHEMA_VIOLATION"
	default:
		return "READ_ERROR"
	}
}

// ingestFile parses one source end to end and always produces an audit row.
func ingestFile(
	path string,
	inference *config.HospitalInference,
	payers *payer.Normalizer,
	catalog *config.Catalog,
) fileResult {
	start := time.Now()
	audit := model.FileAudit{SourceFile: filepath.Base(path)}

	if st, err := os.Stat(path); err == nil {
		audit.SizeBytes = st.Size()
	}
	if sum, err := normalize.FileHash(path); err == nil {
		audit.SHA256 = sum
	}

	fail := func(err error) fileResult {
		audit.Status = model.AuditFailedParse
		audit.ErrorType = errorType(err)
		audit.Error = err.Error()
		audit.Duration = time.Since(start)
		return fileResult{audit: audit}
	}

	format, err := detect.File(path)
	if err != nil {
		return fail(err)
	}
	audit.Format = string(format)

	raw, err := parser.Parse(path, format)
	if err != nil {
		return fail(err)
	}

	records, rstats := buildRecords(raw, filepath.Base(path), inference, payers, catalog)
	audit.Status = model.AuditParsed
	audit.RowsRaw = rstats.Raw
	audit.RowsKept = rstats.Kept
	audit.RowsNoPrice = rstats.NoPrice
	audit.RowsUnmappedPayer = rstats.UnmappedPayer
	audit.Duration = time.Since(start)
	return fileResult{audit: audit, records: records}
}

// Run executes the full pipeline: ingest → dedup → outlier → scope →
// benchmark → write.
func Run(ctx context.Context, log zerolog.Logger, cfg *config.Config, reg *config.Registry) (*model.RunSummary, error) {
	totalStart := time.Now()

	summary := &model.RunSummary{
		RunID:     uuid.New().String(),
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
	}
	log = logging.ForRun(log, summary.RunID)

	var rules []payer.Rule
	if cfg.PayerRulesPath != "" {
		var err error
		rules, err = config.LoadPayerRules(cfg.PayerRulesPath)
		if err != nil {
			return nil, &PipelineError{Phase: "config", Err: err}
		}
	}
	payers, err := payer.NewNormalizer(rules)
	if err != nil {
		return nil, &PipelineError{Phase: "config", Err: err}
	}
	inference := config.NewHospitalInference(reg.Sources)

	// Phase 1: Ingest
	candidates, skippedZips, err := DiscoverSources(cfg.InputDir)
	if err != nil {
		return nil, &PipelineError{Phase: "ingest", Err: err}
	}
	summary.FilesSeen = len(candidates) + len(skippedZips)
	summary.FilesSkipped = len(skippedZips)
	log.Info().
		Int("candidates", len(candidates)).
		Int("skipped_zips", len(skippedZips)).
		Msg("starting ingest")

	results := make([]fileResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, path := range candidates {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ingestFile(path, inference, payers, reg.Catalog)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &PipelineError{Phase: "ingest", Err: err}
	}

	audits := make([]model.FileAudit, 0, len(results)+len(skippedZips))
	for _, z := range skippedZips {
		audits = append(audits, model.FileAudit{
			SourceFile: filepath.Base(z),
			Status:     model.AuditSkippedUnzip,
		})
	}

	var merged []model.PriceRecord
	for _, res := range results {
		audits = append(audits, res.audit)
		switch res.audit.Status {
		case model.AuditParsed:
			summary.FilesParsed++
			summary.RowsRaw += res.audit.RowsRaw
			summary.RowsResolved += res.audit.RowsKept
			summary.RowsNoPrice += res.audit.RowsNoPrice
			summary.RowsUnmappedPayer += res.audit.RowsUnmappedPayer
			merged = append(merged, res.records...)
		case model.AuditFailedParse:
			summary.FilesFailed++
			log.Warn().
				Str("file", res.audit.SourceFile).
				Str("error_type", res.audit.ErrorType).
				Str("error", res.audit.Error).
				Msg("source file failed, continuing")
		}
	}
	summary.DurationParse = time.Since(totalStart)

	if len(merged) == 0 {
		return nil, &PipelineError{Phase: "ingest", Err: ErrNoParsableSources}
	}
	log.Info().
		Int("files_parsed", summary.FilesParsed).
		Int("files_failed", summary.FilesFailed).
		Int64("rows_resolved", summary.RowsResolved).
		Msg("ingest complete")

	// Phase 2: Dedup
	deduped := Dedup(merged)
	summary.RowsDeduped = int64(len(merged) - len(deduped))
	log.Info().
		Int64("rows_removed", summary.RowsDeduped).
		Int("rows_remaining", len(deduped)).
		Msg("dedup complete")

	// Phase 3: Outlier flagging
	summary.RowsFlagged = FlagOutliers(deduped, cfg.OutlierIQRMult)
	log.Info().Int64("rows_flagged", summary.RowsFlagged).Msg("outlier flagging complete")

	// Phase 4: Scope filter
	inScope := ScopeFilter(deduped, reg)
	summary.RowsInScope = int64(len(inScope))
	markEmptyAfterScope(audits, inScope)
	log.Info().Int("rows_in_scope", len(inScope)).Msg("scope filter complete")

	// Phase 5: Benchmarks
	statsStart := time.Now()
	procRows := stats.ProcedureBenchmarks(inScope)
	hospRows := stats.HospitalBenchmarks(inScope)
	rankRows := stats.FocusRanks(inScope, cfg.FocusHospital)
	dispRows := stats.PayerDispersions(inScope)
	confRows := stats.ProcedureConfidences(inScope)
	summary.DurationStats = time.Since(statsStart)
	summary.OutputRows = map[string]int{
		"normalized_prices":    len(inScope),
		"procedure_benchmark":  len(procRows),
		"hospital_benchmark":   len(hospRows),
		"focus_hospital_rank":  len(rankRows),
		"payer_dispersion":     len(dispRows),
		"procedure_confidence": len(confRows),
	}

	// Phase 6: Write
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, &PipelineError{Phase: "write", Err: err}
	}
	writes := []func() error{
		func() error { return output.NormalizedPrices(cfg.OutputDir, inScope) },
		func() error { return output.NormalizedParquet(cfg.OutputDir, inScope) },
		func() error { return output.ProcedureBenchmarks(cfg.OutputDir, procRows) },
		func() error { return output.HospitalBenchmarks(cfg.OutputDir, hospRows) },
		func() error { return output.FocusRanks(cfg.OutputDir, rankRows) },
		func() error { return output.PayerDispersions(cfg.OutputDir, dispRows) },
		func() error { return output.ProcedureConfidences(cfg.OutputDir, confRows) },
		func() error { return output.IngestFailures(cfg.OutputDir, audits) },
	}
	for _, w := range writes {
		if err := w(); err != nil {
			return nil, &PipelineError{Phase: "write", Err: err}
		}
	}

	summary.DurationTotal = time.Since(totalStart)
	if err := output.WriteManifest(cfg.OutputDir, summary, totalStart, time.Now()); err != nil {
		return nil, &PipelineError{Phase: "write", Err: err}
	}

	log.Info().
		Int64("rows_in_scope", summary.RowsInScope).
		Int("procedures", len(procRows)).
		Int("hospitals", len(hospRows)).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("benchmark pipeline complete")

	return summary, nil
}

// markEmptyAfterScope downgrades parsed sources that contributed nothing to
// the in-scope set, so a registry or catalog mismatch is visible per file.
func markEmptyAfterScope(audits []model.FileAudit, inScope []model.PriceRecord) {
	contributed := make(map[string]bool, len(audits))
	for i := range inScope {
		contributed[inScope[i].SourceFile] = true
	}
	for i := range audits {
		if audits[i].Status == model.AuditParsed && !contributed[audits[i].SourceFile] {
			audits[i].Status = model.AuditEmptyAfterScope
		}
	}
}
