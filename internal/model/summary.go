package model

import "time"

// RunSummary captures metrics from a single pipeline run.
type RunSummary struct {
	RunID             string
	InputDir          string
	OutputDir         string
	FilesSeen         int
	FilesParsed       int
	FilesFailed       int
	FilesSkipped      int
	RowsRaw           int64
	RowsResolved      int64
	RowsNoPrice       int64
	RowsUnmappedPayer int64
	RowsDeduped       int64
	RowsInScope       int64
	RowsFlagged       int64
	OutputRows        map[string]int
	DurationParse     time.Duration
	DurationStats     time.Duration
	DurationTotal     time.Duration
}
