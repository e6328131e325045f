package model

import "time"

// Audit statuses for a single candidate source file.
const (
	AuditParsed          = "parsed"
	AuditFailedParse     = "failed_parse"
	AuditSkippedUnzip    = "skipped_unzipped"
	AuditEmptyAfterScope = "empty_after_scope"
)

// FileAudit records the outcome of one source file's ingest attempt.
// Every candidate file gets exactly one audit row, parsed or not.
type FileAudit struct {
	SourceFile        string
	SHA256            string
	SizeBytes         int64
	Format            string
	Status            string
	ErrorType         string
	Error             string
	RowsRaw           int64
	RowsKept          int64
	RowsNoPrice       int64
	RowsUnmappedPayer int64
	Duration          time.Duration
}
