// Package detect classifies raw source files into one of the known
// price-transparency layouts from structural signals only.
package detect

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is the closed set of recognized source layouts.
type Format string

const (
	// FormatCMSJSON is the nested CMS schema JSON with a top-level
	// standard_charge_information array.
	FormatCMSJSON Format = "CMS_SCHEMA_JSON"
	// FormatWideCSV embeds payer and plan names in column headers, e.g.
	// standard_charge|Aetna|Commercial|negotiated_dollar.
	FormatWideCSV Format = "WIDE_PAYER_CSV"
	// FormatFlatCSV has one row per payer with payer_name as a regular
	// column, covering both CMS v3 flat files and generic alias-table CSVs.
	FormatFlatCSV Format = "FLAT_CSV"
	// FormatCranewareZIP is a ZIP container holding one or more CSV members;
	// the best-scoring member is parsed after extraction.
	FormatCranewareZIP Format = "CRANEWARE_ZIP"
)

// ErrFormatUnrecognized reports content that matches no known layout.
// It fails the one file only; callers must continue with remaining sources.
var ErrFormatUnrecognized = errors.New("format unrecognized")

// probeLimit bounds how much of a file the detector reads.
const probeLimit = 1 << 20

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// flatAliasColumns are header names that identify a generic flat CSV even
// without the CMS pipe-delimited columns.
var flatAliasColumns = map[string]bool{
	"hospital_name": true, "hospital": true, "facility_name": true,
	"payer_name": true, "payer": true, "plan_name": true,
	"code": true, "billing_code": true, "procedure_code": true, "cpt": true, "drg": true,
	"negotiated_rate": true, "price": true, "negotiated_price": true,
	"cash_price": true, "discounted_cash_price": true,
	"description": true,
}

// File classifies the file at path. Detection is deterministic: container
// signature first, then extension-guided content probes.
func File(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("detect open: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("detect probe: %w", err)
	}
	if bytes.HasPrefix(head, zipMagic) {
		return FormatCranewareZIP, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return detectJSON(br)
	case ".csv":
		return CSVHeaders(readHeaderCandidates(br))
	case ".zip":
		// Extension says ZIP but the signature did not match.
		return "", fmt.Errorf("%w: %s has a zip extension without a zip signature", ErrFormatUnrecognized, filepath.Base(path))
	}
	return "", fmt.Errorf("%w: %s", ErrFormatUnrecognized, filepath.Base(path))
}

// detectJSON scans a bounded prefix for the standard_charge_information key.
// A full parse is deferred to the layout parser; the detector only needs the
// structural signal.
func detectJSON(r io.Reader) (Format, error) {
	buf, err := io.ReadAll(io.LimitReader(r, probeLimit))
	if err != nil {
		return "", fmt.Errorf("detect read json: %w", err)
	}
	// The key appears near the top of every conforming CMS file, so its
	// absence in the bounded prefix is decisive even for 90MB+ sources.
	if bytes.Contains(buf, []byte(`"standard_charge_information"`)) {
		return FormatCMSJSON, nil
	}
	return "", fmt.Errorf("%w: json without standard_charge_information", ErrFormatUnrecognized)
}

// readHeaderCandidates returns up to the first three parsed CSV rows. Some
// standard-charge CSVs carry two metadata rows before the real header, so
// the caller scores each candidate row.
func readHeaderCandidates(r io.Reader) [][]string {
	cr := csv.NewReader(io.LimitReader(r, probeLimit))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for i := 0; i < 3; i++ {
		rec, err := cr.Read()
		if err != nil {
			break
		}
		rows = append(rows, rec)
	}
	return rows
}

// CSVHeaders classifies a CSV from its candidate header rows.
func CSVHeaders(candidates [][]string) (Format, error) {
	for _, header := range candidates {
		if f, ok := classifyHeader(header); ok {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: csv headers match no known layout", ErrFormatUnrecognized)
}

func classifyHeader(header []string) (Format, bool) {
	var (
		hasWidePayerCol bool
		hasPayerNameCol bool
		hasPipedCharge  bool
		aliasHits       int
	)
	for _, h := range header {
		h = strings.TrimSpace(strings.ToLower(stripBOM(h)))
		if strings.HasPrefix(h, "standard_charge|") {
			hasPipedCharge = true
			if strings.HasSuffix(h, "|negotiated_dollar") && strings.Count(h, "|") >= 3 {
				hasWidePayerCol = true
			}
		}
		if strings.HasPrefix(h, "estimated_amount|") {
			hasWidePayerCol = true
		}
		if h == "payer_name" {
			hasPayerNameCol = true
		}
		if flatAliasColumns[h] {
			aliasHits++
		}
	}
	switch {
	case hasPipedCharge && hasPayerNameCol:
		return FormatFlatCSV, true
	case hasWidePayerCol:
		return FormatWideCSV, true
	case aliasHits >= 3:
		return FormatFlatCSV, true
	}
	return "", false
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
