package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gyeh/pricebench/internal/detect"
	"github.com/gyeh/pricebench/internal/model"
)

// scoreRowCap bounds how many rows are counted when scoring a ZIP member;
// the row-count contribution saturates at 20 anyway.
const scoreRowCap = 20001

// ParseCranewareZIP opens a ZIP container, scores every CSV member by its
// structural signals, and parses the best-scoring member with the layout its
// header indicates. Craneware exports bundle several exports per archive and
// only one carries the standard charges.
func ParseCranewareZIP(path string) ([]model.RawRow, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	name := filepath.Base(path)

	var (
		best      *zip.File
		bestScore = -1
	)
	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		score, err := scoreMember(member)
		if err != nil {
			continue // unreadable member, try the others
		}
		if score > bestScore {
			bestScore = score
			best = member
		}
	}
	if best == nil {
		return nil, &SchemaViolation{File: name, Reason: "no readable csv member in zip"}
	}

	header, err := memberHeaderCandidates(best)
	if err != nil {
		return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("read member %s: %v", best.Name, err)}
	}
	format, err := detect.CSVHeaders(header)
	if err != nil {
		return nil, fmt.Errorf("member %s of %s: %w", best.Name, name, err)
	}

	rc, err := best.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip member: %w", err)
	}
	defer rc.Close()

	memberName := name + "!" + filepath.Base(best.Name)
	switch format {
	case detect.FormatWideCSV:
		return parseWide(rc, memberName)
	default:
		return parseFlat(rc, memberName)
	}
}

// scoreMember ranks a CSV member by the structural signals of a standard
// charges export: piped charge columns, code columns, payer column,
// description, and bulk.
func scoreMember(member *zip.File) (int, error) {
	rc, err := member.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	cr := newCSVReader(rc)
	header, err := cr.Read()
	if err != nil {
		return 0, err
	}

	score := 0
	cols := make(map[string]bool, len(header))
	hasPiped := false
	for _, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		cols[h] = true
		if strings.HasPrefix(h, "standard_charge|") {
			hasPiped = true
		}
	}
	if hasPiped {
		score += 4
	}
	if cols["code|1"] {
		score += 4
	}
	if cols["payer_name"] {
		score += 2
	}
	if cols["description"] {
		score += 2
	}

	rows := 0
	for rows < scoreRowCap {
		if _, err := cr.Read(); err != nil {
			if err == io.EOF {
				break
			}
			break
		}
		rows++
	}
	if bonus := rows / 1000; bonus > 20 {
		score += 20
	} else {
		score += bonus
	}
	return score, nil
}

// memberHeaderCandidates returns up to the first three parsed rows of a
// member for layout classification.
func memberHeaderCandidates(member *zip.File) ([][]string, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cr := newCSVReader(rc)
	var rows [][]string
	for i := 0; i < 3; i++ {
		rec, err := cr.Read()
		if err != nil {
			break
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv member")
	}
	return rows, nil
}
