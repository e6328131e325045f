package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
)

// Hospital is one row of the hospital registry.
type Hospital struct {
	Name   string
	City   string
	Region string
}

// Source is one row of the hospital source registry: where a hospital's MRF
// came from and what layout to expect. Retrieval itself happens elsewhere;
// the pipeline only reads local files.
type Source struct {
	HospitalName   string
	Filename       string
	DownloadStatus string
	FormatHint     string
}

// Procedure is one row of the curated procedure catalog.
type Procedure struct {
	Code        string
	CodeType    model.CodeType
	Description string
}

// Catalog is the loaded, immutable procedure catalog with its lookup sets.
type Catalog struct {
	Procedures []Procedure

	byPair   map[procKey]Procedure
	cptCodes map[string]bool
	drgCodes map[string]bool
}

type procKey struct {
	code     string
	codeType model.CodeType
}

// Lookup returns the catalog entry for an exact (code, code_type) pair.
func (c *Catalog) Lookup(code string, codeType model.CodeType) (Procedure, bool) {
	p, ok := c.byPair[procKey{code: code, codeType: codeType}]
	return p, ok
}

// CPTCodes returns the set of catalog CPT codes, for code-type inference.
func (c *Catalog) CPTCodes() map[string]bool { return c.cptCodes }

// DRGCodes returns the set of catalog DRG codes, for code-type inference.
func (c *Catalog) DRGCodes() map[string]bool { return c.drgCodes }

// Registry bundles every configuration table for one run. Loaded once at
// process start and passed explicitly into each component.
type Registry struct {
	Hospitals []Hospital
	Sources   []Source
	Catalog   *Catalog

	hospitalKeys map[string]string // canonical key -> registry name
}

// KnownHospital reports whether name matches a registry hospital, comparing
// canonical keys so punctuation and case differences do not split campuses.
func (r *Registry) KnownHospital(name string) bool {
	_, ok := r.hospitalKeys[normalize.CanonicalKey(name)]
	return ok
}

// LoadRegistry reads the hospital registry, optional source registry, and
// procedure catalog.
func LoadRegistry(hospitalsPath, sourcesPath, proceduresPath string) (*Registry, error) {
	hospitals, err := loadHospitals(hospitalsPath)
	if err != nil {
		return nil, fmt.Errorf("load hospitals: %w", err)
	}

	var sources []Source
	if sourcesPath != "" {
		sources, err = loadSources(sourcesPath)
		if err != nil {
			return nil, fmt.Errorf("load sources: %w", err)
		}
	}

	catalog, err := LoadCatalog(proceduresPath)
	if err != nil {
		return nil, fmt.Errorf("load procedures: %w", err)
	}

	keys := make(map[string]string, len(hospitals))
	for _, h := range hospitals {
		keys[normalize.CanonicalKey(h.Name)] = h.Name
	}

	return &Registry{
		Hospitals:    hospitals,
		Sources:      sources,
		Catalog:      catalog,
		hospitalKeys: keys,
	}, nil
}

func loadHospitals(path string) ([]Hospital, error) {
	rows, header, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	nameIdx, ok := header["hospital_name"]
	if !ok {
		return nil, fmt.Errorf("hospital registry %s missing hospital_name column", path)
	}
	cityIdx := headerIndex(header, "city")
	regionIdx := headerIndex(header, "region")

	out := make([]Hospital, 0, len(rows))
	for _, rec := range rows {
		name := strings.TrimSpace(field(rec, nameIdx))
		if name == "" {
			continue
		}
		out = append(out, Hospital{
			Name:   name,
			City:   field(rec, cityIdx),
			Region: field(rec, regionIdx),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("hospital registry %s has no rows", path)
	}
	return out, nil
}

func loadSources(path string) ([]Source, error) {
	rows, header, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(rows))
	for _, rec := range rows {
		out = append(out, Source{
			HospitalName:   field(rec, headerIndex(header, "hospital_name")),
			Filename:       field(rec, headerIndex(header, "filename")),
			DownloadStatus: field(rec, headerIndex(header, "download_status")),
			FormatHint:     field(rec, headerIndex(header, "format_hint")),
		})
	}
	return out, nil
}

// LoadCatalog reads the procedure catalog and normalizes its codes the same
// way source rows are normalized, so exact-match comparisons line up.
func LoadCatalog(path string) (*Catalog, error) {
	rows, header, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	codeIdx, ok := header["code"]
	if !ok {
		return nil, fmt.Errorf("procedure catalog %s missing code column", path)
	}
	typeIdx, ok := header["code_type"]
	if !ok {
		return nil, fmt.Errorf("procedure catalog %s missing code_type column", path)
	}
	descIdx := headerIndex(header, "description")

	c := &Catalog{
		byPair:   make(map[procKey]Procedure),
		cptCodes: make(map[string]bool),
		drgCodes: make(map[string]bool),
	}
	for _, rec := range rows {
		code := normalize.Code(field(rec, codeIdx))
		ctr := normalize.CodeTypeOf(field(rec, typeIdx))
		if code == "" || !ctr.Known {
			continue
		}
		p := Procedure{Code: code, CodeType: ctr.Type, Description: field(rec, descIdx)}
		c.Procedures = append(c.Procedures, p)
		c.byPair[procKey{code: code, codeType: ctr.Type}] = p
		switch ctr.Type {
		case model.CodeTypeCPT:
			c.cptCodes[code] = true
		case model.CodeTypeDRG:
			c.drgCodes[code] = true
		}
	}
	if len(c.Procedures) == 0 {
		return nil, fmt.Errorf("procedure catalog %s has no usable rows", path)
	}
	return c, nil
}

// readCSVTable reads a whole CSV config table into memory with a
// lowercased header index. Config tables are small; streaming is not needed.
func readCSVTable(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	headerRec, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	header := make(map[string]int, len(headerRec))
	for i, h := range headerRec {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		header[h] = i
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return rows, header, nil
}

func headerIndex(header map[string]int, name string) int {
	if i, ok := header[name]; ok {
		return i
	}
	return -1
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
