package pipeline

import (
	"github.com/gyeh/pricebench/internal/config"
	"github.com/gyeh/pricebench/internal/model"
)

// ScopeFilter restricts the normalized universe to registry hospitals and
// the curated procedure catalog. The catalog match is exact on both code and
// code type: a CPT code that numerically collides with an unrelated DRG must
// not leak across families. The catalog description replaces the source's
// free-text description so one procedure reads identically across hospitals.
func ScopeFilter(records []model.PriceRecord, reg *config.Registry) []model.PriceRecord {
	out := records[:0:0]
	for _, r := range records {
		if !reg.KnownHospital(r.HospitalName) {
			continue
		}
		proc, ok := reg.Catalog.Lookup(r.Code, r.CodeType)
		if !ok {
			continue
		}
		if r.EffectivePrice <= 0 {
			continue
		}
		if proc.Description != "" {
			r.Description = proc.Description
		}
		out = append(out, r)
	}
	return out
}
