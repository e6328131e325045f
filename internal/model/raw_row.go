package model

// RawRow is one price-bearing line from a source file with its
// layout-specific fields intact. Parsers produce RawRows without deciding
// which price field is authoritative; that is the resolver's job.
// Nullable amounts are pointers: absence is not zero.
type RawRow struct {
	// HospitalName is the file's self-reported name. It is advisory only;
	// the canonical name comes from the per-source inference table.
	HospitalName string
	PayerName    string // raw payer label, empty for gross-charge-only rows
	PlanName     string

	Code        string
	CodeType    string // raw label, e.g. "MS-DRG"
	Description string

	NegotiatedDollar     *float64
	NegotiatedPercentage *float64
	NegotiatedAlgorithm  string
	EstimatedAmount      *float64
	CashPrice            *float64
	GrossCharge          *float64
	ChargeMin            *float64
	ChargeMax            *float64

	Setting string // raw setting label

	// ColumnGroup records which physical column group a wide-format row was
	// unpivoted from, so the deduplicator can tell unpivot artifacts from
	// genuinely distinct rows.
	ColumnGroup string
}
