package model

// PriceBasis identifies which raw field an effective price was derived from.
type PriceBasis string

const (
	BasisNegotiatedDollar PriceBasis = "negotiated_dollar"
	BasisEstimatedAmount  PriceBasis = "estimated_amount"
	BasisCashPrice        PriceBasis = "cash_price"
)

// PriceRecord is the canonical normalized pricing record, the unit every
// downstream stage operates on. Records are immutable after creation except
// for the computed IsOutlier flag.
type PriceRecord struct {
	HospitalName string

	PayerName      string // raw, preserved for lineage
	PayerGroup     string // canonical insurer
	PayerCanonical string // insurer + plan type

	Code        string
	CodeType    CodeType
	Description string

	NegotiatedRate *float64
	CashPrice      *float64
	GrossCharge    *float64
	ChargeMin      *float64
	ChargeMax      *float64

	EffectivePrice float64
	PriceBasis     PriceBasis

	Setting   Setting
	IsOutlier bool

	SourceFile  string
	ColumnGroup string
}
