package model

// PriceParquetRow mirrors the Parquet schema of the archived normalized
// record set. Column names match the CSV interchange output exactly.
type PriceParquetRow struct {
	HospitalName   string `parquet:"hospital_name"`
	PayerName      string `parquet:"payer_name"`
	PayerGroup     string `parquet:"payer_group"`
	PayerCanonical string `parquet:"payer_canonical"`

	Code        string `parquet:"code"`
	CodeType    string `parquet:"code_type"`
	Description string `parquet:"description"`

	NegotiatedRate *float64 `parquet:"negotiated_rate,optional"`
	CashPrice      *float64 `parquet:"cash_price,optional"`
	GrossCharge    *float64 `parquet:"gross_charge,optional"`
	ChargeMin      *float64 `parquet:"charge_min,optional"`
	ChargeMax      *float64 `parquet:"charge_max,optional"`

	EffectivePrice float64 `parquet:"effective_price"`
	PriceBasis     string  `parquet:"price_basis"`
	Setting        string  `parquet:"setting"`
	IsOutlier      bool    `parquet:"is_outlier"`
	SourceFile     string  `parquet:"source_file"`
	ColumnGroup    string  `parquet:"column_group"`
}

// ToParquetRow converts a PriceRecord to its archival Parquet shape.
func ToParquetRow(r *PriceRecord) PriceParquetRow {
	return PriceParquetRow{
		HospitalName:   r.HospitalName,
		PayerName:      r.PayerName,
		PayerGroup:     r.PayerGroup,
		PayerCanonical: r.PayerCanonical,
		Code:           r.Code,
		CodeType:       string(r.CodeType),
		Description:    r.Description,
		NegotiatedRate: r.NegotiatedRate,
		CashPrice:      r.CashPrice,
		GrossCharge:    r.GrossCharge,
		ChargeMin:      r.ChargeMin,
		ChargeMax:      r.ChargeMax,
		EffectivePrice: r.EffectivePrice,
		PriceBasis:     string(r.PriceBasis),
		Setting:        string(r.Setting),
		IsOutlier:      r.IsOutlier,
		SourceFile:     r.SourceFile,
		ColumnGroup:    r.ColumnGroup,
	}
}
