package model

// ProcedureBenchmark is one row of cross-hospital statistics per in-scope
// (code, code_type).
type ProcedureBenchmark struct {
	Code        string
	CodeType    CodeType
	Description string
	NRates      int
	MedianPrice float64
	MeanPrice   float64
	MinPrice    float64
	MaxPrice    float64
	P10         float64
	P90         float64
	IQR         float64
	P90P10Ratio float64
	CV          float64
}

// HospitalBenchmark aggregates all in-scope rates at one hospital.
type HospitalBenchmark struct {
	HospitalName string
	NRates       int
	MedianPrice  float64
	MeanPrice    float64
	P10          float64
	P90          float64
	IQR          float64
	CV           float64
}

// FocusHospitalRank is the focus hospital's position among all hospitals
// reporting a code, ranked 1 = lowest median price.
type FocusHospitalRank struct {
	HospitalName        string
	Code                string
	Description         string
	HospitalMedianPrice float64
	RankLowToHigh       int
	NHospitals          int
}

// PayerDispersion measures payer-driven spread within a single hospital
// for one code, independent of cross-hospital comparability.
type PayerDispersion struct {
	HospitalName  string
	Code          string
	Description   string
	NRates        int
	NUniquePayers int
	MedianPrice   float64
	MinPrice      float64
	MaxPrice      float64
	P10           float64
	P90           float64
	IQR           float64
	P90P10Ratio   float64
	CV            float64
}

// Confidence grades how many independent hospitals and payers back a
// procedure's cross-hospital statistics.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ProcedureConfidence is the per-procedure grade with its supporting counts.
type ProcedureConfidence struct {
	Code             string
	CodeType         CodeType
	Description      string
	NRates           int
	NHospitals       int
	NUniquePayers    int
	MedianPrice      float64
	P90P10Ratio      float64
	Confidence       Confidence
	ConfidenceReason string
}
