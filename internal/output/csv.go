// Package output writes the pipeline's interchange artifacts. Column names
// and order are a stable contract: downstream dashboards and reports rely on
// them exactly as written.
package output

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gyeh/pricebench/internal/model"
)

func writeCSV(dir, name string, header []string, rows [][]string) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s row: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return nil
}

func ffloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fopt(v *float64) string {
	if v == nil {
		return ""
	}
	return ffloat(*v)
}

func fint(v int) string { return strconv.Itoa(v) }

// NormalizedPrices writes normalized_prices.csv.
func NormalizedPrices(dir string, records []model.PriceRecord) error {
	header := []string{
		"hospital_name", "payer_name", "payer_group", "payer_canonical",
		"code", "code_type", "description",
		"negotiated_rate", "cash_price", "gross_charge", "charge_min", "charge_max",
		"effective_price", "price_basis", "setting", "is_outlier", "source_file",
	}
	rows := make([][]string, 0, len(records))
	for i := range records {
		r := &records[i]
		rows = append(rows, []string{
			r.HospitalName, r.PayerName, r.PayerGroup, r.PayerCanonical,
			r.Code, string(r.CodeType), r.Description,
			fopt(r.NegotiatedRate), fopt(r.CashPrice), fopt(r.GrossCharge),
			fopt(r.ChargeMin), fopt(r.ChargeMax),
			ffloat(r.EffectivePrice), string(r.PriceBasis), string(r.Setting),
			strconv.FormatBool(r.IsOutlier), r.SourceFile,
		})
	}
	return writeCSV(dir, "normalized_prices.csv", header, rows)
}

// ProcedureBenchmarks writes procedure_benchmark.csv.
func ProcedureBenchmarks(dir string, rows []model.ProcedureBenchmark) error {
	header := []string{
		"code", "code_type", "description", "n_rates",
		"median_price", "mean_price", "min_price", "max_price",
		"p10", "p90", "iqr", "p90_p10_ratio", "cv",
	}
	out := make([][]string, 0, len(rows))
	for _, b := range rows {
		out = append(out, []string{
			b.Code, string(b.CodeType), b.Description, fint(b.NRates),
			ffloat(b.MedianPrice), ffloat(b.MeanPrice), ffloat(b.MinPrice), ffloat(b.MaxPrice),
			ffloat(b.P10), ffloat(b.P90), ffloat(b.IQR), ffloat(b.P90P10Ratio), ffloat(b.CV),
		})
	}
	return writeCSV(dir, "procedure_benchmark.csv", header, out)
}

// HospitalBenchmarks writes hospital_benchmark.csv.
func HospitalBenchmarks(dir string, rows []model.HospitalBenchmark) error {
	header := []string{
		"hospital_name", "n_rates", "median_price", "mean_price",
		"p10", "p90", "iqr", "cv",
	}
	out := make([][]string, 0, len(rows))
	for _, b := range rows {
		out = append(out, []string{
			b.HospitalName, fint(b.NRates), ffloat(b.MedianPrice), ffloat(b.MeanPrice),
			ffloat(b.P10), ffloat(b.P90), ffloat(b.IQR), ffloat(b.CV),
		})
	}
	return writeCSV(dir, "hospital_benchmark.csv", header, out)
}

// FocusRanks writes focus_hospital_rank.csv.
func FocusRanks(dir string, rows []model.FocusHospitalRank) error {
	header := []string{
		"hospital_name", "code", "description",
		"hospital_median_price", "rank_low_to_high", "n_hospitals",
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.HospitalName, r.Code, r.Description,
			ffloat(r.HospitalMedianPrice), fint(r.RankLowToHigh), fint(r.NHospitals),
		})
	}
	return writeCSV(dir, "focus_hospital_rank.csv", header, out)
}

// PayerDispersions writes payer_dispersion.csv.
func PayerDispersions(dir string, rows []model.PayerDispersion) error {
	header := []string{
		"hospital_name", "code", "description", "n_rates", "n_unique_payers",
		"median_price", "min_price", "max_price",
		"p10", "p90", "iqr", "p90_p10_ratio", "cv",
	}
	out := make([][]string, 0, len(rows))
	for _, d := range rows {
		out = append(out, []string{
			d.HospitalName, d.Code, d.Description, fint(d.NRates), fint(d.NUniquePayers),
			ffloat(d.MedianPrice), ffloat(d.MinPrice), ffloat(d.MaxPrice),
			ffloat(d.P10), ffloat(d.P90), ffloat(d.IQR), ffloat(d.P90P10Ratio), ffloat(d.CV),
		})
	}
	return writeCSV(dir, "payer_dispersion.csv", header, out)
}

// ProcedureConfidences writes procedure_confidence.csv.
func ProcedureConfidences(dir string, rows []model.ProcedureConfidence) error {
	header := []string{
		"code", "code_type", "description", "n_rates", "n_hospitals", "n_unique_payers",
		"median_price", "p90_p10_ratio", "confidence", "confidence_reason",
	}
	out := make([][]string, 0, len(rows))
	for _, c := range rows {
		out = append(out, []string{
			c.Code, string(c.CodeType), c.Description,
			fint(c.NRates), fint(c.NHospitals), fint(c.NUniquePayers),
			ffloat(c.MedianPrice), ffloat(c.P90P10Ratio),
			string(c.Confidence), c.ConfidenceReason,
		})
	}
	return writeCSV(dir, "procedure_confidence.csv", header, out)
}

// IngestFailures writes ingest_failures.csv, one audit row per candidate
// source file whether it parsed or not.
func IngestFailures(dir string, audits []model.FileAudit) error {
	header := []string{
		"source_file", "sha256", "size_bytes", "format", "status",
		"error_type", "error", "rows_raw", "rows_kept", "rows_no_price",
		"rows_unmapped_payer", "duration_ms",
	}
	out := make([][]string, 0, len(audits))
	for _, a := range audits {
		out = append(out, []string{
			a.SourceFile, a.SHA256, strconv.FormatInt(a.SizeBytes, 10),
			a.Format, a.Status, a.ErrorType, a.Error,
			strconv.FormatInt(a.RowsRaw, 10), strconv.FormatInt(a.RowsKept, 10),
			strconv.FormatInt(a.RowsNoPrice, 10),
			strconv.FormatInt(a.RowsUnmappedPayer, 10),
			strconv.FormatInt(a.Duration.Milliseconds(), 10),
		})
	}
	return writeCSV(dir, "ingest_failures.csv", header, out)
}
