package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/pricebench/internal/model"
)

const parquetBatchSize = 4096

// NormalizedParquet archives the normalized record set as
// normalized_prices.parquet alongside the CSV interchange copy.
func NormalizedParquet(dir string, records []model.PriceRecord) error {
	path := filepath.Join(dir, "normalized_prices.parquet")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create normalized_prices.parquet: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[model.PriceParquetRow](f,
		parquet.Compression(&parquet.Snappy))

	batch := make([]model.PriceParquetRow, 0, parquetBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := w.Write(batch); err != nil {
			return fmt.Errorf("write parquet batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}
	for i := range records {
		batch = append(batch, model.ToParquetRow(&records[i]))
		if len(batch) == parquetBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
