package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type liquidationRow struct {
	Seq        int64  `parquet:"name=seq, type=INT64"`
	Reserve    string `parquet:"name=reserve, type=BYTE_ARRAY, convertedtype=UTF8"`
	Asset      string `parquet:"name=asset, type=BYTE_ARRAY, convertedtype=UTF8"`
	User       string `parquet:"name=user, type=BYTE_ARRAY, convertedtype=UTF8"`
	Liquidator string `parquet:"name=liquidator, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount     string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	WrittenOff string `parquet:"name=written_off, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp  int64  `parquet:"name=timestamp_ms, type=INT64"`
	Hash       string `parquet:"name=fingerprint, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ExportLiquidations writes every indexed seizure to a parquet file at path
// and returns the number of rows written.
func (ix *Indexer) ExportLiquidations(ctx context.Context, path string) (int, error) {
	records, err := ix.Liquidations(ctx, "")
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("indexer: create export dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("indexer: create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(liquidationRow), 1)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("indexer: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		row := &liquidationRow{
			Seq:        int64(rec.Seq),
			Reserve:    rec.Reserve,
			Asset:      rec.Asset,
			User:       rec.Borrower,
			Liquidator: rec.Liquidator,
			Amount:     rec.Amount,
			WrittenOff: rec.WrittenOff,
			Timestamp:  int64(rec.Timestamp),
			Hash:       rec.Fingerprint,
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			file.Close()
			return 0, fmt.Errorf("indexer: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return 0, fmt.Errorf("indexer: parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("indexer: close parquet file: %w", err)
	}
	return len(records), nil
}
