// Package export renders selected rows as a CSV document: one header row
// with the record type's field names, then one row per record in the same
// column order.
package export

import (
	"bytes"
	"encoding/csv"
	"io"
)

// Model names used for download file names.
const (
	ModelPurchase   = "purchase"
	ModelOrder      = "order"
	ModelOrderItem  = "orderitem"
	ModelFinalTally = "finaltally"
)

// ContentType is the media type of every export.
const ContentType = "text/csv"

// Exportable is implemented by each record type that can be exported.
// CSVHeader must not depend on the receiver's fields so it can be called
// on a nil pointer.
type Exportable interface {
	CSVHeader() []string
	CSVRecord() []string
}

// WriteCSV writes the header of T and one line per row.
func WriteCSV[T Exportable](w io.Writer, rows []T) error {
	var zero T
	cw := csv.NewWriter(w)
	if err := cw.Write(zero.CSVHeader()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.CSVRecord()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Render returns the whole document in memory.
func Render[T Exportable](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Disposition is the Content-Disposition value for a model's download.
func Disposition(modelName string) string {
	return "attachment; filename=" + modelName + ".csv"
}

// Pointers adapts a slice of values to the pointer receivers that
// implement Exportable.
func Pointers[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}
