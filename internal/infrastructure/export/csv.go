// Package export serialises report tables as CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/garyjia/freelance-billing/internal/application/port"
)

// CSVWriter writes a header row followed by the data rows
type CSVWriter struct{}

func (CSVWriter) Extension() string { return "csv" }

func (CSVWriter) Write(w io.Writer, table port.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

var _ port.TableWriter = CSVWriter{}
