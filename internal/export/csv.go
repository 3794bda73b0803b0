// Package export renders aggregated report rows for the download
// collaborators. Column order is a compatibility contract shared with the
// dashboard table and the Excel export.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"teltrip/internal/types"
)

// Columns is the exact ordered header list of the report export.
var Columns = []string{
	"ICCID",
	"lastUsageDate",
	"prepaidpackagetemplatename",
	"cost",
	"pckdatabyte",
	"useddatabyte",
	"tsactivationutc",
	"tsexpirationutc",
	"resellerCost",
}

// WriteCSV writes the rows as CSV: header first, then one record per row.
// Monetary values are rendered with two decimals, datetimes with the "T"
// separator replaced by a space, and nulls as empty cells.
func WriteCSV(w io.Writer, rows []types.AggregatedRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			text(r.ICCID),
			datetime(r.LastUsageDate),
			text(r.TemplateName),
			money(r.Cost),
			number(r.PackageBytes),
			number(r.UsedBytes),
			datetime(r.ActivationUTC),
			datetime(r.ExpirationUTC),
			money(r.ResellerCost),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func datetime(s *string) string {
	if s == nil {
		return ""
	}
	return strings.Replace(*s, "T", " ", 1)
}

func money(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func number(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
