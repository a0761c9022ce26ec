package exporters

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/liquidador/src/models"
)

// ErrNoRecords means the requested export matched nothing. The exporter
// refuses to emit a header-only file; the caller reports this to the user.
var ErrNoRecords = errors.New("no records to export")

// DefaultHeaders is the fixed column order of a liquidation export.
var DefaultHeaders = []string{
	"Date",
	"Gross COP",
	"Commission COP",
	"Net COP",
	"Rate",
	"Total BRL",
	"Proof",
}

// CSVExporter serializes liquidation records to CSV text.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export renders the records as CSV: one header row, one row per record,
// rows joined with "\n". Numeric fields use exactly two decimals with "."
// as the decimal point and no grouping. Pass nil headers for the defaults.
func (e *CSVExporter) Export(records []models.LiquidationRecord, headers []string) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	if headers == nil {
		headers = DefaultHeaders
	}

	rows := make([]string, 0, len(records)+1)
	rows = append(rows, joinRow(headers))

	for _, rec := range records {
		fields := []string{
			rec.Date,
			fmt.Sprintf("%.2f", rec.GrossAmountCOP),
			fmt.Sprintf("%.2f", rec.CommissionCOP),
			fmt.Sprintf("%.2f", rec.NetAmountCOP),
			fmt.Sprintf("%.2f", rec.ExchangeRate),
			fmt.Sprintf("%.2f", rec.TotalBRL),
			rec.Proof.Name,
		}
		rows = append(rows, joinRow(fields))
	}

	return strings.Join(rows, "\n"), nil
}

// FileName returns the download name for an export generated at t,
// liquidation_history_<ISO-date>.csv.
func FileName(t time.Time) string {
	return fmt.Sprintf("liquidation_history_%s.csv", t.Format("2006-01-02"))
}

func joinRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteField(f)
	}
	return strings.Join(quoted, ",")
}

// quoteField applies standard CSV quoting: wrap in double quotes when the
// value contains a comma, a quote or a newline, doubling internal quotes.
func quoteField(f string) string {
	if strings.ContainsAny(f, ",\"\n\r") {
		return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return f
}
