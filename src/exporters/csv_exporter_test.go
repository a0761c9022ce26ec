package exporters

import (
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/username/liquidador/src/models"
)

func sampleRecord() models.LiquidationRecord {
	return models.LiquidationRecord{
		ID:             "r1",
		Date:           "2024-05-20",
		GrossAmountCOP: 150000,
		CommissionCOP:  15000,
		NetAmountCOP:   135000,
		ExchangeRate:   750,
		TotalBRL:       180,
		Proof:          models.ProofReference{Name: "receipt.jpg"},
	}
}

func TestExportEmptyIsError(t *testing.T) {
	e := NewCSVExporter()
	if _, err := e.Export(nil, nil); !errors.Is(err, ErrNoRecords) {
		t.Errorf("Export(nil) err = %v, want ErrNoRecords", err)
	}
}

func TestExportFormat(t *testing.T) {
	e := NewCSVExporter()
	out, err := e.Export([]models.LiquidationRecord{sampleRecord()}, nil)
	if err != nil {
		t.Fatalf("Export returned %v", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "Date,Gross COP,Commission COP,Net COP,Rate,Total BRL,Proof" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-05-20,150000.00,15000.00,135000.00,750.00,180.00,receipt.jpg" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestExportQuoting(t *testing.T) {
	rec := sampleRecord()
	rec.Proof.Name = `weird, "proof".jpg`
	e := NewCSVExporter()
	out, err := e.Export([]models.LiquidationRecord{rec}, nil)
	if err != nil {
		t.Fatalf("Export returned %v", err)
	}
	want := `"weird, ""proof"".jpg"`
	if !strings.HasSuffix(out, want) {
		t.Errorf("quoted proof name missing; output ends with %q", out[len(out)-30:])
	}
}

// Exported text must round-trip through a standard CSV reader, recovering the
// numeric values to two decimals and the proof names after unescaping.
func TestExportRoundTrip(t *testing.T) {
	recs := []models.LiquidationRecord{sampleRecord()}
	recs[0].Proof.Name = `multi
line, "name".pdf`

	e := NewCSVExporter()
	out, err := e.Export(recs, nil)
	if err != nil {
		t.Fatalf("Export returned %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parsing export failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d parsed rows, want 2", len(rows))
	}

	row := rows[1]
	checks := []struct {
		idx  int
		want float64
	}{
		{1, 150000}, {2, 15000}, {3, 135000}, {4, 750}, {5, 180},
	}
	for _, c := range checks {
		v, err := strconv.ParseFloat(row[c.idx], 64)
		if err != nil || v != c.want {
			t.Errorf("column %d = %q, want %v (err=%v)", c.idx, row[c.idx], c.want, err)
		}
	}
	if row[6] != recs[0].Proof.Name {
		t.Errorf("proof name = %q, want %q", row[6], recs[0].Proof.Name)
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 5, 20, 13, 4, 5, 0, time.UTC)
	if got := FileName(ts); got != "liquidation_history_2024-05-20.csv" {
		t.Errorf("FileName = %q", got)
	}
}
