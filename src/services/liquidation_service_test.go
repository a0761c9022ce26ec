package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/username/liquidador/src/exporters"
	"github.com/username/liquidador/src/models"
	"github.com/username/liquidador/src/processors"
	"github.com/username/liquidador/src/store"
)

type serviceFixture struct {
	svc    LiquidationService
	proofs ProofService
	dir    string
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dir := t.TempDir()
	proofs, err := NewProofService(dir)
	if err != nil {
		t.Fatalf("NewProofService returned %v", err)
	}
	records := store.NewRecordStore(proofs)
	svc := NewLiquidationService(
		processors.NewLiquidationProcessor(),
		records,
		proofs,
		exporters.NewCSVExporter(),
		nil,
	)
	return &serviceFixture{svc: svc, proofs: proofs, dir: dir}
}

func (f *serviceFixture) storedProof(t *testing.T) models.ProofReference {
	t.Helper()
	ref, err := f.proofs.Store("proof.jpg", "image/jpeg", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("Store proof returned %v", err)
	}
	return ref
}

func (f *serviceFixture) proofExists(ref models.ProofReference) bool {
	_, err := os.Stat(filepath.Join(f.dir, ref.StoredName))
	return err == nil
}

func validInput(proof models.ProofReference) ConfirmInput {
	return ConfirmInput{
		Channels: models.ChannelAmounts{Nequi: 100000, Bancolombia: 50000},
		Date:     "2024-05-20",
		Rate:     750,
		Proof:    proof,
	}
}

func TestConfirmAddsRecordFirst(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Confirm(validInput(f.storedProof(t)))
	if err != nil {
		t.Fatalf("Confirm returned %v", err)
	}
	second, err := f.svc.Confirm(validInput(f.storedProof(t)))
	if err != nil {
		t.Fatalf("Confirm returned %v", err)
	}

	history := f.svc.History("", "")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Error("history is not most-recent-first")
	}

	rec := history[0]
	if rec.GrossAmountCOP != 150000 || rec.CommissionCOP != 15000 || rec.NetAmountCOP != 135000 || rec.TotalBRL != 180 {
		t.Errorf("derived fields = %+v", rec)
	}
	if rec.ID == "" {
		t.Error("record has no id")
	}
}

func TestConfirmRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ConfirmInput, models.ProofReference)
	}{
		{"zero net", func(in *ConfirmInput, _ models.ProofReference) {
			in.Channels = models.ChannelAmounts{}
		}},
		{"missing rate", func(in *ConfirmInput, _ models.ProofReference) {
			in.Rate = 0
		}},
		{"missing proof", func(in *ConfirmInput, _ models.ProofReference) {
			in.Proof = models.ProofReference{}
		}},
		{"bad date", func(in *ConfirmInput, _ models.ProofReference) {
			in.Date = "20/05/2024"
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			proof := f.storedProof(t)
			in := validInput(proof)
			c.mutate(&in, proof)

			_, err := f.svc.Confirm(in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if len(f.svc.History("", "")) != 0 {
				t.Error("rejected confirmation mutated the history")
			}
			if in.Proof.StoredName != "" && f.proofExists(in.Proof) {
				t.Error("rejected confirmation leaked the stored proof file")
			}
		})
	}
}

func TestConfirmDefaultsDateToToday(t *testing.T) {
	f := newFixture(t)
	in := validInput(f.storedProof(t))
	in.Date = ""
	rec, err := f.svc.Confirm(in)
	if err != nil {
		t.Fatalf("Confirm returned %v", err)
	}
	if rec.Date == "" {
		t.Error("date not defaulted")
	}
}

func TestUpdateRecomputesDerivedFields(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Confirm(validInput(f.storedProof(t)))
	if err != nil {
		t.Fatalf("Confirm returned %v", err)
	}

	updated, err := f.svc.UpdateRecord(rec.ID, UpdateInput{
		Channels: models.ChannelAmounts{Nequi: 200000},
		Date:     rec.Date,
		Rate:     750,
	})
	if err != nil {
		t.Fatalf("UpdateRecord returned %v", err)
	}
	if updated.GrossAmountCOP != 200000 || updated.CommissionCOP != 20000 || updated.NetAmountCOP != 180000 || updated.TotalBRL != 240 {
		t.Errorf("recomputed fields = %+v", updated)
	}
	if updated.Proof.StoredName != rec.Proof.StoredName {
		t.Error("proof replaced without a new upload")
	}
}

func TestUpdateReplacesProof(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Confirm(validInput(f.storedProof(t)))
	if err != nil {
		t.Fatalf("Confirm returned %v", err)
	}
	newProof := f.storedProof(t)

	updated, err := f.svc.UpdateRecord(rec.ID, UpdateInput{
		Channels: rec.Channels,
		Date:     rec.Date,
		Rate:     rec.ExchangeRate,
		NewProof: &newProof,
	})
	if err != nil {
		t.Fatalf("UpdateRecord returned %v", err)
	}
	if updated.Proof.StoredName != newProof.StoredName {
		t.Error("proof not replaced")
	}
	if f.proofExists(rec.Proof) {
		t.Error("old proof file not released")
	}
	if !f.proofExists(newProof) {
		t.Error("new proof file missing")
	}
}

func TestUpdateUnknownIDReleasesNewProof(t *testing.T) {
	f := newFixture(t)
	newProof := f.storedProof(t)

	_, err := f.svc.UpdateRecord("missing", UpdateInput{
		Channels: models.ChannelAmounts{Nequi: 1000},
		Rate:     750,
		NewProof: &newProof,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want store.ErrNotFound", err)
	}
	if f.proofExists(newProof) {
		t.Error("new proof leaked after failed update")
	}
}

func TestDeleteReleasesProof(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Confirm(validInput(f.storedProof(t)))
	if err != nil {
		t.Fatalf("Confirm returned %v", err)
	}

	f.svc.DeleteRecord(rec.ID)
	if len(f.svc.History("", "")) != 0 {
		t.Error("record still in history after delete")
	}
	if f.proofExists(rec.Proof) {
		t.Error("proof file not released on delete")
	}

	// Unknown ids are a no-op.
	f.svc.DeleteRecord(rec.ID)
}

func TestExportCSVEmptyRangeIsError(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Confirm(validInput(f.storedProof(t))); err != nil {
		t.Fatalf("Confirm returned %v", err)
	}

	if _, err := f.svc.ExportCSV("2030-01-01", ""); !errors.Is(err, exporters.ErrNoRecords) {
		t.Errorf("err = %v, want exporters.ErrNoRecords", err)
	}

	out, err := f.svc.ExportCSV("", "")
	if err != nil {
		t.Fatalf("ExportCSV returned %v", err)
	}
	if !strings.HasPrefix(out, "Date,") {
		t.Errorf("export missing header: %q", out)
	}
}
