package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/username/liquidador/src/exporters"
	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/metrics"
	"github.com/username/liquidador/src/models"
	"github.com/username/liquidador/src/processors"
	"github.com/username/liquidador/src/store"
	"github.com/username/liquidador/src/utils"
)

type liquidationServiceImpl struct {
	processor *processors.LiquidationProcessor
	records   *store.RecordStore
	proofs    ProofService
	exporter  *exporters.CSVExporter
	metrics   *metrics.LiquidationMetrics
}

// NewLiquidationService wires the computation, the in-memory history and the
// proof-file ownership into the session-facing service.
func NewLiquidationService(
	processor *processors.LiquidationProcessor,
	records *store.RecordStore,
	proofs ProofService,
	exporter *exporters.CSVExporter,
	m *metrics.LiquidationMetrics,
) LiquidationService {
	return &liquidationServiceImpl{
		processor: processor,
		records:   records,
		proofs:    proofs,
		exporter:  exporter,
		metrics:   m,
	}
}

// Preview recomputes the breakdown for the current form inputs. Nothing is
// stored; the client calls this on every input change.
func (s *liquidationServiceImpl) Preview(amounts models.ChannelAmounts, rate float64) models.Breakdown {
	return s.processor.Compute(amounts, rate)
}

func (s *liquidationServiceImpl) Confirm(input ConfirmInput) (models.LiquidationRecord, error) {
	breakdown := s.processor.Compute(input.Channels, input.Rate)

	if err := s.validate(breakdown, input.Rate, input.Proof, input.Date); err != nil {
		// Confirm owns the freshly stored proof; release it on every
		// rejection path so aborted confirmations do not leak files.
		s.releaseQuietly(input.Proof)
		return models.LiquidationRecord{}, err
	}

	date := input.Date
	if date == "" {
		date = utils.Today()
	}

	rec := models.LiquidationRecord{
		ID:             uuid.NewString(),
		Date:           date,
		Channels:       input.Channels,
		GrossAmountCOP: breakdown.GrossAmountCOP,
		CommissionCOP:  breakdown.CommissionCOP,
		NetAmountCOP:   breakdown.NetAmountCOP,
		ExchangeRate:   input.Rate,
		TotalBRL:       breakdown.TotalBRL,
		Proof:          input.Proof,
	}
	s.records.Add(rec)

	if s.metrics != nil {
		s.metrics.RecordConfirmed(rec.GrossAmountCOP, rec.CommissionCOP, rec.TotalBRL)
	}
	logger.L.Info("Liquidation confirmed",
		"id", rec.ID,
		"date", rec.Date,
		"netCOP", rec.NetAmountCOP,
		"totalBRL", rec.TotalBRL)
	return rec, nil
}

func (s *liquidationServiceImpl) GetRecord(id string) (models.LiquidationRecord, error) {
	return s.records.Get(id)
}

func (s *liquidationServiceImpl) UpdateRecord(id string, input UpdateInput) (models.LiquidationRecord, error) {
	existing, err := s.records.Get(id)
	if err != nil {
		if input.NewProof != nil {
			s.releaseQuietly(*input.NewProof)
		}
		return models.LiquidationRecord{}, err
	}

	proof := existing.Proof
	if input.NewProof != nil {
		proof = *input.NewProof
	}

	breakdown := s.processor.Compute(input.Channels, input.Rate)
	if err := s.validate(breakdown, input.Rate, proof, input.Date); err != nil {
		if input.NewProof != nil {
			s.releaseQuietly(*input.NewProof)
		}
		return models.LiquidationRecord{}, err
	}

	date := input.Date
	if date == "" {
		date = existing.Date
	}

	updated := models.LiquidationRecord{
		ID:             id,
		Date:           date,
		Channels:       input.Channels,
		GrossAmountCOP: breakdown.GrossAmountCOP,
		CommissionCOP:  breakdown.CommissionCOP,
		NetAmountCOP:   breakdown.NetAmountCOP,
		ExchangeRate:   input.Rate,
		TotalBRL:       breakdown.TotalBRL,
		Proof:          proof,
	}
	if err := s.records.Update(id, updated); err != nil {
		if input.NewProof != nil {
			s.releaseQuietly(*input.NewProof)
		}
		return models.LiquidationRecord{}, err
	}

	// The edit now owns the new proof; drop the replaced handle.
	if input.NewProof != nil {
		s.releaseQuietly(existing.Proof)
	}

	if s.metrics != nil {
		s.metrics.LiquidationsUpdatedTotal.Inc()
	}
	logger.L.Info("Liquidation updated", "id", id, "netCOP", updated.NetAmountCOP)
	return updated, nil
}

func (s *liquidationServiceImpl) DeleteRecord(id string) {
	s.records.Remove(id)
	if s.metrics != nil {
		s.metrics.LiquidationsDeletedTotal.Inc()
	}
	logger.L.Info("Liquidation deleted", "id", id)
}

func (s *liquidationServiceImpl) History(start, end string) []models.LiquidationRecord {
	if start == "" && end == "" {
		return s.records.ListAll()
	}
	return s.records.ListByDateRange(start, end)
}

func (s *liquidationServiceImpl) ExportCSV(start, end string) (string, error) {
	records := s.History(start, end)
	csvText, err := s.exporter.Export(records, nil)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "empty"
		}
		s.metrics.RecordExport(outcome)
	}
	if err != nil {
		return "", err
	}
	logger.L.Info("Exported liquidation history", "records", len(records), "start", start, "end", end)
	return csvText, nil
}

// validate enforces the confirmation invariants: positive net amount, a known
// positive rate, an attached proof and a well-formed date.
func (s *liquidationServiceImpl) validate(breakdown models.Breakdown, rate float64, proof models.ProofReference, date string) error {
	switch {
	case breakdown.NetAmountCOP <= 0:
		s.recordRejection("net_amount")
		return fmt.Errorf("%w: net amount must be positive", ErrValidation)
	case rate <= 0:
		s.recordRejection("rate")
		return fmt.Errorf("%w: exchange rate is required", ErrValidation)
	case proof.StoredName == "":
		s.recordRejection("proof")
		return fmt.Errorf("%w: proof of payment file is required", ErrValidation)
	case date != "" && !utils.ValidDate(date):
		s.recordRejection("date")
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return nil
}

func (s *liquidationServiceImpl) recordRejection(reason string) {
	if s.metrics != nil {
		s.metrics.RecordValidationRejection(reason)
	}
}

func (s *liquidationServiceImpl) releaseQuietly(ref models.ProofReference) {
	if ref.StoredName == "" {
		return
	}
	if err := s.proofs.Release(ref); err != nil {
		logger.L.Warn("Failed to release proof file", "storedName", ref.StoredName, "error", err)
	}
}
