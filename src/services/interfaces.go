package services

import (
	"context"
	"io"

	"github.com/username/liquidador/src/models"
)

// ConfirmInput is everything needed to persist a liquidation. The proof must
// already be stored; Confirm takes ownership of the reference and releases it
// if validation rejects the confirmation.
type ConfirmInput struct {
	Channels models.ChannelAmounts
	Date     string // YYYY-MM-DD, empty defaults to today
	Rate     float64
	Proof    models.ProofReference
}

// UpdateInput carries an edit to an existing record. NewProof, when non-nil,
// replaces the record's proof; the old handle is released on success and the
// new one is released if the edit is rejected.
type UpdateInput struct {
	Channels models.ChannelAmounts
	Date     string
	Rate     float64
	NewProof *models.ProofReference
}

// RateService fetches the current BRL-to-COP exchange rate from the external
// provider. Implementations may cache; the returned rate is always positive.
type RateService interface {
	FetchRate(ctx context.Context) (float64, error)
}

// ProofService owns the stored proof-of-payment files. Each stored reference
// must be released exactly once, via Release or through the record store.
type ProofService interface {
	Store(fileName, contentType string, r io.Reader) (models.ProofReference, error)
	Open(ref models.ProofReference) (io.ReadCloser, error)
	Release(ref models.ProofReference) error
}

// LiquidationService is the core session logic: previewing the computation,
// confirming records into the history, editing, deleting and exporting.
type LiquidationService interface {
	Preview(amounts models.ChannelAmounts, rate float64) models.Breakdown
	Confirm(input ConfirmInput) (models.LiquidationRecord, error)
	GetRecord(id string) (models.LiquidationRecord, error)
	UpdateRecord(id string, input UpdateInput) (models.LiquidationRecord, error)
	DeleteRecord(id string)
	History(start, end string) []models.LiquidationRecord
	ExportCSV(start, end string) (string, error)
}
