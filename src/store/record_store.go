package store

import (
	"errors"
	"sync"

	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/models"
)

var ErrNotFound = errors.New("record not found")

// ProofReleaser frees the stored proof file owned by a record. The store
// invokes it exactly once per handle, on Remove and on Close.
type ProofReleaser interface {
	Release(ref models.ProofReference) error
}

// RecordStore is the in-memory history of confirmed liquidations. Records are
// kept most-recent-first by insertion, not ordered by their date field. State
// is volatile for the process lifetime; there is no backing database.
type RecordStore struct {
	mu       sync.Mutex
	records  []models.LiquidationRecord
	releaser ProofReleaser
}

func NewRecordStore(releaser ProofReleaser) *RecordStore {
	return &RecordStore{releaser: releaser}
}

// Add prepends a confirmed record to the history.
func (s *RecordStore) Add(rec models.LiquidationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]models.LiquidationRecord{rec}, s.records...)
}

// Get returns the record with the given id.
func (s *RecordStore) Get(id string) (models.LiquidationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.LiquidationRecord{}, ErrNotFound
}

// Update replaces the record with matching id in place, preserving its
// position in the history. Returns ErrNotFound for unknown ids; callers in
// the normal flow always hold valid ids, so they may treat that as a no-op.
func (s *RecordStore) Update(id string, rec models.LiquidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			rec.ID = id
			s.records[i] = rec
			return nil
		}
	}
	return ErrNotFound
}

// Remove deletes the record with matching id and releases its proof file.
// Unknown ids are a no-op.
func (s *RecordStore) Remove(id string) {
	s.mu.Lock()
	var removed *models.LiquidationRecord
	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			removed = &rec
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if removed != nil && s.releaser != nil {
		if err := s.releaser.Release(removed.Proof); err != nil {
			logger.L.Warn("Failed to release proof file for removed record", "id", id, "storedName", removed.Proof.StoredName, "error", err)
		}
	}
}

// ListAll returns a snapshot of the history in insertion order.
func (s *RecordStore) ListAll() []models.LiquidationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LiquidationRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ListByDateRange filters the history to records with start <= date <= end.
// Either bound may be empty to leave that side open. Dates are ISO
// (YYYY-MM-DD) so plain string comparison orders correctly. An empty result
// is a valid outcome, not an error.
func (s *RecordStore) ListByDateRange(start, end string) []models.LiquidationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LiquidationRecord, 0)
	for _, rec := range s.records {
		if start != "" && rec.Date < start {
			continue
		}
		if end != "" && rec.Date > end {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Close releases every outstanding proof handle. Call once on teardown.
func (s *RecordStore) Close() {
	s.mu.Lock()
	remaining := s.records
	s.records = nil
	s.mu.Unlock()

	if s.releaser == nil {
		return
	}
	for _, rec := range remaining {
		if err := s.releaser.Release(rec.Proof); err != nil {
			logger.L.Warn("Failed to release proof file on store close", "id", rec.ID, "storedName", rec.Proof.StoredName, "error", err)
		}
	}
}
