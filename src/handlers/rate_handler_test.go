package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/username/liquidador/src/services"
)

type stubRateService struct {
	rate float64
	err  error
}

func (s *stubRateService) FetchRate(ctx context.Context) (float64, error) {
	return s.rate, s.err
}

func TestHandleGetRate(t *testing.T) {
	h := NewRateHandler(&stubRateService{rate: 748.35})
	rr := httptest.NewRecorder()
	h.HandleGetRate(rr, httptest.NewRequest(http.MethodGet, "/api/rate", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]float64
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["rate"] != 748.35 {
		t.Errorf("rate = %v", resp["rate"])
	}
}

func TestHandleGetRateProviderFailure(t *testing.T) {
	h := NewRateHandler(&stubRateService{err: services.ErrRateUnavailable})
	rr := httptest.NewRecorder()
	h.HandleGetRate(rr, httptest.NewRequest(http.MethodGet, "/api/rate", nil))

	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
}
