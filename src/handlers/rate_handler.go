package handlers

import (
	"net/http"

	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/services"
	"github.com/username/liquidador/src/utils"
)

type RateHandler struct {
	rateService services.RateService
}

func NewRateHandler(rateService services.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// HandleGetRate returns the current BRL-to-COP rate. On provider failure the
// client falls back to rate 0 and keeps confirmation disabled; re-requesting
// this endpoint is the retry path.
func (h *RateHandler) HandleGetRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rateService.FetchRate(r.Context())
	if err != nil {
		logger.L.Warn("Rate fetch failed", "error", err)
		utils.SendJSONError(w, "Could not fetch the exchange rate. Please try again.", http.StatusBadGateway)
		return
	}
	utils.SendJSON(w, map[string]float64{"rate": rate}, http.StatusOK)
}
