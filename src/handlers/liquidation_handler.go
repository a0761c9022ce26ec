package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/username/liquidador/src/config"
	"github.com/username/liquidador/src/exporters"
	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/models"
	"github.com/username/liquidador/src/processors"
	"github.com/username/liquidador/src/security/validation"
	"github.com/username/liquidador/src/services"
	"github.com/username/liquidador/src/store"
	"github.com/username/liquidador/src/utils"
)

type LiquidationHandler struct {
	service services.LiquidationService
	proofs  services.ProofService
}

func NewLiquidationHandler(service services.LiquidationService, proofs services.ProofService) *LiquidationHandler {
	return &LiquidationHandler{
		service: service,
		proofs:  proofs,
	}
}

// previewRequest fields arrive as raw JSON so that both numbers and the form's
// text values are accepted; malformed values coerce to 0.
type previewRequest struct {
	Nequi       json.RawMessage `json:"nequi"`
	Bancolombia json.RawMessage `json:"bancolombia"`
	Daviplata   json.RawMessage `json:"daviplata"`
	Rate        json.RawMessage `json:"rate"`
}

func amountFromJSON(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "null" {
		return 0
	}
	return processors.ParseAmount(s)
}

// HandlePreview recomputes the breakdown for the current form inputs without
// touching the history.
func (h *LiquidationHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	breakdown := h.service.Preview(models.ChannelAmounts{
		Nequi:       amountFromJSON(req.Nequi),
		Bancolombia: amountFromJSON(req.Bancolombia),
		Daviplata:   amountFromJSON(req.Daviplata),
	}, amountFromJSON(req.Rate))

	utils.SendJSON(w, breakdown, http.StatusOK)
}

// HandleConfirm persists a liquidation. The request is multipart: text fields
// nequi/bancolombia/daviplata/date/rate plus the proof file under "proof".
func (h *LiquidationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	input, ok := h.parseLiquidationForm(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Confirm(*input)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Internal error confirming liquidation", "error", err)
		utils.SendJSONError(w, "An internal error occurred while confirming the liquidation.", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, rec, http.StatusCreated)
}

// HandleList returns the history, optionally filtered to start <= date <= end.
func (h *LiquidationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRangeParams(w, r)
	if !ok {
		return
	}
	records := h.service.History(start, end)
	utils.SendJSON(w, records, http.StatusOK)
}

// HandleUpdate edits a record; derived fields are recomputed server-side. An
// optional new proof file under "proof" replaces (and releases) the old one.
func (h *LiquidationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	input, ok := h.parseLiquidationForm(w, r)
	if !ok {
		return
	}

	update := services.UpdateInput{
		Channels: input.Channels,
		Date:     input.Date,
		Rate:     input.Rate,
	}
	if input.Proof.StoredName != "" {
		proof := input.Proof
		update.NewProof = &proof
	}

	rec, err := h.service.UpdateRecord(id, update)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.SendJSONError(w, "Record not found", http.StatusNotFound)
		case errors.Is(err, services.ErrValidation):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Internal error updating liquidation", "id", id, "error", err)
			utils.SendJSONError(w, "An internal error occurred while updating the record.", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, rec, http.StatusOK)
}

// HandleDelete removes a record and releases its proof file. Unknown ids are
// a no-op, matching the store contract.
func (h *LiquidationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.service.DeleteRecord(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport streams the date-filtered history as a CSV attachment.
func (h *LiquidationHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	csvText, err := h.service.ExportCSV(start, end)
	if err != nil {
		if errors.Is(err, exporters.ErrNoRecords) {
			utils.SendJSONError(w, "No records found for the selected date range.", http.StatusNotFound)
			return
		}
		logger.L.Error("Internal error exporting history", "error", err)
		utils.SendJSONError(w, "An internal error occurred while exporting.", http.StatusInternalServerError)
		return
	}

	fileName := exporters.FileName(time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, csvText); err != nil {
		logger.L.Error("Error writing CSV response", "error", err)
	}
}

// HandleGetProof streams the stored proof bytes for a record.
func (h *LiquidationHandler) HandleGetProof(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.service.GetRecord(id)
	if err != nil {
		utils.SendJSONError(w, "Record not found", http.StatusNotFound)
		return
	}

	f, err := h.proofs.Open(rec.Proof)
	if err != nil {
		logger.L.Error("Failed to open proof file", "id", id, "storedName", rec.Proof.StoredName, "error", err)
		utils.SendJSONError(w, "Proof file unavailable", http.StatusNotFound)
		return
	}
	defer f.Close()

	if rec.Proof.MIMEType != "" {
		w.Header().Set("Content-Type", rec.Proof.MIMEType)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", rec.Proof.Name))
	if _, err := io.Copy(w, f); err != nil {
		logger.L.Error("Error streaming proof file", "id", id, "error", err)
	}
}

// parseLiquidationForm reads the multipart liquidation form. A missing proof
// part is not a transport error: the service rejects proof-less
// confirmations, and on update it means the current proof is kept. When a
// proof part is present it is validated and stored, and the returned input
// owns it.
func (h *LiquidationHandler) parseLiquidationForm(w http.ResponseWriter, r *http.Request) (*services.ConfirmInput, bool) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return nil, false
	}

	input := &services.ConfirmInput{
		Channels: models.ChannelAmounts{
			Nequi:       processors.ParseAmount(r.FormValue("nequi")),
			Bancolombia: processors.ParseAmount(r.FormValue("bancolombia")),
			Daviplata:   processors.ParseAmount(r.FormValue("daviplata")),
		},
		Date: strings.TrimSpace(r.FormValue("date")),
		Rate: processors.ParseAmount(r.FormValue("rate")),
	}

	file, fileHeader, err := r.FormFile("proof")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return input, true
		}
		utils.SendJSONError(w, "Failed to retrieve proof file from request.", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	ref, ok := h.storeProof(w, file, fileHeader)
	if !ok {
		return nil, false
	}
	input.Proof = ref
	return input, true
}

func (h *LiquidationHandler) storeProof(w http.ResponseWriter, file multipart.File, fileHeader *multipart.FileHeader) (models.ProofReference, bool) {
	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		utils.SendJSONError(w, fmt.Sprintf("Proof file too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return models.ProofReference{}, false
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return models.ProofReference{}, false
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return models.ProofReference{}, false
	}

	ref, err := h.proofs.Store(fileHeader.Filename, detectedContentType, file)
	if err != nil {
		logger.L.Error("Failed to store proof file", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "Failed to store proof file.", http.StatusInternalServerError)
		return models.ProofReference{}, false
	}
	return ref, true
}

func dateRangeParams(w http.ResponseWriter, r *http.Request) (start, end string, ok bool) {
	start = strings.TrimSpace(r.URL.Query().Get("start"))
	end = strings.TrimSpace(r.URL.Query().Get("end"))
	if start != "" && !utils.ValidDate(start) {
		utils.SendJSONError(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
		return "", "", false
	}
	if end != "" && !utils.ValidDate(end) {
		utils.SendJSONError(w, "end must be YYYY-MM-DD", http.StatusBadRequest)
		return "", "", false
	}
	return start, end, true
}
