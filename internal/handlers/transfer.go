package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"studyplanner-backend/internal/middleware"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/services"
)

const maxImportBytes = 5 << 20

type transferService interface {
	Export(ctx context.Context, userID uuid.UUID) (*models.ExportDocument, error)
	Import(ctx context.Context, userID uuid.UUID, doc *models.ExportDocument) (*models.ImportResult, error)
}

type TransferHandler struct {
	transfer transferService
}

func NewTransferHandler(transfer *services.TransferService) *TransferHandler {
	return &TransferHandler{transfer: transfer}
}

func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.transfer.Export(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="study_planner_export.json"`)
	writeJSON(w, http.StatusOK, doc)
}

func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var doc models.ExportDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Import file is too large", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Import file is not valid JSON", r))
		return
	}

	result, err := h.transfer.Import(r.Context(), middleware.GetUserID(r.Context()), &doc)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
