package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"studyplanner-backend/internal/middleware"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/services"
)

type progressService interface {
	StartSession(ctx context.Context, userID, subjectID uuid.UUID) (*models.SessionResult, error)
	StopSession(ctx context.Context, userID, subjectID uuid.UUID) (*models.SessionResult, error)
	UpdateTopic(ctx context.Context, userID, topicID uuid.UUID, req models.UpdateTopicRequest) (*models.TopicUpdateResult, error)
	ReviewFlashcard(ctx context.Context, userID, cardID uuid.UUID, correct bool) (*models.ReviewResult, error)
}

// ProgressHandler serves the endpoints that move points, streaks and badges.
type ProgressHandler struct {
	progress progressService
}

func NewProgressHandler(progress *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

func (h *ProgressHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	subjectID, ok := idParam(w, r, "id", "subject")
	if !ok {
		return
	}

	result, err := h.progress.StartSession(r.Context(), userID, subjectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *ProgressHandler) StopSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	subjectID, ok := idParam(w, r, "id", "subject")
	if !ok {
		return
	}

	result, err := h.progress.StopSession(r.Context(), userID, subjectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProgressHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID, ok := idParam(w, r, "id", "topic")
	if !ok {
		return
	}

	var req models.UpdateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.progress.UpdateTopic(r.Context(), userID, topicID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProgressHandler) ReviewFlashcard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cardID, ok := idParam(w, r, "id", "flashcard")
	if !ok {
		return
	}

	var req models.ReviewFlashcardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Correct == nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"correct": "correct must be true or false"}, r))
		return
	}

	result, err := h.progress.ReviewFlashcard(r.Context(), userID, cardID, *req.Correct)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
