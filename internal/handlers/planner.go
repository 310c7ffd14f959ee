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

type plannerService interface {
	CreateReminder(ctx context.Context, userID uuid.UUID, req models.CreateReminderRequest) (*models.Reminder, error)
	ListReminders(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error)
	CompleteReminder(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, userID, reminderID uuid.UUID) error
	CreateEvent(ctx context.Context, userID uuid.UUID, req models.CreateEventRequest) (*models.StudyEvent, error)
	DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error
	ListEvents(ctx context.Context, userID uuid.UUID, month string) ([]models.StudyEvent, error)
}

type PlannerHandler struct {
	planner plannerService
}

func NewPlannerHandler(planner *services.PlannerService) *PlannerHandler {
	return &PlannerHandler{planner: planner}
}

func (h *PlannerHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reminders, err := h.planner.ListReminders(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reminders": reminders})
}

func (h *PlannerHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	reminder, err := h.planner.CreateReminder(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reminder)
}

func (h *PlannerHandler) CompleteReminder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	reminderID, ok := idParam(w, r, "id", "reminder")
	if !ok {
		return
	}

	next, err := h.planner.CompleteReminder(r.Context(), userID, reminderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Reminder completed",
		"next_reminder": next,
	})
}

func (h *PlannerHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	reminderID, ok := idParam(w, r, "id", "reminder")
	if !ok {
		return
	}

	if err := h.planner.DeleteReminder(r.Context(), userID, reminderID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted"})
}

func (h *PlannerHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	events, err := h.planner.ListEvents(r.Context(), userID, r.URL.Query().Get("month"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *PlannerHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	event, err := h.planner.CreateEvent(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *PlannerHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eventID, ok := idParam(w, r, "id", "event")
	if !ok {
		return
	}

	if err := h.planner.DeleteEvent(r.Context(), userID, eventID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}
