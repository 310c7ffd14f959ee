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

type contentService interface {
	CreateSubject(ctx context.Context, userID uuid.UUID, req models.CreateSubjectRequest) (*models.Subject, error)
	ListSubjects(ctx context.Context, userID uuid.UUID) ([]models.Subject, error)
	CreateChapter(ctx context.Context, userID, subjectID uuid.UUID, req models.CreateNamedRequest) (*models.Chapter, error)
	CreateTopic(ctx context.Context, userID, chapterID uuid.UUID, req models.CreateNamedRequest) (*models.Topic, error)
	GetTopic(ctx context.Context, userID, topicID uuid.UUID) (*models.Topic, error)
	UpdateTopicNotes(ctx context.Context, userID, topicID uuid.UUID, notes string) (*models.Topic, error)
	CreateQuestion(ctx context.Context, userID, chapterID uuid.UUID, req models.CreateQuestionRequest) (*models.Question, error)
	CreateFlashcard(ctx context.Context, userID, topicID uuid.UUID, req models.CreateFlashcardRequest) (*models.Flashcard, error)
	ListFlashcards(ctx context.Context, userID, topicID uuid.UUID) ([]models.Flashcard, error)
	ShareSubject(ctx context.Context, userID, subjectID uuid.UUID) (string, error)
}

// ContentHandler serves the subject → chapter → topic tree and its cards.
type ContentHandler struct {
	content contentService
}

func NewContentHandler(content *services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

func (h *ContentHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjects, err := h.content.ListSubjects(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subjects": subjects})
}

func (h *ContentHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	subject, err := h.content.CreateSubject(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (h *ContentHandler) ShareSubject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	subjectID, ok := idParam(w, r, "id", "subject")
	if !ok {
		return
	}

	token, err := h.content.ShareSubject(r.Context(), userID, subjectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"share_token": token,
		"share_path":  "/api/v1/shared/" + token,
	})
}

func (h *ContentHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	subjectID, ok := idParam(w, r, "id", "subject")
	if !ok {
		return
	}

	var req models.CreateNamedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	chapter, err := h.content.CreateChapter(r.Context(), userID, subjectID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chapter)
}

func (h *ContentHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chapterID, ok := idParam(w, r, "id", "chapter")
	if !ok {
		return
	}

	var req models.CreateNamedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	topic, err := h.content.CreateTopic(r.Context(), userID, chapterID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (h *ContentHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chapterID, ok := idParam(w, r, "id", "chapter")
	if !ok {
		return
	}

	var req models.CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	question, err := h.content.CreateQuestion(r.Context(), userID, chapterID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *ContentHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID, ok := idParam(w, r, "id", "topic")
	if !ok {
		return
	}

	topic, err := h.content.GetTopic(r.Context(), userID, topicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic_id": topic.ID,
		"notes":    topic.Notes,
	})
}

func (h *ContentHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID, ok := idParam(w, r, "id", "topic")
	if !ok {
		return
	}

	var req models.UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	topic, err := h.content.UpdateTopicNotes(r.Context(), userID, topicID, req.Notes)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *ContentHandler) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID, ok := idParam(w, r, "id", "topic")
	if !ok {
		return
	}

	cards, err := h.content.ListFlashcards(r.Context(), userID, topicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flashcards": cards})
}

func (h *ContentHandler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID, ok := idParam(w, r, "id", "topic")
	if !ok {
		return
	}

	var req models.CreateFlashcardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	card, err := h.content.CreateFlashcard(r.Context(), userID, topicID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}
