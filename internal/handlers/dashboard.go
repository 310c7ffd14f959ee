package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyplanner-backend/internal/middleware"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/services"
)

const (
	defaultAchievementLogLimit = 50
	maxAchievementLogLimit     = 200
)

type statsService interface {
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*models.Dashboard, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*models.Statistics, error)
	SubjectDetail(ctx context.Context, userID, subjectID uuid.UUID) (*models.SubjectDetail, error)
	Achievements(ctx context.Context, userID uuid.UUID) (models.AchievementsOverview, error)
	ListAchievementLog(ctx context.Context, userID uuid.UUID, limit int) ([]models.Achievement, error)
	DueFlashcards(ctx context.Context, userID uuid.UUID) ([]models.Flashcard, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	SharedSubject(ctx context.Context, token string) (*models.SharedSubject, error)
}

// DashboardHandler serves the read-only views.
type DashboardHandler struct {
	stats statsService
}

func NewDashboardHandler(stats *services.StatsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

func (h *DashboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.stats.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.stats.Dashboard(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Statistics(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) SubjectDetail(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := idParam(w, r, "id", "subject")
	if !ok {
		return
	}

	detail, err := h.stats.SubjectDetail(r.Context(), middleware.GetUserID(r.Context()), subjectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *DashboardHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Achievements(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *DashboardHandler) AchievementLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultAchievementLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be a positive integer", r))
			return
		}
		limit = min(n, maxAchievementLogLimit)
	}

	entries, err := h.stats.ListAchievementLog(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": entries})
}

func (h *DashboardHandler) DueFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.stats.DueFlashcards(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flashcards": cards})
}

func (h *DashboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.stats.Leaderboard(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// SharedSubject is public; the share token is the only credential.
func (h *DashboardHandler) SharedSubject(w http.ResponseWriter, r *http.Request) {
	shared, err := h.stats.SharedSubject(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared)
}
