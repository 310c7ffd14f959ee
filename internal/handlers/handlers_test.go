package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyplanner-backend/internal/middleware"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/services"
)

func newRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return resp.Error
}

// ─── Error mapping ───

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"name": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "busy"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Topic not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("in tx: %w", &services.NotFoundError{Message: "gone"}), http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "no"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "not yours"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-123"))
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			apiErr := decodeError(t, rr)
			if apiErr.Code != tc.code || apiErr.RequestID != "req-123" {
				t.Fatalf("unexpected envelope %+v", apiErr)
			}
			if tc.code == "INTERNAL_ERROR" && strings.Contains(apiErr.Message, "connection reset") {
				t.Fatalf("internal error leaked cause: %q", apiErr.Message)
			}
		})
	}
}

// ─── Auth ───

type stubAuthService struct {
	registerErr  error
	deletedUser  uuid.UUID
	deletedPass  string
	loggedOut    string
	refreshCalls int
}

func (s *stubAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.AuthTokens, error) {
	if s.registerErr != nil {
		return nil, nil, s.registerErr
	}
	return &models.User{ID: uuid.New(), Username: req.Username, Level: 1}, &models.AuthTokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
}

func (s *stubAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	if req.Password != "Secret123" {
		return nil, &services.UnauthorizedError{Message: "Invalid username or password"}
	}
	return &models.AuthTokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
}

func (s *stubAuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	s.refreshCalls++
	return &models.AuthTokens{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900}, nil
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	s.loggedOut = refreshToken
	return nil
}

func (s *stubAuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	s.deletedUser = userID
	s.deletedPass = password
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	h := &AuthHandler{authService: &stubAuthService{}}
	rr := httptest.NewRecorder()

	h.Register(rr, newRequest(http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{Username: "ana", Password: "Secret123"}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var resp struct {
		User   models.User       `json:"user"`
		Tokens models.AuthTokens `json:"tokens"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Username != "ana" || resp.Tokens.AccessToken == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	h := &AuthHandler{authService: &stubAuthService{
		registerErr: &services.ValidationError{Fields: map[string]string{"password": "Password must be at least 8 characters"}},
	}}

	rr := httptest.NewRecorder()
	h.Register(rr, newRequest(http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{Username: "ana", Password: "x"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Fields["password"] == "" {
		t.Fatalf("expected password field error, got %+v", apiErr)
	}

	rr = httptest.NewRecorder()
	h.Register(rr, newRequest(http.MethodPost, "/api/v1/auth/register", "{not json"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	h := &AuthHandler{authService: &stubAuthService{}}

	rr := httptest.NewRecorder()
	h.Login(rr, newRequest(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Username: "ana", Password: "wrong"}))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Login(rr, newRequest(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Username: "ana", Password: "Secret123"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAuthHandler_LogoutAndDelete(t *testing.T) {
	svc := &stubAuthService{}
	h := &AuthHandler{authService: svc}
	userID := uuid.New()

	rr := httptest.NewRecorder()
	h.Logout(rr, newRequest(http.MethodPost, "/api/v1/auth/logout", models.RefreshRequest{RefreshToken: "tok"}))
	if rr.Code != http.StatusOK || svc.loggedOut != "tok" {
		t.Fatalf("expected logout of tok, got %d %q", rr.Code, svc.loggedOut)
	}

	rr = httptest.NewRecorder()
	h.DeleteAccount(rr, withUser(newRequest(http.MethodDelete, "/api/v1/me", map[string]string{}), userID))
	if rr.Code != http.StatusBadRequest || svc.deletedUser != uuid.Nil {
		t.Fatalf("expected 400 without password, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.DeleteAccount(rr, withUser(newRequest(http.MethodDelete, "/api/v1/me", map[string]string{"password": "Secret123"}), userID))
	if rr.Code != http.StatusOK || svc.deletedUser != userID || svc.deletedPass != "Secret123" {
		t.Fatalf("expected account deletion for user, got %d", rr.Code)
	}
}

// ─── Progress ───

type stubProgressService struct {
	stopErr     error
	reviewCard  uuid.UUID
	reviewValue bool
	reviewUser  uuid.UUID
	topicReq    models.UpdateTopicRequest
}

func (s *stubProgressService) StartSession(ctx context.Context, userID, subjectID uuid.UUID) (*models.SessionResult, error) {
	return &models.SessionResult{Session: &models.StudySession{UserID: userID, SubjectID: subjectID}, PointsEarned: 10, Achievements: []string{}}, nil
}

func (s *stubProgressService) StopSession(ctx context.Context, userID, subjectID uuid.UUID) (*models.SessionResult, error) {
	if s.stopErr != nil {
		return nil, s.stopErr
	}
	return &models.SessionResult{}, nil
}

func (s *stubProgressService) UpdateTopic(ctx context.Context, userID, topicID uuid.UUID, req models.UpdateTopicRequest) (*models.TopicUpdateResult, error) {
	s.topicReq = req
	return &models.TopicUpdateResult{Topic: &models.Topic{ID: topicID}, Achievements: []string{}}, nil
}

func (s *stubProgressService) ReviewFlashcard(ctx context.Context, userID, cardID uuid.UUID, correct bool) (*models.ReviewResult, error) {
	s.reviewUser = userID
	s.reviewCard = cardID
	s.reviewValue = correct
	return &models.ReviewResult{MasteryLevel: 1, PointsEarned: 2, Achievements: []string{}}, nil
}

func TestProgressHandler_StartSession(t *testing.T) {
	h := &ProgressHandler{progress: &stubProgressService{}}
	subjectID := uuid.New()

	rr := httptest.NewRecorder()
	h.StartSession(rr, withParam(withUser(newRequest(http.MethodPost, "/", nil), uuid.New()), "id", subjectID.String()))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.StartSession(rr, withParam(withUser(newRequest(http.MethodPost, "/", nil), uuid.New()), "id", "not-a-uuid"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rr.Code)
	}
}

func TestProgressHandler_StopWithoutRunningSession(t *testing.T) {
	h := &ProgressHandler{progress: &stubProgressService{stopErr: &services.NotFoundError{Message: "Running session not found"}}}

	rr := httptest.NewRecorder()
	h.StopSession(rr, withParam(withUser(newRequest(http.MethodPost, "/", nil), uuid.New()), "id", uuid.NewString()))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestProgressHandler_ReviewFlashcard(t *testing.T) {
	svc := &stubProgressService{}
	h := &ProgressHandler{progress: svc}
	userID, cardID := uuid.New(), uuid.New()

	rr := httptest.NewRecorder()
	h.ReviewFlashcard(rr, withParam(withUser(newRequest(http.MethodPost, "/", map[string]string{}), userID), "id", cardID.String()))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when correct is missing, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ReviewFlashcard(rr, withParam(withUser(newRequest(http.MethodPost, "/", map[string]bool{"correct": false}), userID), "id", cardID.String()))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.reviewUser != userID || svc.reviewCard != cardID || svc.reviewValue {
		t.Fatalf("unexpected review call: user %s card %s correct %v", svc.reviewUser, svc.reviewCard, svc.reviewValue)
	}
}

func TestProgressHandler_UpdateTopic(t *testing.T) {
	svc := &stubProgressService{}
	h := &ProgressHandler{progress: svc}

	rr := httptest.NewRecorder()
	body := `{"status":"completed","progress":100}`
	h.UpdateTopic(rr, withParam(withUser(newRequest(http.MethodPatch, "/", body), uuid.New()), "id", uuid.NewString()))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.topicReq.Status == nil || *svc.topicReq.Status != "completed" || svc.topicReq.Progress == nil || *svc.topicReq.Progress != 100 {
		t.Fatalf("unexpected forwarded request %+v", svc.topicReq)
	}
}

// ─── Dashboard ───

type stubStatsService struct {
	logLimit int
	token    string
}

func (s *stubStatsService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

func (s *stubStatsService) Dashboard(ctx context.Context, userID uuid.UUID) (*models.Dashboard, error) {
	return &models.Dashboard{}, nil
}

func (s *stubStatsService) Statistics(ctx context.Context, userID uuid.UUID) (*models.Statistics, error) {
	return &models.Statistics{}, nil
}

func (s *stubStatsService) SubjectDetail(ctx context.Context, userID, subjectID uuid.UUID) (*models.SubjectDetail, error) {
	return nil, &services.ForbiddenError{Message: "You do not have access to this subject"}
}

func (s *stubStatsService) Achievements(ctx context.Context, userID uuid.UUID) (models.AchievementsOverview, error) {
	return models.AchievementsOverview{Level: 1, Badges: []models.Badge{}}, nil
}

func (s *stubStatsService) ListAchievementLog(ctx context.Context, userID uuid.UUID, limit int) ([]models.Achievement, error) {
	s.logLimit = limit
	return []models.Achievement{}, nil
}

func (s *stubStatsService) DueFlashcards(ctx context.Context, userID uuid.UUID) ([]models.Flashcard, error) {
	return []models.Flashcard{}, nil
}

func (s *stubStatsService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{{Username: "ana", Points: 300}}, nil
}

func (s *stubStatsService) SharedSubject(ctx context.Context, token string) (*models.SharedSubject, error) {
	s.token = token
	if token != "known" {
		return nil, &services.NotFoundError{Message: "Shared subject not found"}
	}
	return &models.SharedSubject{}, nil
}

func TestDashboardHandler_AchievementLogLimit(t *testing.T) {
	tests := []struct {
		query  string
		status int
		limit  int
	}{
		{"", http.StatusOK, defaultAchievementLogLimit},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=100000", http.StatusOK, maxAchievementLogLimit},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			svc := &stubStatsService{}
			h := &DashboardHandler{stats: svc}
			rr := httptest.NewRecorder()

			h.AchievementLog(rr, withUser(newRequest(http.MethodGet, "/api/v1/achievements/log"+tc.query, nil), uuid.New()))

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if svc.logLimit != tc.limit {
				t.Fatalf("expected limit %d, got %d", tc.limit, svc.logLimit)
			}
		})
	}
}

func TestDashboardHandler_SubjectDetailForbidden(t *testing.T) {
	h := &DashboardHandler{stats: &stubStatsService{}}

	rr := httptest.NewRecorder()
	h.SubjectDetail(rr, withParam(withUser(newRequest(http.MethodGet, "/", nil), uuid.New()), "id", uuid.NewString()))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestDashboardHandler_SharedSubject(t *testing.T) {
	svc := &stubStatsService{}
	h := &DashboardHandler{stats: svc}

	rr := httptest.NewRecorder()
	h.SharedSubject(rr, withParam(newRequest(http.MethodGet, "/", nil), "token", "known"))
	if rr.Code != http.StatusOK || svc.token != "known" {
		t.Fatalf("expected 200 for known token, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.SharedSubject(rr, withParam(newRequest(http.MethodGet, "/", nil), "token", "unknown"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token, got %d", rr.Code)
	}
}

// ─── Planner ───

type stubPlannerService struct {
	month     string
	completed uuid.UUID
	next      *models.Reminder
}

func (s *stubPlannerService) CreateReminder(ctx context.Context, userID uuid.UUID, req models.CreateReminderRequest) (*models.Reminder, error) {
	return &models.Reminder{ID: uuid.New(), UserID: userID, Title: req.Title, Repeat: req.Repeat}, nil
}

func (s *stubPlannerService) ListReminders(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error) {
	return []models.Reminder{}, nil
}

func (s *stubPlannerService) CompleteReminder(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error) {
	s.completed = reminderID
	return s.next, nil
}

func (s *stubPlannerService) DeleteReminder(ctx context.Context, userID, reminderID uuid.UUID) error {
	return nil
}

func (s *stubPlannerService) CreateEvent(ctx context.Context, userID uuid.UUID, req models.CreateEventRequest) (*models.StudyEvent, error) {
	return &models.StudyEvent{ID: uuid.New(), UserID: userID, Title: req.Title}, nil
}

func (s *stubPlannerService) DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	return nil
}

func (s *stubPlannerService) ListEvents(ctx context.Context, userID uuid.UUID, month string) ([]models.StudyEvent, error) {
	s.month = month
	return []models.StudyEvent{}, nil
}

func TestPlannerHandler_CompleteReminder(t *testing.T) {
	nextID := uuid.New()
	svc := &stubPlannerService{next: &models.Reminder{ID: nextID, Repeat: models.RepeatDaily}}
	h := &PlannerHandler{planner: svc}
	reminderID := uuid.New()

	rr := httptest.NewRecorder()
	h.CompleteReminder(rr, withParam(withUser(newRequest(http.MethodPost, "/", nil), uuid.New()), "id", reminderID.String()))
	if rr.Code != http.StatusOK || svc.completed != reminderID {
		t.Fatalf("expected completion of %s, got %d", reminderID, rr.Code)
	}

	var resp struct {
		Next *models.Reminder `json:"next_reminder"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Next == nil || resp.Next.ID != nextID {
		t.Fatalf("expected next occurrence in response, got %+v", resp.Next)
	}
}

func TestPlannerHandler_ListEventsPassesMonth(t *testing.T) {
	svc := &stubPlannerService{}
	h := &PlannerHandler{planner: svc}

	rr := httptest.NewRecorder()
	h.ListEvents(rr, withUser(newRequest(http.MethodGet, "/api/v1/events?month=2026-04", nil), uuid.New()))
	if rr.Code != http.StatusOK || svc.month != "2026-04" {
		t.Fatalf("expected month 2026-04 to be forwarded, got %d %q", rr.Code, svc.month)
	}
}

// ─── Transfer ───

type stubTransferService struct {
	imported *models.ExportDocument
}

func (s *stubTransferService) Export(ctx context.Context, userID uuid.UUID) (*models.ExportDocument, error) {
	return &models.ExportDocument{User: models.ExportUser{Username: "ana"}, Subjects: []models.ExportSubject{}, Reminders: []models.ExportReminder{}}, nil
}

func (s *stubTransferService) Import(ctx context.Context, userID uuid.UUID, doc *models.ExportDocument) (*models.ImportResult, error) {
	s.imported = doc
	return &models.ImportResult{Subjects: len(doc.Subjects), PointsEarned: 50}, nil
}

func TestTransferHandler_Export(t *testing.T) {
	h := &TransferHandler{transfer: &stubTransferService{}}

	rr := httptest.NewRecorder()
	h.Export(rr, withUser(newRequest(http.MethodGet, "/api/v1/export", nil), uuid.New()))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("expected attachment disposition, got %q", rr.Header().Get("Content-Disposition"))
	}
}

func TestTransferHandler_Import(t *testing.T) {
	svc := &stubTransferService{}
	h := &TransferHandler{transfer: svc}

	rr := httptest.NewRecorder()
	doc := models.ExportDocument{Subjects: []models.ExportSubject{{Name: "Math"}}}
	h.Import(rr, withUser(newRequest(http.MethodPost, "/api/v1/import", doc), uuid.New()))
	if rr.Code != http.StatusCreated || svc.imported == nil || svc.imported.Subjects[0].Name != "Math" {
		t.Fatalf("expected import to reach the service, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Import(rr, withUser(newRequest(http.MethodPost, "/api/v1/import", "[1,2"), uuid.New()))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	huge := `{"subjects":[{"name":"` + strings.Repeat("x", maxImportBytes) + `"}]}`
	h.Import(rr, withUser(newRequest(http.MethodPost, "/api/v1/import", huge), uuid.New()))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized import, got %d", rr.Code)
	}
}

// ─── Content ───

type stubContentService struct {
	contentService
	notesTopic uuid.UUID
	notes      string
}

func (s *stubContentService) UpdateTopicNotes(ctx context.Context, userID, topicID uuid.UUID, notes string) (*models.Topic, error) {
	s.notesTopic = topicID
	s.notes = notes
	return &models.Topic{ID: topicID, Notes: notes}, nil
}

func (s *stubContentService) ShareSubject(ctx context.Context, userID, subjectID uuid.UUID) (string, error) {
	return "share-token", nil
}

func TestContentHandler_UpdateNotes(t *testing.T) {
	svc := &stubContentService{}
	h := &ContentHandler{content: svc}
	topicID := uuid.New()

	rr := httptest.NewRecorder()
	h.UpdateNotes(rr, withParam(withUser(newRequest(http.MethodPut, "/", models.UpdateNotesRequest{Notes: "# Mitosis"}), uuid.New()), "id", topicID.String()))
	if rr.Code != http.StatusOK || svc.notesTopic != topicID || svc.notes != "# Mitosis" {
		t.Fatalf("expected notes update for topic, got %d", rr.Code)
	}
}

func TestContentHandler_ShareSubject(t *testing.T) {
	h := &ContentHandler{content: &stubContentService{}}

	rr := httptest.NewRecorder()
	h.ShareSubject(rr, withParam(withUser(newRequest(http.MethodPost, "/", nil), uuid.New()), "id", uuid.NewString()))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["share_token"] != "share-token" || resp["share_path"] != "/api/v1/shared/share-token" {
		t.Fatalf("unexpected share response %v", resp)
	}
}
