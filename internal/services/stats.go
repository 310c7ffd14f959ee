package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
)

const (
	dashboardReminders = 5
	dashboardSessions  = 5
	statisticsDays     = 30
)

// StatsService serves the read-only rollups. Nothing here writes.
type StatsService struct {
	store           *repository.Store
	engine          *progress.Engine
	aggregator      *progress.Aggregator
	leaderboardSize int
	log             *logger.Logger
	now             func() time.Time
}

func NewStatsService(store *repository.Store, engine *progress.Engine, leaderboardSize int, log *logger.Logger) *StatsService {
	return &StatsService{
		store:           store,
		engine:          engine,
		aggregator:      progress.NewAggregator(store),
		leaderboardSize: leaderboardSize,
		log:             log.With("service", "stats"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *StatsService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

// Achievements builds the user's points, level, streak and badge overview.
func (s *StatsService) Achievements(ctx context.Context, userID uuid.UUID) (models.AchievementsOverview, error) {
	var overview models.AchievementsOverview

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return overview, notFound(err, "User")
	}
	badges, err := s.store.ListBadges(ctx, userID)
	if err != nil {
		return overview, fmt.Errorf("failed to list badges: %w", err)
	}
	counters, err := progress.LoadCounters(ctx, s.store, userID)
	if err != nil {
		return overview, err
	}

	return models.AchievementsOverview{
		Points:             user.Points,
		Level:              user.Level,
		Streak:             user.Streak,
		Badges:             badges,
		CompletedTopics:    counters.CompletedTopics,
		MasteredFlashcards: counters.MasteredFlashcards,
		TotalStudyHours:    roundTenth(counters.StudyHours()),
	}, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s *StatsService) ListAchievementLog(ctx context.Context, userID uuid.UUID, limit int) ([]models.Achievement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListAchievements(ctx, userID, limit)
}

func (s *StatsService) DueFlashcards(ctx context.Context, userID uuid.UUID) ([]models.Flashcard, error) {
	return s.engine.DueFlashcards(ctx, s.store, userID, s.now())
}

// Dashboard loads the home screen. The independent reads run concurrently.
func (s *StatsService) Dashboard(ctx context.Context, userID uuid.UUID) (*models.Dashboard, error) {
	now := s.now()
	dash := &models.Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dash.Stats, err = s.aggregator.SubjectStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		dash.Achievements, err = s.Achievements(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		dash.UpcomingReminders, err = s.store.ListUpcomingReminders(gctx, userID, now, dashboardReminders)
		return err
	})
	g.Go(func() error {
		var err error
		dash.DueFlashcards, err = s.engine.DueFlashcards(gctx, s.store, userID, now)
		return err
	})
	g.Go(func() error {
		var err error
		dash.RecentSessions, err = s.store.ListRecentSessions(gctx, userID, dashboardSessions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dash, nil
}

func (s *StatsService) Statistics(ctx context.Context, userID uuid.UUID) (*models.Statistics, error) {
	now := s.now()
	since := now.AddDate(0, 0, -statisticsDays)

	var (
		trees    []models.SubjectTree
		sessions []models.StudySession
		cards    []models.Flashcard
		overview models.AchievementsOverview
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trees, err = s.store.ListSubjectTrees(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = s.store.ListSessionsSince(gctx, userID, since)
		return err
	})
	g.Go(func() error {
		var err error
		cards, err = s.store.ListUserFlashcards(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		overview, err = s.Achievements(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := progress.BuildSubjectStats(trees)
	return &models.Statistics{
		Stats:            stats,
		Achievements:     overview,
		DailyStudyTime:   progress.DailyStudyTime(sessions, now, statisticsDays),
		SubjectStudyTime: progress.SubjectStudyTime(trees),
		CompletionRate:   progress.CompletionRate(stats.Totals),
		FlashcardMastery: progress.MasteryBreakdown(cards),
	}, nil
}

func (s *StatsService) SubjectDetail(ctx context.Context, userID, subjectID uuid.UUID) (*models.SubjectDetail, error) {
	now := s.now()

	tree, err := s.store.GetSubjectTree(ctx, subjectID)
	if err != nil {
		return nil, notFound(err, "Subject")
	}
	if tree.Subject.UserID != userID {
		return nil, &ForbiddenError{Message: "You do not have access to this subject"}
	}

	questions, err := s.store.ListQuestionsBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	due, err := s.engine.DueFlashcards(ctx, s.store, userID, now)
	if err != nil {
		return nil, err
	}

	return &models.SubjectDetail{
		Subject:        tree.Subject,
		Chapters:       buildChapterDetails(tree.Chapters, questions, now),
		RunningSession: runningSession(tree.Sessions, userID),
		DueFlashcards:  due,
	}, nil
}

func buildChapterDetails(chapters []models.ChapterTree, questions []models.Question, now time.Time) []models.ChapterDetail {
	byChapter := map[uuid.UUID][]models.Question{}
	for _, q := range questions {
		byChapter[q.ChapterID] = append(byChapter[q.ChapterID], q)
	}

	out := make([]models.ChapterDetail, 0, len(chapters))
	for _, ch := range chapters {
		qs := byChapter[ch.Chapter.ID]
		if qs == nil {
			qs = []models.Question{}
		}
		out = append(out, models.ChapterDetail{
			Chapter:     ch.Chapter,
			Topics:      ch.Topics,
			Questions:   qs,
			RevisionTip: progress.RevisionTip(ch.Chapter, now),
		})
	}
	return out
}

func runningSession(sessions []models.StudySession, userID uuid.UUID) *models.StudySession {
	for i := range sessions {
		if sessions[i].UserID == userID && sessions[i].Running() {
			return &sessions[i]
		}
	}
	return nil
}

func (s *StatsService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return s.store.ListLeaderboard(ctx, s.leaderboardSize)
}

// SharedSubject is the public view behind a share token.
func (s *StatsService) SharedSubject(ctx context.Context, token string) (*models.SharedSubject, error) {
	subject, err := s.store.GetSubjectByShareToken(ctx, token)
	if err != nil {
		return nil, notFound(err, "Shared subject")
	}
	stats, err := s.aggregator.SubjectStats(ctx, subject.UserID)
	if err != nil {
		return nil, err
	}
	subject.ShareToken = nil
	return &models.SharedSubject{Subject: *subject, Stats: stats}, nil
}
