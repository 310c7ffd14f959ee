package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

func topics(statuses ...string) []models.Topic {
	out := make([]models.Topic, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, models.Topic{ID: uuid.New(), Status: s})
	}
	return out
}

func TestBuildSubjectStats_UnweightedAverage(t *testing.T) {
	trees := []models.SubjectTree{
		{
			Subject: models.Subject{Name: "Math"},
			Chapters: []models.ChapterTree{
				{Topics: topics(models.TopicCompleted, models.TopicInProgress)},
				{Topics: topics(models.TopicNotStarted, models.TopicNotStarted)},
			},
			Sessions: []models.StudySession{{DurationMinutes: 30}, {DurationMinutes: 15}},
		},
		{
			Subject:  models.Subject{Name: "History"},
			Chapters: []models.ChapterTree{{Topics: topics(models.TopicCompleted)}},
		},
	}

	stats := BuildSubjectStats(trees)
	if len(stats.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(stats.Subjects))
	}
	if stats.Subjects[0].Progress != 25 || stats.Subjects[1].Progress != 100 {
		t.Fatalf("unexpected progress: %+v", stats.Subjects)
	}
	if stats.Subjects[0].StudyMinutes != 45 {
		t.Fatalf("expected 45 study minutes, got %d", stats.Subjects[0].StudyMinutes)
	}
	want := models.StatsTotals{TotalTopics: 5, CompletedTopics: 2, TotalStudyMinutes: 45, AverageProgress: 63}
	if stats.Totals != want {
		t.Fatalf("totals = %+v, want %+v", stats.Totals, want)
	}
}

func TestBuildSubjectStats_EmptySubject(t *testing.T) {
	stats := BuildSubjectStats([]models.SubjectTree{{Subject: models.Subject{Name: "Empty"}}})
	if stats.Subjects[0].Progress != 0 || stats.Totals.AverageProgress != 0 {
		t.Fatalf("expected zero progress, got %+v", stats)
	}

	none := BuildSubjectStats(nil)
	if none.Subjects == nil || len(none.Subjects) != 0 {
		t.Fatalf("expected empty non-nil subjects")
	}
}

func TestAggregator_SubjectStats(t *testing.T) {
	store := newMemStore()
	store.trees = []models.SubjectTree{{Chapters: []models.ChapterTree{{Topics: topics(models.TopicCompleted)}}}}

	stats, err := NewAggregator(store).SubjectStats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SubjectStats: %v", err)
	}
	if stats.Totals.CompletedTopics != 1 {
		t.Fatalf("unexpected totals %+v", stats.Totals)
	}
}

func TestRevisionTip(t *testing.T) {
	tests := []struct {
		name string
		ago  *time.Duration
		want string
	}{
		{name: "never studied", ago: nil, want: TipStartStudying},
		{name: "today", ago: ptr(2 * time.Hour), want: TipJustStudied},
		{name: "two days", ago: ptr(2*24*time.Hour + time.Hour), want: TipJustStudied},
		{name: "three days", ago: ptr(3 * 24 * time.Hour), want: TipQuickReview},
		{name: "a week", ago: ptr(7 * 24 * time.Hour), want: TipThoroughRevision},
		{name: "two weeks", ago: ptr(14 * 24 * time.Hour), want: TipUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ch models.Chapter
			if tt.ago != nil {
				ch.LastStudied = ptr(testNow.Add(-*tt.ago))
			}
			if got := RevisionTip(ch, testNow); got != tt.want {
				t.Fatalf("RevisionTip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDailyStudyTime(t *testing.T) {
	sessions := []models.StudySession{
		{StartTime: testNow.Add(-time.Hour), DurationMinutes: 20},
		{StartTime: testNow.Add(-2 * time.Hour), DurationMinutes: 10},
		{StartTime: testNow.AddDate(0, 0, -29), DurationMinutes: 5},
		{StartTime: testNow.AddDate(0, 0, -30), DurationMinutes: 99},
	}

	series := DailyStudyTime(sessions, testNow, 30)
	if len(series) != 30 {
		t.Fatalf("expected 30 days, got %d", len(series))
	}
	if series[29].Date != "2026-03-10" || series[29].Minutes != 30 {
		t.Fatalf("unexpected last day %+v", series[29])
	}
	if series[0].Date != "2026-02-09" || series[0].Minutes != 5 {
		t.Fatalf("unexpected first day %+v", series[0])
	}
	total := 0
	for _, d := range series {
		total += d.Minutes
	}
	if total != 35 {
		t.Fatalf("expected 35 minutes in window, got %d", total)
	}
}

func TestSubjectStudyTimeAndCompletionRate(t *testing.T) {
	trees := []models.SubjectTree{
		{Subject: models.Subject{Name: "Math"}, Sessions: []models.StudySession{{DurationMinutes: 40}}},
		{Subject: models.Subject{Name: "Art"}},
	}
	byName := SubjectStudyTime(trees)
	if byName["Math"] != 40 || byName["Art"] != 0 {
		t.Fatalf("unexpected study time %v", byName)
	}

	if got := CompletionRate(models.StatsTotals{TotalTopics: 3, CompletedTopics: 1}); got != 33.3 {
		t.Fatalf("CompletionRate = %v, want 33.3", got)
	}
	if got := CompletionRate(models.StatsTotals{}); got != 0 {
		t.Fatalf("expected 0 for no topics, got %v", got)
	}
}

func TestMasteryBreakdown(t *testing.T) {
	var cards []models.Flashcard
	for _, level := range []int{0, 1, 2, 3, 4, 5, 5} {
		cards = append(cards, models.Flashcard{MasteryLevel: level})
	}
	got := MasteryBreakdown(cards)
	want := models.MasteryDistribution{Beginner: 2, Intermediate: 2, Advanced: 1, Master: 2}
	if got != want {
		t.Fatalf("MasteryBreakdown = %+v, want %+v", got, want)
	}
}

func TestPointsHelpers(t *testing.T) {
	for minutes, want := range map[int]int{0: 0, 9: 0, 10: 10, 37: 30, 50: 50, 240: 50, -4: 0} {
		if got := SessionPoints(minutes); got != want {
			t.Fatalf("SessionPoints(%d) = %d, want %d", minutes, got, want)
		}
	}
	start := testNow
	if got := SessionDuration(start, start.Add(59*time.Second)); got != 0 {
		t.Fatalf("expected 0 minutes, got %d", got)
	}
	if got := SessionDuration(start, start.Add(-time.Minute)); got != 0 {
		t.Fatalf("expected negative durations to clamp, got %d", got)
	}
	if got := SessionDuration(start, start.Add(125*time.Second)); got != 2 {
		t.Fatalf("expected 2 minutes, got %d", got)
	}
	if ClampProgress(-5) != 0 || ClampProgress(150) != 100 || ClampProgress(40) != 40 {
		t.Fatalf("ClampProgress out of bounds")
	}
	if !ValidTopicStatus(models.TopicCompleted) || ValidTopicStatus("done") {
		t.Fatalf("ValidTopicStatus mismatch")
	}
}
