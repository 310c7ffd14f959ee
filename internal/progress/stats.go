package progress

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

// Revision tip bands.
const (
	TipStartStudying    = "Start studying this chapter today!"
	TipJustStudied      = "You just studied this! Review in a couple days."
	TipQuickReview      = "Time for a quick review to reinforce learning."
	TipThoroughRevision = "Good time for a thorough revision session."
	TipUrgent           = "Urgent! This chapter needs your attention."
)

// Aggregator builds read-only rollups from a StatsSource.
type Aggregator struct {
	src StatsSource
}

func NewAggregator(src StatsSource) *Aggregator {
	return &Aggregator{src: src}
}

func (a *Aggregator) SubjectStats(ctx context.Context, userID uuid.UUID) (models.SubjectStats, error) {
	trees, err := a.src.ListSubjectTrees(ctx, userID)
	if err != nil {
		return models.SubjectStats{}, fmt.Errorf("failed to load subjects: %w", err)
	}
	return BuildSubjectStats(trees), nil
}

// BuildSubjectStats summarizes each subject and the totals across them. The
// total progress is the plain mean of subject percentages, not weighted by
// topic count.
func BuildSubjectStats(trees []models.SubjectTree) models.SubjectStats {
	stats := models.SubjectStats{Subjects: make([]models.SubjectSummary, 0, len(trees))}

	progressSum := 0
	for _, tree := range trees {
		summary := models.SubjectSummary{
			ID:    tree.Subject.ID,
			Name:  tree.Subject.Name,
			Color: tree.Subject.Color,
		}
		for _, ch := range tree.Chapters {
			for _, t := range ch.Topics {
				summary.TotalTopics++
				if t.Status == models.TopicCompleted {
					summary.CompletedTopics++
				}
			}
		}
		for _, s := range tree.Sessions {
			summary.StudyMinutes += s.DurationMinutes
		}
		summary.Progress = percent(summary.CompletedTopics, summary.TotalTopics)

		stats.Totals.TotalTopics += summary.TotalTopics
		stats.Totals.CompletedTopics += summary.CompletedTopics
		stats.Totals.TotalStudyMinutes += summary.StudyMinutes
		progressSum += summary.Progress
		stats.Subjects = append(stats.Subjects, summary)
	}

	if len(trees) > 0 {
		stats.Totals.AverageProgress = int(math.Round(float64(progressSum) / float64(len(trees))))
	}
	return stats
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// RevisionTip maps the days since a chapter was last studied to an urgency band.
func RevisionTip(chapter models.Chapter, now time.Time) string {
	if chapter.LastStudied == nil {
		return TipStartStudying
	}
	days := int(now.Sub(*chapter.LastStudied).Hours() / 24)
	switch {
	case days < 3:
		return TipJustStudied
	case days < 7:
		return TipQuickReview
	case days < 14:
		return TipThoroughRevision
	default:
		return TipUrgent
	}
}

// DailyStudyTime buckets session minutes by UTC start date over the given
// number of days ending today, oldest first. Days without sessions report 0.
func DailyStudyTime(sessions []models.StudySession, now time.Time, days int) []models.DailyStudyTime {
	if days <= 0 {
		return []models.DailyStudyTime{}
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(days - 1))

	byDay := make(map[string]int, days)
	for _, s := range sessions {
		start := s.StartTime.UTC()
		if start.Before(first) || start.After(now) {
			continue
		}
		byDay[start.Format(time.DateOnly)] += s.DurationMinutes
	}

	out := make([]models.DailyStudyTime, 0, days)
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		out = append(out, models.DailyStudyTime{Date: key, Minutes: byDay[key]})
	}
	return out
}

// SubjectStudyTime maps subject names to total minutes studied.
func SubjectStudyTime(trees []models.SubjectTree) map[string]int {
	out := make(map[string]int, len(trees))
	for _, tree := range trees {
		total := 0
		for _, s := range tree.Sessions {
			total += s.DurationMinutes
		}
		out[tree.Subject.Name] += total
	}
	return out
}

// CompletionRate is the share of completed topics as a percentage, rounded to
// one decimal place.
func CompletionRate(totals models.StatsTotals) float64 {
	if totals.TotalTopics == 0 {
		return 0
	}
	rate := float64(totals.CompletedTopics) / float64(totals.TotalTopics) * 100
	return math.Round(rate*10) / 10
}

// MasteryBreakdown buckets flashcards: beginner 0-1, intermediate 2-3,
// advanced 4, master 5.
func MasteryBreakdown(cards []models.Flashcard) models.MasteryDistribution {
	var dist models.MasteryDistribution
	for _, c := range cards {
		switch level := ClampMastery(c.MasteryLevel); {
		case level <= 1:
			dist.Beginner++
		case level <= 3:
			dist.Intermediate++
		case level == 4:
			dist.Advanced++
		default:
			dist.Master++
		}
	}
	return dist
}
