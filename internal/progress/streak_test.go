package progress

import (
	"context"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestRecordStudyActivity(t *testing.T) {
	tests := []struct {
		name   string
		last   *time.Time
		streak int
		now    time.Time
		want   int
	}{
		{name: "first activity", last: nil, streak: 0, now: day(0), want: 1},
		{name: "next day increments", last: ptr(day(0)), streak: 3, now: day(1), want: 4},
		{name: "same day unchanged", last: ptr(day(0)), streak: 3, now: day(0).Add(5 * time.Hour), want: 3},
		{name: "gap resets", last: ptr(day(0)), streak: 9, now: day(2), want: 1},
		{name: "late night then early morning", last: ptr(time.Date(2026, 1, 1, 23, 50, 0, 0, time.UTC)), streak: 2, now: time.Date(2026, 1, 2, 0, 10, 0, 0, time.UTC), want: 3},
		{name: "clock skew unchanged", last: ptr(day(3)), streak: 4, now: day(2), want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			user := newTestUser()
			user.LastStudyDate = tt.last
			user.Streak = tt.streak

			got, err := newTestEngine().RecordStudyActivity(context.Background(), store, user, tt.now)
			if err != nil {
				t.Fatalf("RecordStudyActivity: %v", err)
			}
			if got != tt.want || user.Streak != tt.want {
				t.Fatalf("streak = %d (user %d), want %d", got, user.Streak, tt.want)
			}
			if user.LastStudyDate == nil || !user.LastStudyDate.Equal(tt.now) {
				t.Fatalf("expected last study date %v, got %v", tt.now, user.LastStudyDate)
			}
		})
	}
}

func TestRecordStudyActivity_WeekStreakGrantedOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := newTestEngine()
	user := newTestUser()

	for i := 0; i < 7; i++ {
		if _, err := engine.RecordStudyActivity(ctx, store, user, day(i)); err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
		// a second activity on the same day must not move anything
		if _, err := engine.RecordStudyActivity(ctx, store, user, day(i).Add(time.Hour)); err != nil {
			t.Fatalf("day %d repeat: %v", i, err)
		}
	}
	if user.Streak != 7 {
		t.Fatalf("expected streak 7, got %d", user.Streak)
	}
	if store.badgeCount(BadgeWeekStreak) != 1 {
		t.Fatalf("expected one week_streak badge, got %d", store.badgeCount(BadgeWeekStreak))
	}

	// break and rebuild to 7 again: the badge is not granted twice
	for i := 9; i < 16; i++ {
		if _, err := engine.RecordStudyActivity(ctx, store, user, day(i)); err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
	}
	if user.Streak != 7 || store.badgeCount(BadgeWeekStreak) != 1 {
		t.Fatalf("streak=%d week badges=%d", user.Streak, store.badgeCount(BadgeWeekStreak))
	}

	streakLogs := 0
	for _, a := range store.achievements {
		if a.Type == AchievementStreak {
			streakLogs++
		}
	}
	if streakLogs != 1 {
		t.Fatalf("expected one streak achievement, got %d", streakLogs)
	}
}

func TestRecordStudyActivity_MonthStreak(t *testing.T) {
	store := newMemStore()
	user := newTestUser()
	user.Streak = 29
	user.LastStudyDate = ptr(day(0))

	if _, err := newTestEngine().RecordStudyActivity(context.Background(), store, user, day(1)); err != nil {
		t.Fatalf("RecordStudyActivity: %v", err)
	}
	if store.badgeCount(BadgeMonthStreak) != 1 || store.badgeCount(BadgeWeekStreak) != 0 {
		t.Fatalf("unexpected badges: %+v", store.badges)
	}
}

func ptr[T any](v T) *T { return &v }
