package progress

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

func TestCheckAchievements(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		mastered  int
		minutes   int
		want      []string
	}{
		{name: "nothing yet", want: []string{}},
		{name: "first topic", completed: 1, want: []string{"First Topic Completed"}},
		{name: "second topic grants nothing", completed: 2, want: []string{}},
		{name: "hundred topics", completed: 100, want: []string{"Topics Master"}},
		{name: "fifty mastered cards", mastered: 50, want: []string{"Flashcard Master"}},
		{name: "just under hundred hours", minutes: 5999, want: []string{}},
		{name: "hundred hours", minutes: 6000, want: []string{"Study Warrior"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.completedTopics = tt.completed
			store.studyMinutes = tt.minutes
			for i := 0; i < tt.mastered; i++ {
				id := uuid.New()
				store.flashcards[id] = models.Flashcard{ID: id, MasteryLevel: MaxMastery}
			}

			got, err := newTestEngine().CheckAchievements(context.Background(), store, newTestUser())
			if err != nil {
				t.Fatalf("CheckAchievements: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("labels = %v, want %v", got, tt.want)
			}
			if len(store.achievements) != len(tt.want) {
				t.Fatalf("expected %d achievement entries, got %d", len(tt.want), len(store.achievements))
			}
		})
	}
}

func TestCheckAchievements_ReturnsOnlyNewLabels(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.completedTopics = 1
	engine := newTestEngine()
	user := newTestUser()

	first, err := engine.CheckAchievements(ctx, store, user)
	if err != nil || len(first) != 1 {
		t.Fatalf("first check = %v, %v", first, err)
	}
	second, err := engine.CheckAchievements(ctx, store, user)
	if err != nil || len(second) != 0 {
		t.Fatalf("second check = %v, %v", second, err)
	}
	if store.badgeCount(BadgeFirstTopic) != 1 {
		t.Fatalf("expected first_topic granted once")
	}
}

func TestCheckAchievements_IgnoresCardsBelowMastery(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 60; i++ {
		id := uuid.New()
		store.flashcards[id] = models.Flashcard{ID: id, MasteryLevel: 4}
	}
	got, err := newTestEngine().CheckAchievements(context.Background(), store, newTestUser())
	if err != nil || len(got) != 0 {
		t.Fatalf("labels = %v, %v", got, err)
	}
}
