package progress

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

func TestIntervalDays(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{-1, 1},
		{0, 1},
		{1, 3},
		{2, 7},
		{3, 14},
		{4, 30},
		{5, 60},
		{6, 90},
		{42, 90},
	}
	for _, tt := range tests {
		if got := IntervalDays(tt.level); got != tt.want {
			t.Fatalf("IntervalDays(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestApplyReview(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		level    int
		correct  bool
		want     int
		wantDays int
	}{
		{name: "new card correct", level: 0, correct: true, want: 1, wantDays: 3},
		{name: "new card incorrect stays at zero", level: 0, correct: false, want: 0, wantDays: 1},
		{name: "mastered correct stays at five", level: 5, correct: true, want: 5, wantDays: 60},
		{name: "drops one level", level: 3, correct: false, want: 2, wantDays: 7},
		{name: "corrupt high level is clamped first", level: 9, correct: false, want: 4, wantDays: 30},
		{name: "corrupt negative level", level: -3, correct: true, want: 1, wantDays: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &models.Flashcard{MasteryLevel: tt.level, ReviewCount: 2}
			if got := ApplyReview(card, tt.correct, now); got != tt.want {
				t.Fatalf("level = %d, want %d", got, tt.want)
			}
			if card.ReviewCount != 3 {
				t.Fatalf("expected review count 3, got %d", card.ReviewCount)
			}
			want := now.Add(time.Duration(tt.wantDays) * 24 * time.Hour)
			if card.NextReview == nil || !card.NextReview.Equal(want) {
				t.Fatalf("next review = %v, want %v", card.NextReview, want)
			}
		})
	}
}

func TestApplyReview_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	card := &models.Flashcard{}
	for i := 0; i < 500; i++ {
		level := ApplyReview(card, rng.Intn(3) > 0, testNow)
		if level < MinMastery || level > MaxMastery {
			t.Fatalf("mastery %d out of range after %d reviews", level, i+1)
		}
	}
}

func TestReviewFlashcard_Persists(t *testing.T) {
	store := newMemStore()
	card := models.Flashcard{ID: uuid.New(), MasteryLevel: 2}
	store.flashcards[card.ID] = card

	level, err := newTestEngine().ReviewFlashcard(context.Background(), store, &card, true, testNow)
	if err != nil {
		t.Fatalf("ReviewFlashcard: %v", err)
	}
	if level != 3 || store.flashcards[card.ID].MasteryLevel != 3 {
		t.Fatalf("expected persisted level 3, got %d", store.flashcards[card.ID].MasteryLevel)
	}
}

func TestDueFlashcards(t *testing.T) {
	store := newMemStore()
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	dueID := uuid.New()
	exactID := uuid.New()
	store.flashcards[dueID] = models.Flashcard{ID: dueID, NextReview: &past}
	store.flashcards[exactID] = models.Flashcard{ID: exactID, NextReview: ptr(testNow)}
	notYet := uuid.New()
	store.flashcards[notYet] = models.Flashcard{ID: notYet, NextReview: &future}
	never := uuid.New()
	store.flashcards[never] = models.Flashcard{ID: never}

	due, err := newTestEngine().DueFlashcards(context.Background(), store, uuid.New(), testNow)
	if err != nil {
		t.Fatalf("DueFlashcards: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due cards, got %d", len(due))
	}
	for _, c := range due {
		if c.ID != dueID && c.ID != exactID {
			t.Fatalf("unexpected due card %v", c.ID)
		}
	}
}
