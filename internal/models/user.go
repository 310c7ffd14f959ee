package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Points        int        `json:"points"`
	Level         int        `json:"level"`
	Streak        int        `json:"streak"`
	LastStudyDate *time.Time `json:"last_study_date"`
	CreatedAt     time.Time  `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LeaderboardEntry is the public projection of a user on the leaderboard.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
	Streak   int    `json:"streak"`
}
