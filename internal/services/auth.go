package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/middleware"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
)

const (
	bcryptCost      = 12
	refreshTokenTTL = 7 * 24 * time.Hour
	welcomeMessage  = "Welcome to Study Planner!"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,80}$`)

type AuthService struct {
	store  *repository.Store
	engine *progress.Engine
	redis  *redis.Client
	jwt    *middleware.JWTAuth
	log    *logger.Logger
}

func NewAuthService(store *repository.Store, engine *progress.Engine, redisClient *redis.Client, jwt *middleware.JWTAuth, log *logger.Logger) *AuthService {
	return &AuthService{
		store:  store,
		engine: engine,
		redis:  redisClient,
		jwt:    jwt,
		log:    log.With("service", "auth"),
	}
}

func validateRegistration(req models.RegisterRequest) error {
	fieldErrors := make(map[string]string)

	if !usernameRegex.MatchString(req.Username) {
		fieldErrors["username"] = "Username must be 3-80 letters, digits, dots, dashes or underscores"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}

// Register creates the account at level 1 with no points and grants the
// welcome badge in the same transaction.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.AuthTokens, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateRegistration(req); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Level:        progress.LevelForPoints(0),
	}

	err = s.store.InTx(ctx, func(q *repository.Queries) error {
		if err := q.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return &ConflictError{Message: "Username already taken"}
			}
			return err
		}
		_, err := s.engine.GrantBadge(ctx, q, user, progress.BadgeWelcome, welcomeMessage)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("user registered", "user_id", user.ID.String(), "username", user.Username)

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &UnauthorizedError{Message: "Invalid username or password"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid username or password"}
	}

	return s.issueTokens(ctx, user)
}

func refreshKey(token string) string {
	return "refresh:" + token
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	userIDStr, err := s.redis.Get(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	// rotation: the old token is single use
	s.redis.Del(ctx, refreshKey(refreshToken))

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &UnauthorizedError{Message: "Account no longer exists"}
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, refreshKey(refreshToken)).Err()
}

// DeleteAccount removes the user and every entity they own after checking
// the password.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return notFound(err, "User")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return &UnauthorizedError{Message: "Password is incorrect"}
	}

	err = s.store.InTx(ctx, func(q *repository.Queries) error {
		return q.DeleteUserCascade(ctx, userID)
	})
	if err != nil {
		return notFound(err, "User")
	}

	s.log.Info("user deleted", "user_id", userID.String())
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	err = s.redis.Set(ctx, refreshKey(refreshToken), user.ID.String(), refreshTokenTTL).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
