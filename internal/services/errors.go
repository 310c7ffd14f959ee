package services

import (
	"errors"

	"github.com/google/uuid"

	"studyplanner-backend/internal/repository"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// notFound converts repository.ErrNotFound into a NotFoundError for what.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: what + " not found"}
	}
	return err
}

// requireOwner checks a resolved ownership chain against the acting user.
func requireOwner(o repository.Ownership, err error, userID uuid.UUID, what string) error {
	if err != nil {
		return notFound(err, what)
	}
	if o.UserID != userID {
		return &ForbiddenError{Message: "You do not have access to this " + what}
	}
	return nil
}
