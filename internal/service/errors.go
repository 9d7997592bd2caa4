package service

import (
	"errors"

	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// conflictKind возвращает метку вида конфликта для метрик
func conflictKind(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, apperrors.ErrDuplicateAttempt):
		return "duplicate_attempt"
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, apperrors.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, apperrors.ErrRoomMismatch):
		return "room_mismatch"
	case errors.Is(err, apperrors.ErrIllegalTransition):
		return "illegal_transition"
	default:
		return "other"
	}
}
