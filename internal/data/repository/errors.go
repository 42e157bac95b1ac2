package repository

import (
	"errors"

	"review-catalog/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

var constraintMessages = map[string]string{
	"users_username_key":            "username already taken",
	"users_email_key":               "email already registered",
	"users_role_check":              "invalid role",
	"users_username_reserved_check": `username "me" is reserved`,
	"categories_slug_key":           "category with this slug already exists",
	"genres_slug_key":               "genre with this slug already exists",
	"title_genres_pkey":             "genre listed twice",
	"reviews_title_author_key":      "you have already reviewed this title",
	"reviews_score_check":           "score must be between 1 and 10",
}

// translate turns constraint violations into client-facing errors and
// returns every other error unchanged.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	msg, ok := constraintMessages[pgErr.ConstraintName]
	if !ok {
		msg = pgErr.Message
	}

	switch pgErr.Code {
	case uniqueViolation:
		return apperror.NewConflictError(msg, err)
	case foreignKeyViolation:
		return apperror.NewValidationError("referenced record does not exist", err)
	case checkViolation:
		return apperror.NewValidationError(msg, err)
	default:
		return err
	}
}
