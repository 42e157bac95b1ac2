package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	RoleKey      contextKey = "role"
	SuperuserKey contextKey = "is_superuser"
)

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	roleVal := ctx.Value(RoleKey)
	if roleVal == nil {
		return "", false
	}

	role, ok := roleVal.(string)
	return role, ok
}

func IsSuperuserFromContext(ctx context.Context) bool {
	superuser, _ := ctx.Value(SuperuserKey).(bool)
	return superuser
}

// SetUserContext stores the authenticated user's identity for downstream handlers.
func SetUserContext(ctx context.Context, userID uuid.UUID, role string, superuser bool) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, RoleKey, role)
	ctx = context.WithValue(ctx, SuperuserKey, superuser)
	return ctx
}
