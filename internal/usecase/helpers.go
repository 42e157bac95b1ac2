package usecase

import (
	"review-catalog/internal/policy"
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/metrics"
	"review-catalog/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// validate runs struct validation and returns a field validation error.
func validate(log *zap.Logger, operation string, req any) error {
	errs := utils.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	log.Warn(operation+" validation failed", zap.Any("errors", errs))
	return apperror.NewFieldValidationError("Validation failed", errs)
}

// authorize evaluates the permission engine and counts denials.
func authorize(log *zap.Logger, actor *policy.Actor, action policy.Action, res policy.Resource) error {
	err := policy.Check(actor, action, res)
	if err == nil {
		return nil
	}

	metrics.PermissionDenialsTotal.WithLabelValues(string(res.Kind), string(action)).Inc()

	fields := []zap.Field{
		zap.String("resource", string(res.Kind)),
		zap.String("action", string(action)),
	}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID.String()), zap.String("role", string(actor.Role)))
	}
	log.Warn("Permission denied", fields...)
	return err
}

// parseID treats a malformed path id like a missing object.
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.NewNotFoundError(what+" not found", err)
	}
	return id, nil
}
