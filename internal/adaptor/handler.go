package adaptor

import (
	"net/http"

	"review-catalog/internal/data/entity"
	"review-catalog/internal/policy"
	"review-catalog/internal/usecase"
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Category *CategoryHandler
	Genre    *GenreHandler
	Title    *TitleHandler
	Review   *ReviewHandler
	Comment  *CommentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		User:     NewUserHandler(service.User, log),
		Category: NewCategoryHandler(service.Category, log),
		Genre:    NewGenreHandler(service.Genre, log),
		Title:    NewTitleHandler(service.Title, log),
		Review:   NewReviewHandler(service.Review, log),
		Comment:  NewCommentHandler(service.Comment, log),
	}
}

// actorFrom returns nil for anonymous requests.
func actorFrom(r *http.Request) *policy.Actor {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil
	}
	role, _ := utils.GetRoleFromContext(ctx)

	return &policy.Actor{
		ID:          userID,
		Role:        entity.UserRole(role),
		IsSuperuser: utils.IsSuperuserFromContext(ctx),
	}
}

// respondError maps service errors onto status codes. Client errors are
// logged at warn, everything else at error.
func respondError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	appErr, ok := apperror.As(err)
	if !ok {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	if appErr.Type == apperror.InternalError {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	log.Warn(operation+" failed",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("type", appErr.Type.String()),
	)

	switch appErr.Type {
	case apperror.ValidationError:
		var fields any
		if len(appErr.Fields) > 0 {
			fields = appErr.Fields
		}
		utils.ResponseBadRequest(w, appErr.Message, fields)
	case apperror.AuthenticationError:
		utils.ResponseUnauthorized(w, appErr.Message)
	case apperror.PermissionError:
		utils.ResponseForbidden(w, appErr.Message)
	case apperror.NotFoundError:
		utils.ResponseNotFound(w, appErr.Message)
	case apperror.ConflictError:
		utils.ResponseConflict(w, appErr.Message)
	}
}
