package wire

import (
	"review-catalog/internal/adaptor"
	"review-catalog/internal/data/repository"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/v1/auth/signup - register or re-send the confirmation code
	r.Post("/auth/signup", authHandler.Signup)

	// POST /api/v1/auth/token - exchange username + confirmation code for a JWT
	r.Post("/auth/token", authHandler.Token)
}
