package wire

import (
	"review-catalog/internal/adaptor"
	"review-catalog/internal/data/repository"
	"review-catalog/pkg/middleware"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth(log))

		// Self profile, registered before {username} so "me" never reaches it
		r.Get("/me", userHandler.GetMe)
		r.Patch("/me", userHandler.UpdateMe)

		// Admin only, enforced by the user service
		r.Get("/", userHandler.ListUsers)
		r.Post("/", userHandler.CreateUser)
		r.Get("/{username}", userHandler.GetUser)
		r.Patch("/{username}", userHandler.UpdateUser)
		r.Delete("/{username}", userHandler.DeleteUser)
	})
}
