package wire

import (
	"review-catalog/internal/adaptor"
	"review-catalog/internal/data/repository"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCatalog(
	r chi.Router,
	categoryHandler *adaptor.CategoryHandler,
	genreHandler *adaptor.GenreHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/categories", categoryHandler.ListCategories)
	r.Get("/genres", genreHandler.ListGenres)

	// ==================== ADMIN ROUTES ====================
	// Anonymous callers get 401 from the service, so no RequireAuth here
	r.Post("/categories", categoryHandler.CreateCategory)
	r.Delete("/categories/{slug}", categoryHandler.DeleteCategory)

	r.Post("/genres", genreHandler.CreateGenre)
	r.Delete("/genres/{slug}", genreHandler.DeleteGenre)
}
