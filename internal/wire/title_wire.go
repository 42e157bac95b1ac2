package wire

import (
	"review-catalog/internal/adaptor"
	"review-catalog/internal/data/repository"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTitle(
	r chi.Router,
	titleHandler *adaptor.TitleHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/v1/titles?name=&year=&genre=&category=
	r.Get("/titles", titleHandler.ListTitles)
	r.Get("/titles/{titleID}", titleHandler.GetTitle)

	// ==================== ADMIN ROUTES ====================
	r.Post("/titles", titleHandler.CreateTitle)
	r.Patch("/titles/{titleID}", titleHandler.UpdateTitle)
	r.Delete("/titles/{titleID}", titleHandler.DeleteTitle)
}
