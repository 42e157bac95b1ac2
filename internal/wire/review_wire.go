package wire

import (
	"review-catalog/internal/adaptor"
	"review-catalog/internal/data/repository"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReview(
	r chi.Router,
	reviewHandler *adaptor.ReviewHandler,
	commentHandler *adaptor.CommentHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/titles/{titleID}/reviews", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", reviewHandler.ListReviews)
		r.Get("/stats", reviewHandler.GetReviewStats)
		r.Get("/{reviewID}", reviewHandler.GetReview)
		r.Get("/{reviewID}/comments", commentHandler.ListComments)
		r.Get("/{reviewID}/comments/{commentID}", commentHandler.GetComment)

		// ==================== AUTHENTICATED ROUTES ====================
		// Author or moderator checks happen in the services
		r.Post("/", reviewHandler.CreateReview)
		r.Patch("/{reviewID}", reviewHandler.UpdateReview)
		r.Delete("/{reviewID}", reviewHandler.DeleteReview)

		r.Post("/{reviewID}/comments", commentHandler.CreateComment)
		r.Patch("/{reviewID}/comments/{commentID}", commentHandler.UpdateComment)
		r.Delete("/{reviewID}/comments/{commentID}", commentHandler.DeleteComment)
	})
}
