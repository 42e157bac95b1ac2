package adaptor

import (
	"encoding/json"
	"net/http"

	"review-catalog/internal/dto/request"
	"review-catalog/internal/usecase"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// ListReviews handles GET /api/v1/titles/{titleID}/reviews (public)
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context(), chi.URLParam(r, "titleID"), request.PaginationFromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, h.log, err, "list reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetReview handles GET /api/v1/titles/{titleID}/reviews/{reviewID} (public)
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.GetReview(r.Context(), chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"))
	if err != nil {
		respondError(w, h.log, err, "get review")
		return
	}

	utils.ResponseSuccess(w, "success", review)
}

// GetReviewStats handles GET /api/v1/titles/{titleID}/reviews/stats (public)
func (h *ReviewHandler) GetReviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetReviewStats(r.Context(), chi.URLParam(r, "titleID"))
	if err != nil {
		respondError(w, h.log, err, "get review stats")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}

// CreateReview handles POST /api/v1/titles/{titleID}/reviews (authenticated)
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req request.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	review, err := h.service.CreateReview(r.Context(), actorFrom(r), chi.URLParam(r, "titleID"), &req)
	if err != nil {
		respondError(w, h.log, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Review created", review)
}

// UpdateReview handles PATCH /api/v1/titles/{titleID}/reviews/{reviewID} (author or moderator)
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), actorFrom(r),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), &req)
	if err != nil {
		respondError(w, h.log, err, "update review")
		return
	}

	utils.ResponseSuccess(w, "Review updated", review)
}

// DeleteReview handles DELETE /api/v1/titles/{titleID}/reviews/{reviewID} (author or moderator)
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteReview(r.Context(), actorFrom(r), chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"))
	if err != nil {
		respondError(w, h.log, err, "delete review")
		return
	}

	utils.ResponseNoContent(w)
}
