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

type CommentHandler struct {
	service usecase.CommentService
	log     *zap.Logger
}

func NewCommentHandler(service usecase.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		log:     log.With(zap.String("handler", "comment")),
	}
}

func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), request.PaginationFromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, h.log, err, "list comments")
		return
	}

	utils.ResponseSuccess(w, "success", comments)
}

func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.GetComment(r.Context(),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), chi.URLParam(r, "commentID"))
	if err != nil {
		respondError(w, h.log, err, "get comment")
		return
	}

	utils.ResponseSuccess(w, "success", comment)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	comment, err := h.service.CreateComment(r.Context(), actorFrom(r),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), &req)
	if err != nil {
		respondError(w, h.log, err, "create comment")
		return
	}

	utils.ResponseCreated(w, "Comment created", comment)
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), actorFrom(r),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), chi.URLParam(r, "commentID"), &req)
	if err != nil {
		respondError(w, h.log, err, "update comment")
		return
	}

	utils.ResponseSuccess(w, "Comment updated", comment)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteComment(r.Context(), actorFrom(r),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), chi.URLParam(r, "commentID"))
	if err != nil {
		respondError(w, h.log, err, "delete comment")
		return
	}

	utils.ResponseNoContent(w)
}
