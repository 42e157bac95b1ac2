package adaptor

import (
	"encoding/json"
	"net/http"
	"strings"

	"review-catalog/internal/dto/request"
	"review-catalog/internal/usecase"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TitleHandler struct {
	service usecase.TitleService
	log     *zap.Logger
}

func NewTitleHandler(service usecase.TitleService, log *zap.Logger) *TitleHandler {
	return &TitleHandler{
		service: service,
		log:     log.With(zap.String("handler", "title")),
	}
}

// ListTitles handles GET /api/v1/titles?name=&year=&genre=&category=
func (h *TitleHandler) ListTitles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	year, err := utils.ParseOptionalInt(query.Get("year"))
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"year": "Must be a whole number"})
		return
	}

	filter := request.TitleFilterRequest{
		Name:     strings.TrimSpace(query.Get("name")),
		Year:     year,
		Genre:    query.Get("genre"),
		Category: query.Get("category"),
	}

	titles, err := h.service.ListTitles(r.Context(), filter, request.PaginationFromQuery(query))
	if err != nil {
		respondError(w, h.log, err, "list titles")
		return
	}

	utils.ResponseSuccess(w, "success", titles)
}

// GetTitle handles GET /api/v1/titles/{titleID}
func (h *TitleHandler) GetTitle(w http.ResponseWriter, r *http.Request) {
	title, err := h.service.GetTitle(r.Context(), chi.URLParam(r, "titleID"))
	if err != nil {
		respondError(w, h.log, err, "get title")
		return
	}

	utils.ResponseSuccess(w, "success", title)
}

// CreateTitle handles POST /api/v1/titles (admin)
func (h *TitleHandler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	var req request.TitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	title, err := h.service.CreateTitle(r.Context(), actorFrom(r), &req)
	if err != nil {
		respondError(w, h.log, err, "create title")
		return
	}

	utils.ResponseCreated(w, "Title created", title)
}

// UpdateTitle handles PATCH /api/v1/titles/{titleID} (admin)
func (h *TitleHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req request.TitleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	title, err := h.service.UpdateTitle(r.Context(), actorFrom(r), chi.URLParam(r, "titleID"), &req)
	if err != nil {
		respondError(w, h.log, err, "update title")
		return
	}

	utils.ResponseSuccess(w, "Title updated", title)
}

// DeleteTitle handles DELETE /api/v1/titles/{titleID} (admin)
func (h *TitleHandler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTitle(r.Context(), actorFrom(r), chi.URLParam(r, "titleID")); err != nil {
		respondError(w, h.log, err, "delete title")
		return
	}

	utils.ResponseNoContent(w)
}
