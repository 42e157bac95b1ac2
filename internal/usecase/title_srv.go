package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"review-catalog/internal/data/entity"
	"review-catalog/internal/data/repository"
	"review-catalog/internal/dto/request"
	"review-catalog/internal/dto/response"
	"review-catalog/internal/policy"
	"review-catalog/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TitleService interface {
	// Public endpoints
	ListTitles(ctx context.Context, filter request.TitleFilterRequest, req request.PaginatedRequest) (*response.PaginatedResponse[response.TitleResponse], error)
	GetTitle(ctx context.Context, titleID string) (*response.TitleResponse, error)

	// Admin endpoints
	CreateTitle(ctx context.Context, actor *policy.Actor, req *request.TitleRequest) (*response.TitleResponse, error)
	UpdateTitle(ctx context.Context, actor *policy.Actor, titleID string, req *request.TitleUpdateRequest) (*response.TitleResponse, error)
	DeleteTitle(ctx context.Context, actor *policy.Actor, titleID string) error
}

type titleService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewTitleService(repo *repository.Repository, log *zap.Logger) TitleService {
	return &titleService{
		repo: repo,
		log:  log.With(zap.String("service", "title")),
		now:  time.Now,
	}
}

func (s *titleService) ListTitles(ctx context.Context, filter request.TitleFilterRequest, req request.PaginatedRequest) (*response.PaginatedResponse[response.TitleResponse], error) {
	f := entity.TitleFilter{
		Name:     filter.Name,
		Year:     filter.Year,
		Genre:    filter.Genre,
		Category: filter.Category,
	}

	titles, err := s.repo.Title.FindAll(ctx, f, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}

	total, err := s.repo.Title.CountAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count titles: %w", err)
	}

	data := response.MapPage(titles, response.TitleToResponse)
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *titleService) GetTitle(ctx context.Context, titleID string) (*response.TitleResponse, error) {
	id, err := parseID(titleID, "Title")
	if err != nil {
		return nil, err
	}

	title, err := s.findTitle(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.TitleToResponse(title)
	return &resp, nil
}

func (s *titleService) CreateTitle(ctx context.Context, actor *policy.Actor, req *request.TitleRequest) (*response.TitleResponse, error) {
	// 1. Permission, then payload
	if err := authorize(s.log, actor, policy.ActionCreate, policy.On(policy.KindTitle)); err != nil {
		return nil, err
	}
	if err := validate(s.log, "Create title", req); err != nil {
		return nil, err
	}
	if err := s.checkYear(req.Year); err != nil {
		return nil, err
	}

	// 2. Resolve slugs
	categoryID, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	genreIDs, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	// 3. Save title and genre links together
	now := s.now()
	title := &entity.Title{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		CategoryID:  categoryID,
	}

	if err := s.repo.Title.Create(ctx, title, genreIDs); err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}

	s.log.Info("Title created",
		zap.String("title_id", title.ID.String()),
		zap.String("name", title.Name),
		zap.Int("genres", len(genreIDs)),
	)

	return s.GetTitle(ctx, title.ID.String())
}

func (s *titleService) UpdateTitle(ctx context.Context, actor *policy.Actor, titleID string, req *request.TitleUpdateRequest) (*response.TitleResponse, error) {
	if err := authorize(s.log, actor, policy.ActionUpdate, policy.On(policy.KindTitle)); err != nil {
		return nil, err
	}

	id, err := parseID(titleID, "Title")
	if err != nil {
		return nil, err
	}

	if err := validate(s.log, "Update title", req); err != nil {
		return nil, err
	}

	existing, err := s.findTitle(ctx, id)
	if err != nil {
		return nil, err
	}
	title := existing.Title

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperror.NewFieldValidationError("Validation failed", map[string]string{
				"Name": "This field may not be blank",
			})
		}
		title.Name = *req.Name
	}
	if req.Year != nil {
		if err := s.checkYear(*req.Year); err != nil {
			return nil, err
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	if req.Category != nil {
		categoryID, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = categoryID
	}

	// nil keeps the current genres, an empty list clears them
	var genreIDs []uuid.UUID
	if req.Genre != nil {
		genreIDs, err = s.resolveGenres(ctx, req.Genre)
		if err != nil {
			return nil, err
		}
		if genreIDs == nil {
			genreIDs = []uuid.UUID{}
		}
	}

	title.UpdatedAt = s.now()
	if err := s.repo.Title.Update(ctx, &title, genreIDs); err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}

	s.log.Info("Title updated", zap.String("title_id", title.ID.String()))

	return s.GetTitle(ctx, title.ID.String())
}

func (s *titleService) DeleteTitle(ctx context.Context, actor *policy.Actor, titleID string) error {
	if err := authorize(s.log, actor, policy.ActionDelete, policy.On(policy.KindTitle)); err != nil {
		return err
	}

	id, err := parseID(titleID, "Title")
	if err != nil {
		return err
	}

	if err := s.repo.Title.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete title: %w", err)
	}
	return nil
}

// ==================== HELPERS ====================

func (s *titleService) findTitle(ctx context.Context, id uuid.UUID) (*entity.TitleDetail, error) {
	title, err := s.repo.Title.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find title: %w", err)
	}
	if title == nil {
		return nil, apperror.NewNotFoundError("Title not found", nil)
	}
	return title, nil
}

func (s *titleService) checkYear(year int) error {
	if year > s.now().Year() {
		return apperror.NewFieldValidationError("Validation failed", map[string]string{
			"Year": "Year cannot be in the future",
		})
	}
	return nil
}

// resolveCategory maps an empty slug to no category.
func (s *titleService) resolveCategory(ctx context.Context, slug string) (*uuid.UUID, error) {
	if slug == "" {
		return nil, nil
	}

	category, err := s.repo.Category.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	if category == nil {
		return nil, apperror.NewFieldValidationError("Validation failed", map[string]string{
			"Category": fmt.Sprintf("Unknown category: %s", slug),
		})
	}
	return &category.ID, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]uuid.UUID, error) {
	unique := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		unique[slug] = struct{}{}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	wanted := make([]string, 0, len(unique))
	for slug := range unique {
		wanted = append(wanted, slug)
	}
	sort.Strings(wanted)

	genres, err := s.repo.Genre.FindBySlugs(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("resolve genres: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(genres))
	for _, genre := range genres {
		delete(unique, genre.Slug)
		ids = append(ids, genre.ID)
	}

	if len(unique) > 0 {
		missing := make([]string, 0, len(unique))
		for slug := range unique {
			missing = append(missing, slug)
		}
		sort.Strings(missing)
		return nil, apperror.NewFieldValidationError("Validation failed", map[string]string{
			"Genre": "Unknown genre: " + strings.Join(missing, ", "),
		})
	}

	return ids, nil
}
