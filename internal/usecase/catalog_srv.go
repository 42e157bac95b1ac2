package usecase

import (
	"context"
	"fmt"
	"time"

	"review-catalog/internal/data/entity"
	"review-catalog/internal/data/repository"
	"review-catalog/internal/dto/request"
	"review-catalog/internal/dto/response"
	"review-catalog/internal/policy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryService interface {
	ListCategories(ctx context.Context, req request.PaginatedRequest) (*response.PaginatedResponse[response.CategoryResponse], error)
	CreateCategory(ctx context.Context, actor *policy.Actor, req *request.CategoryRequest) (*response.CategoryResponse, error)
	DeleteCategory(ctx context.Context, actor *policy.Actor, slug string) error
}

type GenreService interface {
	ListGenres(ctx context.Context, req request.PaginatedRequest) (*response.PaginatedResponse[response.GenreResponse], error)
	CreateGenre(ctx context.Context, actor *policy.Actor, req *request.GenreRequest) (*response.GenreResponse, error)
	DeleteGenre(ctx context.Context, actor *policy.Actor, slug string) error
}

// ==================== CATEGORY ====================

type categoryService struct {
	categoryRepo repository.CategoryRepository
	log          *zap.Logger
}

func NewCategoryService(categoryRepo repository.CategoryRepository, log *zap.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		log:          log.With(zap.String("service", "category")),
	}
}

func (s *categoryService) ListCategories(ctx context.Context, req request.PaginatedRequest) (*response.PaginatedResponse[response.CategoryResponse], error) {
	categories, err := s.categoryRepo.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	total, err := s.categoryRepo.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}

	data := response.MapPage(categories, response.CategoryToResponse)
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *categoryService) CreateCategory(ctx context.Context, actor *policy.Actor, req *request.CategoryRequest) (*response.CategoryResponse, error) {
	if err := authorize(s.log, actor, policy.ActionCreate, policy.On(policy.KindCategory)); err != nil {
		return nil, err
	}
	if err := validate(s.log, "Create category", req); err != nil {
		return nil, err
	}

	category := &entity.Category{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:       req.Name,
		Slug:       req.Slug,
	}

	// duplicate slug surfaces as a conflict
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info("Category created", zap.String("slug", category.Slug))

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, actor *policy.Actor, slug string) error {
	if err := authorize(s.log, actor, policy.ActionDelete, policy.On(policy.KindCategory)); err != nil {
		return err
	}
	if err := s.categoryRepo.DeleteBySlug(ctx, slug); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ==================== GENRE ====================

type genreService struct {
	genreRepo repository.GenreRepository
	log       *zap.Logger
}

func NewGenreService(genreRepo repository.GenreRepository, log *zap.Logger) GenreService {
	return &genreService{
		genreRepo: genreRepo,
		log:       log.With(zap.String("service", "genre")),
	}
}

func (s *genreService) ListGenres(ctx context.Context, req request.PaginatedRequest) (*response.PaginatedResponse[response.GenreResponse], error) {
	genres, err := s.genreRepo.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}

	total, err := s.genreRepo.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("count genres: %w", err)
	}

	data := response.MapPage(genres, response.GenreToResponse)
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *genreService) CreateGenre(ctx context.Context, actor *policy.Actor, req *request.GenreRequest) (*response.GenreResponse, error) {
	if err := authorize(s.log, actor, policy.ActionCreate, policy.On(policy.KindGenre)); err != nil {
		return nil, err
	}
	if err := validate(s.log, "Create genre", req); err != nil {
		return nil, err
	}

	genre := &entity.Genre{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:       req.Name,
		Slug:       req.Slug,
	}

	if err := s.genreRepo.Create(ctx, genre); err != nil {
		return nil, fmt.Errorf("create genre: %w", err)
	}

	s.log.Info("Genre created", zap.String("slug", genre.Slug))

	resp := response.GenreToResponse(genre)
	return &resp, nil
}

func (s *genreService) DeleteGenre(ctx context.Context, actor *policy.Actor, slug string) error {
	if err := authorize(s.log, actor, policy.ActionDelete, policy.On(policy.KindGenre)); err != nil {
		return err
	}
	if err := s.genreRepo.DeleteBySlug(ctx, slug); err != nil {
		return fmt.Errorf("delete genre: %w", err)
	}
	return nil
}
