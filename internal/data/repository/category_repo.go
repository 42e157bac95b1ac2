package repository

import (
	"context"
	"errors"
	"fmt"

	"review-catalog/internal/data/entity"
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Category, error)
	FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.Category, error)
	CountAll(ctx context.Context, search string) (int64, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

type categoryRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCategoryRepository(db database.PgxIface, log *zap.Logger) CategoryRepository {
	return &categoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "category")),
	}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query, category.ID, category.Name, category.Slug, category.CreatedAt); err != nil {
		r.log.Warn("Failed to create category", zap.Error(err), zap.String("slug", category.Slug))
		return fmt.Errorf("create category %s: %w", category.Slug, translate(err))
	}
	return nil
}

func (r *categoryRepository) findOne(ctx context.Context, where string, arg any) (*entity.Category, error) {
	query := `SELECT id, name, slug, created_at FROM categories WHERE ` + where

	var category entity.Category
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := r.findOne(ctx, `id = $1`, id)
	if err != nil {
		r.log.Error("Failed to find category by ID", zap.Error(err), zap.String("category_id", id.String()))
		return nil, fmt.Errorf("find category by ID %s: %w", id.String(), err)
	}
	return category, nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	category, err := r.findOne(ctx, `slug = $1`, slug)
	if err != nil {
		r.log.Error("Failed to find category by slug", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("find category by slug %s: %w", slug, err)
	}
	return category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.Category, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM categories
		WHERE ($1::text = '' OR name ILIKE '%' || $1::text || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, search, limit, offset)
	if err != nil {
		r.log.Error("Failed to list categories",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*entity.Category
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt); err != nil {
			r.log.Error("Failed to scan category row", zap.Error(err))
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

func (r *categoryRepository) CountAll(ctx context.Context, search string) (int64, error) {
	query := `SELECT COUNT(*) FROM categories WHERE ($1::text = '' OR name ILIKE '%' || $1::text || '%')`

	var count int64
	if err := r.db.QueryRow(ctx, query, search).Scan(&count); err != nil {
		r.log.Error("Failed to count categories", zap.Error(err))
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}

// DeleteBySlug removes the category; its titles keep existing without one.
func (r *categoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE slug = $1`, slug)
	if err != nil {
		r.log.Error("Failed to delete category", zap.Error(err), zap.String("slug", slug))
		return fmt.Errorf("delete category %s: %w", slug, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("category %s not found", slug), nil)
	}

	r.log.Info("Category deleted", zap.String("slug", slug))
	return nil
}
