package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"review-catalog/internal/data/entity"
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TitleRepository interface {
	Create(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error
	// Update replaces the genre links only when genreIDs is non-nil.
	Update(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TitleDetail, error)
	FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.TitleDetail, error)
	CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Rating is computed on read so it can never drift from the reviews.
const titleDetailSelect = `
		SELECT t.id, t.name, t.year, t.description, t.category_id, t.created_at, t.updated_at,
		       c.id, c.name, c.slug, c.created_at,
		       (SELECT AVG(r.score)::float8 FROM reviews r WHERE r.title_id = t.id) AS rating
		FROM titles t
		LEFT JOIN categories c ON c.id = t.category_id
`

type titleRepository struct {
	db     database.PgxIface
	genres TitleGenreRepository
	log    *zap.Logger
}

func NewTitleRepository(db database.PgxIface, genres TitleGenreRepository, log *zap.Logger) TitleRepository {
	return &titleRepository{
		db:     db,
		genres: genres,
		log:    log.With(zap.String("repository", "title")),
	}
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	query := `
		INSERT INTO titles (id, name, year, description, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			title.ID,
			title.Name,
			title.Year,
			title.Description,
			title.CategoryID,
			title.CreatedAt,
			title.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}
		return r.genres.ReplaceForTitle(ctx, tx, title.ID, genreIDs)
	})
	if err != nil {
		r.log.Error("Failed to create title",
			zap.Error(err),
			zap.String("name", title.Name),
		)
		return fmt.Errorf("create title %s: %w", title.Name, err)
	}

	return nil
}

func (r *titleRepository) Update(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	query := `
		UPDATE titles
		SET name = $2, year = $3, description = $4, category_id = $5, updated_at = $6
		WHERE id = $1
	`

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query,
			title.ID,
			title.Name,
			title.Year,
			title.Description,
			title.CategoryID,
			title.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}
		if result.RowsAffected() == 0 {
			return apperror.NewNotFoundError("title not found", nil)
		}
		if genreIDs == nil {
			return nil
		}
		return r.genres.ReplaceForTitle(ctx, tx, title.ID, genreIDs)
	})
	if err != nil {
		r.log.Warn("Failed to update title",
			zap.Error(err),
			zap.String("title_id", title.ID.String()),
		)
		return fmt.Errorf("update title %s: %w", title.ID.String(), err)
	}

	return nil
}

func (r *titleRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM titles WHERE id = $1)`, id).Scan(&exists); err != nil {
		r.log.Error("Failed to check title", zap.Error(err), zap.String("title_id", id.String()))
		return false, fmt.Errorf("check title %s: %w", id.String(), err)
	}
	return exists, nil
}

func (r *titleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.TitleDetail, error) {
	title, err := scanTitleDetail(r.db.QueryRow(ctx, titleDetailSelect+` WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find title by ID",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return nil, fmt.Errorf("find title by ID %s: %w", id.String(), err)
	}

	if err := r.attachGenres(ctx, []*entity.TitleDetail{title}); err != nil {
		return nil, err
	}
	return title, nil
}

func (r *titleRepository) FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.TitleDetail, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(titleDetailSelect)

	where, args := buildTitleFilter(filter)
	queryBuilder.WriteString(where)

	argCount := len(args) + 1
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY t.year DESC, t.name LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find titles",
			zap.Error(err),
			zap.Int("offset", offset),
			zap.Int("limit", limit),
		)
		return nil, fmt.Errorf("find titles: %w", err)
	}
	defer rows.Close()

	var titles []*entity.TitleDetail
	for rows.Next() {
		title, err := scanTitleDetail(rows)
		if err != nil {
			r.log.Error("Failed to scan title row", zap.Error(err))
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate titles: %w", err)
	}

	if err := r.attachGenres(ctx, titles); err != nil {
		return nil, err
	}

	r.log.Debug("Titles found",
		zap.Int("count", len(titles)),
		zap.Int("offset", offset),
		zap.Int("limit", limit),
	)

	return titles, nil
}

func (r *titleRepository) CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error) {
	where, args := buildTitleFilter(filter)
	query := `SELECT COUNT(*) FROM titles t LEFT JOIN categories c ON c.id = t.category_id` + where

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count titles", zap.Error(err))
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return total, nil
}

func (r *titleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete title",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return fmt.Errorf("delete title %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFoundError("title not found", nil)
	}

	r.log.Info("Title deleted", zap.String("title_id", id.String()))
	return nil
}

// ==================== HELPERS ====================

func buildTitleFilter(filter entity.TitleFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Name != "" {
		args = append(args, filter.Name)
		conditions = append(conditions, fmt.Sprintf("t.name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		conditions = append(conditions, fmt.Sprintf("t.year = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.Genre != "" {
		args = append(args, filter.Genre)
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM title_genres tg INNER JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = $%d)`, len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanTitleDetail(row pgx.Row) (*entity.TitleDetail, error) {
	var title entity.TitleDetail
	var categoryID *uuid.UUID
	var categoryName, categorySlug *string
	var categoryCreated *time.Time

	err := row.Scan(
		&title.ID,
		&title.Name,
		&title.Year,
		&title.Description,
		&title.CategoryID,
		&title.CreatedAt,
		&title.UpdatedAt,
		&categoryID,
		&categoryName,
		&categorySlug,
		&categoryCreated,
		&title.Rating,
	)
	if err != nil {
		return nil, err
	}

	if categoryID != nil {
		title.Category = &entity.Category{Name: *categoryName, Slug: *categorySlug}
		title.Category.ID = *categoryID
		if categoryCreated != nil {
			title.Category.CreatedAt = *categoryCreated
		}
	}
	return &title, nil
}

func (r *titleRepository) attachGenres(ctx context.Context, titles []*entity.TitleDetail) error {
	if len(titles) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}

	byTitle, err := r.genres.FindGenresByTitleIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, t := range titles {
		t.Genres = byTitle[t.ID]
	}
	return nil
}
