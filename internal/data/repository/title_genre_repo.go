package repository

import (
	"context"
	"fmt"

	"review-catalog/internal/data/entity"
	"review-catalog/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TitleGenreRepository interface {
	// Bridge table operations; q may be a transaction
	ReplaceForTitle(ctx context.Context, q database.Querier, titleID uuid.UUID, genreIDs []uuid.UUID) error
	FindByTitleID(ctx context.Context, titleID uuid.UUID) ([]*entity.TitleGenre, error)

	// Batch read for listings
	FindGenresByTitleIDs(ctx context.Context, titleIDs []uuid.UUID) (map[uuid.UUID][]*entity.Genre, error)
}

type titleGenreRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTitleGenreRepository(db database.PgxIface, log *zap.Logger) TitleGenreRepository {
	return &titleGenreRepository{
		db:  db,
		log: log.With(zap.String("repository", "title_genre")),
	}
}

func (r *titleGenreRepository) ReplaceForTitle(ctx context.Context, q database.Querier, titleID uuid.UUID, genreIDs []uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM title_genres WHERE title_id = $1`, titleID); err != nil {
		r.log.Error("Failed to clear title genres",
			zap.Error(err),
			zap.String("title_id", titleID.String()),
		)
		return fmt.Errorf("clear genres of title %s: %w", titleID.String(), err)
	}

	if len(genreIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO title_genres (title_id, genre_id)
		SELECT $1, g FROM unnest($2::uuid[]) AS g
		ON CONFLICT DO NOTHING
	`
	if _, err := q.Exec(ctx, query, titleID, genreIDs); err != nil {
		r.log.Error("Failed to link title genres",
			zap.Error(err),
			zap.String("title_id", titleID.String()),
			zap.Int("genres", len(genreIDs)),
		)
		return fmt.Errorf("link genres to title %s: %w", titleID.String(), translate(err))
	}

	return nil
}

func (r *titleGenreRepository) FindByTitleID(ctx context.Context, titleID uuid.UUID) ([]*entity.TitleGenre, error) {
	rows, err := r.db.Query(ctx, `SELECT title_id, genre_id FROM title_genres WHERE title_id = $1`, titleID)
	if err != nil {
		r.log.Error("Failed to find title genres",
			zap.Error(err),
			zap.String("title_id", titleID.String()),
		)
		return nil, fmt.Errorf("find genres of title %s: %w", titleID.String(), err)
	}
	defer rows.Close()

	var links []*entity.TitleGenre
	for rows.Next() {
		var tg entity.TitleGenre
		if err := rows.Scan(&tg.TitleID, &tg.GenreID); err != nil {
			r.log.Error("Failed to scan title_genre row", zap.Error(err))
			return nil, fmt.Errorf("scan title_genre: %w", err)
		}
		links = append(links, &tg)
	}

	return links, rows.Err()
}

func (r *titleGenreRepository) FindGenresByTitleIDs(ctx context.Context, titleIDs []uuid.UUID) (map[uuid.UUID][]*entity.Genre, error) {
	result := make(map[uuid.UUID][]*entity.Genre, len(titleIDs))
	if len(titleIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT tg.title_id, g.id, g.name, g.slug, g.created_at
		FROM title_genres tg
		INNER JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = ANY($1)
		ORDER BY g.name
	`

	rows, err := r.db.Query(ctx, query, titleIDs)
	if err != nil {
		r.log.Error("Failed to load genres for titles",
			zap.Error(err),
			zap.Int("titles", len(titleIDs)),
		)
		return nil, fmt.Errorf("load genres for titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var titleID uuid.UUID
		var genre entity.Genre
		if err := rows.Scan(&titleID, &genre.ID, &genre.Name, &genre.Slug, &genre.CreatedAt); err != nil {
			r.log.Error("Failed to scan title genre row", zap.Error(err))
			return nil, fmt.Errorf("scan title genre: %w", err)
		}
		result[titleID] = append(result[titleID], &genre)
	}

	return result, rows.Err()
}
