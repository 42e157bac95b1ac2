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

type ReviewRepository interface {
	// Create relies on the (title, author) unique constraint and returns a
	// conflict error for a second review by the same author.
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, titleID, reviewID uuid.UUID) (*entity.Review, error)
	FindByTitleID(ctx context.Context, titleID uuid.UUID, limit, offset int) ([]*entity.Review, error)
	CountByTitleID(ctx context.Context, titleID uuid.UUID) (int64, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Business queries
	GetTitleReviewStats(ctx context.Context, titleID uuid.UUID) (*float64, int64, error) // rating, count
}

const reviewSelect = `
		SELECT r.id, r.title_id, r.author_id, r.text, r.score, r.pub_date, u.username
		FROM reviews r
		INNER JOIN users u ON u.id = r.author_id
`

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, title_id, author_id, text, score, pub_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.TitleID,
		review.AuthorID,
		review.Text,
		review.Score,
		review.PubDate,
	)

	if err != nil {
		r.log.Warn("Failed to create review",
			zap.Error(err),
			zap.String("author_id", review.AuthorID.String()),
			zap.String("title_id", review.TitleID.String()),
		)
		return fmt.Errorf("create review for title %s by user %s: %w",
			review.TitleID.String(), review.AuthorID.String(), translate(err))
	}

	return nil
}

func scanReview(row pgx.Row) (*entity.Review, error) {
	var review entity.Review
	err := row.Scan(
		&review.ID,
		&review.TitleID,
		&review.AuthorID,
		&review.Text,
		&review.Score,
		&review.PubDate,
		&review.AuthorUsername,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, titleID, reviewID uuid.UUID) (*entity.Review, error) {
	query := reviewSelect + ` WHERE r.id = $1 AND r.title_id = $2`

	review, err := scanReview(r.db.QueryRow(ctx, query, reviewID, titleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID",
			zap.Error(err),
			zap.String("review_id", reviewID.String()),
		)
		return nil, fmt.Errorf("find review by ID %s: %w", reviewID.String(), err)
	}

	return review, nil
}

func (r *reviewRepository) FindByTitleID(ctx context.Context, titleID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	query := reviewSelect + `
		WHERE r.title_id = $1
		ORDER BY r.pub_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, titleID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reviews by title ID",
			zap.Error(err),
			zap.String("title_id", titleID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find reviews by title ID %s: %w", titleID.String(), err)
	}
	defer rows.Close()

	var reviews []*entity.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			r.log.Error("Failed to scan review row", zap.Error(err))
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

func (r *reviewRepository) CountByTitleID(ctx context.Context, titleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE title_id = $1`, titleID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reviews by title ID",
			zap.Error(err),
			zap.String("title_id", titleID.String()),
		)
		return 0, fmt.Errorf("count reviews by title ID %s: %w", titleID.String(), err)
	}

	return count, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	query := `
		UPDATE reviews
		SET text = $2, score = $3
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		review.ID,
		review.Text,
		review.Score,
	)

	if err != nil {
		r.log.Error("Failed to update review",
			zap.Error(err),
			zap.String("review_id", review.ID.String()),
		)
		return fmt.Errorf("update review %s: %w", review.ID.String(), translate(err))
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFoundError("review not found", nil)
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete review",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return fmt.Errorf("delete review %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFoundError("review not found", nil)
	}

	r.log.Info("Review deleted", zap.String("review_id", id.String()))
	return nil
}

// GetTitleReviewStats returns a nil rating when the title has no reviews.
func (r *reviewRepository) GetTitleReviewStats(ctx context.Context, titleID uuid.UUID) (*float64, int64, error) {
	query := `
		SELECT AVG(score)::float8 AS avg_score, COUNT(*) AS review_count
		FROM reviews
		WHERE title_id = $1
	`

	var avgScore *float64
	var reviewCount int64
	err := r.db.QueryRow(ctx, query, titleID).Scan(&avgScore, &reviewCount)
	if err != nil {
		r.log.Error("Failed to get title review stats",
			zap.Error(err),
			zap.String("title_id", titleID.String()),
		)
		return nil, 0, fmt.Errorf("get title review stats for %s: %w", titleID.String(), err)
	}

	return avgScore, reviewCount, nil
}
