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
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	// Public endpoints
	ListReviews(ctx context.Context, titleID string, req request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	GetReview(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error)
	GetReviewStats(ctx context.Context, titleID string) (*response.ReviewStatsResponse, error)

	// Authenticated endpoints
	CreateReview(ctx context.Context, actor *policy.Actor, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	UpdateReview(ctx context.Context, actor *policy.Actor, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, actor *policy.Actor, titleID, reviewID string) error
}

type reviewService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{
		repo: repo,
		log:  log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) ListReviews(ctx context.Context, titleID string, req request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	titleUUID, err := s.ensureTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.Review.FindByTitleID(ctx, titleUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	total, err := s.repo.Review.CountByTitleID(ctx, titleUUID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	data := response.MapPage(reviews, response.ReviewToResponse)
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *reviewService) GetReview(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error) {
	review, err := s.findReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) GetReviewStats(ctx context.Context, titleID string) (*response.ReviewStatsResponse, error) {
	titleUUID, err := s.ensureTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	rating, count, err := s.repo.Review.GetTitleReviewStats(ctx, titleUUID)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	return &response.ReviewStatsResponse{Rating: rating, ReviewCount: count}, nil
}

func (s *reviewService) CreateReview(ctx context.Context, actor *policy.Actor, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	// 1. Any authenticated user
	if err := authorize(s.log, actor, policy.ActionCreate, policy.On(policy.KindReview)); err != nil {
		return nil, err
	}

	// 2. Title must exist
	titleUUID, err := s.ensureTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	// 3. Validate and clean
	if err := validate(s.log, "Create review", req); err != nil {
		return nil, err
	}
	text, err := cleanText(req.Text)
	if err != nil {
		return nil, err
	}

	// 4. Save; the (title, author) constraint rejects a second review
	review := &entity.Review{
		ID:       uuid.New(),
		TitleID:  titleUUID,
		AuthorID: actor.ID,
		Text:     text,
		Score:    req.Score,
		PubDate:  time.Now(),
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("title_id", titleID),
		zap.String("author_id", actor.ID.String()),
		zap.Int("score", review.Score),
	)

	return s.GetReview(ctx, titleID, review.ID.String())
}

func (s *reviewService) UpdateReview(ctx context.Context, actor *policy.Actor, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	if actor == nil {
		return nil, authorize(s.log, nil, policy.ActionUpdate, policy.On(policy.KindReview))
	}

	review, err := s.findReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	// Author, moderator or admin
	if err := authorize(s.log, actor, policy.ActionUpdate, policy.Owned(policy.KindReview, review.AuthorID)); err != nil {
		return nil, err
	}

	if err := validate(s.log, "Update review", req); err != nil {
		return nil, err
	}

	if req.Text != nil {
		text, err := cleanText(*req.Text)
		if err != nil {
			return nil, err
		}
		review.Text = text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := s.repo.Review.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.log.Info("Review updated",
		zap.String("review_id", review.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor *policy.Actor, titleID, reviewID string) error {
	if actor == nil {
		return authorize(s.log, nil, policy.ActionDelete, policy.On(policy.KindReview))
	}

	review, err := s.findReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := authorize(s.log, actor, policy.ActionDelete, policy.Owned(policy.KindReview, review.AuthorID)); err != nil {
		return err
	}

	if err := s.repo.Review.Delete(ctx, review.ID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.log.Info("Review deleted",
		zap.String("review_id", review.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// ==================== HELPERS ====================

func (s *reviewService) ensureTitle(ctx context.Context, titleID string) (uuid.UUID, error) {
	return ensureTitle(ctx, s.repo.Title, titleID)
}

func (s *reviewService) findReview(ctx context.Context, titleID, reviewID string) (*entity.Review, error) {
	return findReview(ctx, s.repo, titleID, reviewID)
}

func ensureTitle(ctx context.Context, titles repository.TitleRepository, titleID string) (uuid.UUID, error) {
	id, err := parseID(titleID, "Title")
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := titles.Exists(ctx, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check title: %w", err)
	}
	if !exists {
		return uuid.Nil, apperror.NewNotFoundError("Title not found", nil)
	}
	return id, nil
}

// findReview loads a review only if it belongs to the title.
func findReview(ctx context.Context, repo *repository.Repository, titleID, reviewID string) (*entity.Review, error) {
	titleUUID, err := parseID(titleID, "Title")
	if err != nil {
		return nil, err
	}
	reviewUUID, err := parseID(reviewID, "Review")
	if err != nil {
		return nil, err
	}

	review, err := repo.Review.FindByID(ctx, titleUUID, reviewUUID)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review == nil {
		return nil, apperror.NewNotFoundError("Review not found", nil)
	}
	return review, nil
}

// cleanText strips markup and rejects text that is empty afterwards.
func cleanText(raw string) (string, error) {
	text := utils.SanitizeText(raw)
	if text == "" {
		return "", apperror.NewFieldValidationError("Validation failed", map[string]string{
			"Text": "This field may not be blank",
		})
	}
	return text, nil
}
