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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommentService interface {
	ListComments(ctx context.Context, titleID, reviewID string, req request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error)
	GetComment(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error)
	CreateComment(ctx context.Context, actor *policy.Actor, titleID, reviewID string, req *request.CreateCommentRequest) (*response.CommentResponse, error)
	UpdateComment(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID string, req *request.UpdateCommentRequest) (*response.CommentResponse, error)
	DeleteComment(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID string) error
}

type commentService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCommentService(repo *repository.Repository, log *zap.Logger) CommentService {
	return &commentService{
		repo: repo,
		log:  log.With(zap.String("service", "comment")),
	}
}

func (s *commentService) ListComments(ctx context.Context, titleID, reviewID string, req request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error) {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.Comment.FindByReviewID(ctx, review.ID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	total, err := s.repo.Comment.CountByReviewID(ctx, review.ID)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	data := response.MapPage(comments, response.CommentToResponse)
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *commentService) GetComment(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error) {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) CreateComment(ctx context.Context, actor *policy.Actor, titleID, reviewID string, req *request.CreateCommentRequest) (*response.CommentResponse, error) {
	if err := authorize(s.log, actor, policy.ActionCreate, policy.On(policy.KindComment)); err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := validate(s.log, "Create comment", req); err != nil {
		return nil, err
	}
	text, err := cleanText(req.Text)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		ID:       uuid.New(),
		ReviewID: review.ID,
		AuthorID: actor.ID,
		Text:     text,
		PubDate:  time.Now(),
	}

	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.log.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("review_id", review.ID.String()),
		zap.String("author_id", actor.ID.String()),
	)

	return s.GetComment(ctx, titleID, reviewID, comment.ID.String())
}

func (s *commentService) UpdateComment(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID string, req *request.UpdateCommentRequest) (*response.CommentResponse, error) {
	if actor == nil {
		return nil, authorize(s.log, nil, policy.ActionUpdate, policy.On(policy.KindComment))
	}

	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := authorize(s.log, actor, policy.ActionUpdate, policy.Owned(policy.KindComment, comment.AuthorID)); err != nil {
		return nil, err
	}

	if err := validate(s.log, "Update comment", req); err != nil {
		return nil, err
	}

	if req.Text != nil {
		text, err := cleanText(*req.Text)
		if err != nil {
			return nil, err
		}
		comment.Text = text

		if err := s.repo.Comment.Update(ctx, comment); err != nil {
			return nil, fmt.Errorf("update comment: %w", err)
		}
	}

	s.log.Info("Comment updated",
		zap.String("comment_id", comment.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID string) error {
	if actor == nil {
		return authorize(s.log, nil, policy.ActionDelete, policy.On(policy.KindComment))
	}

	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := authorize(s.log, actor, policy.ActionDelete, policy.Owned(policy.KindComment, comment.AuthorID)); err != nil {
		return err
	}

	if err := s.repo.Comment.Delete(ctx, comment.ID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.log.Info("Comment deleted",
		zap.String("comment_id", comment.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// findComment loads a comment only if it hangs under the given title and review.
func (s *commentService) findComment(ctx context.Context, titleID, reviewID, commentID string) (*entity.Comment, error) {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	commentUUID, err := parseID(commentID, "Comment")
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.Comment.FindByID(ctx, review.ID, commentUUID)
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	if comment == nil {
		return nil, apperror.NewNotFoundError("Comment not found", nil)
	}
	return comment, nil
}
