package usecase

import (
	"context"
	"testing"

	"review-catalog/internal/data/entity"
	"review-catalog/internal/dto/request"
	"review-catalog/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestCreateReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.addUser("bob", entity.RoleUser)
	alice := f.addUser("alice", entity.RoleUser)
	titleID := f.addTitle("Solaris", 1972).String()

	resp, err := f.service.Review.CreateReview(ctx, bob, titleID, &request.CreateReviewRequest{
		Text:  "<b>Slow</b> and great",
		Score: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", resp.Author)
	assert.Equal(t, "Slow and great", resp.Text)

	t.Run("second review by same author conflicts", func(t *testing.T) {
		_, err := f.service.Review.CreateReview(ctx, bob, titleID, &request.CreateReviewRequest{Text: "again", Score: 1})
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("another author may review", func(t *testing.T) {
		_, err := f.service.Review.CreateReview(ctx, alice, titleID, &request.CreateReviewRequest{Text: "meh", Score: 5})
		assert.NoError(t, err)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.service.Review.CreateReview(ctx, nil, titleID, &request.CreateReviewRequest{Text: "x", Score: 5})
		assert.True(t, apperror.IsAuthentication(err))
	})

	t.Run("score out of range", func(t *testing.T) {
		carol := f.addUser("carol", entity.RoleUser)
		_, err := f.service.Review.CreateReview(ctx, carol, titleID, &request.CreateReviewRequest{Text: "x", Score: 11})
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("markup only text", func(t *testing.T) {
		dave := f.addUser("dave", entity.RoleUser)
		_, err := f.service.Review.CreateReview(ctx, dave, titleID, &request.CreateReviewRequest{Text: "<i></i>", Score: 3})
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("unknown title", func(t *testing.T) {
		_, err := f.service.Review.CreateReview(ctx, alice, uuid.NewString(), &request.CreateReviewRequest{Text: "x", Score: 5})
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("rating is the mean", func(t *testing.T) {
		title, err := f.service.Title.GetTitle(ctx, titleID)
		require.NoError(t, err)
		require.NotNil(t, title.Rating)
		assert.InDelta(t, 7.0, *title.Rating, 1e-9)
	})

	t.Run("stats match the title rating", func(t *testing.T) {
		stats, err := f.service.Review.GetReviewStats(ctx, titleID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.ReviewCount)
		require.NotNil(t, stats.Rating)
		assert.InDelta(t, 7.0, *stats.Rating, 1e-9)
	})
}

func TestGetReviewStats_EmptyAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	titleID := f.addTitle("Mirror", 1975).String()

	stats, err := f.service.Review.GetReviewStats(ctx, titleID)
	require.NoError(t, err)
	assert.Nil(t, stats.Rating)
	assert.Zero(t, stats.ReviewCount)

	_, err = f.service.Review.GetReviewStats(ctx, uuid.NewString())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.Review.GetReviewStats(ctx, "not-a-uuid")
	assert.True(t, apperror.IsNotFound(err))
}

func TestReviewUpdateDeletePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.addUser("author", entity.RoleUser)
	other := f.addUser("other", entity.RoleUser)
	moderator := f.addUser("mod", entity.RoleModerator)
	titleID := f.addTitle("Stalker", 1979).String()

	review, err := f.service.Review.CreateReview(ctx, author, titleID, &request.CreateReviewRequest{Text: "zone", Score: 8})
	require.NoError(t, err)

	_, err = f.service.Review.UpdateReview(ctx, other, titleID, review.ID, &request.UpdateReviewRequest{Score: intPtr(1)})
	assert.True(t, apperror.IsPermission(err))

	err = f.service.Review.DeleteReview(ctx, other, titleID, review.ID)
	assert.True(t, apperror.IsPermission(err))

	_, err = f.service.Review.UpdateReview(ctx, nil, titleID, review.ID, &request.UpdateReviewRequest{Score: intPtr(1)})
	assert.True(t, apperror.IsAuthentication(err))

	updated, err := f.service.Review.UpdateReview(ctx, author, titleID, review.ID, &request.UpdateReviewRequest{Score: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Score)
	assert.Equal(t, "zone", updated.Text)

	require.NoError(t, f.service.Review.DeleteReview(ctx, moderator, titleID, review.ID))

	_, err = f.service.Review.GetReview(ctx, titleID, review.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReviewMustBelongToTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.addUser("author", entity.RoleUser)
	first := f.addTitle("First", 2001).String()
	second := f.addTitle("Second", 2002).String()

	review, err := f.service.Review.CreateReview(ctx, author, first, &request.CreateReviewRequest{Text: "ok", Score: 6})
	require.NoError(t, err)

	_, err = f.service.Review.GetReview(ctx, second, review.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.Review.GetReview(ctx, first, "not-a-uuid")
	assert.True(t, apperror.IsNotFound(err))
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.addUser("author", entity.RoleUser)
	commenter := f.addUser("commenter", entity.RoleUser)
	admin := f.addUser("root", entity.RoleAdmin)
	titleID := f.addTitle("Mirror", 1975).String()

	review, err := f.service.Review.CreateReview(ctx, author, titleID, &request.CreateReviewRequest{Text: "memory", Score: 9})
	require.NoError(t, err)

	comment, err := f.service.Comment.CreateComment(ctx, commenter, titleID, review.ID, &request.CreateCommentRequest{Text: "agreed"})
	require.NoError(t, err)
	assert.Equal(t, "commenter", comment.Author)

	page, err := f.service.Comment.ListComments(ctx, titleID, review.ID, request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)

	_, err = f.service.Comment.UpdateComment(ctx, author, titleID, review.ID, comment.ID, &request.UpdateCommentRequest{Text: strPtr("edited")})
	assert.True(t, apperror.IsPermission(err))

	edited, err := f.service.Comment.UpdateComment(ctx, commenter, titleID, review.ID, comment.ID, &request.UpdateCommentRequest{Text: strPtr("edited")})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Text)

	_, err = f.service.Comment.CreateComment(ctx, nil, titleID, review.ID, &request.CreateCommentRequest{Text: "anon"})
	assert.True(t, apperror.IsAuthentication(err))

	require.NoError(t, f.service.Comment.DeleteComment(ctx, admin, titleID, review.ID, comment.ID))

	_, err = f.service.Comment.GetComment(ctx, titleID, review.ID, comment.ID)
	assert.True(t, apperror.IsNotFound(err))
}
