package repository

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"review-catalog/internal/data/entity"
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// repo is nil when the database could not be started; tests then skip.
var repo *Repository

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, db := setup(ctx)

	code := m.Run()

	if db != nil {
		db.Close()
	}
	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	os.Exit(code)
}

func setup(ctx context.Context) (*postgres.PostgresContainer, database.PgxIface) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			// postgres restarts once after init
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Printf("skipping postgres integration tests: %s", err)
		return nil, nil
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to obtain connection string: %s", err)
	}

	logger := zap.NewNop()
	if err := database.Migrate(dsn, logger); err != nil {
		log.Fatalf("failed to migrate: %s", err)
	}

	db, err := database.Connect(ctx, dsn, 5)
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}

	repo = NewRepository(db, logger)
	return container, db
}

func requireDB(t *testing.T) {
	t.Helper()
	if repo == nil {
		t.Skip("postgres container not available")
	}
}

func newUser(t *testing.T, username string) *entity.User {
	t.Helper()
	now := time.Now()
	user := &entity.User{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username:     username,
		Email:        username + "@example.com",
		Role:         entity.RoleUser,
	}
	require.NoError(t, repo.User.Create(context.Background(), user))
	return user
}

func newGenre(t *testing.T, slug string) *entity.Genre {
	t.Helper()
	genre := &entity.Genre{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:       slug,
		Slug:       slug,
	}
	require.NoError(t, repo.Genre.Create(context.Background(), genre))
	return genre
}

func newTitle(t *testing.T, name string, categoryID *uuid.UUID, genreIDs ...uuid.UUID) *entity.Title {
	t.Helper()
	now := time.Now()
	title := &entity.Title{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         name,
		Year:         1999,
		CategoryID:   categoryID,
	}
	require.NoError(t, repo.Title.Create(context.Background(), title, genreIDs))
	return title
}

func newReview(title *entity.Title, author *entity.User, score int) *entity.Review {
	return &entity.Review{
		ID:       uuid.New(),
		TitleID:  title.ID,
		AuthorID: author.ID,
		Text:     "text",
		Score:    score,
		PubDate:  time.Now(),
	}
}

func TestUserRepository_CreateIfAbsent(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	existing := newUser(t, "ifabsent")

	clash := &entity.User{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Username:     "someone-else",
		Email:        existing.Email,
		Role:         entity.RoleUser,
	}
	created, err := repo.User.CreateIfAbsent(ctx, clash)
	require.NoError(t, err)
	assert.False(t, created)

	found, err := repo.User.FindByUsernameAndEmail(ctx, existing.Username, existing.Email)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, existing.ID, found.ID)

	missing, err := repo.User.FindByUsername(ctx, "nobody-here")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_ConsumeCodeOnce(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	user := newUser(t, "consumer")

	version, err := repo.User.BumpCodeVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	ok, err := repo.User.ConsumeCode(ctx, user.ID, version)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.User.ConsumeCode(ctx, user.ID, version)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.ConfirmedAt)
}

func TestGenreRepository_FindBySlugs(t *testing.T) {
	requireDB(t)

	newGenre(t, "slugs-a")
	newGenre(t, "slugs-b")

	genres, err := repo.Genre.FindBySlugs(context.Background(), []string{"slugs-a", "slugs-b", "slugs-missing"})
	require.NoError(t, err)
	assert.Len(t, genres, 2)
}

func TestCategoryDelete_ClearsTitleCategory(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	category := &entity.Category{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:       "Series",
		Slug:       "series-cleared",
	}
	require.NoError(t, repo.Category.Create(ctx, category))

	dup := *category
	dup.ID = uuid.New()
	assert.True(t, apperror.IsConflict(repo.Category.Create(ctx, &dup)))

	title := newTitle(t, "Orphaned", &category.ID)
	require.NoError(t, repo.Category.DeleteBySlug(ctx, category.Slug))

	detail, err := repo.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Nil(t, detail.CategoryID)
	assert.Nil(t, detail.Category)
}

func TestTitleRepository_RatingAndGenres(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	drama := newGenre(t, "rating-drama")
	title := newTitle(t, "Rated", nil, drama.ID)

	detail, err := repo.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Rating)
	require.Len(t, detail.Genres, 1)
	assert.Equal(t, "rating-drama", detail.Genres[0].Slug)

	alice := newUser(t, "rating-alice")
	bob := newUser(t, "rating-bob")
	require.NoError(t, repo.Review.Create(ctx, newReview(title, alice, 6)))
	require.NoError(t, repo.Review.Create(ctx, newReview(title, bob, 9)))

	detail, err = repo.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Rating)
	assert.InDelta(t, 7.5, *detail.Rating, 0.001)

	rating, count, err := repo.Review.GetTitleReviewStats(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.NotNil(t, rating)
	assert.InDelta(t, 7.5, *rating, 0.001)

	titles, err := repo.Title.FindAll(ctx, entity.TitleFilter{Genre: "rating-drama"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, title.ID, titles[0].ID)
}

func TestReviewRepository_OnePerAuthor(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	title := newTitle(t, "Single review", nil)
	author := newUser(t, "single-author")

	require.NoError(t, repo.Review.Create(ctx, newReview(title, author, 5)))
	err := repo.Review.Create(ctx, newReview(title, author, 8))
	assert.True(t, apperror.IsConflict(err))

	other := newTitle(t, "Other", nil)
	found, err := repo.Review.FindByID(ctx, other.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteTitle_Cascades(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	title := newTitle(t, "Cascade", nil)
	author := newUser(t, "cascade-author")
	review := newReview(title, author, 4)
	require.NoError(t, repo.Review.Create(ctx, review))

	comment := &entity.Comment{ID: uuid.New(), ReviewID: review.ID, AuthorID: author.ID, Text: "hi", PubDate: time.Now()}
	require.NoError(t, repo.Comment.Create(ctx, comment))

	require.NoError(t, repo.Title.Delete(ctx, title.ID))

	found, err := repo.Comment.FindByID(ctx, review.ID, comment.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	count, err := repo.Review.CountByTitleID(ctx, title.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserRepository_UpdatePersistsSuperuser(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	user := newUser(t, "promoted")
	user.Role = entity.RoleAdmin
	user.IsSuperuser = true
	user.UpdatedAt = time.Now()
	require.NoError(t, repo.User.Update(ctx, user))

	reloaded, err := repo.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsSuperuser)
	assert.Equal(t, entity.RoleAdmin, reloaded.Role)
}
