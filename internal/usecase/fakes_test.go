package usecase

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"review-catalog/internal/data/entity"
	"review-catalog/internal/data/repository"
	"review-catalog/internal/policy"
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/database"
	"review-catalog/pkg/mailer"
	"review-catalog/pkg/security"
	"review-catalog/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ==================== USERS ====================

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]entity.User)}
}

func (f *fakeUserRepo) put(u *entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = *u
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func (f *fakeUserRepo) taken(u *entity.User) bool {
	for _, other := range f.users {
		if other.ID != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return true
		}
	}
	return false
}

func (f *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taken(u) {
		return apperror.NewConflictError("username already taken", nil)
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) CreateIfAbsent(_ context.Context, u *entity.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taken(u) {
		return false, nil
	}
	f.users[u.ID] = *u
	return true, nil
}

func (f *fakeUserRepo) find(match func(entity.User) bool) *entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			found := u
			return &found
		}
	}
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.find(func(u entity.User) bool { return u.ID == id }), nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return f.find(func(u entity.User) bool { return u.Email == email }), nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return f.find(func(u entity.User) bool { return u.Username == username }), nil
}

func (f *fakeUserRepo) FindByUsernameAndEmail(_ context.Context, username, email string) (*entity.User, error) {
	return f.find(func(u entity.User) bool { return u.Username == username && u.Email == email }), nil
}

func (f *fakeUserRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.User
	for _, u := range f.users {
		if strings.Contains(u.Username, search) {
			found := u
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, limit, offset), nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context, search string) (int64, error) {
	all, _ := f.FindAll(ctx, search, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return apperror.NewNotFoundError("user not found", nil)
	}
	if f.taken(u) {
		return apperror.NewConflictError("username already taken", nil)
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.NewNotFoundError("user not found", nil)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) BumpCodeVersion(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.CodeVersion++
	f.users[id] = u
	return u.CodeVersion, nil
}

func (f *fakeUserRepo) ConsumeCode(_ context.Context, id uuid.UUID, version int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.CodeVersion != version {
		return false, nil
	}
	u.CodeVersion++
	if u.ConfirmedAt == nil {
		now := time.Now()
		u.ConfirmedAt = &now
	}
	f.users[id] = u
	return true, nil
}

// ==================== CATALOG ====================

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]entity.Category
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *entity.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.Slug]; ok {
		return apperror.NewConflictError("category with this slug already exists", nil)
	}
	f.categories[c.Slug] = *c
	return nil
}

func (f *fakeCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[slug]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeCategoryRepo) FindAll(_ context.Context, _ string, limit, offset int) ([]*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Category
	for _, c := range f.categories {
		found := c
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (f *fakeCategoryRepo) CountAll(_ context.Context, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.categories)), nil
}

func (f *fakeCategoryRepo) DeleteBySlug(_ context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[slug]; !ok {
		return apperror.NewNotFoundError("category not found", nil)
	}
	delete(f.categories, slug)
	return nil
}

type fakeGenreRepo struct {
	mu     sync.Mutex
	genres map[string]entity.Genre
}

func (f *fakeGenreRepo) Create(_ context.Context, g *entity.Genre) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.genres[g.Slug]; ok {
		return apperror.NewConflictError("genre with this slug already exists", nil)
	}
	f.genres[g.Slug] = *g
	return nil
}

func (f *fakeGenreRepo) FindBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.genres[slug]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeGenreRepo) FindBySlugs(_ context.Context, slugs []string) ([]*entity.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Genre
	for _, slug := range slugs {
		if g, ok := f.genres[slug]; ok {
			found := g
			out = append(out, &found)
		}
	}
	return out, nil
}

func (f *fakeGenreRepo) FindAll(_ context.Context, _ string, limit, offset int) ([]*entity.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Genre
	for _, g := range f.genres {
		found := g
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (f *fakeGenreRepo) CountAll(_ context.Context, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.genres)), nil
}

func (f *fakeGenreRepo) DeleteBySlug(_ context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.genres[slug]; !ok {
		return apperror.NewNotFoundError("genre not found", nil)
	}
	delete(f.genres, slug)
	return nil
}

// ==================== TITLES ====================

type fakeTitleRepo struct {
	mu      sync.Mutex
	titles  map[uuid.UUID]entity.Title
	genres  map[uuid.UUID][]uuid.UUID
	catalog *fakeCategoryRepo
	genreDB *fakeGenreRepo
	reviews *fakeReviewRepo
}

func (f *fakeTitleRepo) Create(_ context.Context, t *entity.Title, genreIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[t.ID] = *t
	f.genres[t.ID] = genreIDs
	return nil
}

func (f *fakeTitleRepo) Update(_ context.Context, t *entity.Title, genreIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.titles[t.ID]; !ok {
		return apperror.NewNotFoundError("title not found", nil)
	}
	f.titles[t.ID] = *t
	if genreIDs != nil {
		f.genres[t.ID] = genreIDs
	}
	return nil
}

func (f *fakeTitleRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.titles[id]
	return ok, nil
}

func (f *fakeTitleRepo) detail(t entity.Title) *entity.TitleDetail {
	d := &entity.TitleDetail{Title: t}
	if t.CategoryID != nil {
		d.Category, _ = f.catalog.FindByID(context.Background(), *t.CategoryID)
	}
	for _, id := range f.genres[t.ID] {
		for _, g := range f.genreDB.genres {
			if g.ID == id {
				found := g
				d.Genres = append(d.Genres, &found)
			}
		}
	}
	if f.reviews != nil {
		d.Rating = f.reviews.average(t.ID)
	}
	return d
}

func (f *fakeTitleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.TitleDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.titles[id]
	if !ok {
		return nil, nil
	}
	return f.detail(t), nil
}

func (f *fakeTitleRepo) FindAll(_ context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.TitleDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.TitleDetail
	for _, t := range f.titles {
		if filter.Year != nil && t.Year != *filter.Year {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, f.detail(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (f *fakeTitleRepo) CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error) {
	all, _ := f.FindAll(ctx, filter, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeTitleRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.titles[id]; !ok {
		return apperror.NewNotFoundError("title not found", nil)
	}
	delete(f.titles, id)
	return nil
}

type fakeTitleGenreRepo struct{}

func (fakeTitleGenreRepo) ReplaceForTitle(context.Context, database.Querier, uuid.UUID, []uuid.UUID) error {
	return nil
}

func (fakeTitleGenreRepo) FindByTitleID(context.Context, uuid.UUID) ([]*entity.TitleGenre, error) {
	return nil, nil
}

func (fakeTitleGenreRepo) FindGenresByTitleIDs(context.Context, []uuid.UUID) (map[uuid.UUID][]*entity.Genre, error) {
	return map[uuid.UUID][]*entity.Genre{}, nil
}

// ==================== REVIEWS & COMMENTS ====================

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]entity.Review
	users   *fakeUserRepo
}

func (f *fakeReviewRepo) withAuthor(r entity.Review) *entity.Review {
	if u, _ := f.users.FindByID(context.Background(), r.AuthorID); u != nil {
		r.AuthorUsername = u.Username
	}
	return &r
}

func (f *fakeReviewRepo) average(titleID uuid.UUID) *float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, n := 0, 0
	for _, r := range f.reviews {
		if r.TitleID == titleID {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}

func (f *fakeReviewRepo) Create(_ context.Context, r *entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.reviews {
		if other.TitleID == r.TitleID && other.AuthorID == r.AuthorID {
			return apperror.NewConflictError("you have already reviewed this title", nil)
		}
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeReviewRepo) FindByID(_ context.Context, titleID, reviewID uuid.UUID) (*entity.Review, error) {
	f.mu.Lock()
	r, ok := f.reviews[reviewID]
	f.mu.Unlock()
	if !ok || r.TitleID != titleID {
		return nil, nil
	}
	return f.withAuthor(r), nil
}

func (f *fakeReviewRepo) FindByTitleID(_ context.Context, titleID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	f.mu.Lock()
	var matched []entity.Review
	for _, r := range f.reviews {
		if r.TitleID == titleID {
			matched = append(matched, r)
		}
	}
	f.mu.Unlock()

	out := make([]*entity.Review, 0, len(matched))
	for _, r := range matched {
		out = append(out, f.withAuthor(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return page(out, limit, offset), nil
}

func (f *fakeReviewRepo) CountByTitleID(ctx context.Context, titleID uuid.UUID) (int64, error) {
	all, _ := f.FindByTitleID(ctx, titleID, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeReviewRepo) Update(_ context.Context, r *entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[r.ID]; !ok {
		return apperror.NewNotFoundError("review not found", nil)
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return apperror.NewNotFoundError("review not found", nil)
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewRepo) GetTitleReviewStats(_ context.Context, titleID uuid.UUID) (*float64, int64, error) {
	avg := f.average(titleID)
	n, _ := f.CountByTitleID(context.Background(), titleID)
	return avg, n, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[uuid.UUID]entity.Comment
	users    *fakeUserRepo
}

func (f *fakeCommentRepo) withAuthor(c entity.Comment) *entity.Comment {
	if u, _ := f.users.FindByID(context.Background(), c.AuthorID); u != nil {
		c.AuthorUsername = u.Username
	}
	return &c
}

func (f *fakeCommentRepo) Create(_ context.Context, c *entity.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[c.ID] = *c
	return nil
}

func (f *fakeCommentRepo) FindByID(_ context.Context, reviewID, commentID uuid.UUID) (*entity.Comment, error) {
	f.mu.Lock()
	c, ok := f.comments[commentID]
	f.mu.Unlock()
	if !ok || c.ReviewID != reviewID {
		return nil, nil
	}
	return f.withAuthor(c), nil
}

func (f *fakeCommentRepo) FindByReviewID(_ context.Context, reviewID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	f.mu.Lock()
	var matched []entity.Comment
	for _, c := range f.comments {
		if c.ReviewID == reviewID {
			matched = append(matched, c)
		}
	}
	f.mu.Unlock()

	out := make([]*entity.Comment, 0, len(matched))
	for _, c := range matched {
		out = append(out, f.withAuthor(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.Before(out[j].PubDate) })
	return page(out, limit, offset), nil
}

func (f *fakeCommentRepo) CountByReviewID(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	all, _ := f.FindByReviewID(ctx, reviewID, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeCommentRepo) Update(_ context.Context, c *entity.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[c.ID]; !ok {
		return apperror.NewNotFoundError("comment not found", nil)
	}
	f.comments[c.ID] = *c
	return nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return apperror.NewNotFoundError("comment not found", nil)
	}
	delete(f.comments, id)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ==================== MAIL ====================

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

var codePattern = regexp.MustCompile(`confirmation code: (\S+)`)

func (r *recordingSender) lastCode(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		t.Fatal("no mail sent")
	}
	m := codePattern.FindStringSubmatch(r.sent[len(r.sent)-1].Body)
	if m == nil {
		t.Fatal("no code in mail body")
	}
	return m[1]
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// ==================== FIXTURE ====================

type fixture struct {
	repo    *repository.Repository
	users   *fakeUserRepo
	reviews *fakeReviewRepo
	titles  *fakeTitleRepo
	mail    *recordingSender
	tokens  *security.TokenIssuer
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newFakeUserRepo()
	categories := &fakeCategoryRepo{categories: make(map[string]entity.Category)}
	genres := &fakeGenreRepo{genres: make(map[string]entity.Genre)}
	reviews := &fakeReviewRepo{reviews: make(map[uuid.UUID]entity.Review), users: users}
	titles := &fakeTitleRepo{
		titles:  make(map[uuid.UUID]entity.Title),
		genres:  make(map[uuid.UUID][]uuid.UUID),
		catalog: categories,
		genreDB: genres,
		reviews: reviews,
	}
	comments := &fakeCommentRepo{comments: make(map[uuid.UUID]entity.Comment), users: users}

	repo := &repository.Repository{
		User:       users,
		Category:   categories,
		Genre:      genres,
		Title:      titles,
		TitleGenre: fakeTitleGenreRepo{},
		Review:     reviews,
		Comment:    comments,
	}

	config := &utils.Config{
		App:   utils.AppConfig{Name: "review-catalog"},
		Email: utils.EmailConfig{Timeout: time.Second},
		Code:  utils.CodeConfig{TTL: time.Hour},
	}

	mail := &recordingSender{}
	codes := security.NewCodeGenerator([]byte("0123456789abcdef0123456789abcdef"), config.Code.TTL)
	tokens := security.NewTokenIssuer([]byte("fedcba9876543210fedcba9876543210"), "test", time.Hour)

	return &fixture{
		repo:    repo,
		users:   users,
		reviews: reviews,
		titles:  titles,
		mail:    mail,
		tokens:  tokens,
		service: NewService(repo, config, codes, tokens, mail, zap.NewNop()),
	}
}

// addUser stores a user and returns the actor acting as them.
func (f *fixture) addUser(username string, role entity.UserRole) *policy.Actor {
	now := time.Now()
	u := &entity.User{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
	}
	f.users.put(u)
	return &policy.Actor{ID: u.ID, Role: role}
}

func (f *fixture) addTitle(name string, year int) uuid.UUID {
	now := time.Now()
	t := &entity.Title{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         name,
		Year:         year,
	}
	_ = f.titles.Create(context.Background(), t, nil)
	return t.ID
}
