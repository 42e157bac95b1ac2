package usecase

import (
	"review-catalog/internal/data/repository"
	"review-catalog/pkg/mailer"
	"review-catalog/pkg/security"
	"review-catalog/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CodeIssuer generates and checks confirmation codes.
type CodeIssuer interface {
	Generate(s security.CodeSubject) string
	Verify(s security.CodeSubject, code string) bool
}

// TokenMinter signs access tokens.
type TokenMinter interface {
	Issue(userID uuid.UUID, username string) (string, error)
}

type Service struct {
	Auth     AuthService
	User     UserService
	Category CategoryService
	Genre    GenreService
	Title    TitleService
	Review   ReviewService
	Comment  CommentService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	codes CodeIssuer,
	tokens TokenMinter,
	mail mailer.Sender,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo, config, codes, tokens, mail, log),
		User:     NewUserService(repo.User, log),
		Category: NewCategoryService(repo.Category, log),
		Genre:    NewGenreService(repo.Genre, log),
		Title:    NewTitleService(repo, log),
		Review:   NewReviewService(repo, log),
		Comment:  NewCommentService(repo, log),
	}
}
