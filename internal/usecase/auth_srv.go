package usecase

import (
	"context"
	"fmt"
	"time"

	"review-catalog/internal/data/entity"
	"review-catalog/internal/data/repository"
	"review-catalog/internal/dto/request"
	"review-catalog/internal/dto/response"
	"review-catalog/pkg/apperror"
	"review-catalog/pkg/mailer"
	"review-catalog/pkg/metrics"
	"review-catalog/pkg/security"
	"review-catalog/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error)
	ExchangeToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error)
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	codes  CodeIssuer
	tokens TokenMinter
	mail   mailer.Sender
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	codes CodeIssuer,
	tokens TokenMinter,
	mail mailer.Sender,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		codes:  codes,
		tokens: tokens,
		mail:   mail,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error) {
	// 1. Validate input
	if err := validate(s.log, "Signup", req); err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// 2. Exact (username, email) pair already known: re-issue
	existing, err := s.repo.User.FindByUsernameAndEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user by pair: %w", err)
	}
	if existing != nil {
		return s.reissue(ctx, existing)
	}

	// 3. Either column taken by someone else
	if err := s.checkAvailable(ctx, req.Username, req.Email); err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// 4. Insert or lose the race
	now := time.Now()
	user := &entity.User{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username: req.Username,
		Email:    req.Email,
		Role:     entity.RoleUser,
	}

	created, err := s.repo.User.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if !created {
		winner, err := s.repo.User.FindByUsernameAndEmail(ctx, req.Username, req.Email)
		if err != nil {
			return nil, fmt.Errorf("find user by pair: %w", err)
		}
		if winner == nil {
			metrics.SignupsTotal.WithLabelValues("rejected").Inc()
			return nil, apperror.NewFieldValidationError("Validation failed", map[string]string{
				"Username": "Username or email is already taken",
			})
		}
		return s.reissue(ctx, winner)
	}

	// 5. Issue and deliver the code
	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}

	metrics.SignupsTotal.WithLabelValues("created").Inc()
	s.log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return &response.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

func (s *authService) reissue(ctx context.Context, user *entity.User) (*response.SignupResponse, error) {
	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}

	metrics.SignupsTotal.WithLabelValues("reissued").Inc()
	s.log.Info("Confirmation code re-issued", zap.String("user_id", user.ID.String()))

	return &response.SignupResponse{
		Username:          user.Username,
		Email:             user.Email,
		AlreadyRegistered: true,
	}, nil
}

func (s *authService) checkAvailable(ctx context.Context, username, email string) error {
	fields := make(map[string]string)

	byEmail, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if byEmail != nil {
		fields["Email"] = "A user with this email already exists"
	}

	byUsername, err := s.repo.User.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if byUsername != nil {
		fields["Username"] = "A user with this username already exists"
	}

	if len(fields) > 0 {
		s.log.Warn("Signup rejected", zap.Any("errors", fields))
		return apperror.NewFieldValidationError("Validation failed", fields)
	}
	return nil
}

// issueCode advances the user's code version, which cancels every earlier
// code, and mails a code bound to the new version.
func (s *authService) issueCode(ctx context.Context, user *entity.User) error {
	version, err := s.repo.User.BumpCodeVersion(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("issue confirmation code: %w", err)
	}
	user.CodeVersion = version

	code := s.codes.Generate(codeSubject(user))
	s.deliver(ctx, user, code)
	return nil
}

// deliver is best effort: a failed mail never fails the signup.
func (s *authService) deliver(ctx context.Context, user *entity.User, code string) {
	timeout := s.config.Email.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg := mailer.ConfirmationMessage(s.config.App.Name, user.Username, user.Email, code, s.config.Code.TTL)
	if err := s.mail.Send(ctx, msg); err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("failed").Inc()
		s.log.Error("Failed to send confirmation code",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return
	}
	metrics.MailDeliveriesTotal.WithLabelValues("sent").Inc()
}

func (s *authService) ExchangeToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error) {
	// 1. Validate input
	if err := validate(s.log, "Token", req); err != nil {
		return nil, err
	}

	// 2. Find user
	user, err := s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		metrics.TokenExchangesTotal.WithLabelValues("unknown_user").Inc()
		return nil, apperror.NewNotFoundError("User not found", nil)
	}

	// 3. Recompute the code from current state
	if !s.codes.Verify(codeSubject(user), req.ConfirmationCode) {
		return nil, s.invalidCode(user)
	}

	// 4. Consume it; a concurrent exchange of the same code loses here
	consumed, err := s.repo.User.ConsumeCode(ctx, user.ID, user.CodeVersion)
	if err != nil {
		return nil, fmt.Errorf("consume confirmation code: %w", err)
	}
	if !consumed {
		return nil, s.invalidCode(user)
	}

	// 5. Mint token
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.TokenExchangesTotal.WithLabelValues("issued").Inc()
	s.log.Info("Access token issued", zap.String("user_id", user.ID.String()))

	return &response.TokenResponse{Token: token}, nil
}

func (s *authService) invalidCode(user *entity.User) error {
	metrics.TokenExchangesTotal.WithLabelValues("invalid_code").Inc()
	s.log.Warn("Invalid confirmation code", zap.String("user_id", user.ID.String()))
	return apperror.NewFieldValidationError("Validation failed", map[string]string{
		"ConfirmationCode": "Invalid or expired confirmation code",
	})
}

func codeSubject(user *entity.User) security.CodeSubject {
	return security.CodeSubject{
		UserID:   user.ID,
		Version:  user.CodeVersion,
		Username: user.Username,
		Email:    user.Email,
	}
}
