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

type UserService interface {
	// Admin endpoints, addressed by username
	ListUsers(ctx context.Context, actor *policy.Actor, req request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	CreateUser(ctx context.Context, actor *policy.Actor, req *request.CreateUserRequest) (*response.UserResponse, error)
	GetUser(ctx context.Context, actor *policy.Actor, username string) (*response.UserResponse, error)
	UpdateUser(ctx context.Context, actor *policy.Actor, username string, req *request.UpdateUserRequest) (*response.UserResponse, error)
	DeleteUser(ctx context.Context, actor *policy.Actor, username string) error

	// Self profile
	GetMe(ctx context.Context, actor *policy.Actor) (*response.UserResponse, error)
	UpdateMe(ctx context.Context, actor *policy.Actor, req *request.UpdateMeRequest) (*response.UserResponse, error)

	// Startup seeding, no actor
	EnsureSuperuser(ctx context.Context, username, email string) (bool, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) ListUsers(ctx context.Context, actor *policy.Actor, req request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if err := authorize(us.log, actor, policy.ActionRead, policy.On(policy.KindUser)); err != nil {
		return nil, err
	}

	users, err := us.userRepo.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	total, err := us.userRepo.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	data := response.MapPage(users, response.UserToResponse)
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (us *userService) CreateUser(ctx context.Context, actor *policy.Actor, req *request.CreateUserRequest) (*response.UserResponse, error) {
	// 1. Permission before payload checks
	if err := authorize(us.log, actor, policy.ActionCreate, policy.On(policy.KindUser)); err != nil {
		return nil, err
	}

	// 2. Validate
	if err := validate(us.log, "Create user", req); err != nil {
		return nil, err
	}

	role := entity.RoleUser
	if req.Role != "" {
		parsed, err := parseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	// 3. Uniqueness
	if err := us.ensureAvailable(ctx, uuid.Nil, req.Username, req.Email); err != nil {
		return nil, err
	}

	// 4. Save
	now := time.Now()
	user := &entity.User{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}

	if err := us.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	us.log.Info("User created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("actor_id", actor.ID.String()),
		zap.String("role", string(user.Role)),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

// EnsureSuperuser creates the configured superuser, or promotes the user with
// that exact username and email. It reports whether a row was created.
func (us *userService) EnsureSuperuser(ctx context.Context, username, email string) (bool, error) {
	req := request.SignupRequest{Username: username, Email: email}
	if err := validate(us.log, "Seed superuser", req); err != nil {
		return false, err
	}

	existing, err := us.userRepo.FindByUsernameAndEmail(ctx, username, email)
	if err != nil {
		return false, fmt.Errorf("find superuser: %w", err)
	}

	if existing != nil {
		if existing.IsSuperuser && existing.Role == entity.RoleAdmin {
			return false, nil
		}
		existing.IsSuperuser = true
		existing.Role = entity.RoleAdmin
		existing.UpdatedAt = time.Now()
		if err := us.userRepo.Update(ctx, existing); err != nil {
			return false, fmt.Errorf("promote superuser: %w", err)
		}
		us.log.Info("Promoted user to superuser", zap.String("user_id", existing.ID.String()))
		return false, nil
	}

	now := time.Now()
	user := &entity.User{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:    username,
		Email:       email,
		Role:        entity.RoleAdmin,
		IsSuperuser: true,
	}

	created, err := us.userRepo.CreateIfAbsent(ctx, user)
	if err != nil {
		return false, fmt.Errorf("create superuser: %w", err)
	}
	if !created {
		// username or email belongs to someone else
		return false, apperror.NewConflictError("superuser username or email is taken by another user", nil)
	}

	us.log.Info("Superuser created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
	)
	return true, nil
}

func (us *userService) GetUser(ctx context.Context, actor *policy.Actor, username string) (*response.UserResponse, error) {
	if err := authorize(us.log, actor, policy.ActionRead, policy.On(policy.KindUser)); err != nil {
		return nil, err
	}

	user, err := us.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateUser(ctx context.Context, actor *policy.Actor, username string, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	if err := authorize(us.log, actor, policy.ActionUpdate, policy.On(policy.KindUser)); err != nil {
		return nil, err
	}

	if err := validate(us.log, "Update user", req); err != nil {
		return nil, err
	}

	user, err := us.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		role, err := parseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}

	changes := profileChanges{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	}
	if err := us.applyAndSave(ctx, user, changes); err != nil {
		return nil, err
	}

	us.log.Info("User updated by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) DeleteUser(ctx context.Context, actor *policy.Actor, username string) error {
	if err := authorize(us.log, actor, policy.ActionDelete, policy.On(policy.KindUser)); err != nil {
		return err
	}

	user, err := us.findByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := us.userRepo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	us.log.Info("User deleted by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

func (us *userService) GetMe(ctx context.Context, actor *policy.Actor) (*response.UserResponse, error) {
	user, err := us.loadSelf(ctx, actor, policy.ActionRead)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateMe(ctx context.Context, actor *policy.Actor, req *request.UpdateMeRequest) (*response.UserResponse, error) {
	user, err := us.loadSelf(ctx, actor, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if err := validate(us.log, "Update profile", req); err != nil {
		return nil, err
	}

	changes := profileChanges{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	}
	if err := us.applyAndSave(ctx, user, changes); err != nil {
		return nil, err
	}

	us.log.Info("Profile updated", zap.String("user_id", user.ID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

// ==================== HELPERS ====================

type profileChanges struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
}

func (us *userService) loadSelf(ctx context.Context, actor *policy.Actor, action policy.Action) (*entity.User, error) {
	var ownerID uuid.UUID
	if actor != nil {
		ownerID = actor.ID
	}
	if err := authorize(us.log, actor, action, policy.Owned(policy.KindProfile, ownerID)); err != nil {
		return nil, err
	}

	user, err := us.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	return user, nil
}

func (us *userService) findByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := us.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	return user, nil
}

func (us *userService) applyAndSave(ctx context.Context, user *entity.User, c profileChanges) error {
	newUsername, newEmail := "", ""
	if c.Username != nil && *c.Username != user.Username {
		newUsername = *c.Username
	}
	if c.Email != nil && *c.Email != user.Email {
		newEmail = *c.Email
	}
	if err := us.ensureAvailable(ctx, user.ID, newUsername, newEmail); err != nil {
		return err
	}

	if newUsername != "" {
		user.Username = newUsername
	}
	if newEmail != "" {
		user.Email = newEmail
	}
	if c.FirstName != nil {
		user.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		user.LastName = *c.LastName
	}
	if c.Bio != nil {
		user.Bio = *c.Bio
	}
	user.UpdatedAt = time.Now()

	if err := us.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ensureAvailable rejects a username or email held by a user other than self.
// Empty values are not checked.
func (us *userService) ensureAvailable(ctx context.Context, self uuid.UUID, username, email string) error {
	fields := make(map[string]string)

	if username != "" {
		other, err := us.userRepo.FindByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if other != nil && other.ID != self {
			fields["Username"] = "A user with this username already exists"
		}
	}

	if email != "" {
		other, err := us.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if other != nil && other.ID != self {
			fields["Email"] = "A user with this email already exists"
		}
	}

	if len(fields) > 0 {
		return apperror.NewFieldValidationError("Validation failed", fields)
	}
	return nil
}

func parseRole(raw string) (entity.UserRole, error) {
	role, ok := entity.ParseRole(raw)
	if !ok {
		return "", apperror.NewFieldValidationError("Validation failed", map[string]string{
			"Role": "Must be one of: user, moderator, admin",
		})
	}
	return role, nil
}
