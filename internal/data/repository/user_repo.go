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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// CreateIfAbsent inserts user unless any unique column already exists.
	CreateIfAbsent(ctx context.Context, user *entity.User) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByUsernameAndEmail(ctx context.Context, username, email string) (*entity.User, error)
	FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context, search string) (int64, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Confirmation code state
	BumpCodeVersion(ctx context.Context, id uuid.UUID) (int64, error)
	ConsumeCode(ctx context.Context, id uuid.UUID, version int64) (bool, error)
}

const userColumns = `id, username, email, first_name, last_name, bio, role,
		       is_superuser, code_version, confirmed_at, created_at, updated_at`

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Bio,
		&user.Role,
		&user.IsSuperuser,
		&user.CodeVersion,
		&user.ConfirmedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record into the database
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, bio, role,
		                   is_superuser, code_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.IsSuperuser,
		user.CodeVersion,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		ur.log.Warn("Failed to create user",
			zap.Error(err),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Username, translate(err))
	}

	return nil
}

func (ur *userRepository) CreateIfAbsent(ctx context.Context, user *entity.User) (bool, error) {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, bio, role,
		                   is_superuser, code_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.IsSuperuser,
		user.CodeVersion,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		ur.log.Error("Failed to insert user",
			zap.Error(err),
			zap.String("username", user.Username),
		)
		return false, fmt.Errorf("insert user %s: %w", user.Username, translate(err))
	}

	return result.RowsAffected() == 1, nil
}

func (ur *userRepository) findOne(ctx context.Context, where string, args ...any) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(ur.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := ur.findOne(ctx, `id = $1`, id)
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}
	return user, nil
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := ur.findOne(ctx, `email = $1`, email)
	if err != nil {
		ur.log.Error("Failed to find user by email", zap.Error(err))
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (ur *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := ur.findOne(ctx, `username = $1`, username)
	if err != nil {
		ur.log.Error("Failed to find user by username",
			zap.Error(err),
			zap.String("username", username),
		)
		return nil, fmt.Errorf("find user by username %s: %w", username, err)
	}
	return user, nil
}

func (ur *userRepository) FindByUsernameAndEmail(ctx context.Context, username, email string) (*entity.User, error) {
	user, err := ur.findOne(ctx, `username = $1 AND email = $2`, username, email)
	if err != nil {
		ur.log.Error("Failed to find user by username and email",
			zap.Error(err),
			zap.String("username", username),
		)
		return nil, fmt.Errorf("find user %s by username and email: %w", username, err)
	}
	return user, nil
}

func (ur *userRepository) FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1::text = '' OR username ILIKE '%' || $1::text || '%')
		ORDER BY username
		LIMIT $2 OFFSET $3
	`

	rows, err := ur.db.Query(ctx, query, search, limit, offset)
	if err != nil {
		ur.log.Error("Failed to list users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (ur *userRepository) CountAll(ctx context.Context, search string) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE ($1::text = '' OR username ILIKE '%' || $1::text || '%')`

	var count int64
	if err := ur.db.QueryRow(ctx, query, search).Scan(&count); err != nil {
		ur.log.Error("Failed to count users", zap.Error(err))
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (ur *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5, bio = $6,
		    role = $7, is_superuser = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.IsSuperuser,
		user.UpdatedAt,
	)
	if err != nil {
		ur.log.Warn("Failed to update user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("update user %s: %w", user.ID.String(), translate(err))
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFoundError("user not found", nil)
	}

	return nil
}

func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := ur.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("delete user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFoundError("user not found", nil)
	}

	ur.log.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// BumpCodeVersion invalidates every outstanding confirmation code of the user
// and returns the version new codes must be bound to.
func (ur *userRepository) BumpCodeVersion(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		UPDATE users
		SET code_version = code_version + 1
		WHERE id = $1
		RETURNING code_version
	`

	var version int64
	if err := ur.db.QueryRow(ctx, query, id).Scan(&version); err != nil {
		ur.log.Error("Failed to bump code version",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return 0, fmt.Errorf("bump code version for %s: %w", id.String(), err)
	}
	return version, nil
}

// ConsumeCode advances code_version only if it still equals version, so of two
// concurrent exchanges of the same code at most one succeeds.
func (ur *userRepository) ConsumeCode(ctx context.Context, id uuid.UUID, version int64) (bool, error) {
	query := `
		UPDATE users
		SET code_version = code_version + 1,
		    confirmed_at = COALESCE(confirmed_at, NOW())
		WHERE id = $1 AND code_version = $2
	`

	result, err := ur.db.Exec(ctx, query, id, version)
	if err != nil {
		ur.log.Error("Failed to consume confirmation code",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return false, fmt.Errorf("consume code for %s: %w", id.String(), err)
	}
	return result.RowsAffected() == 1, nil
}
