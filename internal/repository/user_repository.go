package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/score-leaderboard/internal/database"
	"github.com/iliyamo/score-leaderboard/internal/model"
	"github.com/iliyamo/score-leaderboard/internal/utils"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 64 // users.username column width
	MinPasswordLen = 4
)

// userRecord mirrors the 'users' table.
type userRecord struct {
	ID           uint64 `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRecord) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromMicros(r.CreatedAt),
	}
}

// UserRepo is the credential store.  It exclusively owns the users table.
type UserRepo struct {
	DB   *sqlx.DB
	Cost int // bcrypt cost

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

func NewUserRepo(db *sqlx.DB, cost int) *UserRepo { return &UserRepo{DB: db, Cost: cost} }

func (r *UserRepo) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// Register validates and inserts a new user and returns it.  Uniqueness is
// enforced by the users.username key, so two concurrent registrations of the
// same name cannot both succeed.
func (r *UserRepo) Register(ctx context.Context, username, password string) (model.User, error) {
	if utf8.RuneCountInString(username) < MinUsernameLen {
		return model.User{}, validationError("username must be at least %d characters long", MinUsernameLen)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return model.User{}, validationError("username must be at most %d characters long", MaxUsernameLen)
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return model.User{}, validationError("password must be at least %d characters long", MinPasswordLen)
	}
	hash, err := utils.HashPassword(password, r.Cost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return model.User{}, validationError("password must be at most %d bytes long", utils.MaxPasswordBytes)
		}
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	rec := userRecord{Username: username, PasswordHash: hash, CreatedAt: toMicros(r.now())}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		rec.Username, rec.PasswordHash, rec.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.User{}, fmt.Errorf("%w: username already exists", ErrConflict)
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("user id: %w", err)
	}
	rec.ID = uint64(id)
	return rec.toModel(), nil
}

// Authenticate returns the user matching username when password verifies
// against the stored hash.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	var rec userRecord
	err := r.DB.GetContext(ctx, &rec,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ? LIMIT 1",
		username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrAuth
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(rec.PasswordHash, password) {
		return model.User{}, ErrAuth
	}
	return rec.toModel(), nil
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, id uint64) (model.User, error) {
	var rec userRecord
	err := r.DB.GetContext(ctx, &rec,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ? LIMIT 1",
		id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return rec.toModel(), nil
}
