package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"movietrack/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// userRow mirrors the users table. List columns are TEXT[] and JSONB.
type userRow struct {
	ID                string         `db:"id"`
	Username          string         `db:"username"`
	Email             string         `db:"email"`
	PasswordHash      string         `db:"password_hash"`
	AvatarURL         *string        `db:"avatar_url"`
	WatchList         pq.StringArray `db:"watch_list"`
	CurrentlyWatching pq.StringArray `db:"currently_watching"`
	WatchedMovies     watchedMovies  `db:"watched_movies"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		ID:                r.ID,
		Username:          r.Username,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		AvatarURL:         r.AvatarURL,
		WatchList:         []string(r.WatchList),
		CurrentlyWatching: []string(r.CurrentlyWatching),
		WatchedMovies:     []model.WatchedEntry(r.WatchedMovies),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// watchedMovies stores the watched entries as a JSONB array.
type watchedMovies []model.WatchedEntry

func (w *watchedMovies) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported watched_movies type %T", src)
	}
	return json.Unmarshal(data, (*[]model.WatchedEntry)(w))
}

func (w watchedMovies) Value() (driver.Value, error) {
	if w == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]model.WatchedEntry(w))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func stringArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}

const selectUser = `
		SELECT id, username, email, password_hash, avatar_url, watch_list, currently_watching,
		       watched_movies, created_at, updated_at
		FROM users
`

// Create inserts a new user. u.ID must already be set.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, watch_list, currently_watching, watched_movies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		stringArray(u.WatchList),
		stringArray(u.CurrentlyWatching),
		watchedMovies(u.WatchedMovies),
	)

	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.ErrEmailExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, selectUser+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return row.toModel(), nil
}

// GetByEmail retrieves a user by their login email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, selectUser+` WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return row.toModel(), nil
}

// ExistsByEmail checks if an email is already registered
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) UpdateLists(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET watch_list = $2, currently_watching = $3, watched_movies = $4, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		u.ID,
		stringArray(u.WatchList),
		stringArray(u.CurrentlyWatching),
		watchedMovies(u.WatchedMovies),
	)
	if err != nil {
		return fmt.Errorf("failed to update user lists: %w", err)
	}
	return requireAffected(res)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id string, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, avatarURL)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
