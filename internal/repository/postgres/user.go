package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

const userColumns = `id, email, username, avatar, password_hash, plan, token_usage, token_limit,
	subscription_status, subscription_end, preferences, created_at, updated_at, last_login_at`

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create inserts a new account. The unique index on email turns a
// duplicate registration into ErrConflict, so two concurrent registers with
// the same address can't both succeed even though the service checks
// GetByEmail first.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.Avatar,
		u.PasswordHash,
		string(u.Plan),
		u.TokenUsage,
		u.TokenLimit,
		u.SubscriptionStatus,
		u.SubscriptionEnd,
		u.Preferences,
		u.CreatedAt,
		u.UpdatedAt,
		u.LastLoginAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	u, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of fn.
//
// Quota accounting is a read-modify-write on token_usage. Without the row
// lock two chat messages from the same user could both read usage N and
// both write N+cost, losing one charge. A second Update on the same id
// blocks on the lock until the first commits, then reads the new value.
//
// If fn returns an error the deferred Rollback releases the lock and
// nothing is written.
func (s *UserStore) Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback(ctx)

	u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}

	if err := fn(u); err != nil {
		return nil, err
	}
	u.ID = id

	query := `
		UPDATE users SET
			email = $2, username = $3, avatar = $4, password_hash = $5, plan = $6,
			token_usage = $7, token_limit = $8, subscription_status = $9,
			subscription_end = $10, preferences = $11, updated_at = $12, last_login_at = $13
		WHERE id = $1`
	_, err = tx.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.Avatar,
		u.PasswordHash,
		string(u.Plan),
		u.TokenUsage,
		u.TokenLimit,
		u.SubscriptionStatus,
		u.SubscriptionEnd,
		u.Preferences,
		u.UpdatedAt,
		u.LastLoginAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit user update: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var plan string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Avatar,
		&u.PasswordHash,
		&plan,
		&u.TokenUsage,
		&u.TokenLimit,
		&u.SubscriptionStatus,
		&u.SubscriptionEnd,
		&u.Preferences,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	u.Plan = models.Plan(plan)
	return &u, nil
}

// isUniqueViolation reports SQLSTATE 23505 (unique_violation). pgx
// surfaces server errors as *pgconn.PgError, so the code is matched there
// rather than on the message text, which depends on the server locale.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
