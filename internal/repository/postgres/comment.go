package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

const commentColumns = `id, author, avatar, content, section, coalesce(parent_id, ''), user_id,
	likes, is_edited, created_at, updated_at`

type CommentStore struct {
	pool *pgxpool.Pool
}

func NewCommentStore(pool *pgxpool.Pool) *CommentStore {
	return &CommentStore{pool: pool}
}

func (s *CommentStore) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (id, author, avatar, content, section, parent_id, user_id,
			likes, is_edited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, nullif($6, ''), $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		c.ID,
		c.Author,
		c.Avatar,
		c.Content,
		c.Section,
		c.ParentID,
		c.UserID,
		c.Likes,
		c.IsEdited,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	c, err := scanComment(s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// List orders by seq, which is insertion order.
func (s *CommentStore) List(ctx context.Context, section string) ([]models.Comment, error) {
	var query string
	var args []any

	if section != "" {
		query = `SELECT ` + commentColumns + ` FROM comments WHERE section = $1 ORDER BY seq`
		args = []any{section}
	} else {
		query = `SELECT ` + commentColumns + ` FROM comments ORDER BY seq`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// Update runs fn under a FOR UPDATE row lock, same as UserStore.Update.
// Concurrent likes on one comment queue on the lock, so every increment
// lands.
func (s *CommentStore) Update(ctx context.Context, id string, fn func(*models.Comment) error) (*models.Comment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := scanComment(tx.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock comment: %w", err)
	}

	if err := fn(c); err != nil {
		return nil, err
	}
	c.ID = id

	query := `
		UPDATE comments SET
			author = $2, avatar = $3, content = $4, likes = $5, is_edited = $6, updated_at = $7
		WHERE id = $1`
	if _, err := tx.Exec(ctx, query, c.ID, c.Author, c.Avatar, c.Content, c.Likes, c.IsEdited, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit comment update: %w", err)
	}
	return c, nil
}

func (s *CommentStore) DeleteWithReplies(ctx context.Context, id string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1 OR parent_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete comment: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(
		&c.ID,
		&c.Author,
		&c.Avatar,
		&c.Content,
		&c.Section,
		&c.ParentID,
		&c.UserID,
		&c.Likes,
		&c.IsEdited,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
