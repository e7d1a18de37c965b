package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"hn_reader/internal/domain"
)

const commentColumns = `id, story_id, parent_id, author, text, occurred_at, first_seen_at`

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

// GetByID returns nil when no comment has the id.
func (s *CommentStore) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	var comment domain.Comment
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &comment,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &comment, nil
}

// ExistingIDs returns the subset of ids already stored.
func (s *CommentStore) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	result := make(map[int64]bool)
	if len(ids) == 0 {
		return result, nil
	}

	var found []int64
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &found,
		`SELECT id FROM comments WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lookup comments: %w", err)
	}

	for _, id := range found {
		result[id] = true
	}
	return result, nil
}

// InsertIfAbsent stores the comment unless one with the same id exists. It
// reports whether a row was written; an existing row is never modified.
func (s *CommentStore) InsertIfAbsent(ctx context.Context, comment *domain.Comment) (bool, error) {
	query := `
		INSERT INTO comments (id, story_id, parent_id, author, text, occurred_at, first_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		comment.ID,
		comment.StoryID,
		comment.ParentID,
		comment.Author,
		comment.Text,
		comment.OccurredAt,
		comment.FirstSeenAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert comment %d: %w", comment.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert comment %d: %w", comment.ID, err)
	}
	return n == 1, nil
}

// ListByStory returns a story's comments oldest first. A limit of zero or
// less returns every comment.
func (s *CommentStore) ListByStory(ctx context.Context, storyID int64, limit, offset int) ([]domain.Comment, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	comments := []domain.Comment{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &comments, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE story_id = $1
		ORDER BY occurred_at ASC, id ASC
		LIMIT $2 OFFSET $3`, storyID, limitArg, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments for story %d: %w", storyID, err)
	}
	return comments, nil
}

func (s *CommentStore) CountByStory(ctx context.Context, storyID int64) (int, error) {
	var total int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &total,
		`SELECT COUNT(*) FROM comments WHERE story_id = $1`, storyID)
	if err != nil {
		return 0, fmt.Errorf("count comments for story %d: %w", storyID, err)
	}
	return total, nil
}
