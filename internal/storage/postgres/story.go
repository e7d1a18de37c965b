package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"hn_reader/internal/domain"
)

const storyColumns = `id, title, url, text, author, score, descendant_count,
	occurred_at, story_type, first_seen_at, last_synced_at`

type StoryStore struct {
	db *sqlx.DB
}

func NewStoryStore(db *sqlx.DB) *StoryStore {
	return &StoryStore{db: db}
}

// GetByID returns nil when no story has the id.
func (s *StoryStore) GetByID(ctx context.Context, id int64) (*domain.Story, error) {
	var story domain.Story
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &story,
		`SELECT `+storyColumns+` FROM stories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get story %d: %w", id, err)
	}
	return &story, nil
}

func (s *StoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		`SELECT EXISTS (SELECT 1 FROM stories WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check story %d: %w", id, err)
	}
	return exists, nil
}

// Upsert inserts the story or overwrites every mutable column of the stored
// row. id, occurred_at and first_seen_at keep their original values; the
// persisted first_seen_at is written back into story.
func (s *StoryStore) Upsert(ctx context.Context, story *domain.Story) error {
	query := `
		INSERT INTO stories (
			id, title, url, text, author, score, descendant_count,
			occurred_at, story_type, first_seen_at, last_synced_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			text = EXCLUDED.text,
			author = EXCLUDED.author,
			score = EXCLUDED.score,
			descendant_count = EXCLUDED.descendant_count,
			story_type = EXCLUDED.story_type,
			last_synced_at = EXCLUDED.last_synced_at
		RETURNING first_seen_at, occurred_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		story.ID,
		story.Title,
		story.URL,
		story.Text,
		story.Author,
		story.Score,
		story.DescendantCount,
		story.OccurredAt,
		story.Type,
		story.FirstSeenAt,
		story.LastSyncedAt,
	).Scan(&story.FirstSeenAt, &story.OccurredAt)
	if err != nil {
		return fmt.Errorf("upsert story %d: %w", story.ID, err)
	}
	return nil
}

func (s *StoryStore) Query(ctx context.Context, filter domain.StoryFilter, order domain.StoryOrder, limit, offset int) ([]domain.Story, error) {
	where, args := storyWhere(filter)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM stories%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		storyColumns, where, storyOrderBy(order), len(args)-1, len(args))

	stories := []domain.Story{}
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &stories, query, args...); err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	return stories, nil
}

func (s *StoryStore) Count(ctx context.Context, filter domain.StoryFilter) (int, error) {
	where, args := storyWhere(filter)

	var total int
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &total, `SELECT COUNT(*) FROM stories`+where, args...); err != nil {
		return 0, fmt.Errorf("count stories: %w", err)
	}
	return total, nil
}

func storyWhere(filter domain.StoryFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("story_type = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR text ILIKE $%d OR author ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func storyOrderBy(order domain.StoryOrder) string {
	switch order {
	case domain.OrderByScore:
		return "score DESC, id DESC"
	case domain.OrderByRelevance:
		return "score DESC, occurred_at DESC, id DESC"
	default:
		return "last_synced_at DESC, id DESC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
