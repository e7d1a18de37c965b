package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"hn_reader/internal/domain"
)

type StoryStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Story, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Upsert(ctx context.Context, story *domain.Story) error
	Query(ctx context.Context, filter domain.StoryFilter, order domain.StoryOrder, limit, offset int) ([]domain.Story, error)
	Count(ctx context.Context, filter domain.StoryFilter) (int, error)
}

type CommentStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	InsertIfAbsent(ctx context.Context, comment *domain.Comment) (bool, error)
	ListByStory(ctx context.Context, storyID int64, limit, offset int) ([]domain.Comment, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

// Source reports every failure as absence: an empty id list or ok == false.
type Source interface {
	ID() string
	Name() string
	FetchTopIDs(ctx context.Context) []int64
	FetchItem(ctx context.Context, id int64) (*domain.Item, bool)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, story *domain.Story, isNew bool) error
	Close() error
}
