package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"hn_reader/internal/domain"
	"hn_reader/internal/service"
)

type Feed interface {
	ListStories(ctx context.Context, q domain.ListQuery) (*domain.StoriesPage, error)
	SearchStories(ctx context.Context, q domain.SearchQuery) (*domain.StoriesPage, error)
	GetStory(ctx context.Context, id int64) (*domain.Story, error)
	GetComment(ctx context.Context, id int64) (*domain.Comment, error)
	GetComments(ctx context.Context, storyID int64, limit, offset int) ([]domain.Comment, error)
	GetStoryWithComments(ctx context.Context, id int64) (*domain.StoryWithComments, error)
	GetThread(ctx context.Context, id int64) (*service.StoryThread, error)
	Invalidate()
}

type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncResult, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}
