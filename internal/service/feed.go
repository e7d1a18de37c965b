package service

import (
	"context"
	"fmt"
	"log/slog"

	"hn_reader/internal/cache"
	"hn_reader/internal/domain"
	"hn_reader/internal/thread"
)

// StoryThread is a story with its comments nested by parent.
type StoryThread struct {
	Story         domain.Story   `json:"story"`
	Comments      []*thread.Node `json:"comments"`
	TotalComments int            `json:"totalComments"`
}

// FeedService answers read queries. Lookups of unknown ids return nil without
// an error. List and search pages are served from pages when it is set; the
// returned pages are shared and must not be modified.
type FeedService struct {
	stories  StoryStore
	comments CommentStore
	pages    *cache.Cache[*domain.StoriesPage]
	logger   *slog.Logger
}

func NewFeedService(stories StoryStore, comments CommentStore, pages *cache.Cache[*domain.StoriesPage], logger *slog.Logger) *FeedService {
	return &FeedService{
		stories:  stories,
		comments: comments,
		pages:    pages,
		logger:   logger.With("component", "feed"),
	}
}

func (f *FeedService) ListStories(ctx context.Context, q domain.ListQuery) (*domain.StoriesPage, error) {
	category, err := domain.ParseCategory(string(q.Category))
	if err != nil {
		return nil, err
	}
	page, err := domain.NewPage(q.Limit, q.Offset, domain.DefaultStoryLimit, domain.MaxStoryLimit)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("list:%s:%d:%d", category, page.Limit, page.Offset)
	return f.cachedPage(key, func() (*domain.StoriesPage, error) {
		return f.queryPage(ctx, category.Filter(), category.Order(), page)
	})
}

// SearchStories matches q case-insensitively against title, text and author.
// An empty q matches every story.
func (f *FeedService) SearchStories(ctx context.Context, q domain.SearchQuery) (*domain.StoriesPage, error) {
	page, err := domain.NewPage(q.Limit, q.Offset, domain.DefaultStoryLimit, domain.MaxStoryLimit)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("search:%d:%d:%s", page.Limit, page.Offset, q.Query)
	return f.cachedPage(key, func() (*domain.StoriesPage, error) {
		return f.queryPage(ctx, domain.StoryFilter{Search: q.Query}, domain.OrderByRelevance, page)
	})
}

func (f *FeedService) cachedPage(key string, load func() (*domain.StoriesPage, error)) (*domain.StoriesPage, error) {
	if p, ok := f.pages.Get(key); ok {
		return p, nil
	}

	p, err := load()
	if err != nil {
		return nil, err
	}
	f.pages.Set(key, p)
	return p, nil
}

func (f *FeedService) queryPage(ctx context.Context, filter domain.StoryFilter, order domain.StoryOrder, page domain.Page) (*domain.StoriesPage, error) {
	total, err := f.stories.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count stories: %w", err)
	}

	stories := []domain.Story{}
	if page.Offset < total {
		stories, err = f.stories.Query(ctx, filter, order, page.Limit, page.Offset)
		if err != nil {
			return nil, fmt.Errorf("query stories: %w", err)
		}
	}

	return &domain.StoriesPage{
		Stories: stories,
		Total:   total,
		HasMore: page.HasMore(total),
	}, nil
}

func (f *FeedService) GetStory(ctx context.Context, id int64) (*domain.Story, error) {
	story, err := f.stories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get story %d: %w", id, err)
	}
	return story, nil
}

func (f *FeedService) GetComment(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := f.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return comment, nil
}

// GetComments pages through a story's comments, oldest first.
func (f *FeedService) GetComments(ctx context.Context, storyID int64, limit, offset int) ([]domain.Comment, error) {
	page, err := domain.NewPage(limit, offset, domain.DefaultCommentLimit, domain.MaxCommentLimit)
	if err != nil {
		return nil, err
	}

	comments, err := f.comments.ListByStory(ctx, storyID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list comments of story %d: %w", storyID, err)
	}
	return comments, nil
}

// GetStoryWithComments returns the story and all its stored comments.
func (f *FeedService) GetStoryWithComments(ctx context.Context, id int64) (*domain.StoryWithComments, error) {
	story, err := f.GetStory(ctx, id)
	if err != nil || story == nil {
		return nil, err
	}

	comments, err := f.comments.ListByStory(ctx, id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list comments of story %d: %w", id, err)
	}

	return &domain.StoryWithComments{
		Story:         *story,
		Comments:      comments,
		TotalComments: len(comments),
	}, nil
}

func (f *FeedService) GetThread(ctx context.Context, id int64) (*StoryThread, error) {
	full, err := f.GetStoryWithComments(ctx, id)
	if err != nil || full == nil {
		return nil, err
	}

	return &StoryThread{
		Story:         full.Story,
		Comments:      thread.Build(full.Comments),
		TotalComments: full.TotalComments,
	}, nil
}

// Invalidate drops cached pages so the next read sees freshly synced rows.
func (f *FeedService) Invalidate() {
	dropped := f.pages.Len()
	f.pages.Purge()
	f.logger.Debug("page cache purged", "entries", dropped)
}
