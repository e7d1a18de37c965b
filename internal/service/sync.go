package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"hn_reader/internal/config"
	"hn_reader/internal/domain"
)

// SyncService pulls the current top stories and their first-level comments
// from the source into the store.
type SyncService struct {
	source    Source
	stories   StoryStore
	comments  CommentStore
	syncState SyncStateStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig

	flight singleflight.Group
	now    func() time.Time
}

func NewSyncService(
	source Source,
	stories StoryStore,
	comments CommentStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:    source,
		stories:   stories,
		comments:  comments,
		syncState: syncState,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		config:    cfg,
		now:       time.Now,
	}
}

// Sync runs one ingestion pass. Callers that arrive while a pass is running
// wait for it and share its result. Per-item failures are folded into the
// result; an error means the store could not be used at all.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncResult, error) {
	v, err, shared := s.flight.Do("sync", func() (any, error) {
		return s.run(ctx)
	})
	if shared {
		s.logger.Debug("joined in-flight sync")
	}

	result, _ := v.(*domain.SyncResult)
	return result, err
}

func (s *SyncService) run(ctx context.Context) (*domain.SyncResult, error) {
	startTime := s.now()
	s.logger.Info("starting sync",
		"source_name", s.source.Name(),
		"batch_size", s.config.BatchSize,
		"comment_limit", s.config.CommentLimit,
	)

	state, err := s.syncState.Get(ctx, s.source.ID())
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	ids := s.source.FetchTopIDs(ctx)
	if len(ids) > s.config.BatchSize {
		ids = ids[:s.config.BatchSize]
	}
	s.logger.Info("fetched top stories", "count", len(ids))

	stats := &domain.SyncStats{SourceID: s.source.ID()}
	var lastStoryID int64

	for i, item := range s.fetchItems(ctx, ids) {
		if item == nil {
			s.logger.Debug("story absent", "id", ids[i])
			stats.Skipped++
			continue
		}
		stats.Fetched++

		if !item.IsStoryLike() {
			s.logger.Debug("not a story", "id", item.ID, "kind", item.Kind)
			stats.Skipped++
			continue
		}

		story, isNew, err := s.saveStory(ctx, item)
		if err != nil {
			s.logger.Warn("failed to save story", "id", item.ID, "error", err)
			stats.Errors++
			stats.Failures = append(stats.Failures, domain.ItemFailure{ID: item.ID, Reason: err.Error()})
			continue
		}

		if isNew {
			stats.New++
		} else {
			stats.Updated++
		}
		lastStoryID = max(lastStoryID, story.ID)

		s.publish(ctx, story, isNew, stats)
		s.syncComments(ctx, story.ID, item.Kids, stats)
	}

	stats.Duration = s.now().Sub(startTime)
	result := &domain.SyncResult{
		Synced:  stats.Synced(),
		Message: fmt.Sprintf("Successfully synced %d stories and their comments", stats.Synced()),
		Stats:   *stats,
	}

	if err := s.updateSyncState(ctx, state, stats, lastStoryID); err != nil {
		return result, fmt.Errorf("update sync state: %w", err)
	}

	s.logger.Info("sync completed",
		"new", stats.New,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"comments_inserted", stats.CommentsInserted,
		"comments_skipped", stats.CommentsSkipped,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return result, nil
}

// fetchItems fetches ids on a bounded pool. The result is index-aligned with
// ids; absent items are nil.
func (s *SyncService) fetchItems(ctx context.Context, ids []int64) []*domain.Item {
	items := make([]*domain.Item, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.config.Workers, 1))

	for i, id := range ids {
		g.Go(func() error {
			if item, ok := s.source.FetchItem(gctx, id); ok {
				items[i] = item
			}
			return nil
		})
	}
	_ = g.Wait()

	return items
}

func (s *SyncService) saveStory(ctx context.Context, item *domain.Item) (*domain.Story, bool, error) {
	story, err := item.ToStory(s.now())
	if err != nil {
		return nil, false, err
	}

	exists, err := s.stories.Exists(ctx, story.ID)
	if err != nil {
		return nil, false, err
	}

	if err := s.stories.Upsert(ctx, story); err != nil {
		return nil, false, err
	}

	return story, !exists, nil
}

func (s *SyncService) publish(ctx context.Context, story *domain.Story, isNew bool, stats *domain.SyncStats) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, story, isNew); err != nil {
		s.logger.Warn("failed to publish story", "id", story.ID, "error", err)
		stats.Errors++
		return
	}
	stats.Published++
}

// syncComments stores the story's first kids that are not stored yet. Known
// comments are not fetched again since they are never updated.
func (s *SyncService) syncComments(ctx context.Context, storyID int64, kids []int64, stats *domain.SyncStats) {
	if len(kids) > s.config.CommentLimit {
		kids = kids[:s.config.CommentLimit]
	}
	if len(kids) == 0 {
		return
	}

	existing, err := s.comments.ExistingIDs(ctx, kids)
	if err != nil {
		s.commentFailure(storyID, err, stats)
		return
	}

	var pending []int64
	for _, id := range kids {
		if existing[id] {
			stats.CommentsSkipped++
			continue
		}
		pending = append(pending, id)
	}

	now := s.now()
	var comments []*domain.Comment
	for i, item := range s.fetchItems(ctx, pending) {
		if item == nil || !item.IsLiveComment() {
			s.logger.Debug("comment skipped", "story_id", storyID, "id", pending[i])
			stats.CommentsSkipped++
			continue
		}

		comment, err := item.ToComment(storyID, now)
		if err != nil {
			s.logger.Debug("invalid comment", "story_id", storyID, "id", item.ID, "error", err)
			stats.CommentsSkipped++
			continue
		}
		comments = append(comments, comment)
	}

	if len(comments) == 0 {
		return
	}

	var inserted int
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inserted = 0
		for _, c := range comments {
			ok, err := s.comments.InsertIfAbsent(txCtx, c)
			if err != nil {
				return err
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		s.commentFailure(storyID, err, stats)
		return
	}

	stats.CommentsInserted += inserted
	stats.CommentsSkipped += len(comments) - inserted
}

func (s *SyncService) commentFailure(storyID int64, err error, stats *domain.SyncStats) {
	s.logger.Warn("failed to save comments", "story_id", storyID, "error", err)
	stats.Errors++
	stats.Failures = append(stats.Failures, domain.ItemFailure{
		ID:     storyID,
		Reason: "comments: " + err.Error(),
	})
}

func (s *SyncService) updateSyncState(ctx context.Context, state *domain.SyncState, stats *domain.SyncStats, lastStoryID int64) error {
	state.SourceID = s.source.ID()
	state.LastSyncedAt = s.now()
	if lastStoryID > 0 {
		state.LastStoryID = lastStoryID
	}
	state.TotalSynced += int64(stats.Synced())

	return s.syncState.Update(ctx, state)
}
