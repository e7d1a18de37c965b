//go:build integration

package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"hn_reader/internal/cache"
	"hn_reader/internal/config"
	"hn_reader/internal/domain"
	"hn_reader/internal/source/hn"
	"hn_reader/internal/storage/postgres"
)

// fakeHN serves canned JSON bodies by path; unknown paths answer null.
type fakeHN struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (f *fakeHN) set(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[path] = body
}

func (f *fakeHN) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	body, ok := f.bodies[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		body = "null"
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

type SyncIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	db        *sqlx.DB
	logger    *slog.Logger

	remote *fakeHN
	server *httptest.Server
	sync   *SyncService
	feed   *FeedService
}

func (s *SyncIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("hn_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.Require().NoError(postgres.Migrate(s.ctx, s.db))
}

func (s *SyncIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *SyncIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM comments")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM stories")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sync_state")

	s.remote = &fakeHN{bodies: map[string]string{}}
	s.server = httptest.NewServer(s.remote)

	source := hn.New(hn.Config{BaseURL: s.server.URL, Timeout: 2 * time.Second}, s.logger)
	stories := postgres.NewStoryStore(s.db)
	comments := postgres.NewCommentStore(s.db)

	s.sync = NewSyncService(
		source,
		stories,
		comments,
		postgres.NewSyncStateStore(s.db),
		postgres.NewTransactionManager(s.db),
		nil,
		s.logger,
		config.SyncConfig{BatchSize: 50, CommentLimit: 20, Workers: 4},
	)

	pages, err := cache.New[*domain.StoriesPage](16, time.Minute)
	s.Require().NoError(err)
	s.feed = NewFeedService(stories, comments, pages, s.logger)
}

func (s *SyncIntegrationSuite) TearDownTest() {
	s.server.Close()
}

func TestSyncIntegrationSuite(t *testing.T) {
	suite.Run(t, new(SyncIntegrationSuite))
}

func (s *SyncIntegrationSuite) story(id int64, title string, score int, kids string) {
	s.remote.set(fmt.Sprintf("/item/%d.json", id), fmt.Sprintf(
		`{"id": %d, "type": "story", "by": "pg", "title": %q, "score": %d, "time": 1700000000, "kids": %s}`,
		id, title, score, kids,
	))
}

func (s *SyncIntegrationSuite) comment(id, parent int64, text string) {
	s.remote.set(fmt.Sprintf("/item/%d.json", id), fmt.Sprintf(
		`{"id": %d, "type": "comment", "by": "dang", "parent": %d, "text": %q, "time": 1700000100}`,
		id, parent, text,
	))
}

func (s *SyncIntegrationSuite) TestSync_AbsentItemIsNotStored() {
	s.remote.set("/topstories.json", `[1, 2, 3]`)
	s.story(1, "one", 10, "[]")
	s.story(3, "three", 30, "[]")

	result, err := s.sync.Sync(s.ctx)

	s.Require().NoError(err)
	s.Equal(2, result.Synced)
	s.Equal("Successfully synced 2 stories and their comments", result.Message)

	missing, err := s.feed.GetStory(s.ctx, 2)
	s.NoError(err)
	s.Nil(missing)
}

func (s *SyncIntegrationSuite) TestSync_ResyncIsIdempotentForComments() {
	s.remote.set("/topstories.json", `[1]`)
	s.story(1, "Ask HN: anything?", 10, "[11, 12]")
	s.comment(11, 1, "<p>first</p>")
	s.comment(12, 11, "reply")

	_, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)

	before, err := s.feed.GetStory(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(before)
	s.Equal(domain.StoryTypeAsk, before.Type)

	s.story(1, "Ask HN: anything? (edited)", 99, "[11, 12]")
	s.comment(11, 1, "rewritten")

	result, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Stats.Updated)
	s.Equal(0, result.Stats.CommentsInserted)

	after, err := s.feed.GetStory(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(99, after.Score)
	s.Equal("Ask HN: anything? (edited)", after.Title)
	s.True(before.FirstSeenAt.Equal(after.FirstSeenAt))

	full, err := s.feed.GetStoryWithComments(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(2, full.TotalComments)
	s.Equal("<p>first</p>", full.Comments[0].Text)
	s.Nil(full.Comments[0].ParentID)

	thread, err := s.feed.GetThread(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(thread.Comments, 1)
	s.Require().Len(thread.Comments[0].Children, 1)
	s.Equal(int64(12), thread.Comments[0].Children[0].Comment.ID)
}

func (s *SyncIntegrationSuite) TestListStories_AskCategory() {
	s.remote.set("/topstories.json", `[1, 2, 3, 4, 5]`)
	s.story(1, "Ask HN: how?", 5, "[]")
	s.story(2, "Show HN: a thing", 6, "[]")
	s.story(3, "plain", 7, "[]")
	s.story(4, "another", 8, "[]")
	s.remote.set("/item/5.json", `{"id": 5, "type": "job", "by": "yc", "title": "Hiring", "time": 1700000000}`)

	_, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)
	s.feed.Invalidate()

	page, err := s.feed.ListStories(s.ctx, domain.ListQuery{Category: domain.CategoryAsk, Limit: 30})

	s.Require().NoError(err)
	s.Require().Len(page.Stories, 1)
	s.Equal(int64(1), page.Stories[0].ID)
	s.Equal(1, page.Total)
	s.False(page.HasMore)

	top, err := s.feed.ListStories(s.ctx, domain.ListQuery{Category: domain.CategoryTop})
	s.Require().NoError(err)
	s.Equal(5, top.Total)
	for i := 1; i < len(top.Stories); i++ {
		s.GreaterOrEqual(top.Stories[i-1].Score, top.Stories[i].Score)
	}
}

func (s *SyncIntegrationSuite) TestSync_SourceDown() {
	s.server.Close()

	result, err := s.sync.Sync(s.ctx)

	s.Require().NoError(err)
	s.Equal(0, result.Synced)
}
