package hn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"hn_reader/internal/domain"
)

const (
	SourceID   = "hn"
	SourceName = "Hacker News"

	maxBodyBytes = 4 << 20
)

// Config holds Hacker News source configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Source reads items from the Hacker News Firebase API. It never returns
// errors: anything that goes wrong is reported as an absent item.
type Source struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	sanitizer  *bluemonday.Policy
	logger     *slog.Logger
}

// New creates a new Hacker News source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchTopIDs returns the current top story ids in ranking order, or nil when
// the list cannot be fetched.
func (s *Source) FetchTopIDs(ctx context.Context) []int64 {
	var ids []int64
	if err := s.getJSON(ctx, "/topstories.json", &ids); err != nil {
		s.logger.Warn("fetch top stories failed", "error", err)
		return nil
	}
	return ids
}

// FetchItem returns the item with the given id. The second result is false
// when the item is missing, unreachable or malformed.
func (s *Source) FetchItem(ctx context.Context, id int64) (*domain.Item, bool) {
	var raw *Item
	if err := s.getJSON(ctx, fmt.Sprintf("/item/%d.json", id), &raw); err != nil {
		s.logger.Debug("fetch item failed", "id", id, "error", err)
		return nil, false
	}
	if raw == nil {
		s.logger.Debug("item not found", "id", id)
		return nil, false
	}
	if raw.ID != id {
		s.logger.Debug("item id mismatch", "id", id, "got", raw.ID)
		return nil, false
	}

	return s.transform(raw), true
}

func (s *Source) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (s *Source) transform(raw *Item) *domain.Item {
	item := &domain.Item{
		ID:          raw.ID,
		Kind:        domain.ItemKind(raw.Type),
		Title:       raw.Title,
		URL:         raw.URL,
		Text:        s.sanitize(raw.Text),
		Author:      raw.By,
		Score:       raw.Score,
		Descendants: raw.Descendants,
		Kids:        raw.Kids,
		Parent:      raw.Parent,
		Deleted:     raw.Deleted,
		Dead:        raw.Dead,
	}

	if raw.Time > 0 {
		item.Time = time.Unix(raw.Time, 0).UTC()
	}

	return item
}

func (s *Source) sanitize(text *string) *string {
	if text == nil {
		return nil
	}
	clean := s.sanitizer.Sanitize(*text)
	return &clean
}
