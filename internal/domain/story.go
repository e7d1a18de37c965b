package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidItem is returned when a remote item lacks fields required to store it.
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidArgument is returned for out-of-range query parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

type StoryType string

const (
	StoryTypeStory StoryType = "story"
	StoryTypeJob   StoryType = "job"
	StoryTypeAsk   StoryType = "ask"
	StoryTypeShow  StoryType = "show"
	StoryTypePoll  StoryType = "poll"
)

type Story struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	URL             *string   `db:"url" json:"url"`
	Text            *string   `db:"text" json:"text"`
	Author          string    `db:"author" json:"author"`
	Score           int       `db:"score" json:"score"`
	DescendantCount int       `db:"descendant_count" json:"descendants"`
	OccurredAt      time.Time `db:"occurred_at" json:"time"`
	Type            StoryType `db:"story_type" json:"story_type"`
	FirstSeenAt     time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSyncedAt    time.Time `db:"last_synced_at" json:"last_synced_at"`
}

// Comment is never rewritten once stored. ParentID is nil for top-level
// comments and may point at a comment that was never fetched.
type Comment struct {
	ID          int64     `db:"id" json:"id"`
	StoryID     int64     `db:"story_id" json:"story_id"`
	ParentID    *int64    `db:"parent_id" json:"parent_id"`
	Author      string    `db:"author" json:"author"`
	Text        string    `db:"text" json:"text"`
	OccurredAt  time.Time `db:"occurred_at" json:"time"`
	FirstSeenAt time.Time `db:"first_seen_at" json:"first_seen_at"`
}

type StoryWithComments struct {
	Story         Story     `json:"story"`
	Comments      []Comment `json:"comments"`
	TotalComments int       `json:"totalComments"`
}

type StoriesPage struct {
	Stories []Story `json:"stories"`
	Total   int     `json:"total"`
	HasMore bool    `json:"hasMore"`
}
