package domain

import (
	"fmt"
	"strings"
	"time"
)

// ItemKind is the remote source's native item type.
type ItemKind string

const (
	KindStory   ItemKind = "story"
	KindJob     ItemKind = "job"
	KindComment ItemKind = "comment"
	KindPoll    ItemKind = "poll"
	KindPollOpt ItemKind = "pollopt"
)

// Item is a remote record after decoding. Optional fields are pointers or
// zero values; nothing beyond decoding has been checked yet.
type Item struct {
	ID          int64
	Kind        ItemKind
	Title       string
	URL         *string
	Text        *string
	Author      string
	Score       int
	Descendants int
	Time        time.Time
	Kids        []int64
	Parent      *int64
	Deleted     bool
	Dead        bool
}

// IsStoryLike reports whether the item may be ingested as a Story.
func (i *Item) IsStoryLike() bool {
	return i.Kind == KindStory || i.Kind == KindJob
}

// IsLiveComment reports whether the item is a comment that still has content.
func (i *Item) IsLiveComment() bool {
	return i.Kind == KindComment && !i.Deleted && !i.Dead
}

// Classify maps a remote item to a local story type. It never fails.
func Classify(item Item) StoryType {
	switch item.Kind {
	case KindJob:
		return StoryTypeJob
	case KindPoll:
		return StoryTypePoll
	}

	title := strings.ToLower(item.Title)
	switch {
	case strings.HasPrefix(title, "ask hn"):
		return StoryTypeAsk
	case strings.HasPrefix(title, "show hn"):
		return StoryTypeShow
	default:
		return StoryTypeStory
	}
}

// ToStory validates the item and builds the Story row for it, stamped with now.
func (i *Item) ToStory(now time.Time) (*Story, error) {
	if i.Author == "" || i.Time.IsZero() {
		return nil, fmt.Errorf("story %d: missing author or time: %w", i.ID, ErrInvalidItem)
	}

	return &Story{
		ID:              i.ID,
		Title:           i.Title,
		URL:             nonEmpty(i.URL),
		Text:            nonEmpty(i.Text),
		Author:          i.Author,
		Score:           max(i.Score, 0),
		DescendantCount: max(i.Descendants, 0),
		OccurredAt:      i.Time,
		Type:            Classify(*i),
		FirstSeenAt:     now,
		LastSyncedAt:    now,
	}, nil
}

// ToComment builds the Comment row for the item under storyID. A parent equal
// to the story itself marks a top-level comment.
func (i *Item) ToComment(storyID int64, now time.Time) (*Comment, error) {
	if i.Author == "" || i.Time.IsZero() {
		return nil, fmt.Errorf("comment %d: missing author or time: %w", i.ID, ErrInvalidItem)
	}

	var parent *int64
	if i.Parent != nil && *i.Parent != storyID {
		p := *i.Parent
		parent = &p
	}

	var text string
	if i.Text != nil {
		text = *i.Text
	}

	return &Comment{
		ID:          i.ID,
		StoryID:     storyID,
		ParentID:    parent,
		Author:      i.Author,
		Text:        text,
		OccurredAt:  i.Time,
		FirstSeenAt: now,
	}, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
