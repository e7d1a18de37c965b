package domain

import "fmt"

type Category string

const (
	CategoryTop  Category = "top"
	CategoryNew  Category = "new"
	CategoryBest Category = "best"
	CategoryAsk  Category = "ask"
	CategoryShow Category = "show"
	CategoryJob  Category = "job"
)

// ParseCategory accepts the empty string as "no category".
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case "", CategoryTop, CategoryNew, CategoryBest, CategoryAsk, CategoryShow, CategoryJob:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q: %w", s, ErrInvalidArgument)
	}
}

// Filter returns the story-type restriction for the category, or "" for none.
func (c Category) Filter() StoryFilter {
	switch c {
	case CategoryAsk:
		return StoryFilter{Type: StoryTypeAsk}
	case CategoryShow:
		return StoryFilter{Type: StoryTypeShow}
	case CategoryJob:
		return StoryFilter{Type: StoryTypeJob}
	default:
		return StoryFilter{}
	}
}

func (c Category) Order() StoryOrder {
	switch c {
	case CategoryTop, CategoryBest:
		return OrderByScore
	default:
		return OrderByRecent
	}
}

// StoryFilter restricts a story query. Zero values mean "no restriction";
// an empty Search matches every row.
type StoryFilter struct {
	Type   StoryType
	Search string
}

type StoryOrder int

const (
	// OrderByRecent sorts by last_synced_at descending.
	OrderByRecent StoryOrder = iota
	// OrderByScore sorts by score descending.
	OrderByScore
	// OrderByRelevance sorts by score, then occurred_at, both descending.
	OrderByRelevance
)

const (
	DefaultStoryLimit   = 30
	MaxStoryLimit       = 100
	DefaultCommentLimit = 100
	MaxCommentLimit     = 500
)

type ListQuery struct {
	Category Category
	Limit    int
	Offset   int
}

type SearchQuery struct {
	Query  string
	Limit  int
	Offset int
}

// Page is a validated limit/offset pair.
type Page struct {
	Limit  int
	Offset int
}

// NewPage applies def when limit is zero and rejects values outside 1..maxLimit
// or a negative offset.
func NewPage(limit, offset, def, maxLimit int) (Page, error) {
	if limit == 0 {
		limit = def
	}
	if limit < 1 || limit > maxLimit {
		return Page{}, fmt.Errorf("limit %d out of range 1..%d: %w", limit, maxLimit, ErrInvalidArgument)
	}
	if offset < 0 {
		return Page{}, fmt.Errorf("offset %d is negative: %w", offset, ErrInvalidArgument)
	}
	return Page{Limit: limit, Offset: offset}, nil
}

// HasMore reports whether rows remain past this page, i.e.
// offset+limit < total without overflowing for huge offsets.
func (p Page) HasMore(total int) bool {
	return p.Offset < total && p.Limit < total-p.Offset
}
