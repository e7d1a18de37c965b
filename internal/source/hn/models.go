package hn

// Item is the wire shape of GET /item/{id}.json. Every field other than id
// may be missing.
type Item struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	URL         *string `json:"url"`
	Text        *string `json:"text"`
	By          string  `json:"by"`
	Score       int     `json:"score"`
	Descendants int     `json:"descendants"`
	Time        int64   `json:"time"`
	Kids        []int64 `json:"kids"`
	Parent      *int64  `json:"parent"`
	Deleted     bool    `json:"deleted"`
	Dead        bool    `json:"dead"`
	Poll        *int64  `json:"poll"`
	Parts       []int64 `json:"parts"`
}
