package domain

import "time"

// SyncStats holds statistics about a sync operation.
type SyncStats struct {
	SourceID         string
	Fetched          int
	New              int
	Updated          int
	Skipped          int
	Errors           int
	CommentsInserted int
	CommentsSkipped  int
	Published        int
	Duration         time.Duration
	Failures         []ItemFailure
}

// Synced is the number of stories upserted successfully.
func (s *SyncStats) Synced() int {
	return s.New + s.Updated
}

// ItemFailure records why a single item was not stored.
type ItemFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

type SyncResult struct {
	Synced  int       `json:"synced"`
	Message string    `json:"message"`
	Stats   SyncStats `json:"-"`
}

type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	LastStoryID  int64     `db:"last_story_id"`
	TotalSynced  int64     `db:"total_synced"`
}
