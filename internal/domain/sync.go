package domain

import "time"

// SyncState is the durable checkpoint carried across runs. Timestamps travel
// through the system as ISO-8601 strings because the sync-window comparison
// against source timestamps is lexical.
type SyncState struct {
	LastSyncTime string // empty when no successful sync has happened yet
	SyncedIDs    map[int64]struct{}
}

func NewSyncState() *SyncState {
	return &SyncState{SyncedIDs: make(map[int64]struct{})}
}

func (s *SyncState) Contains(id int64) bool {
	_, ok := s.SyncedIDs[id]
	return ok
}

// Merge adds ids to the synced set. The set only ever grows: an id stays
// recorded even after the user deletes the page it produced, which is what
// prevents deleted pages from being recreated.
func (s *SyncState) Merge(ids []int64) {
	if s.SyncedIDs == nil {
		s.SyncedIDs = make(map[int64]struct{}, len(ids))
	}
	for _, id := range ids {
		s.SyncedIDs[id] = struct{}{}
	}
}

// SyncStats holds statistics about a sync run.
type SyncStats struct {
	Fetched           int
	Created           int
	Updated           int
	Skipped           int
	HighlightsAdded   int
	HighlightsSkipped int
	Anomalies         int
	Duration          time.Duration
}
