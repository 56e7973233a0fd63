// Package state persists the sync checkpoint across runs: the timestamp of
// the last successful sync and the set of item ids ever materialized as
// destination pages.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"readwise_notion_sync/internal/domain"
)

const (
	lastSyncFile    = ".last_sync_time.json"
	syncedItemsFile = ".synced_items.json"
)

type lastSyncDoc struct {
	LastSyncTime string `json:"last_sync_time,omitempty"`
}

type syncedItemsDoc struct {
	SyncedIDs []int64 `json:"synced_ids"`
}

// FileStore keeps the checkpoint as two JSON documents in a directory. A
// missing or corrupt document is treated as empty initial state, never as a
// fatal error: the tool must survive first runs and hand-edited files.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{dir: dir, logger: logger.With("store", "file")}
}

func (s *FileStore) Load(ctx context.Context) (*domain.SyncState, error) {
	st := domain.NewSyncState()

	var last lastSyncDoc
	if readJSON(filepath.Join(s.dir, lastSyncFile), &last) {
		st.LastSyncTime = last.LastSyncTime
	}

	var items syncedItemsDoc
	if readJSON(filepath.Join(s.dir, syncedItemsFile), &items) {
		st.Merge(items.SyncedIDs)
	}

	s.logger.Debug("loaded state",
		"last_sync_time", st.LastSyncTime,
		"synced_items", len(st.SyncedIDs),
	)
	return st, nil
}

// Save rewrites both documents in full. The id list is sorted so the file
// stays diffable across runs.
func (s *FileStore) Save(ctx context.Context, st *domain.SyncState) error {
	ids := make([]int64, 0, len(st.SyncedIDs))
	for id := range st.SyncedIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	if err := writeJSON(filepath.Join(s.dir, syncedItemsFile), syncedItemsDoc{SyncedIDs: ids}); err != nil {
		return fmt.Errorf("save synced items: %w", err)
	}
	if err := writeJSON(filepath.Join(s.dir, lastSyncFile), lastSyncDoc{LastSyncTime: st.LastSyncTime}); err != nil {
		return fmt.Errorf("save last sync time: %w", err)
	}

	s.logger.Debug("saved state",
		"last_sync_time", st.LastSyncTime,
		"synced_items", len(ids),
	)
	return nil
}

// readJSON reports whether the file existed and parsed.
func readJSON(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func writeJSON(path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
