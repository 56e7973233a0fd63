package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"readwise_notion_sync/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_sync_time TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS synced_items (
	item_id INTEGER PRIMARY KEY
);`

// SQLiteStore keeps the checkpoint in a single sqlite database, for setups
// that want one durable file with a transactional commit instead of the two
// JSON documents.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init state schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*domain.SyncState, error) {
	st := domain.NewSyncState()

	var last string
	err := s.db.GetContext(ctx, &last, "SELECT last_sync_time FROM sync_state WHERE id = 1")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load last sync time: %w", err)
	}
	st.LastSyncTime = last

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, "SELECT item_id FROM synced_items"); err != nil {
		return nil, fmt.Errorf("load synced items: %w", err)
	}
	st.Merge(ids)

	return st, nil
}

func (s *SQLiteStore) Save(ctx context.Context, st *domain.SyncState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_state (id, last_sync_time) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_sync_time = excluded.last_sync_time`,
		st.LastSyncTime,
	)
	if err != nil {
		return fmt.Errorf("save last sync time: %w", err)
	}

	for id := range st.SyncedIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO synced_items (item_id) VALUES (?) ON CONFLICT DO NOTHING", id)
		if err != nil {
			return fmt.Errorf("save synced item %d: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
