package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"readwise_notion_sync/internal/domain"
)

// Source fetches items and highlights from the highlighting service. An
// empty since string means no time filter.
type Source interface {
	FetchChangedItems(ctx context.Context, since string) ([]domain.SourceItem, error)
	FetchHighlights(ctx context.Context, bookID int64, since string) ([]domain.Highlight, error)
}

// Destination reads and writes pages in the knowledge-base database.
type Destination interface {
	FindPagesByTitles(ctx context.Context, titles []string) (map[string]domain.Page, error)
	CreatePage(ctx context.Context, item *domain.SourceItem) (*domain.Page, error)
	UpdatePage(ctx context.Context, pageID string, item *domain.SourceItem) error
	AppendHighlights(ctx context.Context, pageID string, highlights []domain.Highlight) (added, skipped int, err error)
}

// StateStore persists the sync checkpoint across runs.
type StateStore interface {
	Load(ctx context.Context) (*domain.SyncState, error)
	Save(ctx context.Context, state *domain.SyncState) error
}

// Publisher emits an event for every page created or updated during a run.
type Publisher interface {
	Publish(ctx context.Context, item *domain.SourceItem, created bool) error
	Close() error
}
