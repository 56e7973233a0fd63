package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"readwise_notion_sync/internal/domain"
)

// Options control the sync window for one run. All wins over Since; with
// neither set, the window starts at the stored last-sync time.
type Options struct {
	Since string // explicit window start, ISO-8601
	All   bool   // ignore any stored timestamp, full resync
}

// SyncService reconciles source items against destination pages. It runs a
// strictly sequential pipeline: fetch changed items, batch-resolve existing
// pages, then create, update, or skip each item in source order, committing
// state only after the whole run succeeds.
type SyncService struct {
	source      Source
	destination Destination
	state       StateStore
	publisher   Publisher
	logger      *slog.Logger
}

func NewSyncService(
	source Source,
	destination Destination,
	state StateStore,
	publisher Publisher,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		source:      source,
		destination: destination,
		state:       state,
		publisher:   publisher,
		logger:      logger.With("component", "sync"),
	}
}

func (s *SyncService) Sync(ctx context.Context, opts Options) (*domain.SyncStats, error) {
	startTime := time.Now()

	state, err := s.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	since := state.LastSyncTime
	switch {
	case opts.All:
		since = ""
	case opts.Since != "":
		since = opts.Since
	}

	s.logger.Info("starting sync", "since", since, "synced_items", len(state.SyncedIDs))

	items, err := s.source.FetchChangedItems(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch changed items: %w", err)
	}

	stats := &domain.SyncStats{Fetched: len(items)}

	if len(items) == 0 {
		// Nothing changed, so there is nothing to commit either.
		s.logger.Info("no new highlights since last sync")
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	existingPages, err := s.destination.FindPagesByTitles(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("resolve existing pages: %w", err)
	}
	s.logger.Info("resolved existing pages", "fetched", len(items), "existing", len(existingPages))

	var syncedIDs []int64
	for i := range items {
		item := &items[i]
		logger := s.logger.With("item_id", item.ID, "title", item.Title)

		page, exists := existingPages[item.Title]
		switch {
		case exists:
			if err := s.updateItem(ctx, logger, item, &page, since, stats); err != nil {
				return nil, err
			}
			stats.Updated++
			syncedIDs = append(syncedIDs, item.ID)
		case state.Contains(item.ID):
			// Synced before but no page now: the user deleted it in the
			// destination. Never recreate it.
			logger.Info("previously synced page was deleted, skipping")
			stats.Skipped++
		default:
			if err := s.createItem(ctx, logger, item, stats); err != nil {
				return nil, err
			}
			stats.Created++
			syncedIDs = append(syncedIDs, item.ID)
		}
	}

	state.Merge(syncedIDs)
	state.LastSyncTime = time.Now().UTC().Format("2006-01-02T15:04:05Z")
	if err := s.state.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	stats.Duration = time.Since(startTime)
	s.logger.Info("sync completed",
		"fetched", stats.Fetched,
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"highlights_added", stats.HighlightsAdded,
		"highlights_skipped", stats.HighlightsSkipped,
		"anomalies", stats.Anomalies,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (s *SyncService) updateItem(ctx context.Context, logger *slog.Logger, item *domain.SourceItem, page *domain.Page, since string, stats *domain.SyncStats) error {
	if err := s.destination.UpdatePage(ctx, page.ID, item); err != nil {
		return fmt.Errorf("update page %q: %w", item.Title, err)
	}
	s.publish(ctx, logger, item, false)

	if item.NumHighlights <= page.HighlightCount {
		logger.Debug("no new highlights", "count", item.NumHighlights)
		return nil
	}

	// Only highlights created inside the sync window are fetched here, which
	// protects manual deletions and edits already made on the page.
	highlights, err := s.source.FetchHighlights(ctx, item.ID, since)
	if err != nil {
		return fmt.Errorf("fetch highlights for %q: %w", item.Title, err)
	}
	if len(highlights) == 0 {
		// Count went up yet the window returned nothing: usually clock skew
		// between the two services. Not fatal.
		logger.Warn("highlight count increased but no new highlights returned",
			"page_count", page.HighlightCount,
			"item_count", item.NumHighlights,
		)
		stats.Anomalies++
		return nil
	}

	added, skipped, err := s.destination.AppendHighlights(ctx, page.ID, highlights)
	if err != nil {
		return fmt.Errorf("append highlights to %q: %w", item.Title, err)
	}
	stats.HighlightsAdded += added
	stats.HighlightsSkipped += skipped
	logger.Info("appended highlights", "added", added, "skipped", skipped)
	return nil
}

func (s *SyncService) createItem(ctx context.Context, logger *slog.Logger, item *domain.SourceItem, stats *domain.SyncStats) error {
	page, err := s.destination.CreatePage(ctx, item)
	if err != nil {
		return fmt.Errorf("create page %q: %w", item.Title, err)
	}
	logger.Info("created page", "page_id", page.ID)
	s.publish(ctx, logger, item, true)

	if item.NumHighlights == 0 {
		return nil
	}

	// First sync of this item: take the whole highlight history, not just
	// the current window.
	highlights, err := s.source.FetchHighlights(ctx, item.ID, "")
	if err != nil {
		return fmt.Errorf("fetch highlights for %q: %w", item.Title, err)
	}

	added, skipped, err := s.destination.AppendHighlights(ctx, page.ID, highlights)
	if err != nil {
		return fmt.Errorf("append highlights to %q: %w", item.Title, err)
	}
	stats.HighlightsAdded += added
	stats.HighlightsSkipped += skipped
	logger.Info("appended highlights", "added", added, "skipped", skipped)
	return nil
}

func (s *SyncService) publish(ctx context.Context, logger *slog.Logger, item *domain.SourceItem, created bool) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, item, created); err != nil {
		logger.Warn("publish event failed", "error", err)
	}
}
