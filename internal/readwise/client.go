package readwise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"readwise_notion_sync/internal/domain"
)

// Config holds Readwise client configuration.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the Readwise v2 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logger:     logger.With("client", "readwise"),
	}
}

// FetchChangedItems returns every item with highlight activity since the
// given cutoff (ISO-8601, empty for no filter), following pagination links
// until exhausted. The server-side highlighted_after filter is re-applied
// client-side on last_highlight_at because it is not fully trusted.
func (c *Client) FetchChangedItems(ctx context.Context, since string) ([]domain.SourceItem, error) {
	cutoff := ""
	params := url.Values{}
	if since != "" {
		cutoff = normalizeCutoff(since)
		params.Set("highlighted_after", cutoff)
	}

	next := c.baseURL + "/books/"
	if len(params) > 0 {
		// Only the first request carries params; next links include them.
		next += "?" + params.Encode()
	}

	var all []bookItem
	for next != "" {
		var page booksResponse
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	c.logger.Debug("fetched items", "count", len(all), "since", since)

	items := transform(all)
	if cutoff != "" {
		filtered := filterByLastHighlight(items, cutoff)
		if len(filtered) < len(items) {
			c.logger.Debug("client-side filter dropped items",
				"before", len(items), "after", len(filtered))
		}
		items = filtered
	}
	return items, nil
}

// FetchHighlights fetches highlights for one item in a single request,
// optionally filtered to those created after the cutoff.
func (c *Client) FetchHighlights(ctx context.Context, bookID int64, since string) ([]domain.Highlight, error) {
	params := url.Values{}
	params.Set("book_id", strconv.FormatInt(bookID, 10))
	if since != "" {
		params.Set("highlighted_after", normalizeCutoff(since))
	}

	var resp highlightsResponse
	if err := c.get(ctx, c.baseURL+"/highlights/?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	highlights := make([]domain.Highlight, 0, len(resp.Results))
	for _, h := range resp.Results {
		hl := domain.Highlight{ID: h.ID, BookID: h.BookID, Text: h.Text}
		if h.Note != nil && *h.Note != "" {
			hl.Note = h.Note
		}
		if h.HighlightedAt != nil {
			hl.HighlightedAt = *h.HighlightedAt
		}
		highlights = append(highlights, hl)
	}
	return highlights, nil
}

func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("readwise: unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// normalizeCutoff strips fractional seconds, which the highlighted_after
// param rejects: "2024-01-02T03:04:05.123456Z" becomes "2024-01-02T03:04:05Z".
func normalizeCutoff(ts string) string {
	if i := strings.Index(ts, "."); i >= 0 {
		return ts[:i] + "Z"
	}
	return ts
}

// filterByLastHighlight re-applies the sync window on the client. The
// comparison is lexical on the ISO-8601 strings with the trailing zone
// marker removed; items that never had a highlight are dropped.
func filterByLastHighlight(items []domain.SourceItem, cutoff string) []domain.SourceItem {
	cut := strings.TrimSuffix(cutoff, "Z")
	filtered := make([]domain.SourceItem, 0, len(items))
	for _, item := range items {
		if item.LastHighlightAt == "" {
			continue
		}
		if strings.TrimSuffix(item.LastHighlightAt, "Z") >= cut {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func transform(books []bookItem) []domain.SourceItem {
	items := make([]domain.SourceItem, 0, len(books))
	for _, b := range books {
		title := b.Title
		if title == "" {
			title = "Untitled"
		}
		item := domain.SourceItem{
			ID:            b.ID,
			Title:         title,
			Category:      b.Category,
			NumHighlights: b.NumHighlights,
			SourceURL:     fmt.Sprintf("https://readwise.io/bookreview/%d", b.ID),
			CoverImageURL: b.CoverImageURL,
		}
		if b.Author != nil {
			item.Author = *b.Author
		}
		if b.LastHighlightAt != nil {
			item.LastHighlightAt = *b.LastHighlightAt
		}
		if b.Updated != nil {
			item.UpdatedAt = *b.Updated
		}
		items = append(items, item)
	}
	return items
}
