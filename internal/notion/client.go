package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"readwise_notion_sync/internal/domain"
	"readwise_notion_sync/internal/fingerprint"
)

const (
	// maxTitlesPerQuery is Notion's filter complexity ceiling for one
	// disjunctive query.
	maxTitlesPerQuery = 100

	// maxBlocksPerRequest is Notion's append-children limit per call.
	maxBlocksPerRequest = 100

	// maxBlockTextLen is Notion's rich text content limit per block.
	maxBlockTextLen = 2000
)

// categoryMap translates Readwise categories to the destination database's
// Category select options. Unrecognized categories land in Books.
var categoryMap = map[string]string{
	"books":         "Books",
	"articles":      "Articles",
	"tweets":        "Quote",
	"podcasts":      "Podcast",
	"supplementals": "Articles",
}

const defaultCategory = "Books"

// Config holds Notion client configuration.
type Config struct {
	BaseURL    string
	Token      string
	DatabaseID string
	Version    string
	Timeout    time.Duration
}

// Client talks to the Notion API for a single database.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
	version    string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		version:    cfg.Version,
		logger:     logger.With("client", "notion"),
	}
}

// FindPagesByTitles resolves existing pages for all given titles with one
// disjunctive query per chunk of 100, returning a title-keyed map. Two items
// sharing a title resolve to the same page; the match is exact and
// case-sensitive.
func (c *Client) FindPagesByTitles(ctx context.Context, titles []string) (map[string]domain.Page, error) {
	pages := make(map[string]domain.Page)

	for start := 0; start < len(titles); start += maxTitlesPerQuery {
		end := min(start+maxTitlesPerQuery, len(titles))
		batch := titles[start:end]

		var filter any
		if len(batch) == 1 {
			filter = titleEquals(batch[0])
		} else {
			or := orFilter{Or: make([]titleFilter, len(batch))}
			for i, title := range batch {
				or.Or[i] = titleEquals(title)
			}
			filter = or
		}

		var resp queryResponse
		err := c.do(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", queryRequest{Filter: filter}, &resp)
		if err != nil {
			return nil, fmt.Errorf("query pages (batch of %d): %w", len(batch), err)
		}

		for _, obj := range resp.Results {
			if page, ok := toPage(obj); ok {
				pages[page.Title] = page
			}
		}
	}

	return pages, nil
}

// FindPageByTitle looks up a single page by exact title, nil when absent.
func (c *Client) FindPageByTitle(ctx context.Context, title string) (*domain.Page, error) {
	pages, err := c.FindPagesByTitles(ctx, []string{title})
	if err != nil {
		return nil, err
	}
	if page, ok := pages[title]; ok {
		return &page, nil
	}
	return nil, nil
}

// CreatePage materializes a new page for the item: mirrored properties, the
// initial status, and the cover image as both cover and icon when present.
func (c *Client) CreatePage(ctx context.Context, item *domain.SourceItem) (*domain.Page, error) {
	props := map[string]any{
		"Title": titleProperty{Title: []richTextRequest{
			{Text: textContent{Content: item.Title}},
		}},
		"Author": richTextProperty{RichText: []richTextRequest{
			{Text: textContent{Content: item.Author}},
		}},
		"Category":    selectProperty{Select: optionName{Name: mapCategory(item.Category)}},
		"Highlights":  numberProperty{Number: item.NumHighlights},
		"Status":      statusProperty{Status: optionName{Name: "Not started"}},
		"Last Synced": dateProperty{Date: dateValue{Start: nowStamp()}},
	}
	if item.SourceURL != "" {
		props["URL"] = urlProperty{URL: item.SourceURL}
	}
	if item.LastHighlightAt != "" {
		props["Last Highlighted"] = dateProperty{Date: dateValue{Start: item.LastHighlightAt}}
	}

	req := createPageRequest{
		Parent:     parentRef{DatabaseID: c.databaseID},
		Properties: props,
	}
	if cover := coverFor(item); cover != nil {
		req.Cover = cover
		req.Icon = cover
	}

	var resp pageObject
	if err := c.do(ctx, http.MethodPost, "/pages", req, &resp); err != nil {
		return nil, fmt.Errorf("create page %q: %w", item.Title, err)
	}

	return &domain.Page{ID: resp.ID, Title: item.Title, HighlightCount: item.NumHighlights}, nil
}

// UpdatePage patches the mutable mirror properties. Title, author, and
// category are immutable after creation and never touched here.
func (c *Client) UpdatePage(ctx context.Context, pageID string, item *domain.SourceItem) error {
	props := map[string]any{
		"Highlights":  numberProperty{Number: item.NumHighlights},
		"Last Synced": dateProperty{Date: dateValue{Start: nowStamp()}},
	}
	if item.LastHighlightAt != "" {
		props["Last Highlighted"] = dateProperty{Date: dateValue{Start: item.LastHighlightAt}}
	}

	req := updatePageRequest{Properties: props}
	if cover := coverFor(item); cover != nil {
		req.Cover = cover
		req.Icon = cover
	}

	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, req, nil); err != nil {
		return fmt.Errorf("update page %q: %w", item.Title, err)
	}
	return nil
}

// ListExistingFingerprints pages through the page's content blocks and
// fingerprints the text of every quote block. This is how "already synced"
// is decided at the content level, independent of the synced-id set.
func (c *Client) ListExistingFingerprints(ctx context.Context, pageID string) (map[string]struct{}, error) {
	fingerprints := make(map[string]struct{})

	cursor := ""
	for {
		path := "/blocks/" + pageID + "/children"
		if cursor != "" {
			path += "?start_cursor=" + url.QueryEscape(cursor)
		}

		var resp blockChildrenResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, fmt.Errorf("list blocks: %w", err)
		}

		for _, b := range resp.Results {
			if b.Type != "quote" || b.Quote == nil {
				continue
			}
			var sb strings.Builder
			for _, rt := range b.Quote.RichText {
				sb.WriteString(rt.PlainText)
			}
			if sb.Len() > 0 {
				fingerprints[fingerprint.Fingerprint(sb.String())] = struct{}{}
			}
		}

		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}

	return fingerprints, nil
}

// AppendHighlights appends the not-yet-present highlights to the page as
// quote blocks (with a callout per note), oldest first so the page stays in
// chronological order. Returns how many highlights were added and how many
// were skipped as duplicates. Zero new highlights means zero network writes.
func (c *Client) AppendHighlights(ctx context.Context, pageID string, highlights []domain.Highlight) (added, skipped int, err error) {
	sorted := make([]domain.Highlight, len(highlights))
	copy(sorted, highlights)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].HighlightedAt < sorted[j].HighlightedAt
	})

	existing, err := c.ListExistingFingerprints(ctx, pageID)
	if err != nil {
		return 0, 0, err
	}
	c.logger.Debug("existing highlights on page", "page_id", pageID, "count", len(existing))

	var blocks []block
	for _, h := range sorted {
		if _, ok := existing[fingerprint.Fingerprint(h.Text)]; ok {
			skipped++
			continue
		}
		blocks = append(blocks, quoteFor(h))
		added++
		if h.Note != nil && *h.Note != "" {
			blocks = append(blocks, calloutFor(*h.Note))
		}
	}

	if added == 0 {
		c.logger.Debug("all highlights already on page", "page_id", pageID, "skipped", skipped)
		return 0, skipped, nil
	}

	for start := 0; start < len(blocks); start += maxBlocksPerRequest {
		end := min(start+maxBlocksPerRequest, len(blocks))
		req := appendChildrenRequest{Children: blocks[start:end]}
		if err := c.do(ctx, http.MethodPatch, "/blocks/"+pageID+"/children", req, nil); err != nil {
			return added, skipped, fmt.Errorf("append blocks: %w", err)
		}
	}

	return added, skipped, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the full body: Notion's validation errors are only
		// debuggable with it.
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notion: unexpected status %d: %s", resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func titleEquals(title string) titleFilter {
	return titleFilter{Property: "Title", Title: equalsClause{Equals: title}}
}

func toPage(obj pageObject) (domain.Page, bool) {
	titleProp, ok := obj.Properties["Title"]
	if !ok || len(titleProp.Title) == 0 {
		return domain.Page{}, false
	}

	page := domain.Page{ID: obj.ID, Title: titleProp.Title[0].PlainText}
	if hl, ok := obj.Properties["Highlights"]; ok && hl.Number != nil {
		page.HighlightCount = int(*hl.Number)
	}
	return page, true
}

func mapCategory(category string) string {
	if mapped, ok := categoryMap[strings.ToLower(category)]; ok {
		return mapped
	}
	return defaultCategory
}

func coverFor(item *domain.SourceItem) *externalFile {
	if item.CoverImageURL == nil || *item.CoverImageURL == "" {
		return nil
	}
	return &externalFile{Type: "external", External: externalURL{URL: *item.CoverImageURL}}
}

func quoteFor(h domain.Highlight) block {
	return block{
		Object: "block",
		Type:   "quote",
		Quote: &quoteBlock{
			RichText: []richTextRequest{
				{Type: "text", Text: textContent{Content: truncate(h.Text, maxBlockTextLen)}},
			},
			Color: "default",
		},
	}
}

func calloutFor(note string) block {
	return block{
		Object: "block",
		Type:   "callout",
		Callout: &calloutBlock{
			RichText: []richTextRequest{
				{Type: "text", Text: textContent{Content: "Note: " + truncate(note, maxBlockTextLen)}},
			},
			Icon:  emojiIcon{Type: "emoji", Emoji: "💭"},
			Color: "gray_background",
		},
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func nowStamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}
