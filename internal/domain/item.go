package domain

// SourceItem is one synced unit from Readwise: a book, article, podcast
// episode, or tweet thread. Readwise calls all of them "books". Items are
// created remotely by the user highlighting content and are read-only here.
type SourceItem struct {
	ID              int64
	Title           string
	Author          string
	Category        string // books, articles, tweets, podcasts, supplementals
	NumHighlights   int
	CoverImageURL   *string
	SourceURL       string
	LastHighlightAt string // ISO-8601, empty when the item has no highlights
	UpdatedAt       string
}

// Highlight belongs to exactly one SourceItem. Immutable once fetched; this
// system never writes back to the source.
type Highlight struct {
	ID            int64
	BookID        int64
	Text          string
	Note          *string
	HighlightedAt string
}

// Page is the destination database page mirroring one SourceItem. Pages are
// matched to items by exact title equality.
type Page struct {
	ID             string
	Title          string
	HighlightCount int
}
