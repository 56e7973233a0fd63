package readwise

// booksResponse is the envelope Readwise wraps collection endpoints in. Next
// is a fully-qualified URL to the following page, null on the last one.
type booksResponse struct {
	Count   int        `json:"count"`
	Next    *string    `json:"next"`
	Results []bookItem `json:"results"`
}

// bookItem is one entry from /books/. Despite the name it covers every
// content type Readwise tracks: books, articles, tweets, podcasts.
type bookItem struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Author          *string `json:"author"`
	Category        string  `json:"category"`
	NumHighlights   int     `json:"num_highlights"`
	LastHighlightAt *string `json:"last_highlight_at"`
	Updated         *string `json:"updated"`
	CoverImageURL   *string `json:"cover_image_url"`
}

type highlightsResponse struct {
	Count   int            `json:"count"`
	Next    *string        `json:"next"`
	Results []apiHighlight `json:"results"`
}

type apiHighlight struct {
	ID            int64   `json:"id"`
	BookID        int64   `json:"book_id"`
	Text          string  `json:"text"`
	Note          *string `json:"note"`
	HighlightedAt *string `json:"highlighted_at"`
}
