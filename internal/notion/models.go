package notion

// Query request/response shapes for POST /databases/{id}/query.

type queryRequest struct {
	Filter any `json:"filter"`
}

type titleFilter struct {
	Property string       `json:"property"`
	Title    equalsClause `json:"title"`
}

type equalsClause struct {
	Equals string `json:"equals"`
}

type orFilter struct {
	Or []titleFilter `json:"or"`
}

type queryResponse struct {
	Results []pageObject `json:"results"`
}

// pageObject is the subset of a Notion page this tool reads back: the id,
// the plain-text title, and the Highlights number.
type pageObject struct {
	ID         string                  `json:"id"`
	Properties map[string]pageProperty `json:"properties"`
}

type pageProperty struct {
	Title  []richTextObject `json:"title"`
	Number *float64         `json:"number"`
}

type richTextObject struct {
	PlainText string `json:"plain_text"`
}

// Block children shapes for GET /blocks/{id}/children.

type blockChildrenResponse struct {
	Results    []blockObject `json:"results"`
	HasMore    bool          `json:"has_more"`
	NextCursor *string       `json:"next_cursor"`
}

type blockObject struct {
	Type  string        `json:"type"`
	Quote *blockContent `json:"quote"`
}

type blockContent struct {
	RichText []richTextObject `json:"rich_text"`
}

// Page creation/update payloads.

type createPageRequest struct {
	Parent     parentRef      `json:"parent"`
	Properties map[string]any `json:"properties"`
	Cover      *externalFile  `json:"cover,omitempty"`
	Icon       *externalFile  `json:"icon,omitempty"`
}

type updatePageRequest struct {
	Properties map[string]any `json:"properties"`
	Cover      *externalFile  `json:"cover,omitempty"`
	Icon       *externalFile  `json:"icon,omitempty"`
}

type parentRef struct {
	DatabaseID string `json:"database_id"`
}

type externalFile struct {
	Type     string      `json:"type"`
	External externalURL `json:"external"`
}

type externalURL struct {
	URL string `json:"url"`
}

// Property value payloads.

type titleProperty struct {
	Title []richTextRequest `json:"title"`
}

type richTextProperty struct {
	RichText []richTextRequest `json:"rich_text"`
}

type richTextRequest struct {
	Type string      `json:"type,omitempty"`
	Text textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type selectProperty struct {
	Select optionName `json:"select"`
}

type statusProperty struct {
	Status optionName `json:"status"`
}

type optionName struct {
	Name string `json:"name"`
}

type numberProperty struct {
	Number int `json:"number"`
}

type dateProperty struct {
	Date dateValue `json:"date"`
}

type dateValue struct {
	Start    string  `json:"start"`
	TimeZone *string `json:"time_zone"`
}

type urlProperty struct {
	URL string `json:"url"`
}

// Block append payloads for PATCH /blocks/{id}/children.

type appendChildrenRequest struct {
	Children []block `json:"children"`
}

type block struct {
	Object  string        `json:"object"`
	Type    string        `json:"type"`
	Quote   *quoteBlock   `json:"quote,omitempty"`
	Callout *calloutBlock `json:"callout,omitempty"`
}

type quoteBlock struct {
	RichText []richTextRequest `json:"rich_text"`
	Color    string            `json:"color"`
}

type calloutBlock struct {
	RichText []richTextRequest `json:"rich_text"`
	Icon     emojiIcon         `json:"icon"`
	Color    string            `json:"color"`
}

type emojiIcon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}
