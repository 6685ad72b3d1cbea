package cms

// Item 对应内容库中的 item 文档
type Item struct {
	Type        string `json:"_type"`
	ID          string `json:"_id"`
	CreatedAt   string `json:"_createdAt"`
	UpdatedAt   string `json:"_updatedAt"`
	Name        string `json:"name"`
	Question    string `json:"question"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Slug        Slug   `json:"slug"`
	Image       Image  `json:"image"`
}

// Slug is the URL-safe identifier of a document.
type Slug struct {
	Current string `json:"current"`
	Type    string `json:"_type"`
}

type Image struct {
	Type  string `json:"_type"`
	Asset Asset  `json:"asset"`
}

// Asset references an uploaded file by id.
type Asset struct {
	Ref  string `json:"_ref"`
	Type string `json:"_type"`
}

// Summary is the public projection served by /api/sanity.
type Summary struct {
	Name string `json:"name"`
}
