package models

import "time"

// ClientKind identifies the download client protocol.
type ClientKind string

const (
	ClientKindQBittorrent ClientKind = "qbittorrent"
)

// DownloadClient is a configured download client backend.
type DownloadClient struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Kind      ClientKind `json:"kind"`
	URL       string     `json:"url"`
	Username  string     `json:"-"`
	Password  string     `json:"-"`
	Category  *string    `json:"category,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ClientCreate is the payload for registering a new download client.
type ClientCreate struct {
	Name     string  `json:"name" binding:"required"`
	Kind     string  `json:"kind"`
	URL      string  `json:"url" binding:"required"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Category *string `json:"category"`
}

// ClientUpdate is a partial update. Empty name/url/username/password keep
// the stored value. Category is the one field that can be explicitly
// cleared: a nil pointer keeps it, an empty string clears it.
type ClientUpdate struct {
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Category *string `json:"category"`
}

// ClientResponse is the read representation; credentials are omitted
// entirely rather than echoed back.
type ClientResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Kind      ClientKind `json:"kind"`
	URL       string     `json:"url"`
	Category  *string    `json:"category"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToResponse converts a client record to its read representation.
func (c *DownloadClient) ToResponse() *ClientResponse {
	return &ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      c.Kind,
		URL:       c.URL,
		Category:  c.Category,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
