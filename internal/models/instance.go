package models

import "time"

// InstanceKind identifies the indexer proxy family an instance belongs to.
type InstanceKind string

const (
	InstanceKindJackett  InstanceKind = "jackett"
	InstanceKindProwlarr InstanceKind = "prowlarr"
)

// Instance is a configured indexer proxy (one Jackett or Prowlarr server).
type Instance struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Kind      InstanceKind `json:"kind"`
	URL       string       `json:"url"`
	APIKey    string       `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// InstanceCreate is the payload for registering a new instance.
type InstanceCreate struct {
	Name   string `json:"name" binding:"required"`
	URL    string `json:"url" binding:"required"`
	APIKey string `json:"api_key" binding:"required"`
}

// InstanceUpdate is a partial update. Empty fields keep the stored value;
// in particular an empty api_key never erases the stored key.
type InstanceUpdate struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

// InstanceResponse is the read representation. The API key only ever
// leaves the server in masked form.
type InstanceResponse struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Kind         InstanceKind `json:"kind"`
	URL          string       `json:"url"`
	APIKeyMasked string       `json:"api_key_masked"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ToResponse converts an instance to its masked read representation.
func (i *Instance) ToResponse() *InstanceResponse {
	return &InstanceResponse{
		ID:           i.ID,
		Name:         i.Name,
		Kind:         i.Kind,
		URL:          i.URL,
		APIKeyMasked: MaskSecret(i.APIKey),
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}
