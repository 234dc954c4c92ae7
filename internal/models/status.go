package models

import "time"

// Status is the outcome of the most recent connectivity probe against an
// instance or download client. It is derived state: recomputed on every
// probe, cached with a short TTL, never persisted.
type Status struct {
	Online       bool      `json:"online"`
	Message      string    `json:"message"`
	IndexerCount *int      `json:"indexer_count,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// TestResult is returned by the per-record test endpoints.
type TestResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	IndexerCount *int   `json:"indexer_count,omitempty"`
}

// InstanceStatus pairs a registered record with its last known status.
type InstanceStatus struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// ClientStatus pairs a download client with its last known status.
type ClientStatus struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// AllInstancesStatus is the combined status view over both families.
type AllInstancesStatus struct {
	Jackett     []InstanceStatus `json:"jackett"`
	Prowlarr    []InstanceStatus `json:"prowlarr"`
	TotalOnline int              `json:"total_online"`
}
