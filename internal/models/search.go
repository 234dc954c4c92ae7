package models

import "time"

// Categories is the closed set of search categories. "All" disables
// category filtering.
var Categories = []string{
	"All", "Movies", "TV", "Music", "Software", "Games", "Books", "Anime", "Other",
}

// IsValidCategory reports whether name is one of the known categories.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// SortOrder values accepted by search requests.
const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Sort keys accepted by search requests.
const (
	SortBySeeders = "seeders"
	SortBySize    = "size"
	SortByDate    = "date"
	SortByName    = "name"
)

// SearchRequest is the canonical query fanned out to indexer instances.
type SearchRequest struct {
	Query       string
	Category    string
	JackettIDs  []int64
	ProwlarrIDs []int64
	// Exclusive changes the meaning of an omitted id list: normally an
	// omitted list selects every instance of that family, with Exclusive
	// set it selects none.
	Exclusive  bool
	MinSeeders int
	MaxSize    string
	SortBy     string
	SortOrder  string
}

// SearchResult is one torrent in canonical form, identical across
// indexer families.
type SearchResult struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	InstanceID    int64      `json:"instance_id"`
	InstanceKind  string     `json:"instance_kind"`
	InstanceName  string     `json:"instance_name"`
	IndexerName   string     `json:"indexer_name"`
	SizeBytes     int64      `json:"size_bytes"`
	SizeFormatted string     `json:"size_formatted"`
	Seeders       int        `json:"seeders"`
	Leechers      int        `json:"leechers"`
	PublishedAt   *time.Time `json:"published_at"`
	Category      string     `json:"category"`
	MagnetLink    *string    `json:"magnet_link"`
	TorrentURL    *string    `json:"torrent_url"`
	InfoURL       *string    `json:"info_url"`
}

// Dispatchable reports whether the result carries a link a download
// client could act on.
func (r *SearchResult) Dispatchable() bool {
	return r.MagnetLink != nil || r.TorrentURL != nil
}

// SearchResponse is the merged outcome of one query. A failing instance
// adds a string to Errors instead of failing the response.
type SearchResponse struct {
	Query          string         `json:"query"`
	Category       string         `json:"category"`
	Results        []SearchResult `json:"results"`
	TotalResults   int            `json:"total_results"`
	SourcesQueried int            `json:"sources_queried"`
	Errors         []string       `json:"errors"`
}

// DownloadRequest asks for one result to be sent to a download client.
type DownloadRequest struct {
	ClientID   int64   `json:"client_id" binding:"required"`
	MagnetLink *string `json:"magnet_link"`
	TorrentURL *string `json:"torrent_url"`
	Category   *string `json:"category"`
}

// DispatchOutcome is the terminal result of one dispatch attempt. Failed
// dispatches are not retried; the caller re-initiates if desired.
type DispatchOutcome struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ClientName string `json:"client_name"`
}
