// Package downloadclients routes accepted search results to torrent
// download clients and keeps track of client reachability.
package downloadclients

import (
	"context"

	"github.com/sjafferali/searcharr/internal/models"
)

// Adapter speaks one download client protocol. Implementations create a
// fresh session per call; client records hold credentials, not live
// connections.
type Adapter interface {
	// AddTorrent submits a magnet link or torrent URL to the client,
	// optionally assigning a category.
	AddTorrent(ctx context.Context, client *models.DownloadClient, link string, category string) error

	// Probe checks reachability and credentials. It never returns an
	// error; failures read as an offline status.
	Probe(ctx context.Context, client *models.DownloadClient) *models.Status
}
