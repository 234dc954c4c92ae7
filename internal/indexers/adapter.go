package indexers

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sjafferali/searcharr/internal/models"
)

// Adapter translates canonical queries into vendor-specific calls for
// one indexer family. One implementation exists per family; the record's
// kind selects which one handles it.
type Adapter interface {
	// Search runs one query against an instance and returns canonical
	// results in the order the vendor produced them. A transport failure
	// or non-2xx response yields a single error for the whole instance.
	Search(ctx context.Context, instance *models.Instance, query, category string) ([]models.SearchResult, error)

	// Probe checks connectivity and capability. It never returns an
	// error: every failure mode becomes an offline status.
	Probe(ctx context.Context, instance *models.Instance) *models.Status
}

// StatusStore caches probe outcomes with a TTL. Entries expire rather
// than update in place, so a stale status reads as absent.
type StatusStore interface {
	Get(ctx context.Context, key string) (*models.Status, bool)
	Set(ctx context.Context, key string, status *models.Status, ttl time.Duration)
}

// resultID derives a stable identifier for one (instance, item) pair.
func resultID(parts ...string) string {
	h := md5.New()
	for i, p := range parts {
		if i > 0 {
			fmt.Fprint(h, ":")
		}
		fmt.Fprint(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

func offline(message string) *models.Status {
	return &models.Status{Online: false, Message: message, CheckedAt: time.Now()}
}

func online(message string, indexerCount *int) *models.Status {
	return &models.Status{Online: true, Message: message, IndexerCount: indexerCount, CheckedAt: time.Now()}
}
