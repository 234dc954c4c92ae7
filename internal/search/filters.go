package search

import (
	"sort"
	"strings"
	"time"

	"github.com/sjafferali/searcharr/internal/models"
)

// ApplyFilters returns the results surviving the category, minimum
// seeders, and maximum size criteria, preserving input order. An
// unparseable max_size disables that filter rather than erroring.
func ApplyFilters(results []models.SearchResult, category string, minSeeders int, maxSize string) []models.SearchResult {
	maxBytes := int64(0)
	haveMaxSize := false
	if maxSize != "" {
		maxBytes, haveMaxSize = models.ParseSize(maxSize)
	}

	filterCategory := category != "" && !strings.EqualFold(category, "All")

	filtered := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if filterCategory && !strings.EqualFold(r.Category, category) {
			continue
		}
		if r.Seeders < minSeeders {
			continue
		}
		if haveMaxSize && r.SizeBytes > maxBytes {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// SortResults orders results by the requested key. Equal keys fall back
// to title ascending in both orders so output is deterministic, and the
// sort is stable beyond that tie-break. Results with no published date
// sort as the oldest possible value.
func SortResults(results []models.SearchResult, sortBy, sortOrder string) {
	desc := sortOrder != models.SortOrderAsc

	key := func(i, j int) int {
		a, b := &results[i], &results[j]
		switch sortBy {
		case models.SortBySize:
			return compareInt64(a.SizeBytes, b.SizeBytes)
		case models.SortByDate:
			return compareTime(a.PublishedAt, b.PublishedAt)
		case models.SortByName:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			return compareInt64(int64(a.Seeders), int64(b.Seeders))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		cmp := key(i, j)
		if cmp == 0 {
			return results[i].Title < results[j].Title
		}
		if desc {
			cmp = -cmp
		}
		return cmp < 0
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b *time.Time) int {
	at, bt := time.Time{}, time.Time{}
	if a != nil {
		at = *a
	}
	if b != nil {
		bt = *b
	}
	switch {
	case at.Before(bt):
		return -1
	case at.After(bt):
		return 1
	default:
		return 0
	}
}
