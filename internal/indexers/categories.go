package indexers

import (
	"strconv"
	"strings"
)

// categoryIDs maps each search category to its Newznab category codes.
// "All" has no entry: it means no category constraint on the vendor call.
var categoryIDs = map[string][]int{
	"Movies":   {2000, 2010, 2020, 2030, 2040, 2045, 2050, 2060},
	"TV":       {5000, 5010, 5020, 5030, 5040, 5045, 5050, 5060, 5070, 5080},
	"Music":    {3000, 3010, 3020, 3030, 3040},
	"Software": {4000, 4010, 4020, 4030, 4040, 4050, 4060, 4070},
	"Games":    {1000, 1010, 1020, 1030, 1040, 1050, 1060, 1070, 1080},
	"Books":    {7000, 7010, 7020, 7030, 7040, 7050, 7060},
	"Anime":    {5070},
	"Other":    {8000, 8010, 8020},
}

// CategoryIDs returns the Newznab codes for a category, or nil for "All"
// and unknown names.
func CategoryIDs(category string) []int {
	return categoryIDs[category]
}

// categoryIDParam renders category codes as the comma-joined string the
// Torznab API expects. Empty for "All".
func categoryIDParam(category string) string {
	ids := CategoryIDs(category)
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
