package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/services"
)

// SearchHandler handles search-related endpoints
type SearchHandler struct {
	container *services.Container
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(container *services.Container) *SearchHandler {
	return &SearchHandler{
		container: container,
	}
}

// Search fans the query out across the selected indexer instances
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	category := c.DefaultQuery("category", "All")
	if !models.IsValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category: " + category})
		return
	}

	request := &models.SearchRequest{
		Query:     query,
		Category:  category,
		SortBy:    c.DefaultQuery("sort_by", models.SortBySeeders),
		SortOrder: c.DefaultQuery("sort_order", models.SortOrderDesc),
	}

	switch request.SortBy {
	case models.SortBySeeders, models.SortBySize, models.SortByDate, models.SortByName:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by: " + request.SortBy})
		return
	}
	if request.SortOrder != models.SortOrderAsc && request.SortOrder != models.SortOrderDesc {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_order: " + request.SortOrder})
		return
	}

	// A present-but-empty id list is an explicit empty selection, which
	// is distinct from the parameter being absent.
	if ids, present := c.GetQuery("jackett_ids"); present {
		request.JackettIDs = parseIDList(ids)
	}
	if ids, present := c.GetQuery("prowlarr_ids"); present {
		request.ProwlarrIDs = parseIDList(ids)
	}

	request.Exclusive = c.Query("exclusive_filter") == "true"

	if minSeeders := c.Query("min_seeders"); minSeeders != "" {
		if n, err := strconv.Atoi(minSeeders); err == nil && n > 0 {
			request.MinSeeders = n
		}
	}

	request.MaxSize = c.Query("max_size")

	response, err := h.container.GetAggregator().Search(c.Request.Context(), request)
	if err != nil {
		h.container.GetLogger().Errorf("Search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Search failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListCategories returns the supported search categories
func (h *SearchHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": models.Categories,
	})
}

func parseIDList(raw string) []int64 {
	ids := []int64{}
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
