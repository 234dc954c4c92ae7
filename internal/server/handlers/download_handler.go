package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/services"
)

// DownloadHandler handles download dispatch requests
type DownloadHandler struct {
	container *services.Container
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(container *services.Container) *DownloadHandler {
	return &DownloadHandler{
		container: container,
	}
}

// Dispatch sends one search result to a download client. Validation
// failures are HTTP errors; a reachable-but-refusing client resolves
// into a failed outcome with status 200.
func (h *DownloadHandler) Dispatch(c *gin.Context) {
	var request models.DownloadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	outcome, err := h.container.GetDispatcher().Send(c.Request.Context(), &request)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNothingToDispatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Either magnet_link or torrent_url is required"})
		case errors.Is(err, models.ErrClientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Download client not found"})
		default:
			h.container.GetLogger().Errorf("Dispatch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Dispatch failed", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}
