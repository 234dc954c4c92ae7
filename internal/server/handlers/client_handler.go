package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/services"
)

// ClientHandler handles download client management
type ClientHandler struct {
	container *services.Container
}

// NewClientHandler creates a new client handler
func NewClientHandler(container *services.Container) *ClientHandler {
	return &ClientHandler{
		container: container,
	}
}

// List returns every registered download client
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.container.GetClientRepository().List(c.Request.Context())
	if err != nil {
		h.container.GetLogger().Errorf("Failed to list clients: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list clients"})
		return
	}

	responses := make([]*models.ClientResponse, 0, len(clients))
	for _, client := range clients {
		responses = append(responses, client.ToResponse())
	}
	c.JSON(http.StatusOK, responses)
}

// Create registers a new download client
func (h *ClientHandler) Create(c *gin.Context) {
	var payload models.ClientCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	client, err := h.container.GetClientRepository().Create(c.Request.Context(), &payload)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateName) {
			c.JSON(http.StatusConflict, gin.H{"error": "A client with that name already exists"})
			return
		}
		h.container.GetLogger().Errorf("Failed to create client: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		return
	}

	c.JSON(http.StatusCreated, client.ToResponse())
}

// Get returns one client by id
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	client, err := h.container.GetClientRepository().GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		h.container.GetLogger().Errorf("Failed to get client %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get client"})
		return
	}

	c.JSON(http.StatusOK, client.ToResponse())
}

// Update applies a partial update. Empty credential fields keep their
// stored values; category distinguishes absent (keep) from empty
// string (clear).
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload models.ClientUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	client, err := h.container.GetClientRepository().Update(c.Request.Context(), id, &payload)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrClientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		case errors.Is(err, models.ErrDuplicateName):
			c.JSON(http.StatusConflict, gin.H{"error": "A client with that name already exists"})
		default:
			h.container.GetLogger().Errorf("Failed to update client %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update client"})
		}
		return
	}

	c.JSON(http.StatusOK, client.ToResponse())
}

// Delete removes a client
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.container.GetClientRepository().Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		h.container.GetLogger().Errorf("Failed to delete client %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// Test probes the client on demand and refreshes its cached status
func (h *ClientHandler) Test(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	client, err := h.container.GetClientRepository().GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		h.container.GetLogger().Errorf("Failed to get client %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get client"})
		return
	}

	status := h.container.GetHealthMonitor().ProbeClient(c.Request.Context(), client)
	c.JSON(http.StatusOK, &models.TestResult{
		Success: status.Online,
		Message: status.Message,
	})
}

// AllStatuses reports the status of every registered client
func (h *ClientHandler) AllStatuses(c *gin.Context) {
	statuses, err := h.container.GetHealthMonitor().ClientStatuses(c.Request.Context())
	if err != nil {
		h.container.GetLogger().Errorf("Failed to collect client statuses: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect statuses"})
		return
	}

	c.JSON(http.StatusOK, statuses)
}
