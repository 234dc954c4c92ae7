package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/repositories"
	"github.com/sjafferali/searcharr/internal/services"
)

// InstanceHandler handles indexer instance management for both
// families. Handlers are built per family so the jackett and prowlarr
// route groups share one implementation.
type InstanceHandler struct {
	container *services.Container
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(container *services.Container) *InstanceHandler {
	return &InstanceHandler{
		container: container,
	}
}

func (h *InstanceHandler) repo(family string) repositories.InstanceRepository {
	if family == string(models.InstanceKindProwlarr) {
		return h.container.GetProwlarrRepository()
	}
	return h.container.GetJackettRepository()
}

// List returns every registered instance of the family
func (h *InstanceHandler) List(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		instances, err := h.repo(family).List(c.Request.Context())
		if err != nil {
			h.container.GetLogger().Errorf("Failed to list %s instances: %v", family, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list instances"})
			return
		}

		responses := make([]*models.InstanceResponse, 0, len(instances))
		for _, instance := range instances {
			responses = append(responses, instance.ToResponse())
		}
		c.JSON(http.StatusOK, responses)
	}
}

// Create registers a new instance
func (h *InstanceHandler) Create(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload models.InstanceCreate
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		instance, err := h.repo(family).Create(c.Request.Context(), &payload)
		if err != nil {
			if errors.Is(err, models.ErrDuplicateName) {
				c.JSON(http.StatusConflict, gin.H{"error": "An instance with that name already exists"})
				return
			}
			h.container.GetLogger().Errorf("Failed to create %s instance: %v", family, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create instance"})
			return
		}

		c.JSON(http.StatusCreated, instance.ToResponse())
	}
}

// Get returns one instance by id
func (h *InstanceHandler) Get(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		instance, err := h.repo(family).GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrInstanceNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Instance not found"})
				return
			}
			h.container.GetLogger().Errorf("Failed to get %s instance %d: %v", family, id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get instance"})
			return
		}

		c.JSON(http.StatusOK, instance.ToResponse())
	}
}

// Update applies a partial update. Empty fields keep their stored
// values, the API key included.
func (h *InstanceHandler) Update(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var payload models.InstanceUpdate
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		instance, err := h.repo(family).Update(c.Request.Context(), id, &payload)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInstanceNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Instance not found"})
			case errors.Is(err, models.ErrDuplicateName):
				c.JSON(http.StatusConflict, gin.H{"error": "An instance with that name already exists"})
			default:
				h.container.GetLogger().Errorf("Failed to update %s instance %d: %v", family, id, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update instance"})
			}
			return
		}

		c.JSON(http.StatusOK, instance.ToResponse())
	}
}

// Delete removes an instance
func (h *InstanceHandler) Delete(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		if err := h.repo(family).Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, models.ErrInstanceNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Instance not found"})
				return
			}
			h.container.GetLogger().Errorf("Failed to delete %s instance %d: %v", family, id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete instance"})
			return
		}

		c.JSON(http.StatusNoContent, nil)
	}
}

// Test probes the instance on demand and refreshes its cached status
func (h *InstanceHandler) Test(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		instance, err := h.repo(family).GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrInstanceNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Instance not found"})
				return
			}
			h.container.GetLogger().Errorf("Failed to get %s instance %d: %v", family, id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get instance"})
			return
		}

		status := h.container.GetHealthMonitor().ProbeInstance(c.Request.Context(), instance)
		c.JSON(http.StatusOK, &models.TestResult{
			Success:      status.Online,
			Message:      status.Message,
			IndexerCount: status.IndexerCount,
		})
	}
}

// AllStatuses reports the status of every instance in both families
func (h *InstanceHandler) AllStatuses(c *gin.Context) {
	statuses, err := h.container.GetHealthMonitor().InstanceStatuses(c.Request.Context())
	if err != nil {
		h.container.GetLogger().Errorf("Failed to collect instance statuses: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect statuses"})
		return
	}

	c.JSON(http.StatusOK, statuses)
}

// pathID parses the :id path parameter, writing the error response
// itself when the value is not an integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}
