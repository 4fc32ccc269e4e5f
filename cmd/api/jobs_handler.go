package api

import (
	"errors"
	"net/http"

	"todo-backend/internal/jobs"

	"github.com/gin-gonic/gin"
)

// JobsHandler lets an external scheduler trigger periodic jobs over HTTP
type JobsHandler struct {
	registry *jobs.Registry
}

func NewJobsHandler(registry *jobs.Registry) *JobsHandler {
	return &JobsHandler{registry: registry}
}

// ListJobs returns the registered job names
// GET /api/jobs
func (h *JobsHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.registry.Names()})
}

// RunJob runs a job synchronously and returns its summary
// POST /api/jobs/:name
func (h *JobsHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	summary, err := h.registry.Run(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job":     name,
		"summary": summary,
	})
}
