package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	tasks services.TaskService
	log   *zap.Logger
}

func NewTaskHandler(tasks services.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

// GET /api/tasks/
func (h *TaskHandler) List(c *gin.Context) {
	filter := models.TaskFilter{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"status": []string{"Select a valid choice. " + raw + " is not one of the available choices."}})
			return
		}
		filter.Status = &status
	}

	for _, q := range []struct {
		name string
		dst  **time.Time
	}{
		{"created_at", &filter.CreatedOn},
		{"created_at_gte", &filter.CreatedGE},
		{"created_at_lte", &filter.CreatedLE},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{q.name: []string{"Enter a valid date."}})
			return
		}
		*q.dst = &t
	}

	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			filter.Limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			filter.Offset = v
		}
	}

	tasks, err := h.tasks.List(c.Request.Context(), getPrincipal(c), filter)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// POST /api/tasks/
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		AssignedTo  int64  `json:"assigned_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), getPrincipal(c), services.TaskCreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssignedTo,
	})
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GET /api/tasks/:id/
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), getPrincipal(c), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// PUT/PATCH /api/tasks/:id/
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	in := services.TaskUpdateInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		in.Status = &status
	}

	task, err := h.tasks.Update(c.Request.Context(), getPrincipal(c), id, in)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /api/tasks/:id/
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), getPrincipal(c), id); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/tasks/:id/complete/
func (h *TaskHandler) Complete(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Complete(c.Request.Context(), getPrincipal(c), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /api/tasks/:id/reopen/
func (h *TaskHandler) Reopen(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Reopen(c.Request.Context(), getPrincipal(c), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid task id"})
		return 0, false
	}
	return id, true
}
