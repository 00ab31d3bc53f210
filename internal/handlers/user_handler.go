package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskflow/internal/services"
)

type UserHandler struct {
	users services.UserService
	log   *zap.Logger
}

func NewUserHandler(users services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// GET /api/auth/users/
func (h *UserHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// DELETE /api/auth/users/:id/
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid user id"})
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), getPrincipal(c), id); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "User deleted successfully."})
}
