package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskflow/internal/authz"
	"taskflow/internal/models"
	"taskflow/internal/services"
)

func newTaskRouter(svc services.TaskService, p authz.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", p.ID)
		c.Set("is_staff", p.IsStaff)
		c.Set("is_superuser", p.IsSuperuser)
	})
	h := NewTaskHandler(svc, zap.NewNop())
	r.GET("/api/tasks/", h.List)
	r.POST("/api/tasks/", h.Create)
	r.GET("/api/tasks/:id", h.Get)
	r.PATCH("/api/tasks/:id", h.Update)
	r.DELETE("/api/tasks/:id", h.Delete)
	r.POST("/api/tasks/:id/complete", h.Complete)
	r.POST("/api/tasks/:id/reopen", h.Reopen)
	return r
}

func TestTaskHandler_ListParsesFilters(t *testing.T) {
	var got models.TaskFilter
	var gotPrincipal authz.Principal
	svc := &stubTaskService{
		listFn: func(p authz.Principal, filter models.TaskFilter) ([]models.Task, error) {
			gotPrincipal = p
			got = filter
			return []models.Task{*sampleTask(1)}, nil
		},
	}
	r := newTaskRouter(svc, authz.Principal{ID: 7})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/tasks/?status=pending&created_at_gte=2025-06-01&search=report&ordering=-created_at&limit=10&offset=20", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), gotPrincipal.ID)
	require.NotNil(t, got.Status)
	assert.Equal(t, models.StatusPending, *got.Status)
	require.NotNil(t, got.CreatedGE)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *got.CreatedGE)
	assert.Equal(t, "report", got.Search)
	assert.Equal(t, "-created_at", got.Ordering)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, 20, got.Offset)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "alice", body[0]["user"])
	assert.Equal(t, "bob", body[0]["assigned_to_username"])
	assert.Equal(t, false, body[0]["completed"])
	_, hasCreatorID := body[0]["creator_id"]
	assert.False(t, hasCreatorID, "creator id is only exposed as a username")
}

func TestTaskHandler_ListRejectsBadFilters(t *testing.T) {
	svc := &stubTaskService{
		listFn: func(authz.Principal, models.TaskFilter) ([]models.Task, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	r := newTaskRouter(svc, authz.Principal{ID: 7})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/?status=archived", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/?created_at=junk", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_Create(t *testing.T) {
	svc := &stubTaskService{
		createFn: func(p authz.Principal, in services.TaskCreateInput) (*models.Task, error) {
			task := sampleTask(5)
			task.Title = in.Title
			task.AssigneeID = in.AssigneeID
			return task, nil
		},
	}
	r := newTaskRouter(svc, authz.Principal{ID: 1})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/",
		strings.NewReader(`{"title":"Write report","description":"x","assigned_to":2}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body["id"])
	assert.Equal(t, "Write report", body["title"])
}

func TestTaskHandler_CreateValidationError(t *testing.T) {
	svc := &stubTaskService{
		createFn: func(authz.Principal, services.TaskCreateInput) (*models.Task, error) {
			return nil, services.NewValidationError("assigned_to", "Assigned user does not exist.")
		},
	}
	r := newTaskRouter(svc, authz.Principal{ID: 1})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/",
		strings.NewReader(`{"title":"x","assigned_to":9999}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Assigned user does not exist."}, body["assigned_to"])
}

func TestTaskHandler_GetErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubTaskService{
				getFn: func(authz.Principal, int64) (*models.Task, error) { return nil, tc.err },
			}
			r := newTaskRouter(svc, authz.Principal{ID: 1})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/3", nil))
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestTaskHandler_Complete(t *testing.T) {
	svc := &stubTaskService{
		completeFn: func(p authz.Principal, id int64) (*models.Task, error) {
			task := sampleTask(id)
			task.Status = models.StatusCompleted
			task.Completed = true
			ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
			task.CompletedAt = &ts
			return task, nil
		},
	}
	r := newTaskRouter(svc, authz.Principal{ID: 1})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tasks/3/complete", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, true, body["completed"])
	assert.NotNil(t, body["completed_at"])
}

func TestTaskHandler_Delete(t *testing.T) {
	var deleted int64
	svc := &stubTaskService{
		deleteFn: func(p authz.Principal, id int64) error { deleted = id; return nil },
	}
	r := newTaskRouter(svc, authz.Principal{ID: 1})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/tasks/3", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(3), deleted)
	assert.Empty(t, w.Body.String())
}

func TestTaskHandler_InvalidID(t *testing.T) {
	svc := &stubTaskService{}
	r := newTaskRouter(svc, authz.Principal{ID: 1})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
