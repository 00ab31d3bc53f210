package handlers

import (
	"context"
	"time"

	"taskflow/internal/authz"
	"taskflow/internal/models"
	"taskflow/internal/services"
)

// Stub services recording inputs and returning canned results. The handler
// tests only exercise HTTP parsing, status codes and response shapes.

type stubUserService struct {
	registerFn     func(in services.RegisterInput) (*models.User, error)
	authenticateFn func(username, password string) (*models.User, error)
	getFn          func(id int64) (*models.User, error)
	updateFn       func(p authz.Principal, in services.ProfileUpdateInput) (*models.User, error)
	changeFn       func(p authz.Principal, oldPw, newPw, confirm string) error
	listFn         func(limit, offset int) ([]*models.User, error)
	deactivateFn   func(p authz.Principal, targetID int64) error
}

func (s *stubUserService) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return s.registerFn(in)
}

func (s *stubUserService) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	return s.authenticateFn(username, password)
}

func (s *stubUserService) GetByID(_ context.Context, id int64) (*models.User, error) {
	return s.getFn(id)
}

func (s *stubUserService) UpdateProfile(_ context.Context, p authz.Principal, in services.ProfileUpdateInput) (*models.User, error) {
	return s.updateFn(p, in)
}

func (s *stubUserService) ChangePassword(_ context.Context, p authz.Principal, oldPw, newPw, confirm string) error {
	return s.changeFn(p, oldPw, newPw, confirm)
}

func (s *stubUserService) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	return s.listFn(limit, offset)
}

func (s *stubUserService) Deactivate(_ context.Context, p authz.Principal, targetID int64) error {
	return s.deactivateFn(p, targetID)
}

type stubTaskService struct {
	listFn     func(p authz.Principal, filter models.TaskFilter) ([]models.Task, error)
	getFn      func(p authz.Principal, id int64) (*models.Task, error)
	createFn   func(p authz.Principal, in services.TaskCreateInput) (*models.Task, error)
	updateFn   func(p authz.Principal, id int64, in services.TaskUpdateInput) (*models.Task, error)
	completeFn func(p authz.Principal, id int64) (*models.Task, error)
	reopenFn   func(p authz.Principal, id int64) (*models.Task, error)
	deleteFn   func(p authz.Principal, id int64) error
}

func (s *stubTaskService) List(_ context.Context, p authz.Principal, filter models.TaskFilter) ([]models.Task, error) {
	return s.listFn(p, filter)
}

func (s *stubTaskService) Get(_ context.Context, p authz.Principal, id int64) (*models.Task, error) {
	return s.getFn(p, id)
}

func (s *stubTaskService) Create(_ context.Context, p authz.Principal, in services.TaskCreateInput) (*models.Task, error) {
	return s.createFn(p, in)
}

func (s *stubTaskService) Update(_ context.Context, p authz.Principal, id int64, in services.TaskUpdateInput) (*models.Task, error) {
	return s.updateFn(p, id, in)
}

func (s *stubTaskService) Complete(_ context.Context, p authz.Principal, id int64) (*models.Task, error) {
	return s.completeFn(p, id)
}

func (s *stubTaskService) Reopen(_ context.Context, p authz.Principal, id int64) (*models.Task, error) {
	return s.reopenFn(p, id)
}

func (s *stubTaskService) Delete(_ context.Context, p authz.Principal, id int64) error {
	return s.deleteFn(p, id)
}

// stubUserLookup feeds the auth service's refresh-time account check.
type stubUserLookup struct {
	getFn func(id int64) (*models.User, error)
}

func (s *stubUserLookup) GetByID(_ context.Context, id int64) (*models.User, error) {
	if s.getFn != nil {
		return s.getFn(id)
	}
	return &models.User{ID: id, IsActive: true}, nil
}

type stubResetService struct {
	requestFn func(email string) (string, error)
	resetFn   func(token, newPw, confirm string) error
}

func (s *stubResetService) RequestReset(_ context.Context, email string) (string, error) {
	return s.requestFn(email)
}

func (s *stubResetService) ResetPassword(_ context.Context, token, newPw, confirm string) error {
	return s.resetFn(token, newPw, confirm)
}

func sampleTask(id int64) *models.Task {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Task{
		ID:               id,
		CreatorID:        1,
		AssigneeID:       2,
		CreatorUsername:  "alice",
		AssigneeUsername: "bob",
		Title:            "Write report",
		Description:      "quarterly numbers",
		Status:           models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
