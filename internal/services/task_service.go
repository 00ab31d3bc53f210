package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"taskflow/internal/authz"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

type TaskCreateInput struct {
	Title       string
	Description string
	AssigneeID  int64
}

type TaskUpdateInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
}

type TaskService interface {
	List(ctx context.Context, p authz.Principal, filter models.TaskFilter) ([]models.Task, error)
	Get(ctx context.Context, p authz.Principal, id int64) (*models.Task, error)
	Create(ctx context.Context, p authz.Principal, in TaskCreateInput) (*models.Task, error)
	Update(ctx context.Context, p authz.Principal, id int64, in TaskUpdateInput) (*models.Task, error)
	Complete(ctx context.Context, p authz.Principal, id int64) (*models.Task, error)
	Reopen(ctx context.Context, p authz.Principal, id int64) (*models.Task, error)
	Delete(ctx context.Context, p authz.Principal, id int64) error
}

type taskService struct {
	repo  repositories.TaskRepository
	users repositories.UserRepository
	log   *zap.Logger
}

func NewTaskService(repo repositories.TaskRepository, users repositories.UserRepository, log *zap.Logger) TaskService {
	return &taskService{repo: repo, users: users, log: log}
}

// List returns the tasks visible to the principal. Privileged principals see
// everything; everyone else only tasks they created or are assigned to.
func (s *taskService) List(ctx context.Context, p authz.Principal, filter models.TaskFilter) ([]models.Task, error) {
	if p.Privileged() {
		filter.ViewerID = nil
	} else {
		viewer := p.ID
		filter.ViewerID = &viewer
	}
	return s.repo.FindAll(ctx, filter)
}

// Get re-applies the visibility predicate on a single record: an existing
// task outside the principal's scope yields ErrForbidden, not ErrNotFound.
func (s *taskService) Get(ctx context.Context, p authz.Principal, id int64) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !authz.CanAccessTask(p, task) {
		return nil, ErrForbidden
	}
	return task, nil
}

func validateTitle(title string, ve *ValidationError) string {
	title = strings.TrimSpace(title)
	if title == "" {
		ve.Add("title", "Title may not be blank.")
	}
	if len(title) > models.TitleMaxLen {
		ve.Add("title", "Title may not exceed 200 characters.")
	}
	return title
}

func validateDescription(description string, ve *ValidationError) string {
	description = strings.TrimSpace(description)
	if len(description) > models.DescriptionMaxLen {
		ve.Add("description", "Description may not exceed 1000 characters.")
	}
	return description
}

func (s *taskService) Create(ctx context.Context, p authz.Principal, in TaskCreateInput) (*models.Task, error) {
	ve := &ValidationError{Fields: map[string][]string{}}
	title := validateTitle(in.Title, ve)
	description := validateDescription(in.Description, ve)
	if in.AssigneeID == 0 {
		ve.Add("assigned_to", "This field is required.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	exists, err := s.users.Exists(ctx, in.AssigneeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NewValidationError("assigned_to", "Assigned user does not exist.")
	}

	task := &models.Task{
		CreatorID:   p.ID, // always the authenticated requester
		AssigneeID:  in.AssigneeID,
		Title:       title,
		Description: description,
		Status:      models.StatusPending,
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("task created",
		zap.Int64("task_id", created.ID),
		zap.Int64("creator_id", created.CreatorID),
		zap.Int64("assignee_id", created.AssigneeID),
	)
	return created, nil
}

// Update patches title/description/status. A status change through here has
// the exact same completed_at side effect as Complete/Reopen because the
// repository write carries the invariant.
func (s *taskService) Update(ctx context.Context, p authz.Principal, id int64, in TaskUpdateInput) (*models.Task, error) {
	task, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{Fields: map[string][]string{}}
	if in.Title != nil {
		task.Title = validateTitle(*in.Title, ve)
	}
	if in.Description != nil {
		task.Description = validateDescription(*in.Description, ve)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			ve.Add("status", "Status must be one of: pending, completed.")
		} else {
			task.Status = *in.Status
		}
	}
	if !ve.Empty() {
		return nil, ve
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) setStatus(ctx context.Context, p authz.Principal, id int64, to models.TaskStatus) (*models.Task, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, to); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Complete is idempotent: re-completing keeps the original completed_at.
func (s *taskService) Complete(ctx context.Context, p authz.Principal, id int64) (*models.Task, error) {
	task, err := s.setStatus(ctx, p, id, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.log.Info("task completed", zap.Int64("task_id", id), zap.Int64("by", p.ID))
	return task, nil
}

// Reopen always clears completed_at.
func (s *taskService) Reopen(ctx context.Context, p authz.Principal, id int64) (*models.Task, error) {
	task, err := s.setStatus(ctx, p, id, models.StatusPending)
	if err != nil {
		return nil, err
	}
	s.log.Info("task reopened", zap.Int64("task_id", id), zap.Int64("by", p.ID))
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, p authz.Principal, id int64) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("task deleted", zap.Int64("task_id", id), zap.Int64("by", p.ID))
	return nil
}
