package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskflow/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	SetStatus(ctx context.Context, id int64, to models.TaskStatus) error
	Delete(ctx context.Context, id int64) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskSelect = `
SELECT t.id, t.creator_id, t.assignee_id, c.username, a.username,
       t.title, t.description, t.status, t.created_at, t.updated_at, t.completed_at
FROM tasks t
JOIN users c ON c.id = t.creator_id
JOIN users a ON a.id = t.assignee_id`

func scanTask(t *models.Task, scan func(dest ...interface{}) error) error {
	var completedAt sql.NullTime
	err := scan(
		&t.ID, &t.CreatorID, &t.AssigneeID, &t.CreatorUsername, &t.AssigneeUsername,
		&t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt, &completedAt,
	)
	if err != nil {
		return err
	}
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	} else {
		t.CompletedAt = nil
	}
	t.Completed = t.Status == models.StatusCompleted
	return nil
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (creator_id, assignee_id, title, description, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, status, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		task.CreatorID, task.AssigneeID, task.Title, task.Description, task.Status,
	).Scan(&task.ID, &task.Status, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return err
	}
	task.Completed = task.Status == models.StatusCompleted
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{}
	row := r.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id)
	if err := scanTask(task, row.Scan); err != nil {
		return nil, err
	}
	return task, nil
}

// orderClauses whitelists the sortable columns; anything else falls back to
// the default newest-created-first order.
var orderClauses = map[string]string{
	"created_at":  "t.created_at ASC",
	"-created_at": "t.created_at DESC",
	"updated_at":  "t.updated_at ASC",
	"-updated_at": "t.updated_at DESC",
	"status":      "t.status ASC",
	"-status":     "t.status DESC",
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := taskSelect

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.ViewerID != nil {
		conditions = append(conditions, fmt.Sprintf("(t.creator_id = $%d OR t.assignee_id = $%d)", argID, argID))
		args = append(args, *filter.ViewerID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.CreatedOn != nil {
		conditions = append(conditions, fmt.Sprintf("t.created_at::date = $%d::date", argID))
		args = append(args, *filter.CreatedOn)
		argID++
	}
	if filter.CreatedGE != nil {
		conditions = append(conditions, fmt.Sprintf("t.created_at::date >= $%d::date", argID))
		args = append(args, *filter.CreatedGE)
		argID++
	}
	if filter.CreatedLE != nil {
		conditions = append(conditions, fmt.Sprintf("t.created_at::date <= $%d::date", argID))
		args = append(args, *filter.CreatedLE)
		argID++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Search+"%")
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += "\nWHERE " + strings.Join(conditions, " AND ")
	}

	order, ok := orderClauses[filter.Ordering]
	if !ok {
		order = orderClauses["-created_at"]
	}
	baseQuery += "\nORDER BY " + order

	if filter.Limit > 0 {
		baseQuery += fmt.Sprintf("\nLIMIT $%d OFFSET $%d", argID, argID+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(&t, rows.Scan); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update writes title/description/status in one statement. The CASE keeps
// completed_at consistent with status no matter which write path got here:
// completing keeps an already-set stamp, reopening always clears it.
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title=$1, description=$2, status=$3,
			completed_at = CASE WHEN $3 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE NULL END,
			updated_at = NOW()
		WHERE id=$4
		RETURNING updated_at, completed_at`
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.ID,
	).Scan(&task.UpdatedAt, &completedAt)
	if err != nil {
		return err
	}
	if completedAt.Valid {
		ts := completedAt.Time
		task.CompletedAt = &ts
	} else {
		task.CompletedAt = nil
	}
	task.Completed = task.Status == models.StatusCompleted
	return nil
}

func (r *taskRepository) SetStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET
			status=$1,
			completed_at = CASE WHEN $1 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE NULL END,
			updated_at = NOW()
		WHERE id=$2`, to, id)
	return err
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}
