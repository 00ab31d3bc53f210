package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 1000
)

// Task represents a task with independent creator and assignee relations.
// CreatorUsername/AssigneeUsername are denormalized from users at read time.
type Task struct {
	ID               int64      `json:"id"`
	CreatorID        int64      `json:"-"`
	AssigneeID       int64      `json:"assigned_to"`
	CreatorUsername  string     `json:"user"`
	AssigneeUsername string     `json:"assigned_to_username"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           TaskStatus `json:"status"`
	Completed        bool       `json:"completed"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// TaskFilter defines the available parameters for listing tasks.
// ViewerID nil means unrestricted visibility (privileged principal).
type TaskFilter struct {
	ViewerID  *int64
	Status    *TaskStatus
	CreatedOn *time.Time
	CreatedGE *time.Time
	CreatedLE *time.Time
	Search    string
	Ordering  string
	Limit     int
	Offset    int
}
