package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"taskflow/internal/models"
)

// In-memory repositories backing the service tests. They mirror the SQL
// behavior the real implementations rely on, including the completed_at
// transitions done inside the UPDATE statements.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int64]*models.User{}}
}

func (r *fakeUserRepo) add(u models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID
	}
	if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := u
	r.users[u.ID] = &cp
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.IsActive = false
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return ok && u.IsActive, nil
}

func (r *fakeUserRepo) UsernameTaken(_ context.Context, username string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeTaskRepo struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*models.Task
	users  *fakeUserRepo
}

func newFakeTaskRepo(users *fakeUserRepo) *fakeTaskRepo {
	return &fakeTaskRepo{nextID: 1, tasks: map[int64]*models.Task{}, users: users}
}

func (r *fakeTaskRepo) fillUsernames(t *models.Task) {
	if r.users == nil {
		return
	}
	if u, err := r.users.GetByID(context.Background(), t.CreatorID); err == nil {
		t.CreatorUsername = u.Username
	}
	if u, err := r.users.GetByID(context.Background(), t.AssigneeID); err == nil {
		t.AssigneeUsername = u.Username
	}
}

func (r *fakeTaskRepo) Store(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	r.nextID++
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	task.Completed = task.Status == models.StatusCompleted
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	r.fillUsernames(&cp)
	return &cp, nil
}

func (r *fakeTaskRepo) FindAll(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if filter.ViewerID != nil && t.CreatorID != *filter.ViewerID && t.AssigneeID != *filter.ViewerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(t.Description), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *t
		r.fillUsernames(&cp)
		out = append(out, cp)
	}
	return out, nil
}

// applyStatus mimics the completed_at CASE in the SQL writes.
func applyStatus(t *models.Task, to models.TaskStatus) {
	t.Status = to
	if to == models.StatusCompleted {
		if t.CompletedAt == nil {
			now := time.Now()
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
	}
	t.Completed = to == models.StatusCompleted
	t.UpdatedAt = time.Now()
}

func (r *fakeTaskRepo) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[task.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Title = task.Title
	stored.Description = task.Description
	applyStatus(stored, task.Status)
	*task = *stored
	return nil
}

func (r *fakeTaskRepo) SetStatus(_ context.Context, id int64, to models.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return sql.ErrNoRows
	}
	applyStatus(t, to)
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

type fakeResetRepo struct {
	mu     sync.Mutex
	nextID int64
	tokens map[int64]*models.PasswordResetToken
	users  *fakeUserRepo
}

func newFakeResetRepo(users *fakeUserRepo) *fakeResetRepo {
	return &fakeResetRepo{nextID: 1, tokens: map[int64]*models.PasswordResetToken{}, users: users}
}

func (r *fakeResetRepo) Issue(_ context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Used {
			t.Used = true
		}
	}
	pr := &models.PasswordResetToken{
		ID:        r.nextID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	r.nextID++
	cp := *pr
	r.tokens[pr.ID] = &cp
	return pr, nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeResetRepo) Consume(ctx context.Context, tokenID, userID int64, passwordHash string) error {
	r.mu.Lock()
	t, ok := r.tokens[tokenID]
	if !ok {
		r.mu.Unlock()
		return sql.ErrNoRows
	}
	t.Used = true
	r.mu.Unlock()
	return r.users.UpdatePassword(ctx, userID, passwordHash)
}

type fakeEmailService struct {
	mu       sync.Mutex
	welcomes []string
	resets   []string // tokens sent
}

func (s *fakeEmailService) SendWelcomeEmail(email, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcomes = append(s.welcomes, email)
	return nil
}

func (s *fakeEmailService) SendPasswordResetEmail(email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, token)
	return nil
}
