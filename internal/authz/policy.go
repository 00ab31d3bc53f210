package authz

import (
	"errors"

	"taskflow/internal/models"
)

// Principal is the authenticated caller, passed explicitly into every policy
// check instead of being pulled out of ambient request state.
type Principal struct {
	ID          int64
	IsStaff     bool
	IsSuperuser bool
}

// Privileged principals see every task and may administer users.
func (p Principal) Privileged() bool {
	return p.IsStaff || p.IsSuperuser
}

var (
	ErrSelfDeletion = errors.New("cannot delete own account")
	ErrNotAdmin     = errors.New("admin privileges required")
)

// CanAccessTask gates both reads and writes of a single task: privileged
// principals pass unconditionally, everyone else must be creator or assignee.
func CanAccessTask(p Principal, task *models.Task) bool {
	if p.Privileged() {
		return true
	}
	return task.CreatorID == p.ID || task.AssigneeID == p.ID
}

// CanDeleteUser allows privileged principals to deactivate any account
// except their own.
func CanDeleteUser(p Principal, targetID int64) error {
	if !p.Privileged() {
		return ErrNotAdmin
	}
	if p.ID == targetID {
		return ErrSelfDeletion
	}
	return nil
}
