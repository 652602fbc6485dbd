package resolution

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Status is the two-valued acknowledgement state of a resolution
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Valid reports whether the status is one of the two allowed values
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusResolved
}

var (
	ErrInvalidStatus = errors.New("invalid resolution status")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyExists = errors.New("resolution already exists")
	ErrNotFound      = errors.New("resolution not found")
)

// Entry is a resolution row joined with the acting user's identity
type Entry struct {
	ResolutionID uint       `json:"resolution_id"`
	ParentID     uint       `json:"-"`
	UserID       uint       `json:"user_id"`
	Status       Status     `json:"status"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	UserName     string     `json:"user_name"`
	UserRole     string     `json:"user_role"`
}

// Config maps the ledger onto one concrete resolution table
type Config[R any] struct {
	// Table is the resolution table name
	Table string
	// ParentColumn is the column referencing the parent entity
	ParentColumn string
	// VerifyUser makes Add require the target user to exist. The
	// transaction ledger verifies; the request ledger does not.
	VerifyUser bool
	// NewRow builds a row for Add
	NewRow func(parentID, userID uint, status Status, resolvedAt *time.Time) R
	// RowID extracts the primary key of a row
	RowID func(R) uint
	// RowState extracts the current status and resolved timestamp of a row
	RowState func(R) (Status, *time.Time)
}

// Ledger tracks per-user pending/resolved acknowledgements for one kind of
// parent entity. The same implementation backs transaction resolutions and
// tenant request resolutions.
type Ledger[R any] struct {
	db  *gorm.DB
	cfg Config[R]
}

// New creates a ledger over the given database handle
func New[R any](db *gorm.DB, cfg Config[R]) *Ledger[R] {
	return &Ledger[R]{db: db, cfg: cfg}
}

// Add creates a resolution for (parentID, userID) in the given status.
// ResolvedAt is set to the current time iff the status is resolved. The
// caller is responsible for verifying the parent entity exists.
func (l *Ledger[R]) Add(parentID, userID uint, status Status) (uint, error) {
	if !status.Valid() {
		return 0, ErrInvalidStatus
	}

	if l.cfg.VerifyUser {
		var count int64
		if err := l.db.Table("users").Where("id = ?", userID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, ErrUserNotFound
		}
	}

	var existing R
	err := l.db.Where(l.cfg.ParentColumn+" = ? AND user_id = ?", parentID, userID).First(&existing).Error
	if err == nil {
		return 0, ErrAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	var resolvedAt *time.Time
	if status == StatusResolved {
		now := time.Now().UTC()
		resolvedAt = &now
	}

	row := l.cfg.NewRow(parentID, userID, status, resolvedAt)
	if err := l.db.Create(&row).Error; err != nil {
		// The unique index on (parent, user) is the authoritative guard
		// when two adds race the existence check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}

	return l.cfg.RowID(row), nil
}

// Toggle flips the caller's resolution between pending and resolved,
// setting or clearing ResolvedAt accordingly. It returns the new status
// and the resolution id.
func (l *Ledger[R]) Toggle(parentID, userID uint) (Status, uint, error) {
	var row R
	err := l.db.Where(l.cfg.ParentColumn+" = ? AND user_id = ?", parentID, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, ErrNotFound
	}
	if err != nil {
		return "", 0, err
	}

	current, _ := l.cfg.RowState(row)
	updates := map[string]interface{}{}
	var next Status
	if current == StatusPending {
		next = StatusResolved
		updates["status"] = string(StatusResolved)
		updates["resolved_at"] = time.Now().UTC()
	} else {
		next = StatusPending
		updates["status"] = string(StatusPending)
		updates["resolved_at"] = nil
	}

	if err := l.db.Model(&row).Updates(updates).Error; err != nil {
		return "", 0, err
	}

	return next, l.cfg.RowID(row), nil
}

// Remove deletes the resolution for (parentID, userID)
func (l *Ledger[R]) Remove(parentID, userID uint) error {
	var row R
	err := l.db.Where(l.cfg.ParentColumn+" = ? AND user_id = ?", parentID, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	return l.db.Delete(&row).Error
}

// ListWithUsers returns the parent's resolutions joined with each acting
// user's name and role. A parent with zero resolutions yields ErrNotFound;
// callers cannot tell it apart from a nonexistent parent.
func (l *Ledger[R]) ListWithUsers(parentID uint) ([]Entry, error) {
	t := l.cfg.Table
	var entries []Entry
	err := l.db.Table(t).
		Select(fmt.Sprintf("%s.id AS resolution_id, %s.%s AS parent_id, %s.user_id AS user_id, %s.status AS status, %s.resolved_at AS resolved_at, users.name AS user_name, users.role AS user_role",
			t, t, l.cfg.ParentColumn, t, t, t)).
		Joins(fmt.Sprintf("JOIN users ON users.id = %s.user_id", t)).
		Where(fmt.Sprintf("%s.%s = ?", t, l.cfg.ParentColumn), parentID).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}

// FullyResolved reports whether the parent has at least one resolution and
// every one of them is resolved. A parent with zero resolutions is not
// fully resolved.
func (l *Ledger[R]) FullyResolved(parentID uint) (bool, error) {
	var statuses []string
	err := l.db.Table(l.cfg.Table).
		Where(l.cfg.ParentColumn+" = ?", parentID).
		Pluck("status", &statuses).Error
	if err != nil {
		return false, err
	}
	if len(statuses) == 0 {
		return false, nil
	}
	for _, s := range statuses {
		if Status(s) != StatusResolved {
			return false, nil
		}
	}
	return true, nil
}

// DeleteForParent removes every resolution of the parent. It runs on the
// provided handle so callers can pair it with the parent delete in one
// transaction.
func (l *Ledger[R]) DeleteForParent(tx *gorm.DB, parentID uint) error {
	var row R
	return tx.Where(l.cfg.ParentColumn+" = ?", parentID).Delete(&row).Error
}
