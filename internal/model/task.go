package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Priority ranks how urgent a task is and drives its default point value.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Points returns the reward value earned for completing a task of this
// priority. Unrecognized priorities fall back to the low value.
func (p Priority) Points() int {
	switch p {
	case PriorityHigh:
		return 10
	case PriorityMedium:
		return 5
	default:
		return 2
	}
}

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Recurrence describes whether and how often a task repeats.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Valid reports whether r is one of the known recurrence types.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Period returns the repeat interval for the recurrence, or zero for
// non-recurring tasks. Monthly is approximated as 30 days.
func (r Recurrence) Period() time.Duration {
	switch r {
	case RecurrenceDaily:
		return 24 * time.Hour
	case RecurrenceWeekly:
		return 7 * 24 * time.Hour
	case RecurrenceMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// TagList is an ordered list of tags stored as a single JSON text column.
type TagList []string

// Value serializes the list for storage.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

// Scan deserializes the stored column back into the list.
func (t *TagList) Scan(src any) error {
	if src == nil {
		*t = TagList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported tags column type %T", src)
	}
	if len(data) == 0 {
		*t = TagList{}
		return nil
	}
	if err := json.Unmarshal(data, t); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	return nil
}

// Task represents a single unit of work owned by exactly one user.
// A task may reference another task as its parent, forming a one-level
// parent/subtask relation.
type Task struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `json:"description,omitempty"`
	Priority     Priority   `gorm:"not null;default:medium" json:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Tags         TagList    `gorm:"type:text" json:"tags"`
	Category     string     `json:"category,omitempty"`
	Completed    bool       `gorm:"default:false" json:"completed"`
	UserID       string     `gorm:"index;not null" json:"user_id"`
	Recurrence   Recurrence `gorm:"not null;default:none" json:"recurrence"`
	ParentTaskID *string    `gorm:"index" json:"parent_task_id,omitempty"`
	Points       int        `json:"points"`

	// Subtasks is filled in transiently when listing; it is never persisted.
	Subtasks []Task `gorm:"-" json:"subtasks,omitempty"`
}
