package models

import "time"

type ChoreStatus string

const (
	ChorePending    ChoreStatus = "pending"
	ChoreInProgress ChoreStatus = "in_progress"
	ChoreCompleted  ChoreStatus = "completed"
)

func (s ChoreStatus) Valid() bool {
	switch s {
	case ChorePending, ChoreInProgress, ChoreCompleted:
		return true
	}
	return false
}

type ChorePriority string

const (
	PriorityLow    ChorePriority = "low"
	PriorityMedium ChorePriority = "medium"
	PriorityHigh   ChorePriority = "high"
)

func (p ChorePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Chore is a household task assigned to one or more members.
type Chore struct {
	ID          string `json:"id" bson:"_id"`
	HouseholdID string `json:"household_id" bson:"household_id"`
	CreatedBy   string `json:"created_by" bson:"created_by"`

	Title       string        `json:"title" bson:"title"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	AssignedTo  []string      `json:"assigned_to" bson:"assigned_to"`
	Priority    ChorePriority `json:"priority" bson:"priority"`
	Status      ChoreStatus   `json:"status" bson:"status"`
	DueDate     *time.Time    `json:"due_date,omitempty" bson:"due_date,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CompletedBy string     `json:"completed_by,omitempty" bson:"completed_by,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsAssigned reports whether userID is one of the chore's assignees.
func (c *Chore) IsAssigned(userID string) bool {
	for _, id := range c.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}
