package models

import "time"

// ExpenseCategory classifies an expense.
type ExpenseCategory string

const (
	CategoryRent          ExpenseCategory = "rent"
	CategoryUtilities     ExpenseCategory = "utilities"
	CategoryGroceries     ExpenseCategory = "groceries"
	CategoryInternet      ExpenseCategory = "internet"
	CategoryCleaning      ExpenseCategory = "cleaning"
	CategoryMaintenance   ExpenseCategory = "maintenance"
	CategoryEntertainment ExpenseCategory = "entertainment"
	CategoryOther         ExpenseCategory = "other"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryRent, CategoryUtilities, CategoryGroceries, CategoryInternet,
		CategoryCleaning, CategoryMaintenance, CategoryEntertainment, CategoryOther:
		return true
	}
	return false
}

// ExpenseStatus is derived from the split ledger, the due date and the clock.
type ExpenseStatus string

const (
	StatusPending       ExpenseStatus = "pending"
	StatusPartiallyPaid ExpenseStatus = "partially_paid"
	StatusPaid          ExpenseStatus = "paid"
	StatusOverdue       ExpenseStatus = "overdue"
)

func (s ExpenseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPartiallyPaid, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// Frequency is how often a recurring expense regenerates.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Recurrence controls whether and how an expense regenerates itself.
// When IsRecurring is false, Frequency and NextDueDate are informational only.
type Recurrence struct {
	IsRecurring bool       `json:"is_recurring" bson:"is_recurring"`
	Frequency   Frequency  `json:"frequency,omitempty" bson:"frequency,omitempty"`
	NextDueDate *time.Time `json:"next_due_date,omitempty" bson:"next_due_date,omitempty"`
}

// Split is one member's owed share of an expense.
type Split struct {
	// UserID is the household member who owes this share.
	UserID string `json:"user_id" bson:"user_id"`

	// Amount is the owed amount (>= 0).
	Amount float64 `json:"amount" bson:"amount"`

	// Paid is set once the member marks their share paid.
	Paid bool `json:"paid" bson:"paid"`

	// PaidAt is set iff Paid is true.
	PaidAt *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
}

// Expense is a shared household cost. It exclusively owns its split ledger.
type Expense struct {
	ID          string `json:"id" bson:"_id"`
	HouseholdID string `json:"household_id" bson:"household_id"`
	CreatedBy   string `json:"created_by" bson:"created_by"`

	Title       string          `json:"title" bson:"title"`
	Amount      float64         `json:"amount" bson:"amount"`
	Category    ExpenseCategory `json:"category" bson:"category"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty" bson:"due_date,omitempty"`
	ReceiptURL  string          `json:"receipt_url,omitempty" bson:"receipt_url,omitempty"`

	Splits     []Split    `json:"splits" bson:"splits"`
	Recurrence Recurrence `json:"recurrence" bson:"recurrence"`

	// SourceExpenseID links a generated instance to its recurring template.
	SourceExpenseID string `json:"source_expense_id,omitempty" bson:"source_expense_id,omitempty"`

	// Status is derived; the store keeps the last computed value for filtering.
	Status ExpenseStatus `json:"status" bson:"status"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SplitFor returns the split owed by userID, or nil.
func (e *Expense) SplitFor(userID string) *Split {
	for i := range e.Splits {
		if e.Splits[i].UserID == userID {
			return &e.Splits[i]
		}
	}
	return nil
}
