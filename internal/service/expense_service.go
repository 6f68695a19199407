package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/calculator"
	"github.com/mmynk/homebase/internal/export"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/notify"
	"github.com/mmynk/homebase/internal/storage"
)

// ExpenseService manages shared expenses and their split ledgers.
type ExpenseService struct {
	base
}

func NewExpenseService(store storage.Store, logger *slog.Logger, opts ...Option) *ExpenseService {
	return &ExpenseService{base: newBase(store, logger, opts)}
}

type SplitInput struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

type RecurrenceInput struct {
	IsRecurring bool             `json:"is_recurring"`
	Frequency   models.Frequency `json:"frequency"`
	NextDueDate *time.Time       `json:"next_due_date"`
}

type CreateExpenseInput struct {
	Title       string                 `json:"title" binding:"required"`
	Amount      float64                `json:"amount" binding:"required"`
	Category    models.ExpenseCategory `json:"category" binding:"required"`
	Description string                 `json:"description"`
	DueDate     *time.Time             `json:"due_date"`
	ReceiptURL  string                 `json:"receipt_url"`
	// Splits is optional; without it the amount is split equally across
	// all household members.
	Splits     []SplitInput     `json:"splits"`
	Recurrence *RecurrenceInput `json:"recurrence"`
}

// UpdateExpenseInput holds optional changes; nil fields are left as they are.
type UpdateExpenseInput struct {
	Title       *string                 `json:"title"`
	Amount      *float64                `json:"amount"`
	Category    *models.ExpenseCategory `json:"category"`
	Description *string                 `json:"description"`
	DueDate     *time.Time              `json:"due_date"`
	ReceiptURL  *string                 `json:"receipt_url"`
	Splits      []SplitInput            `json:"splits"`
	Recurrence  *RecurrenceInput        `json:"recurrence"`
}

type ExpenseFilter struct {
	Category      models.ExpenseCategory
	Status        models.ExpenseStatus
	RecurringOnly bool
}

// Balances summarizes who owes whom in a household.
type Balances struct {
	Members []calculator.MemberBalance `json:"members"`
	Debts   []calculator.DebtEdge      `json:"debts"`
}

// Create validates and stores a new expense, then notifies every member with
// a split.
func (s *ExpenseService) Create(ctx context.Context, id auth.Identity, in CreateExpenseInput) (*models.Expense, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if !in.Category.Valid() {
		return nil, apperr.Validation("unknown category %q", in.Category)
	}

	members, err := s.memberIDs(ctx, id.HouseholdID)
	if err != nil {
		return nil, err
	}
	var splits []models.Split
	if len(in.Splits) == 0 {
		splits, err = calculator.SplitEqually(in.Amount, members)
	} else {
		splits, err = manualSplits(in.Amount, in.Splits, members, nil)
	}
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		HouseholdID: id.HouseholdID,
		CreatedBy:   id.UserID,
		Title:       title,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		ReceiptURL:  strings.TrimSpace(in.ReceiptURL),
		Splits:      splits,
	}
	if in.Recurrence != nil {
		if err := s.applyRecurrence(expense, *in.Recurrence); err != nil {
			return nil, err
		}
	}
	expense.Status = calculator.DeriveStatus(expense.Amount, expense.Splits, expense.DueDate, s.now())

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, s.storeErr(err, "expense")
	}
	s.logger.Info("Expense created", "expense_id", expense.ID, "household_id", expense.HouseholdID, "amount", expense.Amount)

	for _, req := range notify.SplitAlerts(expense, "New expense") {
		s.emit(ctx, req)
	}
	return expense, nil
}

// List returns the household's expenses with freshly derived statuses.
func (s *ExpenseService) List(ctx context.Context, id auth.Identity, filter ExpenseFilter) ([]*models.Expense, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperr.Validation("unknown category %q", filter.Category)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", filter.Status)
	}

	expenses, err := s.store.ListExpenses(ctx, storage.ExpenseFilter{
		HouseholdID:   id.HouseholdID,
		Category:      filter.Category,
		RecurringOnly: filter.RecurringOnly,
	})
	if err != nil {
		return nil, s.storeErr(err, "expenses")
	}

	// Stored status goes stale as due dates pass, so the status filter
	// runs on the derived value.
	now := s.now()
	out := make([]*models.Expense, 0, len(expenses))
	for _, e := range expenses {
		e.Status = calculator.DeriveStatus(e.Amount, e.Splits, e.DueDate, now)
		if filter.Status == "" || e.Status == filter.Status {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRecurring returns the household's recurring templates.
func (s *ExpenseService) ListRecurring(ctx context.Context, id auth.Identity) ([]*models.Expense, error) {
	return s.List(ctx, id, ExpenseFilter{RecurringOnly: true})
}

// Get returns one expense of the caller's household.
func (s *ExpenseService) Get(ctx context.Context, id auth.Identity, expenseID string) (*models.Expense, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, s.storeErr(err, "expense")
	}
	if expense.HouseholdID != id.HouseholdID {
		return nil, apperr.NotFound("expense not found")
	}
	expense.Status = calculator.DeriveStatus(expense.Amount, expense.Splits, expense.DueDate, s.now())
	return expense, nil
}

// Update edits an expense. Only its creator may do so.
func (s *ExpenseService) Update(ctx context.Context, id auth.Identity, expenseID string, in UpdateExpenseInput) (*models.Expense, error) {
	expense, err := s.Get(ctx, id, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.CreatedBy != id.UserID {
		return nil, apperr.Authorization("only the creator can edit this expense")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		expense.Title = title
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, apperr.Validation("unknown category %q", *in.Category)
		}
		expense.Category = *in.Category
	}
	if in.Description != nil {
		expense.Description = strings.TrimSpace(*in.Description)
	}
	if in.DueDate != nil {
		expense.DueDate = in.DueDate
	}
	if in.ReceiptURL != nil {
		expense.ReceiptURL = strings.TrimSpace(*in.ReceiptURL)
	}

	amountChanged := false
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperr.Validation("amount must be greater than zero")
		}
		amountChanged = calculator.ToCents(*in.Amount) != calculator.ToCents(expense.Amount)
		expense.Amount = *in.Amount
	}
	switch {
	case len(in.Splits) > 0:
		members, err := s.memberIDs(ctx, id.HouseholdID)
		if err != nil {
			return nil, err
		}
		splits, err := manualSplits(expense.Amount, in.Splits, members, expense.Splits)
		if err != nil {
			return nil, err
		}
		expense.Splits = splits
	case amountChanged:
		// Re-split over the same members. A payment only survives if the share did not change.
		ids := make([]string, len(expense.Splits))
		for i, sp := range expense.Splits {
			ids[i] = sp.UserID
		}
		splits, err := calculator.SplitEqually(expense.Amount, ids)
		if err != nil {
			return nil, err
		}
		expense.Splits = carryPayments(splits, expense.Splits)
	}

	if in.Recurrence != nil {
		if err := s.applyRecurrence(expense, *in.Recurrence); err != nil {
			return nil, err
		}
	}

	expense.Status = calculator.DeriveStatus(expense.Amount, expense.Splits, expense.DueDate, s.now())
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, s.storeErr(err, "expense")
	}
	s.logger.Info("Expense updated", "expense_id", expense.ID, "user_id", id.UserID)
	return expense, nil
}

// Delete removes an expense. Only its creator may do so.
func (s *ExpenseService) Delete(ctx context.Context, id auth.Identity, expenseID string) error {
	expense, err := s.Get(ctx, id, expenseID)
	if err != nil {
		return err
	}
	if expense.CreatedBy != id.UserID {
		return apperr.Authorization("only the creator can delete this expense")
	}
	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return s.storeErr(err, "expense")
	}
	s.logger.Info("Expense deleted", "expense_id", expense.ID, "user_id", id.UserID)
	return nil
}

// MarkPaid marks the caller's own split as paid and recomputes the status.
func (s *ExpenseService) MarkPaid(ctx context.Context, id auth.Identity, expenseID string) (*models.Expense, error) {
	expense, err := s.Get(ctx, id, expenseID)
	if err != nil {
		return nil, err
	}
	split := expense.SplitFor(id.UserID)
	if split == nil {
		return nil, apperr.Authorization("you have no share in this expense")
	}
	wasPaid := split.Paid

	now := s.now()
	if err := calculator.MarkPaid(expense.Splits, id.UserID, now); err != nil {
		return nil, err
	}
	expense.Status = calculator.DeriveStatus(expense.Amount, expense.Splits, expense.DueDate, now)
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, s.storeErr(err, "expense")
	}
	s.logger.Info("Split marked paid", "expense_id", expense.ID, "user_id", id.UserID, "status", expense.Status)

	if !wasPaid && expense.CreatedBy != id.UserID {
		s.emit(ctx, notify.Request{
			HouseholdID: expense.HouseholdID,
			Type:        models.NotifyExpensePaid,
			Title:       "Payment received",
			Message:     fmt.Sprintf("A housemate paid their share of %s", expense.Title),
			Recipients:  []string{expense.CreatedBy},
			Reference:   &models.NotificationRef{Model: "expense", ID: expense.ID},
		})
	}
	return expense, nil
}

// SetRecurring turns recurrence on or off. Only the creator may do so.
func (s *ExpenseService) SetRecurring(ctx context.Context, id auth.Identity, expenseID string, in RecurrenceInput) (*models.Expense, error) {
	expense, err := s.Get(ctx, id, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.CreatedBy != id.UserID {
		return nil, apperr.Authorization("only the creator can change recurrence")
	}
	if err := s.applyRecurrence(expense, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, s.storeErr(err, "expense")
	}
	s.logger.Info("Expense recurrence changed", "expense_id", expense.ID, "recurring", expense.Recurrence.IsRecurring)
	return expense, nil
}

// Balances computes net balances and simplified debts for the household.
func (s *ExpenseService) Balances(ctx context.Context, id auth.Identity) (*Balances, error) {
	expenses, err := s.List(ctx, id, ExpenseFilter{})
	if err != nil {
		return nil, err
	}
	members, debts := calculator.CalculateHouseholdBalances(expenses)
	if members == nil {
		members = []calculator.MemberBalance{}
	}
	if debts == nil {
		debts = []calculator.DebtEdge{}
	}
	return &Balances{Members: members, Debts: debts}, nil
}

// Export writes every household expense to w in the given format.
func (s *ExpenseService) Export(ctx context.Context, id auth.Identity, format export.Format, w io.Writer) error {
	expenses, err := s.List(ctx, id, ExpenseFilter{})
	if err != nil {
		return err
	}
	users, err := s.store.ListUsersByHousehold(ctx, id.HouseholdID)
	if err != nil {
		return s.storeErr(err, "household members")
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	if err := export.Write(w, format, expenses, names); err != nil {
		return apperr.Unexpected("export failed", err)
	}
	return nil
}

// applyRecurrence sets or clears the recurrence descriptor. A new schedule
// starts at the given next date, else one period after the due date, else one
// period from now.
func (s *ExpenseService) applyRecurrence(expense *models.Expense, in RecurrenceInput) error {
	if !in.IsRecurring {
		expense.Recurrence = models.Recurrence{}
		return nil
	}
	if !in.Frequency.Valid() {
		return apperr.Validation("frequency must be weekly, monthly or yearly")
	}

	next := in.NextDueDate
	if next == nil && expense.Recurrence.IsRecurring && expense.Recurrence.Frequency == in.Frequency {
		next = expense.Recurrence.NextDueDate
	}
	if next == nil {
		// The expense itself bills the period it is due in.
		from := s.now()
		if expense.DueDate != nil {
			from = *expense.DueDate
		}
		t, err := calculator.NextDate(from, in.Frequency)
		if err != nil {
			return apperr.Validation("frequency must be weekly, monthly or yearly")
		}
		next = &t
	}
	start := next.UTC()
	expense.Recurrence = models.Recurrence{IsRecurring: true, Frequency: in.Frequency, NextDueDate: &start}
	return nil
}

func (s *ExpenseService) memberIDs(ctx context.Context, householdID string) ([]string, error) {
	users, err := s.store.ListUsersByHousehold(ctx, householdID)
	if err != nil {
		return nil, s.storeErr(err, "household members")
	}
	return userIDs(users), nil
}

// manualSplits validates caller-supplied splits against the total and the
// household. Payments from previous carry over for unchanged shares.
func manualSplits(total float64, in []SplitInput, members []string, previous []models.Split) ([]models.Split, error) {
	splits := make([]models.Split, len(in))
	for i, sp := range in {
		if !contains(members, sp.UserID) {
			return nil, apperr.Validation("split member %s is not in this household", sp.UserID)
		}
		splits[i] = models.Split{UserID: sp.UserID, Amount: sp.Amount}
	}
	if err := calculator.ValidateSplits(total, splits); err != nil {
		return nil, err
	}
	return carryPayments(splits, previous), nil
}

// carryPayments keeps paid state for members whose share did not change.
func carryPayments(next, previous []models.Split) []models.Split {
	for i := range next {
		for _, p := range previous {
			if p.UserID == next[i].UserID && p.Paid && calculator.ToCents(p.Amount) == calculator.ToCents(next[i].Amount) {
				next[i].Paid = true
				next[i].PaidAt = p.PaidAt
			}
		}
	}
	return next
}
