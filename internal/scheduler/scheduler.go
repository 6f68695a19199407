// Package scheduler regenerates recurring expenses on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/homebase/internal/calculator"
	"github.com/mmynk/homebase/internal/metrics"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/notify"
)

// Store is the subset of storage.Store the scheduler needs.
type Store interface {
	ListDueRecurring(ctx context.Context, now time.Time) ([]*models.Expense, error)
	SpawnRecurrence(ctx context.Context, templateID string, expectedNext, newNext time.Time, clone *models.Expense) (bool, error)
	ListUsersByHousehold(ctx context.Context, householdID string) ([]*models.User, error)
}

// Result summarizes one pass.
type Result struct {
	Due     int `json:"due"`
	Spawned int `json:"spawned"`
	Skipped int `json:"skipped"` // handled elsewhere or unknown frequency
	Failed  int `json:"failed"`
}

// Scheduler finds recurring templates whose next due date has passed and
// creates one expense instance per template per pass. Passes never overlap.
type Scheduler struct {
	store   Store
	sink    notify.Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.Mutex // serializes passes
	cron *cron.Cron
}

func New(store Store, sink notify.Sink, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:   store,
		sink:    sink,
		metrics: m,
		logger:  logger.With("component", "scheduler"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start runs a pass on every tick of spec, e.g. "@every 5m".
func (s *Scheduler) Start(spec string) error {
	log := cronLogger{s.logger}
	c := cron.New(cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)))
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(context.Background(), s.now()); err != nil {
			s.logger.Error("Scheduler pass failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("Scheduler started", "spec", spec)
	return nil
}

// Stop halts the cron and waits for a running pass, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce processes every template due at now. A failure on one template is
// logged and counted; the others are still processed.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	due, err := s.store.ListDueRecurring(ctx, now)
	if err != nil {
		s.metrics.SchedulerRun(0, 0, err)
		return res, fmt.Errorf("failed to list due recurring expenses: %w", err)
	}
	res.Due = len(due)

	for _, tpl := range due {
		if ctx.Err() != nil {
			break
		}
		switch spawned, err := s.process(ctx, tpl, now); {
		case err != nil:
			res.Failed++
			s.logger.Error("Failed to regenerate recurring expense", "expense_id", tpl.ID, "error", err)
		case spawned:
			res.Spawned++
		default:
			res.Skipped++
		}
	}

	s.metrics.SchedulerRun(res.Spawned, res.Failed, nil)
	if res.Due > 0 {
		s.logger.Info("Scheduler pass complete",
			"due", res.Due, "spawned", res.Spawned, "skipped", res.Skipped, "failed", res.Failed)
	}
	return res, ctx.Err()
}

func (s *Scheduler) process(ctx context.Context, tpl *models.Expense, now time.Time) (spawned bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if tpl.Recurrence.NextDueDate == nil {
		return false, errors.New("recurring expense has no next due date")
	}
	expected := *tpl.Recurrence.NextDueDate
	newNext, err := calculator.NextDate(expected, tpl.Recurrence.Frequency)
	if err != nil {
		// Leaving the date unchanged would re-trigger on every pass.
		s.logger.Warn("Skipping recurring expense", "expense_id", tpl.ID,
			"frequency", tpl.Recurrence.Frequency, "error", err)
		return false, nil
	}

	members, err := s.store.ListUsersByHousehold(ctx, tpl.HouseholdID)
	if err != nil {
		return false, fmt.Errorf("failed to list household members: %w", err)
	}
	clone := Instance(tpl, newNext, now)
	if err := RestrictToMembers(clone, members, now); err != nil {
		return false, err
	}
	ok, err := s.store.SpawnRecurrence(ctx, tpl.ID, expected, newNext, clone)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Debug("Recurring expense already advanced", "expense_id", tpl.ID)
		return false, nil
	}

	s.logger.Info("Recurring expense regenerated", "template_id", tpl.ID, "expense_id", clone.ID, "next_due_date", newNext)
	for _, req := range notify.SplitAlerts(clone, "Recurring expense due") {
		notify.Emit(ctx, s.sink, s.logger, req)
	}
	return true, nil
}

// Instance builds the expense created for one occurrence of tpl. It is due
// on the template's current next date, starts with an unpaid ledger and does
// not recur itself.
func Instance(tpl *models.Expense, newNext, now time.Time) *models.Expense {
	due := *tpl.Recurrence.NextDueDate
	next := newNext
	e := &models.Expense{
		HouseholdID: tpl.HouseholdID,
		CreatedBy:   tpl.CreatedBy,
		Title:       tpl.Title,
		Amount:      tpl.Amount,
		Category:    tpl.Category,
		Description: tpl.Description,
		DueDate:     &due,
		Splits:      calculator.ResetSplits(tpl.Splits),
		Recurrence: models.Recurrence{
			IsRecurring: false,
			Frequency:   tpl.Recurrence.Frequency,
			NextDueDate: &next,
		},
		SourceExpenseID: tpl.ID,
	}
	e.Status = calculator.DeriveStatus(e.Amount, e.Splits, e.DueDate, now)
	return e
}

// RestrictToMembers drops shares held by users who have since left the
// household. The remaining shares are re-split equally; when nobody on the
// ledger is still a member the whole household shares the expense.
func RestrictToMembers(e *models.Expense, members []*models.User, now time.Time) error {
	current := make(map[string]bool, len(members))
	for _, u := range members {
		current[u.ID] = true
	}
	var keep []string
	for _, sp := range e.Splits {
		if current[sp.UserID] {
			keep = append(keep, sp.UserID)
		}
	}
	if len(keep) == len(e.Splits) {
		return nil
	}
	if len(keep) == 0 {
		for _, u := range members {
			keep = append(keep, u.ID)
		}
	}
	splits, err := calculator.SplitEqually(e.Amount, keep)
	if err != nil {
		return fmt.Errorf("failed to re-split for current members: %w", err)
	}
	e.Splits = splits
	e.Status = calculator.DeriveStatus(e.Amount, e.Splits, e.DueDate, now)
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
