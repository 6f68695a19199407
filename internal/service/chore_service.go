package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/notify"
	"github.com/mmynk/homebase/internal/storage"
)

// ChoreService manages household chores.
type ChoreService struct {
	base
}

func NewChoreService(store storage.Store, logger *slog.Logger, opts ...Option) *ChoreService {
	return &ChoreService{base: newBase(store, logger, opts)}
}

type CreateChoreInput struct {
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description"`
	AssignedTo  []string             `json:"assigned_to"`
	Priority    models.ChorePriority `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
}

// UpdateChoreInput holds optional changes; nil fields are left as they are.
type UpdateChoreInput struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	AssignedTo  *[]string             `json:"assigned_to"`
	Priority    *models.ChorePriority `json:"priority"`
	Status      *models.ChoreStatus   `json:"status"`
	DueDate     *time.Time            `json:"due_date"`
}

type ChoreFilter struct {
	Status     models.ChoreStatus
	AssignedTo string
}

// Create adds a chore and notifies its assignees.
func (s *ChoreService) Create(ctx context.Context, id auth.Identity, in CreateChoreInput) (*models.Chore, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validation("priority must be low, medium or high")
	}
	if err := s.checkDueDate(in.DueDate); err != nil {
		return nil, err
	}
	assignees, err := s.checkAssignees(ctx, id.HouseholdID, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	chore := &models.Chore{
		HouseholdID: id.HouseholdID,
		CreatedBy:   id.UserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		AssignedTo:  assignees,
		Priority:    priority,
		Status:      models.ChorePending,
		DueDate:     in.DueDate,
	}
	if err := s.store.CreateChore(ctx, chore); err != nil {
		return nil, s.storeErr(err, "chore")
	}

	s.logger.Info("Chore created", "chore_id", chore.ID, "household_id", chore.HouseholdID)
	s.notifyAssigned(ctx, chore, without(assignees, id.UserID))
	return chore, nil
}

// List returns the household's chores, optionally filtered.
func (s *ChoreService) List(ctx context.Context, id auth.Identity, filter ChoreFilter) ([]*models.Chore, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("unknown chore status %q", filter.Status)
	}
	chores, err := s.store.ListChores(ctx, storage.ChoreFilter{
		HouseholdID: id.HouseholdID,
		Status:      filter.Status,
		AssignedTo:  filter.AssignedTo,
	})
	if err != nil {
		return nil, s.storeErr(err, "chores")
	}
	if chores == nil {
		chores = []*models.Chore{}
	}
	return chores, nil
}

// Get returns one chore of the caller's household.
func (s *ChoreService) Get(ctx context.Context, id auth.Identity, choreID string) (*models.Chore, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	chore, err := s.store.GetChore(ctx, choreID)
	if err != nil {
		return nil, s.storeErr(err, "chore")
	}
	// Chores of other households are reported as missing.
	if chore.HouseholdID != id.HouseholdID {
		return nil, apperr.NotFound("chore not found")
	}
	return chore, nil
}

// Update edits a chore. The creator and household admins may change any
// field; assignees may only change the status.
func (s *ChoreService) Update(ctx context.Context, id auth.Identity, choreID string, in UpdateChoreInput) (*models.Chore, error) {
	chore, err := s.Get(ctx, id, choreID)
	if err != nil {
		return nil, err
	}

	owner := chore.CreatedBy == id.UserID || id.IsAdmin()
	statusOnly := in.Title == nil && in.Description == nil && in.AssignedTo == nil && in.Priority == nil && in.DueDate == nil
	switch {
	case owner:
	case chore.IsAssigned(id.UserID) && statusOnly:
	default:
		return nil, apperr.Authorization("only the creator or an admin can edit this chore")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		chore.Title = title
	}
	if in.Description != nil {
		chore.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperr.Validation("priority must be low, medium or high")
		}
		chore.Priority = *in.Priority
	}
	if in.DueDate != nil {
		if err := s.checkDueDate(in.DueDate); err != nil {
			return nil, err
		}
		chore.DueDate = in.DueDate
	}

	var added []string
	if in.AssignedTo != nil {
		assignees, err := s.checkAssignees(ctx, id.HouseholdID, *in.AssignedTo)
		if err != nil {
			return nil, err
		}
		for _, a := range assignees {
			if !chore.IsAssigned(a) && a != id.UserID {
				added = append(added, a)
			}
		}
		chore.AssignedTo = assignees
	}

	completedNow := false
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("unknown chore status %q", *in.Status)
		}
		completedNow = *in.Status == models.ChoreCompleted && chore.Status != models.ChoreCompleted
		s.setStatus(chore, *in.Status, id.UserID)
	}

	if err := s.store.UpdateChore(ctx, chore); err != nil {
		return nil, s.storeErr(err, "chore")
	}
	s.logger.Info("Chore updated", "chore_id", chore.ID, "user_id", id.UserID)

	s.notifyAssigned(ctx, chore, added)
	if completedNow {
		s.notifyCompleted(ctx, chore, id.UserID)
	}
	return chore, nil
}

// Delete removes a chore. Creator or admin only.
func (s *ChoreService) Delete(ctx context.Context, id auth.Identity, choreID string) error {
	chore, err := s.Get(ctx, id, choreID)
	if err != nil {
		return err
	}
	if chore.CreatedBy != id.UserID && !id.IsAdmin() {
		return apperr.Authorization("only the creator or an admin can delete this chore")
	}
	if err := s.store.DeleteChore(ctx, chore.ID); err != nil {
		return s.storeErr(err, "chore")
	}
	s.logger.Info("Chore deleted", "chore_id", chore.ID, "user_id", id.UserID)
	return nil
}

// Complete marks a chore done. Assignees, the creator and admins may complete it.
func (s *ChoreService) Complete(ctx context.Context, id auth.Identity, choreID string) (*models.Chore, error) {
	chore, err := s.Get(ctx, id, choreID)
	if err != nil {
		return nil, err
	}
	if !chore.IsAssigned(id.UserID) && chore.CreatedBy != id.UserID && !id.IsAdmin() {
		return nil, apperr.Authorization("only an assignee or the creator can complete this chore")
	}
	if chore.Status == models.ChoreCompleted {
		return nil, apperr.Conflict("chore is already completed")
	}

	s.setStatus(chore, models.ChoreCompleted, id.UserID)
	if err := s.store.UpdateChore(ctx, chore); err != nil {
		return nil, s.storeErr(err, "chore")
	}
	s.logger.Info("Chore completed", "chore_id", chore.ID, "user_id", id.UserID)
	s.notifyCompleted(ctx, chore, id.UserID)
	return chore, nil
}

func (s *ChoreService) setStatus(chore *models.Chore, status models.ChoreStatus, by string) {
	if status == models.ChoreCompleted {
		if chore.Status != models.ChoreCompleted {
			now := s.now()
			chore.CompletedAt = &now
			chore.CompletedBy = by
		}
	} else {
		chore.CompletedAt = nil
		chore.CompletedBy = ""
	}
	chore.Status = status
}

func (s *ChoreService) checkDueDate(due *time.Time) error {
	if due != nil && !due.After(s.now()) {
		return apperr.Validation("due date must be in the future")
	}
	return nil
}

// checkAssignees dedupes ids and verifies each one is a household member.
func (s *ChoreService) checkAssignees(ctx context.Context, householdID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	members, err := s.store.ListUsersByHousehold(ctx, householdID)
	if err != nil {
		return nil, s.storeErr(err, "household members")
	}
	memberIDs := userIDs(members)

	out := make([]string, 0, len(ids))
	for _, a := range ids {
		if !contains(memberIDs, a) {
			return nil, apperr.Validation("assignee %s is not a member of this household", a)
		}
		if !contains(out, a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *ChoreService) notifyAssigned(ctx context.Context, chore *models.Chore, recipients []string) {
	if len(recipients) == 0 {
		return
	}
	s.emit(ctx, notify.Request{
		HouseholdID: chore.HouseholdID,
		Type:        models.NotifyChoreAssigned,
		Title:       "New chore assigned",
		Message:     fmt.Sprintf("You have been assigned: %s", chore.Title),
		Recipients:  recipients,
		Reference:   &models.NotificationRef{Model: "chore", ID: chore.ID},
	})
}

func (s *ChoreService) notifyCompleted(ctx context.Context, chore *models.Chore, by string) {
	recipients := without(append([]string{chore.CreatedBy}, chore.AssignedTo...), by)
	if len(recipients) == 0 {
		return
	}
	s.emit(ctx, notify.Request{
		HouseholdID: chore.HouseholdID,
		Type:        models.NotifyChoreCompleted,
		Title:       "Chore completed",
		Message:     fmt.Sprintf("%s was marked as done", chore.Title),
		Recipients:  recipients,
		Reference:   &models.NotificationRef{Model: "chore", ID: chore.ID},
	})
}
