package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/notify"
	"github.com/mmynk/homebase/internal/storage"
)

const (
	joinCodeLength   = 8
	joinCodeAttempts = 5
)

// HouseholdService manages households and membership. Membership is the
// household_id field on the user document; every change is one update.
type HouseholdService struct {
	base
}

func NewHouseholdService(store storage.Store, logger *slog.Logger, opts ...Option) *HouseholdService {
	return &HouseholdService{base: newBase(store, logger, opts)}
}

// HouseholdView is a household with its current members.
type HouseholdView struct {
	Household *models.Household `json:"household"`
	Members   []*models.User    `json:"members"`
}

func newJoinCode() string {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(code[:joinCodeLength])
}

// Create makes a new household with the caller as its admin.
func (s *HouseholdService) Create(ctx context.Context, id auth.Identity, name string) (*HouseholdView, error) {
	if id.InHousehold() {
		return nil, apperr.Validation("you already belong to a household; leave it first")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("household name is required")
	}

	household := &models.Household{Name: name, CreatedBy: id.UserID}
	var err error
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		household.ID = ""
		household.JoinCode = newJoinCode()
		err = s.store.CreateHousehold(ctx, household)
		if !errors.Is(err, storage.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, s.storeErr(err, "household")
	}

	if err := s.store.SetUserHousehold(ctx, id.UserID, household.ID, models.RoleAdmin); err != nil {
		if delErr := s.store.DeleteHousehold(ctx, household.ID); delErr != nil {
			s.logger.Error("Failed to roll back household", "household_id", household.ID, "error", delErr)
		}
		return nil, s.storeErr(err, "user")
	}

	s.logger.Info("Household created", "household_id", household.ID, "user_id", id.UserID)
	return s.view(ctx, household)
}

// Join adds the caller to the household with the given join code.
func (s *HouseholdService) Join(ctx context.Context, id auth.Identity, code string) (*HouseholdView, error) {
	if id.InHousehold() {
		return nil, apperr.Validation("you already belong to a household; leave it first")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperr.Validation("join code is required")
	}

	household, err := s.store.GetHouseholdByJoinCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("no household matches that join code")
	}
	if err != nil {
		return nil, s.storeErr(err, "household")
	}

	others, err := s.store.ListUsersByHousehold(ctx, household.ID)
	if err != nil {
		return nil, s.storeErr(err, "household members")
	}
	if err := s.store.SetUserHousehold(ctx, id.UserID, household.ID, models.RoleMember); err != nil {
		return nil, s.storeErr(err, "user")
	}

	s.logger.Info("User joined household", "household_id", household.ID, "user_id", id.UserID)
	s.emit(ctx, notify.Request{
		HouseholdID: household.ID,
		Type:        models.NotifyHouseholdUpdate,
		Title:       "New housemate",
		Message:     fmt.Sprintf("%s joined %s", s.displayName(ctx, id.UserID), household.Name),
		Recipients:  userIDs(others),
		Reference:   &models.NotificationRef{Model: "household", ID: household.ID},
	})
	return s.view(ctx, household)
}

// Leave removes the caller from their household. The last member leaving
// deletes the household; if no admin remains the first listed member is promoted.
func (s *HouseholdService) Leave(ctx context.Context, id auth.Identity) error {
	if err := requireHousehold(id); err != nil {
		return err
	}
	if err := s.store.SetUserHousehold(ctx, id.UserID, "", ""); err != nil {
		return s.storeErr(err, "user")
	}
	s.logger.Info("User left household", "household_id", id.HouseholdID, "user_id", id.UserID)
	return s.afterDeparture(ctx, id.HouseholdID, id.UserID)
}

// afterDeparture deletes an empty household or keeps it administered.
func (s *HouseholdService) afterDeparture(ctx context.Context, householdID, departedID string) error {
	remaining, err := s.store.ListUsersByHousehold(ctx, householdID)
	if err != nil {
		return s.storeErr(err, "household members")
	}
	if len(remaining) == 0 {
		if err := s.store.DeleteHousehold(ctx, householdID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return s.storeErr(err, "household")
		}
		s.logger.Info("Empty household deleted", "household_id", householdID)
		return nil
	}

	hasAdmin := false
	for _, u := range remaining {
		if u.Role == models.RoleAdmin {
			hasAdmin = true
			break
		}
	}
	if !hasAdmin {
		if err := s.store.SetUserHousehold(ctx, remaining[0].ID, householdID, models.RoleAdmin); err != nil {
			return s.storeErr(err, "user")
		}
		s.logger.Info("Promoted household admin", "household_id", householdID, "user_id", remaining[0].ID)
	}

	s.emit(ctx, notify.Request{
		HouseholdID: householdID,
		Type:        models.NotifyHouseholdUpdate,
		Title:       "Housemate left",
		Message:     fmt.Sprintf("%s left the household", s.displayName(ctx, departedID)),
		Recipients:  userIDs(remaining),
		Reference:   &models.NotificationRef{Model: "household", ID: householdID},
	})
	return nil
}

// Current returns the caller's household and its members.
func (s *HouseholdService) Current(ctx context.Context, id auth.Identity) (*HouseholdView, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	household, err := s.store.GetHousehold(ctx, id.HouseholdID)
	if err != nil {
		return nil, s.storeErr(err, "household")
	}
	return s.view(ctx, household)
}

// RegenerateCode replaces the join code. Admin only.
func (s *HouseholdService) RegenerateCode(ctx context.Context, id auth.Identity) (*models.Household, error) {
	if err := requireHousehold(id); err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, apperr.Authorization("only a household admin can change the join code")
	}
	household, err := s.store.GetHousehold(ctx, id.HouseholdID)
	if err != nil {
		return nil, s.storeErr(err, "household")
	}

	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		household.JoinCode = newJoinCode()
		err = s.store.UpdateHousehold(ctx, household)
		if !errors.Is(err, storage.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, s.storeErr(err, "household")
	}
	s.logger.Info("Join code regenerated", "household_id", household.ID)
	return household, nil
}

// RemoveMember removes another member from the household. Admin only.
func (s *HouseholdService) RemoveMember(ctx context.Context, id auth.Identity, memberID string) error {
	if err := requireHousehold(id); err != nil {
		return err
	}
	if !id.IsAdmin() {
		return apperr.Authorization("only a household admin can remove members")
	}
	if memberID == id.UserID {
		return apperr.Validation("use leave to remove yourself")
	}

	member, err := s.store.GetUserByID(ctx, memberID)
	if err != nil || member.HouseholdID != id.HouseholdID {
		return apperr.NotFound("member not found")
	}
	if err := s.store.SetUserHousehold(ctx, memberID, "", ""); err != nil {
		return s.storeErr(err, "user")
	}

	s.logger.Info("Member removed", "household_id", id.HouseholdID, "user_id", memberID, "by", id.UserID)
	s.emit(ctx, notify.Request{
		HouseholdID: id.HouseholdID,
		Type:        models.NotifyHouseholdUpdate,
		Title:       "Removed from household",
		Message:     "An admin removed you from the household",
		Recipients:  []string{memberID},
		Reference:   &models.NotificationRef{Model: "household", ID: id.HouseholdID},
	})
	return nil
}

func (s *HouseholdService) view(ctx context.Context, household *models.Household) (*HouseholdView, error) {
	members, err := s.store.ListUsersByHousehold(ctx, household.ID)
	if err != nil {
		return nil, s.storeErr(err, "household members")
	}
	return &HouseholdView{Household: household, Members: members}, nil
}

func (s *HouseholdService) displayName(ctx context.Context, userID string) string {
	if u, err := s.store.GetUserByID(ctx, userID); err == nil {
		return u.DisplayName
	}
	return "Someone"
}

func userIDs(users []*models.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
