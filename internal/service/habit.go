package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kshaab/Coursework-5/internal/model"
	"github.com/kshaab/Coursework-5/internal/policy"
	"github.com/kshaab/Coursework-5/internal/repository"
	"github.com/kshaab/Coursework-5/internal/validation"
)

// HabitInput is the writable habit field set as sent by a client.
// The owner is never part of it.
type HabitInput struct {
	Place          Nullable[string] `json:"place"`
	Time           Nullable[string] `json:"time"`
	Action         Nullable[string] `json:"action"`
	IsPleasant     Nullable[bool]   `json:"is_pleasant"`
	RelatedHabitID Nullable[int64]  `json:"related_habit"`
	Periodicity    Nullable[int]    `json:"periodicity"`
	Reward         Nullable[string] `json:"reward"`
	Duration       Nullable[int]    `json:"duration"`
	IsPublic       Nullable[bool]   `json:"is_public"`
}

type HabitService struct {
	habitRepository repository.HabitRepository
}

func NewHabitService(habitRepository repository.HabitRepository) *HabitService {
	return &HabitService{habitRepository: habitRepository}
}

// Create stores a new habit owned by callerID.
func (s *HabitService) Create(ctx context.Context, callerID int64, in HabitInput) (*model.Habit, error) {
	habit := &model.Habit{
		UserID:      callerID,
		Periodicity: validation.MinPeriodicity,
	}

	err := s.apply(ctx, habit, in, true)
	if err != nil {
		return nil, err
	}

	err = s.habitRepository.Create(ctx, habit)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	slog.Info("habit created", "habit_id", habit.ID, "user_id", callerID)
	return habit, nil
}

// Get returns a habit the caller owns or one that is public.
func (s *HabitService) Get(ctx context.Context, callerID, id int64) (*model.Habit, error) {
	habit, err := s.habitRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.IsOwnerOrPublicRead(callerID, habit, policy.Read) {
		return nil, ErrForbidden
	}

	return habit, nil
}

// Update rewrites a habit the caller owns. A full update (partial=false)
// resets optional fields missing from the input to their defaults; both
// forms validate the merged result.
func (s *HabitService) Update(ctx context.Context, callerID, id int64, in HabitInput, partial bool) (*model.Habit, error) {
	stored, err := s.habitRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.IsOwner(callerID, stored) {
		return nil, ErrForbidden
	}

	habit := *stored
	if !partial {
		habit = model.Habit{
			ID:          stored.ID,
			UserID:      stored.UserID,
			Periodicity: validation.MinPeriodicity,
		}
	}

	err = s.apply(ctx, &habit, in, !partial)
	if err != nil {
		return nil, err
	}

	err = s.habitRepository.Update(ctx, &habit)
	if err != nil {
		return nil, err
	}

	slog.Info("habit updated", "habit_id", habit.ID, "user_id", callerID, "partial", partial)
	return &habit, nil
}

func (s *HabitService) Delete(ctx context.Context, callerID, id int64) error {
	habit, err := s.habitRepository.ByID(ctx, id)
	if err != nil {
		return err
	}

	if !policy.IsOwner(callerID, habit) {
		return ErrForbidden
	}

	err = s.habitRepository.Delete(ctx, id)
	if err != nil {
		return err
	}

	slog.Info("habit deleted", "habit_id", id, "user_id", callerID)
	return nil
}

// List returns one page of the caller's habits and everyone else's public
// ones, plus the total across all pages.
func (s *HabitService) List(ctx context.Context, callerID int64, limit, offset int) ([]*model.Habit, int, error) {
	count, err := s.habitRepository.CountVisible(ctx, callerID)
	if err != nil {
		return nil, 0, err
	}

	habits, err := s.habitRepository.Visible(ctx, callerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return habits, count, nil
}

// apply merges in into habit, checks field shapes, then runs the habit rules
// on the merged state.
func (s *HabitService) apply(ctx context.Context, habit *model.Habit, in HabitInput, requireAll bool) error {
	if requireAll {
		required := []struct {
			name string
			set  bool
		}{
			{"place", in.Place.Set},
			{"time", in.Time.Set},
			{"action", in.Action.Set},
			{"duration", in.Duration.Set},
		}
		for _, f := range required {
			if !f.set {
				return invalidf("%s is required", f.name)
			}
		}
	}

	if in.Place.Set {
		if in.Place.Value == nil {
			return invalidf("place may not be null")
		}
		err := validation.ValidateHabitText("place", *in.Place.Value, true)
		if err != nil {
			return invalid(err)
		}
		habit.Place = *in.Place.Value
	}

	if in.Action.Set {
		if in.Action.Value == nil {
			return invalidf("action may not be null")
		}
		err := validation.ValidateHabitText("action", *in.Action.Value, true)
		if err != nil {
			return invalid(err)
		}
		habit.Action = *in.Action.Value
	}

	if in.Time.Set {
		if in.Time.Value == nil {
			return invalidf("time may not be null")
		}
		t, err := model.ParseTimeOfDay(*in.Time.Value)
		if err != nil {
			return invalid(err)
		}
		habit.Time = t
	}

	if in.Duration.Set {
		if in.Duration.Value == nil {
			return invalidf("duration may not be null")
		}
		if *in.Duration.Value < 0 {
			return invalidf("duration must not be negative")
		}
		habit.Duration = *in.Duration.Value
	}

	if in.Periodicity.Set {
		if in.Periodicity.Value == nil {
			return invalidf("periodicity may not be null")
		}
		habit.Periodicity = *in.Periodicity.Value
	}

	if in.IsPleasant.Set {
		if in.IsPleasant.Value == nil {
			return invalidf("is_pleasant may not be null")
		}
		habit.IsPleasant = *in.IsPleasant.Value
	}

	if in.IsPublic.Set {
		if in.IsPublic.Value == nil {
			return invalidf("is_public may not be null")
		}
		habit.IsPublic = *in.IsPublic.Value
	}

	if in.Reward.Set {
		habit.Reward = nil
		if in.Reward.Value != nil {
			reward := strings.TrimSpace(*in.Reward.Value)
			err := validation.ValidateHabitText("reward", reward, false)
			if err != nil {
				return invalid(err)
			}
			if reward != "" {
				habit.Reward = &reward
			}
		}
	}

	if in.RelatedHabitID.Set {
		habit.RelatedHabitID = in.RelatedHabitID.Value
	}

	fields := validation.HabitFields{
		IsPleasant:     habit.IsPleasant,
		Reward:         habit.Reward,
		RelatedHabitID: habit.RelatedHabitID,
		Duration:       habit.Duration,
		Periodicity:    habit.Periodicity,
	}

	if habit.RelatedHabitID != nil {
		related, err := s.relatedHabit(ctx, habit)
		if err != nil {
			return err
		}
		fields.RelatedIsPleasant = related.IsPleasant
	}

	return validation.ValidateHabit(fields)
}

func (s *HabitService) relatedHabit(ctx context.Context, habit *model.Habit) (*model.Habit, error) {
	relatedID := *habit.RelatedHabitID
	if habit.ID != 0 && relatedID == habit.ID {
		return nil, invalidf("a habit cannot be related to itself")
	}

	related, err := s.habitRepository.ByID(ctx, relatedID)
	if err != nil {
		if errors.Is(err, repository.ErrHabitNotFound) {
			return nil, invalidf("related habit %d does not exist", relatedID)
		}
		return nil, fmt.Errorf("failed to get related habit: %w", err)
	}

	return related, nil
}
