package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kshaab/Coursework-5/internal/metrics"
	"github.com/kshaab/Coursework-5/internal/repository"
)

// Notifier delivers a text message to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// DispatchResult summarizes one reminder scan.
type DispatchResult struct {
	Matched int
	Sent    int
	Skipped int // owner has no chat id
	Failed  int
}

type ReminderService struct {
	habitRepository repository.HabitRepository
	notifier        Notifier
	location        *time.Location
}

func NewReminderService(habitRepository repository.HabitRepository, notifier Notifier, location *time.Location) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	return &ReminderService{
		habitRepository: habitRepository,
		notifier:        notifier,
		location:        location,
	}
}

func ReminderText(action, place string) string {
	return fmt.Sprintf("Perform the habit: %s\nPlace: %s", action, place)
}

// Dispatch sends a reminder for every habit whose hour and minute match now
// in the service's location. A failed send is logged and the scan moves on;
// only a failed store read is returned.
func (s *ReminderService) Dispatch(ctx context.Context, now time.Time) (DispatchResult, error) {
	local := now.In(s.location)

	reminders, err := s.habitRepository.DueAt(ctx, local.Hour(), local.Minute())
	if err != nil {
		return DispatchResult{}, fmt.Errorf("failed to load due habits: %w", err)
	}

	result := DispatchResult{Matched: len(reminders)}
	for _, r := range reminders {
		if r.TgChatID == nil || strings.TrimSpace(*r.TgChatID) == "" {
			result.Skipped++
			metrics.RecordReminder("skipped")
			continue
		}

		err = s.notifier.Send(ctx, *r.TgChatID, ReminderText(r.Action, r.Place))
		if err != nil {
			slog.Error("failed to send reminder",
				"error", err,
				"chat_id", *r.TgChatID,
				"habit_id", r.HabitID,
			)
			result.Failed++
			metrics.RecordReminder("failed")
			continue
		}

		result.Sent++
		metrics.RecordReminder("sent")
	}

	slog.Info("reminder scan finished",
		"at", local.Format("15:04"),
		"matched", result.Matched,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
