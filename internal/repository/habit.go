package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/kshaab/Coursework-5/internal/model"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
)

const habitColumns = `id, user_id, place, time, action, is_pleasant, related_habit_id, periodicity, reward, duration, is_public`

type HabitRepository interface {
	Create(ctx context.Context, habit *model.Habit) error
	ByID(ctx context.Context, id int64) (*model.Habit, error)
	Visible(ctx context.Context, userID int64, limit, offset int) ([]*model.Habit, error)
	CountVisible(ctx context.Context, userID int64) (int, error)
	Update(ctx context.Context, habit *model.Habit) error
	Delete(ctx context.Context, id int64) error
	DueAt(ctx context.Context, hour, minute int) ([]*model.Reminder, error)
}

type habitRepository struct {
	db *sqlx.DB
}

func NewHabitRepository(db *sqlx.DB) HabitRepository {
	return &habitRepository{db: db}
}

func (r *habitRepository) Create(ctx context.Context, habit *model.Habit) error {
	query := `INSERT INTO habits (user_id, place, time, action, is_pleasant, related_habit_id, periodicity, reward, duration, is_public)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		habit.UserID,
		habit.Place,
		habit.Time,
		habit.Action,
		habit.IsPleasant,
		habit.RelatedHabitID,
		habit.Periodicity,
		habit.Reward,
		habit.Duration,
		habit.IsPublic,
	).Scan(&habit.ID)
}

func (r *habitRepository) ByID(ctx context.Context, id int64) (*model.Habit, error) {
	habit := &model.Habit{}
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1`

	err := r.db.GetContext(ctx, habit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, err
	}

	return habit, nil
}

// Visible lists the user's own habits together with other users' public
// habits. The two sets are disjoint, so no row appears twice.
func (r *habitRepository) Visible(ctx context.Context, userID int64, limit, offset int) ([]*model.Habit, error) {
	var habits []*model.Habit
	query := `SELECT ` + habitColumns + ` FROM habits
	          WHERE user_id = $1 OR (is_public = $2 AND user_id <> $1)
	          ORDER BY time, id
	          LIMIT $3 OFFSET $4`

	err := r.db.SelectContext(ctx, &habits, query, userID, true, limit, offset)
	if err != nil {
		return nil, err
	}

	return habits, nil
}

func (r *habitRepository) CountVisible(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM habits WHERE user_id = $1 OR (is_public = $2 AND user_id <> $1)`
	err := r.db.GetContext(ctx, &count, query, userID, true)
	return count, err
}

func (r *habitRepository) Update(ctx context.Context, habit *model.Habit) error {
	query := `UPDATE habits
	          SET place = $1, time = $2, action = $3, is_pleasant = $4, related_habit_id = $5,
	              periodicity = $6, reward = $7, duration = $8, is_public = $9
	          WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		habit.Place,
		habit.Time,
		habit.Action,
		habit.IsPleasant,
		habit.RelatedHabitID,
		habit.Periodicity,
		habit.Reward,
		habit.Duration,
		habit.IsPublic,
		habit.ID,
	)
	if err != nil {
		return err
	}

	return expectAffected(result, ErrHabitNotFound)
}

func (r *habitRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectAffected(result, ErrHabitNotFound)
}

// DueAt returns habits scheduled for the given hour and minute with their
// owner's chat id. Date and periodicity are not considered.
func (r *habitRepository) DueAt(ctx context.Context, hour, minute int) ([]*model.Reminder, error) {
	var reminders []*model.Reminder

	match := `EXTRACT(HOUR FROM h.time) = $1 AND EXTRACT(MINUTE FROM h.time) = $2`
	if r.db.DriverName() == "sqlite" {
		match = `CAST(strftime('%H', h.time) AS INTEGER) = $1 AND CAST(strftime('%M', h.time) AS INTEGER) = $2`
	}

	query := `SELECT h.id, h.user_id, h.action, h.place, h.time, u.tg_chat_id
	          FROM habits h JOIN users u ON u.id = h.user_id
	          WHERE ` + match + `
	          ORDER BY h.id`

	err := r.db.SelectContext(ctx, &reminders, query, hour, minute)
	if err != nil {
		return nil, err
	}

	return reminders, nil
}
