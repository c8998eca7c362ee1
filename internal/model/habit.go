package model

type Habit struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user"`
	Place          string    `db:"place" json:"place"`
	Time           TimeOfDay `db:"time" json:"time"`
	Action         string    `db:"action" json:"action"`
	IsPleasant     bool      `db:"is_pleasant" json:"is_pleasant"`
	RelatedHabitID *int64    `db:"related_habit_id" json:"related_habit"`
	Periodicity    int       `db:"periodicity" json:"periodicity"`
	Reward         *string   `db:"reward" json:"reward"`
	Duration       int       `db:"duration" json:"duration"` // seconds
	IsPublic       bool      `db:"is_public" json:"is_public"`
}

func (h *Habit) OwnerID() int64 {
	return h.UserID
}

func (h *Habit) Public() bool {
	return h.IsPublic
}

// HasReward treats an empty reward the same as no reward.
func (h *Habit) HasReward() bool {
	return h.Reward != nil && *h.Reward != ""
}

// Reminder is a habit due now joined with its owner's chat id.
type Reminder struct {
	HabitID  int64     `db:"id"`
	UserID   int64     `db:"user_id"`
	Action   string    `db:"action"`
	Place    string    `db:"place"`
	Time     TimeOfDay `db:"time"`
	TgChatID *string   `db:"tg_chat_id"`
}
