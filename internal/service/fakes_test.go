package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/kshaab/Coursework-5/internal/model"
	"github.com/kshaab/Coursework-5/internal/repository"
	"github.com/samber/lo"
)

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	failOn map[int64]error // Deactivate failures by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*model.User{}, failOn: map[int64]error{}}
}

func (r *fakeUserRepo) add(u model.User) *model.User {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = &u
	return &u
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) ByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) sorted() []*model.User {
	users := lo.Values(r.users)
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]*model.User, error) {
	users := r.sorted()
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return lo.Map(users, func(u *model.User, _ int) *model.User { cp := *u; return &cp }), nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(r.users), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, u := range r.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) InactiveSince(_ context.Context, cutoff time.Time) ([]*model.User, error) {
	return lo.Filter(r.sorted(), func(u *model.User, _ int) bool {
		seen := u.DateJoined
		if u.LastLogin != nil {
			seen = *u.LastLogin
		}
		return u.IsActive && !u.IsStaff && seen.Before(cutoff)
	}), nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id int64) error {
	if err := r.failOn[id]; err != nil {
		return err
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsActive = false
	return nil
}

type fakeHabitRepo struct {
	habits  map[int64]*model.Habit
	nextID  int64
	users   *fakeUserRepo
	dueErr  error
	lastDue [2]int
}

func newFakeHabitRepo(users *fakeUserRepo) *fakeHabitRepo {
	return &fakeHabitRepo{habits: map[int64]*model.Habit{}, users: users}
}

func (r *fakeHabitRepo) add(h model.Habit) *model.Habit {
	r.nextID++
	h.ID = r.nextID
	r.habits[h.ID] = &h
	return &h
}

func (r *fakeHabitRepo) Create(_ context.Context, habit *model.Habit) error {
	r.nextID++
	habit.ID = r.nextID
	cp := *habit
	r.habits[habit.ID] = &cp
	return nil
}

func (r *fakeHabitRepo) ByID(_ context.Context, id int64) (*model.Habit, error) {
	h, ok := r.habits[id]
	if !ok {
		return nil, repository.ErrHabitNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *fakeHabitRepo) visible(userID int64) []*model.Habit {
	habits := lo.Filter(lo.Values(r.habits), func(h *model.Habit, _ int) bool {
		return h.UserID == userID || h.IsPublic
	})
	sort.Slice(habits, func(i, j int) bool {
		a, b := habits[i].Time.String(), habits[j].Time.String()
		if a != b {
			return a < b
		}
		return habits[i].ID < habits[j].ID
	})
	return habits
}

func (r *fakeHabitRepo) Visible(_ context.Context, userID int64, limit, offset int) ([]*model.Habit, error) {
	habits := r.visible(userID)
	if offset >= len(habits) {
		return nil, nil
	}
	habits = habits[offset:]
	if len(habits) > limit {
		habits = habits[:limit]
	}
	return habits, nil
}

func (r *fakeHabitRepo) CountVisible(_ context.Context, userID int64) (int, error) {
	return len(r.visible(userID)), nil
}

func (r *fakeHabitRepo) Update(_ context.Context, habit *model.Habit) error {
	if _, ok := r.habits[habit.ID]; !ok {
		return repository.ErrHabitNotFound
	}
	cp := *habit
	r.habits[habit.ID] = &cp
	return nil
}

func (r *fakeHabitRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.habits[id]; !ok {
		return repository.ErrHabitNotFound
	}
	delete(r.habits, id)
	return nil
}

func (r *fakeHabitRepo) DueAt(_ context.Context, hour, minute int) ([]*model.Reminder, error) {
	r.lastDue = [2]int{hour, minute}
	if r.dueErr != nil {
		return nil, r.dueErr
	}

	var out []*model.Reminder
	for _, h := range r.habits {
		if h.Time.Hour != hour || h.Time.Minute != minute {
			continue
		}
		var chatID *string
		if u, ok := r.users.users[h.UserID]; ok {
			chatID = u.TgChatID
		}
		out = append(out, &model.Reminder{
			HabitID:  h.ID,
			UserID:   h.UserID,
			Action:   h.Action,
			Place:    h.Place,
			Time:     h.Time,
			TgChatID: chatID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HabitID < out[j].HabitID })
	return out, nil
}

type fakeStorage struct {
	files   map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}}
}

func (s *fakeStorage) Save(_ context.Context, path string, file io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return err
	}
	s.files[path] = buf.Bytes()
	return nil
}

func (s *fakeStorage) Delete(_ context.Context, path string) error {
	delete(s.files, path)
	s.deleted = append(s.deleted, path)
	return nil
}

func (s *fakeStorage) URL(path string) string {
	return "http://media.test/" + path
}

type sentMail struct {
	kind string
	to   string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) record(kind, to string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to})
	return nil
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, email string) error {
	return m.record("welcome", email)
}

func (m *fakeMailer) SendDeactivatedEmail(_ context.Context, email string, _ int) error {
	return m.record("deactivated", email)
}

func (m *fakeMailer) SendAccountDeletedEmail(_ context.Context, email string) error {
	return m.record("deleted", email)
}

type sentMessage struct {
	chatID string
	text   string
}

// fakeNotifier records sends and fails for chat ids listed in failFor.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
}

func (n *fakeNotifier) Send(_ context.Context, chatID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[chatID] {
		return errors.New("telegram unavailable")
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func mustTime(s string) model.TimeOfDay {
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}
