package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kshaab/Coursework-5/internal/metrics"
	"github.com/kshaab/Coursework-5/internal/model"
	"github.com/kshaab/Coursework-5/internal/policy"
	"github.com/kshaab/Coursework-5/internal/repository"
	"github.com/kshaab/Coursework-5/internal/storage"
	"github.com/kshaab/Coursework-5/internal/validation"
)

const avatarDir = "avatars"

// Mailer sends the account lifecycle emails.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, email string) error
	SendDeactivatedEmail(ctx context.Context, email string, inactiveDays int) error
	SendAccountDeletedEmail(ctx context.Context, email string) error
}

type RegisterInput struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number"`
	Town        *string `json:"town"`
}

// UpdateUserInput carries the writable profile fields.
type UpdateUserInput struct {
	Email       Nullable[string] `json:"email"`
	PhoneNumber Nullable[string] `json:"phone_number"`
	Town        Nullable[string] `json:"town"`
	TgChatID    Nullable[string] `json:"tg_chat_id"`
}

type UserService struct {
	userRepository repository.UserRepository
	storage        storage.Storage
	mailer         Mailer
	now            func() time.Time
}

func NewUserService(
	userRepository repository.UserRepository,
	storage storage.Storage,
	mailer Mailer,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		storage:        storage,
		mailer:         mailer,
		now:            time.Now,
	}
}

// Register creates an active account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := validation.NormalizeEmail(in.Email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalid(err)
	}

	err = validation.ValidatePassword(in.Password, email)
	if err != nil {
		return nil, invalid(err)
	}

	phone, err := optionalText(in.PhoneNumber, validation.ValidatePhone, strings.TrimSpace)
	if err != nil {
		return nil, err
	}
	town, err := optionalText(in.Town, validation.ValidateTown, validation.NormalizeTown)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  phone,
		Town:         town,
		IsActive:     true,
		DateJoined:   s.now(),
	}

	err = s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	err = s.mailer.SendWelcomeEmail(ctx, user.Email)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// CreateSuperuser creates an active staff superuser. Password rules are not
// applied so the bootstrap credentials stay fixed.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalid(err)
	}
	if password == "" {
		return nil, invalidf("password is required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
		DateJoined:   s.now(),
	}

	err = s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.Info("superuser created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *UserService) ByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.populateAvatarURL(user)
	return user, nil
}

// Get returns the profile and whether the caller may see the private view.
func (s *UserService) Get(ctx context.Context, callerID, id int64) (*model.User, bool, error) {
	user, err := s.ByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if !policy.IsOwnerOrPublicRead(callerID, user, policy.Read) {
		return nil, false, ErrForbidden
	}

	return user, policy.IsOwner(callerID, user), nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]*model.User, int, error) {
	count, err := s.userRepository.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	users, err := s.userRepository.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	for _, user := range users {
		s.populateAvatarURL(user)
	}
	return users, count, nil
}

// Update applies a full (partial=false) or partial profile update.
// A full update clears optional fields missing from the input.
func (s *UserService) Update(ctx context.Context, callerID, id int64, in UpdateUserInput, partial bool) (*model.User, error) {
	user, err := s.ownedUser(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if !partial {
		if !in.Email.Set || in.Email.Value == nil {
			return nil, invalidf("email is required")
		}
		for _, f := range []*Nullable[string]{&in.PhoneNumber, &in.Town, &in.TgChatID} {
			f.Set = true
		}
	}

	if in.Email.Set {
		if in.Email.Value == nil {
			return nil, invalidf("email may not be null")
		}
		email := validation.NormalizeEmail(*in.Email.Value)
		err = validation.ValidateEmail(email)
		if err != nil {
			return nil, invalid(err)
		}
		user.Email = email
	}

	if in.PhoneNumber.Set {
		user.PhoneNumber, err = optionalText(in.PhoneNumber.Value, validation.ValidatePhone, strings.TrimSpace)
		if err != nil {
			return nil, err
		}
	}
	if in.Town.Set {
		user.Town, err = optionalText(in.Town.Value, validation.ValidateTown, validation.NormalizeTown)
		if err != nil {
			return nil, err
		}
	}
	if in.TgChatID.Set {
		user.TgChatID, err = optionalText(in.TgChatID.Value, validation.ValidateChatID, strings.TrimSpace)
		if err != nil {
			return nil, err
		}
	}

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.populateAvatarURL(user)
	slog.Info("user updated", "user_id", user.ID)
	return user, nil
}

// Delete removes the account; habits go with it through the foreign key.
func (s *UserService) Delete(ctx context.Context, callerID, id int64) error {
	user, err := s.ownedUser(ctx, callerID, id)
	if err != nil {
		return err
	}

	err = s.userRepository.Delete(ctx, user.ID)
	if err != nil {
		return err
	}

	if user.Avatar != nil {
		s.removeFile(ctx, *user.Avatar)
	}

	err = s.mailer.SendAccountDeletedEmail(ctx, user.Email)
	if err != nil {
		slog.Warn("failed to send account deleted email", "error", err, "user_id", user.ID)
	}

	slog.Info("user deleted", "user_id", user.ID)
	return nil
}

// UploadAvatar stores a new avatar image and replaces the previous one.
func (s *UserService) UploadAvatar(ctx context.Context, callerID, id int64, file multipart.File, header *multipart.FileHeader) (*model.User, error) {
	user, err := s.ownedUser(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateAvatar(header)
	if err != nil {
		return nil, invalid(err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	storagePath := path.Join(avatarDir, uuid.New().String()+ext)

	err = s.storage.Save(ctx, storagePath, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	previous := user.Avatar
	user.Avatar = &storagePath

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		// If DB update fails, try to cleanup the uploaded file
		s.removeFile(ctx, storagePath)
		return nil, fmt.Errorf("failed to save avatar path: %w", err)
	}

	if previous != nil {
		s.removeFile(ctx, *previous)
	}

	s.populateAvatarURL(user)
	slog.Info("avatar uploaded", "user_id", user.ID, "path", storagePath)
	return user, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, callerID, id int64) error {
	user, err := s.ownedUser(ctx, callerID, id)
	if err != nil {
		return err
	}

	if user.Avatar == nil {
		return nil
	}

	previous := *user.Avatar
	user.Avatar = nil

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return err
	}

	s.removeFile(ctx, previous)
	return nil
}

// DeactivateInactive switches off non-staff accounts that have not logged in
// (or, never having logged in, joined) within the given period and mails
// each owner a notice. Per-user failures are logged and skipped.
func (s *UserService) DeactivateInactive(ctx context.Context, after time.Duration) (int, error) {
	cutoff := s.now().Add(-after)

	users, err := s.userRepository.InactiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list inactive users: %w", err)
	}

	days := int(after.Hours() / 24)
	deactivated := 0
	for _, user := range users {
		err = s.userRepository.Deactivate(ctx, user.ID)
		if err != nil {
			slog.Error("failed to deactivate user", "error", err, "user_id", user.ID)
			continue
		}
		deactivated++
		metrics.UsersDeactivatedTotal.Inc()

		err = s.mailer.SendDeactivatedEmail(ctx, user.Email, days)
		if err != nil {
			slog.Warn("failed to send deactivation email", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("inactive users deactivated", "matched", len(users), "deactivated", deactivated, "cutoff", cutoff)
	return deactivated, nil
}

func (s *UserService) ownedUser(ctx context.Context, callerID, id int64) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.IsOwner(callerID, user) {
		return nil, ErrForbidden
	}

	return user, nil
}

func (s *UserService) populateAvatarURL(user *model.User) {
	if user.Avatar != nil && *user.Avatar != "" {
		user.AvatarURL = s.storage.URL(*user.Avatar)
	}
}

func (s *UserService) removeFile(ctx context.Context, storagePath string) {
	err := s.storage.Delete(ctx, storagePath)
	if err != nil {
		slog.Error("failed to delete file from storage", "error", err, "path", storagePath)
	}
}

// optionalText trims a nullable text field. Blank becomes nil; anything else
// is normalized and then validated.
func optionalText(v *string, validate func(string) error, normalize func(string) string) (*string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}

	value := normalize(*v)
	err := validate(value)
	if err != nil {
		return nil, invalid(err)
	}
	return &value, nil
}

// IsNotFound reports whether err is one of the store's not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrHabitNotFound)
}
