package handler

import (
	"net/http"
	"time"

	"github.com/kshaab/Coursework-5/internal/config"
	"github.com/kshaab/Coursework-5/internal/ctxkeys"
	"github.com/kshaab/Coursework-5/internal/model"
	"github.com/kshaab/Coursework-5/internal/pagination"
	"github.com/kshaab/Coursework-5/internal/service"
	"github.com/kshaab/Coursework-5/internal/validation"
	"github.com/samber/lo"
)

type UserHandler struct {
	userService *service.UserService
	cfg         *config.Config
}

func NewUserHandler(userService *service.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService: userService,
		cfg:         cfg,
	}
}

// publicUser is what other users may see of a profile.
type publicUser struct {
	ID     int64   `json:"id"`
	Town   *string `json:"town"`
	Avatar *string `json:"avatar"`
}

// privateUser is the owner's view of their own profile.
type privateUser struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	PhoneNumber *string    `json:"phone_number"`
	Town        *string    `json:"town"`
	Avatar      *string    `json:"avatar"`
	TgChatID    *string    `json:"tg_chat_id"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
	DateJoined  time.Time  `json:"date_joined"`
}

func avatarURL(u *model.User) *string {
	if u.AvatarURL == "" {
		return nil
	}
	return &u.AvatarURL
}

func toPublicUser(u *model.User) publicUser {
	return publicUser{ID: u.ID, Town: u.Town, Avatar: avatarURL(u)}
}

func toPrivateUser(u *model.User) privateUser {
	return privateUser{
		ID:          u.ID,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Town:        u.Town,
		Avatar:      avatarURL(u),
		TgChatID:    u.TgChatID,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		LastLogin:   u.LastLogin,
		DateJoined:  u.DateJoined,
	}
}

// Register handles POST /api/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPrivateUser(user))
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r, h.cfg.PageSize, h.cfg.MaxPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, count, err := h.userService.List(r.Context(), params.Limit(), params.Offset())
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := pagination.New(r, params, count, lo.Map(users, func(u *model.User, _ int) publicUser {
		return toPublicUser(u)
	}))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, private, err := h.userService.Get(r.Context(), caller.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if private {
		writeJSON(w, http.StatusOK, toPrivateUser(user))
		return
	}
	writeJSON(w, http.StatusOK, toPublicUser(user))
}

// Update handles PUT and PATCH /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in service.UpdateUserInput
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), caller.ID, id, in, partialUpdate(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPrivateUser(user))
}

// Delete handles DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.userService.Delete(r.Context(), caller.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadAvatar handles POST /api/users/{id}/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Limit request body to the image limit plus room for multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxAvatarSize+(1<<20))

	err = r.ParseMultipartForm(validation.MaxAvatarSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "file too large or invalid form"})
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "avatar file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	user, err := h.userService.UploadAvatar(r.Context(), caller.ID, id, file, header)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPrivateUser(user))
}

// DeleteAvatar handles DELETE /api/users/{id}/avatar
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.userService.DeleteAvatar(r.Context(), caller.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
