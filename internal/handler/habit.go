package handler

import (
	"net/http"

	"github.com/kshaab/Coursework-5/internal/config"
	"github.com/kshaab/Coursework-5/internal/ctxkeys"
	"github.com/kshaab/Coursework-5/internal/pagination"
	"github.com/kshaab/Coursework-5/internal/service"
)

type HabitHandler struct {
	habitService *service.HabitService
	cfg          *config.Config
}

func NewHabitHandler(habitService *service.HabitService, cfg *config.Config) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
		cfg:          cfg,
	}
}

// Create handles POST /api/habits
func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var in service.HabitInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	habit, err := h.habitService.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}

// List handles GET /api/habits
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	params, err := pagination.FromRequest(r, h.cfg.PageSize, h.cfg.MaxPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	habits, count, err := h.habitService.List(r.Context(), user.ID, params.Limit(), params.Offset())
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := pagination.New(r, params, count, habits)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/habits/{id}
func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	habit, err := h.habitService.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// Update handles PUT and PATCH /api/habits/{id}
func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in service.HabitInput
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	habit, err := h.habitService.Update(r.Context(), user.ID, id, in, partialUpdate(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// Delete handles DELETE /api/habits/{id}
func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.habitService.Delete(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
