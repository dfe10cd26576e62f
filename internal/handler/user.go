package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/dto"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

// UserHandler serves profiles and subscriptions.
//
//	GET    /api/users/                     → HandleList
//	GET    /api/users/me/                  → HandleMe            (auth)
//	GET    /api/users/subscriptions/       → HandleSubscriptions (auth)
//	GET    /api/users/{id}/                → HandleGet
//	POST   /api/users/{id}/subscribe/      → HandleSubscribe     (auth)
//	DELETE /api/users/{id}/subscribe/      → HandleUnsubscribe   (auth)
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.users.List(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserResponses(views))
}

func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.users.Get(r.Context(), viewer(r), model.UserID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserResponse(*view))
}

// HandleMe returns the caller's own profile.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	view, err := h.users.Me(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserResponse(*view))
}

// HandleSubscribe follows the author and answers 201 with the
// subscription, its recipes capped by ?recipes_limit.
func (h *UserHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := recipesLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.users.Subscribe(r.Context(), viewer(r), model.UserID(id), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewSubscriptionResponse(*sub))
}

func (h *UserHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.Unsubscribe(r.Context(), viewer(r), model.UserID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	limit, err := recipesLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	subs, err := h.users.Subscriptions(r.Context(), viewer(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSubscriptionResponses(subs))
}
