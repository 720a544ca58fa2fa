package handlers

import (
	"net/http"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves profiles, avatars and subscriptions.
type UserHandler struct {
	users         *services.UserService
	subscriptions *services.SubscriptionService
	paging        config.PagingConfig
	publicURL     string
}

func NewUserHandler(
	users *services.UserService,
	subscriptions *services.SubscriptionService,
	paging config.PagingConfig,
	publicURL string,
) *UserHandler {
	return &UserHandler{
		users:         users,
		subscriptions: subscriptions,
		paging:        paging,
		publicURL:     publicURL,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, handler *UserHandler, auth *AuthHandler) {
	r.Post("/", handler.Register)
	r.With(auth.OptionalAuth).Get("/", handler.ListUsers)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/me", handler.Me)
		r.Patch("/me", handler.UpdateMe)
		r.Put("/me/avatar", handler.SetAvatar)
		r.Delete("/me/avatar", handler.DeleteAvatar)
		r.Post("/set_password", handler.SetPassword)
		r.Get("/subscriptions", handler.ListSubscriptions)
	})

	r.Route("/{userID}", func(r chi.Router) {
		r.With(auth.OptionalAuth).Get("/", handler.GetUser)
		r.With(auth.RequireAuth).Post("/subscribe", handler.Subscribe)
		r.With(auth.RequireAuth).Delete("/subscribe", handler.Unsubscribe)
	})
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r, h.paging)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, total, err := h.users.List(r.Context(), userIDFromContext(r.Context()), page.Offset, page.Limit)
	if err != nil {
		writeServiceError(w, r, err, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, h.publicURL, page, total, users))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	user, err := h.users.Get(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := userIDFromContext(r.Context())
	user, err := h.users.Get(r.Context(), id, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req services.PasswordInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := h.users.SetPassword(r.Context(), userIDFromContext(r.Context()), req); err != nil {
		writeServiceError(w, r, err, "failed to set password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req AvatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	url, err := h.users.SetAvatar(r.Context(), userIDFromContext(r.Context()), req.Avatar)
	if err != nil {
		writeServiceError(w, r, err, "failed to update avatar")
		return
	}
	writeJSON(w, http.StatusOK, AvatarResponse{Avatar: url})
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteAvatar(r.Context(), userIDFromContext(r.Context())); err != nil {
		writeServiceError(w, r, err, "failed to delete avatar")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r, h.paging)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recipesLimit, err := services.ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))
	if err != nil {
		writeServiceError(w, r, err, "invalid recipes_limit")
		return
	}

	authors, total, err := h.subscriptions.List(r.Context(), userIDFromContext(r.Context()), page.Offset, page.Limit, recipesLimit)
	if err != nil {
		writeServiceError(w, r, err, "failed to list subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, h.publicURL, page, total, authors))
}

func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	recipesLimit, err := services.ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))
	if err != nil {
		writeServiceError(w, r, err, "invalid recipes_limit")
		return
	}

	author, err := h.subscriptions.Subscribe(r.Context(), userIDFromContext(r.Context()), authorID, recipesLimit)
	if err != nil {
		writeServiceError(w, r, err, "failed to subscribe")
		return
	}
	writeJSON(w, http.StatusCreated, author)
}

func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.subscriptions.Unsubscribe(r.Context(), userIDFromContext(r.Context()), authorID); err != nil {
		writeServiceError(w, r, err, "failed to unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AvatarRequest struct {
	Avatar string `json:"avatar"`
}

type AvatarResponse struct {
	Avatar string `json:"avatar"`
}
