package handlers

import (
	"errors"
	"net/http"
	"strings"

	"cybercase/internal/constants"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/security"
	"cybercase/internal/views"
	"cybercase/internal/web"
)

type UserHandler struct {
	userRepo *database.UserRepo
}

func NewUserHandler() *UserHandler {
	return &UserHandler{userRepo: database.NewUserRepo()}
}

// List returns active users, ten per page.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.ListActive(r.Context())
	if err != nil {
		logger.Users.Error().Err(err).Msg("user list failed")
		web.FailStore(w, r, err, web.ErrUserQueryFail)
		return
	}
	rows := views.Users(users)
	pq := web.ParsePageQuery(r, constants.PageSizeUsers, false)
	web.OKRows(w, r, rows, pq)
}

type createUserRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"notblank"`
	FullName string `json:"full_name" validate:"notblank"`
	Role     string `json:"role" validate:"notblank,role"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := web.DecodeJSONBody(r, &req); err != nil {
		web.FailBody(w, r, err, web.ErrUserFieldsMissed)
		return
	}
	if len(req.Password) < security.MinPasswordLength {
		web.FailErr(w, r, web.ErrPasswordTooShort)
		return
	}

	by := web.GetUsername(r)
	user, err := h.userRepo.Create(r.Context(), database.NewUser{
		Username:  strings.TrimSpace(req.Username),
		Password:  req.Password,
		FullName:  strings.TrimSpace(req.FullName),
		Role:      req.Role,
		CreatedBy: by,
	})
	if errors.Is(err, database.ErrDuplicateUsername) {
		web.FailErr(w, r, web.ErrUserExists)
		return
	}
	if err != nil {
		logger.Users.Error().Err(err).Str("username", req.Username).Msg("user creation failed")
		web.FailStore(w, r, err, web.ErrUserCreateFail)
		return
	}

	logger.Users.Info().Str("username", user.Username).Str("role", user.Role).Str("by", by).Msg("user created")
	web.Created(w, r, views.Users([]database.User{*user})[0], "User "+user.Username+" added successfully")
}

// Deactivate marks a user inactive. Users are never physically removed.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	by := web.GetUsername(r)
	if username == by {
		web.FailErr(w, r, web.ErrUserSelfDelete)
		return
	}

	err := h.userRepo.Deactivate(r.Context(), username, by)
	if errors.Is(err, database.ErrUserNotFound) {
		web.FailErr(w, r, web.ErrUserNotFound)
		return
	}
	if err != nil {
		logger.Users.Error().Err(err).Str("username", username).Msg("user deactivation failed")
		web.FailStore(w, r, err, web.ErrUserQueryFail)
		return
	}

	logger.Users.Info().Str("username", username).Str("by", by).Msg("user deactivated")
	web.OK(w, r, map[string]string{"username": username, "message": "User " + username + " deactivated"})
}
