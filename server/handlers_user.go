package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"chat-hub/auth"
	"chat-hub/errors"
)

const maxUploadBytes = 10 << 20

// decode parses and validates a JSON body, replying on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, h.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return false
	}
	if err := auth.ValidateStruct(dst); err != nil {
		respondError(w, h.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return false
	}
	return true
}

// formFileBytes reads one uploaded file fully into memory.
func formFileBytes(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, h.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	req := auth.RegisterRequest{
		Name:     r.FormValue("name"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Bio:      r.FormValue("bio"),
	}
	avatar, err := formFileBytes(r, "avatar")
	if err != nil {
		respondError(w, h.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	user, token, err := h.deps.Users.Register(req, avatar)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.setCookie(w, auth.SessionCookie, token, h.deps.SessionMaxAge)
	writeJSON(w, http.StatusCreated, struct {
		Success bool   `json:"success"`
		User    any    `json:"user"`
		Message string `json:"message"`
	}{true, user, "Account created"})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.deps.Users.Login(req.Username, req.Password)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.setCookie(w, auth.SessionCookie, token, h.deps.SessionMaxAge)
	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		User    any    `json:"user"`
		Message string `json:"message"`
	}{true, user, fmt.Sprintf("Welcome back, %s", user.Name)})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, auth.SessionCookie, "", -1)
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.deps.Users.Profile(userID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		User    any  `json:"user"`
	}{true, user})
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	users, err := h.deps.Users.Search(r.Context(), userID, r.URL.Query().Get("name"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Users   any  `json:"users"`
	}{true, users})
}

func (h *handler) sendRequest(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req auth.SendRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.deps.Users.SendFriendRequest(userID, req.UserID); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "Friend request sent")
}

func (h *handler) acceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req auth.AcceptRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.deps.Users.AcceptFriendRequest(userID, req.RequestID, *req.Accept); err != nil {
		respondError(w, h.log, err)
		return
	}
	if *req.Accept {
		respondMessage(w, http.StatusOK, "Friend request accepted")
		return
	}
	respondMessage(w, http.StatusOK, "Friend request rejected")
}

func (h *handler) notifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	requests, err := h.deps.Users.Notifications(userID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success     bool `json:"success"`
		AllRequests any  `json:"allRequests"`
	}{true, requests})
}

func (h *handler) friends(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	friends, err := h.deps.Users.Friends(userID, r.URL.Query().Get("chatId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Friends any  `json:"friends"`
	}{true, friends})
}
