package server

import (
	"net/http"

	"chat-hub/auth"
)

type adminLoginRequest struct {
	SecretKey string `json:"secretKey" validate:"required"`
}

func (h *handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.deps.Admin.Login(req.SecretKey)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.setCookie(w, auth.AdminCookie, token, h.deps.SessionMaxAge)
	respondMessage(w, http.StatusOK, "Authenticated successfully")
}

func (h *handler) adminLogout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, auth.AdminCookie, "", -1)
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *handler) adminVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Admin bool `json:"admin"`
	}{true})
}

func (h *handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.deps.Admin.Users()
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Users   any  `json:"users"`
	}{true, users})
}

func (h *handler) adminChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.deps.Admin.Chats()
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Chats   any  `json:"chats"`
	}{true, chats})
}

func (h *handler) adminMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.deps.Admin.Messages()
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success  bool `json:"success"`
		Messages any  `json:"messages"`
	}{true, messages})
}

func (h *handler) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Admin.Stats()
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Stats   any  `json:"stats"`
	}{true, stats})
}
