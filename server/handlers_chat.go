package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"chat-hub/auth"
	"chat-hub/errors"

	"github.com/gorilla/mux"
)

func (h *handler) newGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req auth.NewGroupRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.deps.Chats.NewGroup(userID, req.Name, req.Members); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusCreated, "Group created")
}

func (h *handler) myChats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	chats, err := h.deps.Chats.MyChats(userID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Chats   any  `json:"chats"`
	}{true, chats})
}

func (h *handler) myGroups(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	groups, err := h.deps.Chats.MyGroups(userID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Groups  any  `json:"groups"`
	}{true, groups})
}

func (h *handler) addMembers(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req auth.AddMembersRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.deps.Chats.AddMembers(userID, req.ChatID, req.Members); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "Members added successfully")
}

func (h *handler) removeMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req auth.RemoveMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.deps.Chats.RemoveMember(userID, req.ChatID, req.UserID); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "Member removed successfully")
}

func (h *handler) leaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["id"]

	if err := h.deps.Chats.LeaveGroup(userID, chatID); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "Group left successfully")
}

func (h *handler) sendAttachments(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, h.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	chatID := r.FormValue("chatId")
	if chatID == "" {
		respondError(w, h.log, fmt.Errorf("%w: chatId is required", errors.ErrValidation))
		return
	}

	var files [][]byte
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			file, err := header.Open()
			if err != nil {
				respondError(w, h.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				respondError(w, h.log, err)
				return
			}
			files = append(files, data)
		}
	}

	message, err := h.deps.Chats.SendAttachments(userID, chatID, files)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Message any  `json:"message"`
	}{true, message})
}

func (h *handler) messages(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["id"]
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	messages, totalPages, err := h.deps.Chats.Messages(userID, chatID, page)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success    bool `json:"success"`
		Messages   any  `json:"messages"`
		TotalPages int  `json:"totalPages"`
	}{true, messages, totalPages})
}

func (h *handler) chatDetails(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["id"]
	populate := r.URL.Query().Get("populate") == "true"

	chat, err := h.deps.Chats.Details(userID, chatID, populate)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Chat    any  `json:"chat"`
	}{true, chat})
}

func (h *handler) renameChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["id"]
	var req auth.RenameGroupRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.deps.Chats.Rename(userID, chatID, req.Name); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "Group renamed successfully")
}

func (h *handler) deleteChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	chatID := mux.Vars(r)["id"]

	if err := h.deps.Chats.Delete(userID, chatID); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "Chat deleted successfully")
}
