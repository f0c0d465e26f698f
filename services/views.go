package services

import "chat-hub/repositories"

// UserView is the public shape of an account, without credentials.
type UserView struct {
	ID       string                  `json:"_id"`
	Name     string                  `json:"name"`
	Username string                  `json:"username"`
	Bio      string                  `json:"bio,omitempty"`
	Avatar   repositories.Attachment `json:"avatar"`
}

func toUserView(user repositories.User) UserView {
	return UserView{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
		Bio:      user.Bio,
		Avatar:   user.Avatar,
	}
}

// ChatView is a conversation as listed for one user: direct chats borrow
// the other member's name and avatar.
type ChatView struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	GroupChat bool     `json:"groupChat"`
	Avatar    []string `json:"avatar"`
	Members   []string `json:"members"`
}

// MessageDTO is a stored message enriched with its sender view, returned
// by the history endpoint and the admin listing.
type MessageDTO struct {
	ID          string                    `json:"_id"`
	Content     string                    `json:"content"`
	Sender      UserView                  `json:"sender"`
	Chat        string                    `json:"chat"`
	Language    string                    `json:"language,omitempty"`
	Attachments []repositories.Attachment `json:"attachments,omitempty"`
	CreatedAt   string                    `json:"createdAt"`
}

// NotificationView is a pending friend request with its sender resolved.
type NotificationView struct {
	ID     string   `json:"_id"`
	Sender UserView `json:"sender"`
}
