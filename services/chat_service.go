package services

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/storage"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	messagesPerPage = 20
	maxGroupMembers = 100
	minGroupMembers = 3
	maxAttachments  = 5
)

type IChatService interface {
	NewGroup(selfID, name string, members []string) error
	MyChats(selfID string) ([]ChatView, error)
	MyGroups(selfID string) ([]ChatView, error)
	AddMembers(selfID, chatID string, members []string) error
	RemoveMember(selfID, chatID, userID string) error
	LeaveGroup(selfID, chatID string) error
	SendAttachments(selfID, chatID string, files [][]byte) (MessageDTO, error)
	Messages(selfID, chatID string, page int) ([]MessageDTO, int, error)
	Details(selfID, chatID string, populate bool) (ChatDetails, error)
	Rename(selfID, chatID, name string) error
	Delete(selfID, chatID string) error
}

// ChatDetails is the single-chat payload; member views are resolved only
// when the caller asks for population.
type ChatDetails struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	GroupChat   bool       `json:"groupChat"`
	Creator     string     `json:"creator"`
	Members     []string   `json:"members,omitempty"`
	MemberViews []UserView `json:"memberViews,omitempty"`
}

type ChatService struct {
	chats    repositories.IChatRepository
	users    repositories.IUserRepository
	messages repositories.IMessageRepository
	files    *storage.FileStore
	emitter  Emitter
	log      *slog.Logger
}

func NewChatService(chats repositories.IChatRepository, users repositories.IUserRepository,
	messages repositories.IMessageRepository, files *storage.FileStore,
	emitter Emitter, log *slog.Logger) IChatService {
	return &ChatService{
		chats:    chats,
		users:    users,
		messages: messages,
		files:    files,
		emitter:  emitter,
		log:      log,
	}
}

// NewGroup creates a group chat with the caller as creator and member.
func (s *ChatService) NewGroup(selfID, name string, members []string) error {
	allMembers := lo.Uniq(append(members, selfID))
	if len(allMembers) > maxGroupMembers {
		return fmt.Errorf("%w: a group cannot exceed %d members", errors.ErrValidation, maxGroupMembers)
	}

	chatID, err := s.chats.CreateChat(repositories.Chat{
		Name:      name,
		GroupChat: true,
		Creator:   selfID,
		Members:   allMembers,
	})
	if err != nil {
		return err
	}

	s.log.Info("group created", "chat_id", chatID, "creator", selfID, "members", len(allMembers))
	s.emitter.Broadcast(allMembers, event.Alert, fmt.Sprintf("Welcome to %s group", name))
	s.emitter.Broadcast(allMembers, event.RefetchChats, nil)
	return nil
}

func (s *ChatService) MyChats(selfID string) ([]ChatView, error) {
	chats, err := s.chats.ChatsByMember(selfID)
	if err != nil {
		return nil, err
	}

	views := make([]ChatView, 0, len(chats))
	for _, chat := range chats {
		view, err := s.toChatView(chat, selfID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// MyGroups lists the groups the caller created.
func (s *ChatService) MyGroups(selfID string) ([]ChatView, error) {
	chats, err := s.chats.ChatsByMember(selfID)
	if err != nil {
		return nil, err
	}

	groups := lo.Filter(chats, func(chat repositories.Chat, _ int) bool {
		return chat.GroupChat && chat.Creator == selfID
	})

	views := make([]ChatView, 0, len(groups))
	for _, chat := range groups {
		view, err := s.toChatView(chat, selfID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ChatService) AddMembers(selfID, chatID string, members []string) error {
	chat, err := s.creatorOnly(selfID, chatID)
	if err != nil {
		return err
	}

	newMembers := lo.Filter(lo.Uniq(members), func(id string, _ int) bool {
		return !lo.Contains(chat.Members, id)
	})
	if len(newMembers) == 0 {
		return fmt.Errorf("%w: no new member to add", errors.ErrValidation)
	}
	if len(chat.Members)+len(newMembers) > maxGroupMembers {
		return fmt.Errorf("%w: a group cannot exceed %d members", errors.ErrValidation, maxGroupMembers)
	}

	names := make([]string, 0, len(newMembers))
	for _, id := range newMembers {
		user, err := s.users.GetUserByID(id)
		if err != nil {
			return err
		}
		names = append(names, user.Name)
	}

	chat.Members = append(chat.Members, newMembers...)
	if err := s.chats.UpdateChat(chat); err != nil {
		return err
	}

	s.emitter.Broadcast(chat.Members, event.Alert, fmt.Sprintf("%s has been added to the group", strings.Join(names, ", ")))
	s.emitter.Broadcast(chat.Members, event.RefetchChats, nil)
	return nil
}

func (s *ChatService) RemoveMember(selfID, chatID, userID string) error {
	chat, err := s.creatorOnly(selfID, chatID)
	if err != nil {
		return err
	}
	if !lo.Contains(chat.Members, userID) {
		return errors.ErrNotFound
	}
	if len(chat.Members) <= minGroupMembers {
		return fmt.Errorf("%w: a group must keep at least %d members", errors.ErrValidation, minGroupMembers)
	}

	removed, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}

	previousMembers := chat.Members
	chat.Members = lo.Without(chat.Members, userID)
	if err := s.chats.UpdateChat(chat); err != nil {
		return err
	}

	s.emitter.Broadcast(previousMembers, event.Alert, fmt.Sprintf("%s has been removed from the group", removed.Name))
	s.emitter.Broadcast(previousMembers, event.RefetchChats, nil)
	return nil
}

// LeaveGroup removes the caller; when the creator leaves, ownership moves
// to a randomly picked remaining member.
func (s *ChatService) LeaveGroup(selfID, chatID string) error {
	chat, err := s.memberOnly(selfID, chatID)
	if err != nil {
		return err
	}
	if !chat.GroupChat {
		return fmt.Errorf("%w: not a group chat", errors.ErrValidation)
	}

	remaining := lo.Without(chat.Members, selfID)
	if len(remaining) < minGroupMembers {
		return fmt.Errorf("%w: a group must keep at least %d members", errors.ErrValidation, minGroupMembers)
	}

	if chat.Creator == selfID {
		chat.Creator = remaining[rand.Intn(len(remaining))]
	}

	leaver, err := s.users.GetUserByID(selfID)
	if err != nil {
		return err
	}

	chat.Members = remaining
	if err := s.chats.UpdateChat(chat); err != nil {
		return err
	}

	s.emitter.Broadcast(remaining, event.Alert, fmt.Sprintf("%s has left the group", leaver.Name))
	s.emitter.Broadcast(remaining, event.RefetchChats, nil)
	return nil
}

// SendAttachments stores the uploaded files, persists the carrying message
// and broadcasts it to the chat members.
func (s *ChatService) SendAttachments(selfID, chatID string, files [][]byte) (MessageDTO, error) {
	if len(files) == 0 || len(files) > maxAttachments {
		return MessageDTO{}, fmt.Errorf("%w: between 1 and %d files expected", errors.ErrValidation, maxAttachments)
	}

	chat, err := s.memberOnly(selfID, chatID)
	if err != nil {
		return MessageDTO{}, err
	}

	sender, err := s.users.GetUserByID(selfID)
	if err != nil {
		return MessageDTO{}, err
	}

	attachments := make([]repositories.Attachment, 0, len(files))
	for _, file := range files {
		stored, err := s.files.Save(file)
		if err != nil {
			return MessageDTO{}, fmt.Errorf("attachment upload: %w", err)
		}
		attachments = append(attachments, repositories.Attachment{PublicID: stored.PublicID, URL: stored.URL})
	}

	record := repositories.DiskMessage{
		ID:          uuid.New(),
		Chat:        chatID,
		Sender:      selfID,
		Content:     "",
		Attachments: attachments,
		At:          time.Now().UTC(),
	}
	if err := s.messages.StoreMessage(record); err != nil {
		return MessageDTO{}, err
	}

	view := event.MessageView{
		ID:      record.ID.String(),
		Content: record.Content,
		Sender: event.Sender{
			ID:   sender.ID,
			Name: sender.Name,
		},
		Chat: chatID,
		Attachments: lo.Map(attachments, func(a repositories.Attachment, _ int) event.Attachment {
			return event.Attachment{PublicID: a.PublicID, URL: a.URL}
		}),
		CreatedAt: record.At.Format(time.RFC3339),
	}
	s.emitter.Broadcast(chat.Members, event.NewMessage, event.NewMessageOut{ChatID: chatID, Message: view})
	s.emitter.Broadcast(chat.Members, event.NewMessageAlert, event.ChatRef{ChatID: chatID})

	return s.toMessageDTO(record, map[string]UserView{selfID: toUserView(sender)}), nil
}

// Messages returns one page of history, oldest first within the page, and
// the total page count.
func (s *ChatService) Messages(selfID, chatID string, page int) ([]MessageDTO, int, error) {
	if _, err := s.memberOnly(selfID, chatID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}

	total, err := s.messages.CountByChat(chatID)
	if err != nil {
		return nil, 0, err
	}
	totalPages := (total + messagesPerPage - 1) / messagesPerPage

	// The store paginates with an opaque cursor; skip the newer pages.
	var cursor *string
	var pageMessages []repositories.DiskMessage
	for i := 0; i < page; i++ {
		pageMessages, cursor, err = s.messages.GetMessages(chatID, cursor)
		if err != nil {
			return nil, 0, err
		}
		if len(pageMessages) == 0 {
			break
		}
	}

	senders := make(map[string]UserView)
	dtos := make([]MessageDTO, 0, len(pageMessages))
	for _, message := range lo.Reverse(pageMessages) {
		if _, ok := senders[message.Sender]; !ok {
			user, err := s.users.GetUserByID(message.Sender)
			if err == nil {
				senders[message.Sender] = toUserView(user)
			} else {
				senders[message.Sender] = UserView{ID: message.Sender}
			}
		}
		dtos = append(dtos, s.toMessageDTO(message, senders))
	}
	return dtos, totalPages, nil
}

func (s *ChatService) Details(selfID, chatID string, populate bool) (ChatDetails, error) {
	chat, err := s.memberOnly(selfID, chatID)
	if err != nil {
		return ChatDetails{}, err
	}

	details := ChatDetails{
		ID:        chat.ID,
		Name:      chat.Name,
		GroupChat: chat.GroupChat,
		Creator:   chat.Creator,
		Members:   chat.Members,
	}
	if populate {
		details.MemberViews = make([]UserView, 0, len(chat.Members))
		for _, id := range chat.Members {
			user, err := s.users.GetUserByID(id)
			if err != nil {
				continue
			}
			details.MemberViews = append(details.MemberViews, toUserView(user))
		}
	}
	return details, nil
}

func (s *ChatService) Rename(selfID, chatID, name string) error {
	chat, err := s.creatorOnly(selfID, chatID)
	if err != nil {
		return err
	}

	chat.Name = name
	if err := s.chats.UpdateChat(chat); err != nil {
		return err
	}

	s.emitter.Broadcast(chat.Members, event.RefetchChats, nil)
	return nil
}

// Delete removes the chat, its messages and their attachments. Groups can
// only be deleted by their creator; direct chats by either member.
func (s *ChatService) Delete(selfID, chatID string) error {
	chat, err := s.chats.GetChat(chatID)
	if err != nil {
		return err
	}
	if chat.GroupChat && chat.Creator != selfID {
		return errors.ErrForbidden
	}
	if !chat.GroupChat && !lo.Contains(chat.Members, selfID) {
		return errors.ErrForbidden
	}

	messages, err := s.messages.AllByChat(chatID)
	if err != nil {
		return err
	}
	for _, message := range messages {
		for _, attachment := range message.Attachments {
			if err := s.files.Delete(attachment.PublicID); err != nil {
				s.log.Warn("attachment cleanup failed", "public_id", attachment.PublicID, "error", err)
			}
		}
	}

	if err := s.messages.DeleteByChat(chatID); err != nil {
		return err
	}
	if err := s.chats.DeleteChat(chatID); err != nil {
		return err
	}

	s.log.Info("chat deleted", "chat_id", chatID, "messages", len(messages))
	s.emitter.Broadcast(chat.Members, event.RefetchChats, nil)
	return nil
}

// toChatView shapes a chat for one viewer: direct chats borrow the other
// member's name and avatar, groups show up to three member avatars.
func (s *ChatService) toChatView(chat repositories.Chat, selfID string) (ChatView, error) {
	view := ChatView{
		ID:        chat.ID,
		Name:      chat.Name,
		GroupChat: chat.GroupChat,
		Members:   lo.Without(chat.Members, selfID),
	}

	if !chat.GroupChat {
		for _, id := range view.Members {
			other, err := s.users.GetUserByID(id)
			if err != nil {
				return ChatView{}, err
			}
			view.Name = other.Name
			view.Avatar = []string{other.Avatar.URL}
		}
		return view, nil
	}

	for _, id := range lo.Slice(view.Members, 0, 3) {
		member, err := s.users.GetUserByID(id)
		if err != nil {
			continue
		}
		view.Avatar = append(view.Avatar, member.Avatar.URL)
	}
	return view, nil
}

func (s *ChatService) toMessageDTO(message repositories.DiskMessage, senders map[string]UserView) MessageDTO {
	return MessageDTO{
		ID:          message.ID.String(),
		Content:     message.Content,
		Sender:      senders[message.Sender],
		Chat:        message.Chat,
		Language:    message.Language,
		Attachments: message.Attachments,
		CreatedAt:   message.At.Format(time.RFC3339),
	}
}

// creatorOnly loads a group chat and checks the caller owns it.
func (s *ChatService) creatorOnly(selfID, chatID string) (repositories.Chat, error) {
	chat, err := s.chats.GetChat(chatID)
	if err != nil {
		return repositories.Chat{}, err
	}
	if !chat.GroupChat {
		return repositories.Chat{}, fmt.Errorf("%w: not a group chat", errors.ErrValidation)
	}
	if chat.Creator != selfID {
		return repositories.Chat{}, errors.ErrForbidden
	}
	return chat, nil
}

// memberOnly loads a chat and checks the caller belongs to it.
func (s *ChatService) memberOnly(selfID, chatID string) (repositories.Chat, error) {
	chat, err := s.chats.GetChat(chatID)
	if err != nil {
		return repositories.Chat{}, err
	}
	if !lo.Contains(chat.Members, selfID) {
		return repositories.Chat{}, errors.ErrForbidden
	}
	return chat, nil
}
