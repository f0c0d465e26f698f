package services

import (
	"context"
	"fmt"
	"log/slog"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/storage"

	"github.com/samber/lo"
)

type IUserService interface {
	Register(req auth.RegisterRequest, avatar []byte) (UserView, string, error)
	Login(username, password string) (UserView, string, error)
	Profile(userID string) (UserView, error)
	Search(ctx context.Context, selfID, name string) ([]UserView, error)
	SendFriendRequest(selfID, targetID string) error
	AcceptFriendRequest(selfID, requestID string, accept bool) error
	Notifications(selfID string) ([]NotificationView, error)
	Friends(selfID, chatID string) ([]UserView, error)
	LoadIdentity(userID string) (domain.UserIdentity, error)
}

type UserService struct {
	users    repositories.IUserRepository
	chats    repositories.IChatRepository
	requests repositories.IRequestRepository
	files    *storage.FileStore
	tokens   auth.TokenManager
	emitter  Emitter
	log      *slog.Logger
}

func NewUserService(users repositories.IUserRepository, chats repositories.IChatRepository,
	requests repositories.IRequestRepository, files *storage.FileStore,
	tokens auth.TokenManager, emitter Emitter, log *slog.Logger) IUserService {
	return &UserService{
		users:    users,
		chats:    chats,
		requests: requests,
		files:    files,
		tokens:   tokens,
		emitter:  emitter,
		log:      log,
	}
}

// Register validates the request, hashes the password, stores the optional
// avatar and issues the initial session token.
func (s *UserService) Register(req auth.RegisterRequest, avatar []byte) (UserView, string, error) {
	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateRegister(req); err != nil {
		return UserView{}, "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return UserView{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user := repositories.User{
		Name:         req.Name,
		Username:     req.Username,
		Bio:          req.Bio,
		PasswordHash: hashedPassword,
	}

	if len(avatar) > 0 {
		stored, err := s.files.Save(avatar)
		if err != nil {
			return UserView{}, "", fmt.Errorf("avatar upload: %w", err)
		}
		user.Avatar = repositories.Attachment{PublicID: stored.PublicID, URL: stored.URL}
	}

	userID, err := s.users.CreateUser(user)
	if err != nil {
		return UserView{}, "", err // Propagates ErrUserAlreadyExists
	}
	user.ID = userID

	token, err := s.tokens.Generate(userID, user.Username)
	if err != nil {
		return UserView{}, "", errors.ErrTokenGeneration
	}

	s.log.Info("user registered", "user_id", userID, "username", user.Username)
	return toUserView(user), token, nil
}

func (s *UserService) Login(username, password string) (UserView, string, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration.
		return UserView{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return UserView{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return UserView{}, "", errors.ErrTokenGeneration
	}

	return toUserView(user), token, nil
}

func (s *UserService) Profile(userID string) (UserView, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return UserView{}, err
	}
	return toUserView(user), nil
}

// LoadIdentity resolves the identity attached to a realtime connection.
func (s *UserService) LoadIdentity(userID string) (domain.UserIdentity, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return domain.UserIdentity{}, err
	}
	return domain.UserIdentity{ID: user.ID, Name: user.Name}, nil
}

// Search queries the name index and filters out the caller and everyone
// already sharing a direct chat with them.
func (s *UserService) Search(ctx context.Context, selfID, name string) ([]UserView, error) {
	users, err := s.users.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}

	excluded, err := s.directPartners(selfID)
	if err != nil {
		return nil, err
	}
	excluded[selfID] = struct{}{}

	filtered := lo.Filter(users, func(user repositories.User, _ int) bool {
		_, skip := excluded[user.ID]
		return !skip
	})
	return lo.Map(filtered, func(user repositories.User, _ int) UserView {
		return toUserView(user)
	}), nil
}

func (s *UserService) SendFriendRequest(selfID, targetID string) error {
	if selfID == targetID {
		return fmt.Errorf("%w: cannot send a request to yourself", errors.ErrValidation)
	}
	if _, err := s.users.GetUserByID(targetID); err != nil {
		return err
	}

	pending, err := s.requests.HasPendingBetween(selfID, targetID)
	if err != nil {
		return err
	}
	if pending {
		return fmt.Errorf("%w: request already sent", errors.ErrValidation)
	}

	if _, err := s.requests.CreateRequest(repositories.FriendRequest{
		Sender:   selfID,
		Receiver: targetID,
	}); err != nil {
		return err
	}

	s.emitter.Broadcast([]string{targetID}, event.NewRequest, nil)
	return nil
}

// AcceptFriendRequest resolves a pending request addressed to the caller.
// Accepting creates the direct chat; either way the request is removed.
func (s *UserService) AcceptFriendRequest(selfID, requestID string, accept bool) error {
	request, err := s.requests.GetRequest(selfID, requestID)
	if err != nil {
		return err
	}

	if !accept {
		return s.requests.DeleteRequest(selfID, requestID)
	}

	sender, err := s.users.GetUserByID(request.Sender)
	if err != nil {
		return err
	}
	receiver, err := s.users.GetUserByID(request.Receiver)
	if err != nil {
		return err
	}

	members := []string{request.Sender, request.Receiver}
	if _, err := s.chats.CreateChat(repositories.Chat{
		Name:      sender.Name + "-" + receiver.Name,
		GroupChat: false,
		Creator:   request.Sender,
		Members:   members,
	}); err != nil {
		return err
	}

	if err := s.requests.DeleteRequest(selfID, requestID); err != nil {
		return err
	}

	s.emitter.Broadcast(members, event.RefetchChats, nil)
	return nil
}

func (s *UserService) Notifications(selfID string) ([]NotificationView, error) {
	requests, err := s.requests.RequestsForReceiver(selfID)
	if err != nil {
		return nil, err
	}

	views := make([]NotificationView, 0, len(requests))
	for _, request := range requests {
		sender, err := s.users.GetUserByID(request.Sender)
		if err != nil {
			continue
		}
		views = append(views, NotificationView{ID: request.ID, Sender: toUserView(sender)})
	}
	return views, nil
}

// Friends lists everyone sharing a direct chat with the caller. When chatID
// is given, members of that chat are excluded so the result can be offered
// as addition candidates.
func (s *UserService) Friends(selfID, chatID string) ([]UserView, error) {
	partners, err := s.directPartners(selfID)
	if err != nil {
		return nil, err
	}

	if chatID != "" {
		chat, err := s.chats.GetChat(chatID)
		if err != nil {
			return nil, err
		}
		for _, member := range chat.Members {
			delete(partners, member)
		}
	}

	views := make([]UserView, 0, len(partners))
	for id := range partners {
		user, err := s.users.GetUserByID(id)
		if err != nil {
			continue
		}
		views = append(views, toUserView(user))
	}
	return views, nil
}

// directPartners returns the set of users sharing a direct chat with selfID.
func (s *UserService) directPartners(selfID string) (map[string]struct{}, error) {
	chats, err := s.chats.ChatsByMember(selfID)
	if err != nil {
		return nil, err
	}

	partners := make(map[string]struct{})
	for _, chat := range chats {
		if chat.GroupChat {
			continue
		}
		for _, member := range chat.Members {
			if member != selfID {
				partners[member] = struct{}{}
			}
		}
	}
	return partners, nil
}
