package services

import (
	"crypto/subtle"
	"log/slog"
	"os"
	"time"

	"chat-hub/auth"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"
)

type IAdminService interface {
	Login(secretKey string) (string, error)
	Users() ([]AdminUserView, error)
	Chats() ([]AdminChatView, error)
	Messages() ([]MessageDTO, error)
	Stats() (DashboardStats, error)
}

// ConnectionCounter reports the number of live realtime connections.
type ConnectionCounter interface {
	Count() int
}

type AdminUserView struct {
	UserView
	Groups  int `json:"groups"`
	Friends int `json:"friends"`
}

type AdminChatView struct {
	ID            string     `json:"_id"`
	Name          string     `json:"name"`
	GroupChat     bool       `json:"groupChat"`
	Creator       UserView   `json:"creator"`
	Members       []UserView `json:"members"`
	TotalMessages int        `json:"totalMessages"`
}

type DashboardStats struct {
	UsersCount      int     `json:"usersCount"`
	ChatsCount      int     `json:"totalChatsCount"`
	GroupsCount     int     `json:"groupsCount"`
	MessagesCount   int     `json:"messagesCount"`
	LiveConnections int     `json:"liveConnections"`
	MessagesChart   []int   `json:"messagesChart"`
	CPUPercent      float64 `json:"cpuPercent"`
	RSSBytes        uint64  `json:"rssBytes"`
	ProcessStatus   string  `json:"processStatus"`
}

type AdminService struct {
	users       repositories.IUserRepository
	chats       repositories.IChatRepository
	messages    repositories.IMessageRepository
	connections ConnectionCounter
	tokens      auth.TokenManager
	secretKey   string
	log         *slog.Logger
}

func NewAdminService(users repositories.IUserRepository, chats repositories.IChatRepository,
	messages repositories.IMessageRepository, connections ConnectionCounter,
	tokens auth.TokenManager, secretKey string, log *slog.Logger) IAdminService {
	return &AdminService{
		users:       users,
		chats:       chats,
		messages:    messages,
		connections: connections,
		tokens:      tokens,
		secretKey:   secretKey,
		log:         log,
	}
}

// Login exchanges the shared admin secret for an admin session token.
func (s *AdminService) Login(secretKey string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(secretKey), []byte(s.secretKey)) != 1 {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(auth.AdminUserID, auth.AdminUserID)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}

func (s *AdminService) Users() ([]AdminUserView, error) {
	users, err := s.users.AllUsers()
	if err != nil {
		return nil, err
	}
	chats, err := s.chats.AllChats()
	if err != nil {
		return nil, err
	}

	views := make([]AdminUserView, 0, len(users))
	for _, user := range users {
		mine := lo.Filter(chats, func(chat repositories.Chat, _ int) bool {
			return lo.Contains(chat.Members, user.ID)
		})
		groups := lo.CountBy(mine, func(chat repositories.Chat) bool { return chat.GroupChat })
		views = append(views, AdminUserView{
			UserView: toUserView(user),
			Groups:   groups,
			Friends:  len(mine) - groups,
		})
	}
	return views, nil
}

func (s *AdminService) Chats() ([]AdminChatView, error) {
	chats, err := s.chats.AllChats()
	if err != nil {
		return nil, err
	}

	views := make([]AdminChatView, 0, len(chats))
	for _, chat := range chats {
		view := AdminChatView{
			ID:        chat.ID,
			Name:      chat.Name,
			GroupChat: chat.GroupChat,
		}
		if creator, err := s.users.GetUserByID(chat.Creator); err == nil {
			view.Creator = toUserView(creator)
		}
		for _, id := range chat.Members {
			member, err := s.users.GetUserByID(id)
			if err != nil {
				continue
			}
			view.Members = append(view.Members, toUserView(member))
		}
		if view.TotalMessages, err = s.messages.CountByChat(chat.ID); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *AdminService) Messages() ([]MessageDTO, error) {
	messages, err := s.messages.AllMessages()
	if err != nil {
		return nil, err
	}

	senders := make(map[string]UserView)
	dtos := make([]MessageDTO, 0, len(messages))
	for _, message := range messages {
		if _, ok := senders[message.Sender]; !ok {
			if user, err := s.users.GetUserByID(message.Sender); err == nil {
				senders[message.Sender] = toUserView(user)
			} else {
				senders[message.Sender] = UserView{ID: message.Sender}
			}
		}
		dtos = append(dtos, MessageDTO{
			ID:          message.ID.String(),
			Content:     message.Content,
			Sender:      senders[message.Sender],
			Chat:        message.Chat,
			Language:    message.Language,
			Attachments: message.Attachments,
			CreatedAt:   message.At.Format(time.RFC3339),
		})
	}
	return dtos, nil
}

// Stats aggregates entity counts, the last-7-days message chart and the
// server's own process metrics.
func (s *AdminService) Stats() (DashboardStats, error) {
	stats := DashboardStats{MessagesChart: make([]int, 7)}

	var err error
	if stats.UsersCount, err = s.users.CountUsers(); err != nil {
		return DashboardStats{}, err
	}

	chats, err := s.chats.AllChats()
	if err != nil {
		return DashboardStats{}, err
	}
	stats.ChatsCount = len(chats)
	stats.GroupsCount = lo.CountBy(chats, func(chat repositories.Chat) bool { return chat.GroupChat })

	messages, err := s.messages.AllMessages()
	if err != nil {
		return DashboardStats{}, err
	}
	stats.MessagesCount = len(messages)

	// Bucket per day, index 0 is today.
	now := time.Now().UTC()
	for _, message := range messages {
		days := int(now.Sub(message.At).Hours() / 24)
		if days >= 0 && days < 7 {
			stats.MessagesChart[days]++
		}
	}

	stats.LiveConnections = s.connections.Count()

	rss, cpu, status, err := selfStats()
	if err != nil {
		s.log.Warn("self stats unavailable", "error", err)
	} else {
		stats.RSSBytes = rss
		stats.CPUPercent = cpu
		stats.ProcessStatus = status
	}
	return stats, nil
}

// selfStats retrieves technical metrics (Memory, CPU, and OS Status) for
// the server process.
func selfStats() (uint64, float64, string, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, "", err
	}

	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
