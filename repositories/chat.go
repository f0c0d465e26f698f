//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChatRepository interface {
	CreateChat(chat Chat) (string, error)
	GetChat(id string) (Chat, error)
	UpdateChat(chat Chat) error
	DeleteChat(id string) error
	ChatsByMember(userID string) ([]Chat, error)
	AllChats() ([]Chat, error)
	CountChats() (int, error)
}

// Chat is a conversation, either a two-member direct chat or a group.
type Chat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GroupChat bool      `json:"group_chat"`
	Creator   string    `json:"creator"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRepository stores conversations in BadgerDB under "chat:{id}".
// Membership queries are prefix scans; the dataset is small enough that a
// secondary index is not worth its write amplification.
type ChatRepository struct {
	db *badger.DB
}

func NewChatRepository(db *badger.DB) IChatRepository {
	return &ChatRepository{db: db}
}

func (c *ChatRepository) CreateChat(chat Chat) (string, error) {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(chat)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("chat:"+chat.ID), data)
	})
	return chat.ID, err
}

func (c *ChatRepository) GetChat(id string) (Chat, error) {
	var chat Chat
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("chat:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &chat)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Chat{}, errors.ErrNotFound
	}
	if err != nil {
		return Chat{}, err
	}
	return chat, nil
}

func (c *ChatRepository) UpdateChat(chat Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte("chat:" + chat.ID)); err == badger.ErrKeyNotFound {
			return errors.ErrNotFound
		}
		return txn.Set([]byte("chat:"+chat.ID), data)
	})
}

func (c *ChatRepository) DeleteChat(id string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte("chat:" + id))
	})
}

func (c *ChatRepository) ChatsByMember(userID string) ([]Chat, error) {
	chats, err := c.AllChats()
	if err != nil {
		return nil, err
	}
	return lo.Filter(chats, func(chat Chat, _ int) bool {
		return lo.Contains(chat.Members, userID)
	}), nil
}

func (c *ChatRepository) AllChats() ([]Chat, error) {
	var chats []Chat
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("chat:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var chat Chat
				if err := json.Unmarshal(val, &chat); err != nil {
					return err
				}
				chats = append(chats, chat)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return chats, err
}

func (c *ChatRepository) CountChats() (int, error) {
	count := 0
	err := c.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("chat:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
