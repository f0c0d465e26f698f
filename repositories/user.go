//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chat-hub/errors"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(user User) (string, error)
	GetUserByID(id string) (User, error)
	GetUserByUsername(username string) (User, error)
	SearchByName(ctx context.Context, name string) ([]User, error)
	AllUsers() ([]User, error)
	CountUsers() (int, error)
}

// Attachment references a file held by the object store.
type Attachment struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// User is the repository-layer representation of an account.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Bio          string     `json:"bio"`
	Avatar       Attachment `json:"avatar"`
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserRepository stores accounts in BadgerDB under "user:{id}" with a
// "username:{username}" secondary key, and keeps a Bluge index over display
// names for the search endpoint.
type UserRepository struct {
	db    *badger.DB
	index *bluge.Writer
}

func NewUserRepository(db *badger.DB, index *bluge.Writer) IUserRepository {
	return &UserRepository{db: db, index: index}
}

// CreateUser persists the user and indexes its display name.
// It returns the newly generated user ID.
func (u *UserRepository) CreateUser(user User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		usernameKey := []byte("username:" + user.Username)
		if _, err := txn.Get(usernameKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set([]byte("user:"+user.ID), data); err != nil {
			return err
		}
		return txn.Set(usernameKey, []byte(user.ID))
	})
	if err != nil {
		return "", err
	}

	doc := bluge.NewDocument(user.ID)
	doc.AddField(bluge.NewTextField("name", strings.ToLower(user.Name)).StoreValue())
	if err := u.index.Update(doc.ID(), doc); err != nil {
		return "", fmt.Errorf("index update failed: %w", err)
	}

	return user.ID, nil
}

func (u *UserRepository) GetUserByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err == badger.ErrKeyNotFound {
		return User{}, errors.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUserByUsername resolves the secondary key then loads the record.
func (u *UserRepository) GetUserByUsername(username string) (User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("username:" + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return User{}, errors.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u.GetUserByID(id)
}

// SearchByName queries the Bluge index with a prefix match on the lowered
// display name. An empty query matches everyone.
func (u *UserRepository) SearchByName(ctx context.Context, name string) ([]User, error) {
	reader, err := u.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var query bluge.Query
	if trimmed := strings.ToLower(strings.TrimSpace(name)); trimmed == "" {
		query = bluge.NewMatchAllQuery()
	} else {
		prefix := bluge.NewPrefixQuery(trimmed)
		prefix.SetField("name")
		query = prefix
	}

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(100, query))
	if err != nil {
		return nil, err
	}

	var users []User
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var id string
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				id = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}

		user, err := u.GetUserByID(id)
		if err != nil {
			// Index entry without a record, skip it.
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (u *UserRepository) AllUsers() ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

func (u *UserRepository) CountUsers() (int, error) {
	count := 0
	err := u.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
