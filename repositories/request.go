//go:generate go run go.uber.org/mock/mockgen -source=request.go -destination=../mocks/mock_request_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IRequestRepository interface {
	CreateRequest(request FriendRequest) (string, error)
	GetRequest(receiverID, id string) (FriendRequest, error)
	DeleteRequest(receiverID, id string) error
	RequestsForReceiver(receiverID string) ([]FriendRequest, error)
	HasPendingBetween(a, b string) (bool, error)
}

// FriendRequest is a pending invitation from Sender to Receiver.
type FriendRequest struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestRepository stores requests under "request:{receiver_id}:{id}" so
// the notifications listing is a single prefix scan.
type RequestRepository struct {
	db *badger.DB
}

func NewRequestRepository(db *badger.DB) IRequestRepository {
	return &RequestRepository{db: db}
}

func requestKey(receiverID, id string) []byte {
	return []byte(fmt.Sprintf("request:%s:%s", receiverID, id))
}

func (r *RequestRepository) CreateRequest(request FriendRequest) (string, error) {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(requestKey(request.Receiver, request.ID), data)
	})
	return request.ID, err
}

func (r *RequestRepository) GetRequest(receiverID, id string) (FriendRequest, error) {
	var request FriendRequest
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(requestKey(receiverID, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &request)
		})
	})
	if err == badger.ErrKeyNotFound {
		return FriendRequest{}, errors.ErrNotFound
	}
	if err != nil {
		return FriendRequest{}, err
	}
	return request, nil
}

func (r *RequestRepository) DeleteRequest(receiverID, id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(requestKey(receiverID, id))
	})
}

func (r *RequestRepository) RequestsForReceiver(receiverID string) ([]FriendRequest, error) {
	var requests []FriendRequest
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("request:%s:", receiverID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var request FriendRequest
				if err := json.Unmarshal(val, &request); err != nil {
					return err
				}
				requests = append(requests, request)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return requests, err
}

// HasPendingBetween reports whether a request already links the two users,
// in either direction.
func (r *RequestRepository) HasPendingBetween(a, b string) (bool, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		requests, err := r.RequestsForReceiver(pair[0])
		if err != nil {
			return false, err
		}
		for _, request := range requests {
			if request.Sender == pair[1] {
				return true, nil
			}
		}
	}
	return false, nil
}
