package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// StoredFile is the public reference to a saved object.
type StoredFile struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// FileStore keeps uploaded objects on local disk, one flat directory,
// served read-only under /files/. Used for avatars and attachments only.
type FileStore struct {
	root    string
	baseURL string
	log     *slog.Logger
}

func NewFileStore(root, baseURL string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("file store root: %w", err)
	}
	return &FileStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}, nil
}

// Save writes the object under a fresh uuid name. The extension comes from
// content sniffing, not from the client-supplied filename.
func (s *FileStore) Save(data []byte) (StoredFile, error) {
	mtype := mimetype.Detect(data)
	publicID := uuid.New().String() + mtype.Extension()

	path := filepath.Join(s.root, publicID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return StoredFile{}, fmt.Errorf("write object: %w", err)
	}

	s.log.Debug("object stored", "public_id", publicID, "content_type", mtype.String(), "bytes", len(data))
	return StoredFile{
		PublicID: publicID,
		URL:      s.baseURL + "/files/" + publicID,
	}, nil
}

// Delete removes an object. A missing object is not an error.
func (s *FileStore) Delete(publicID string) error {
	path := filepath.Join(s.root, filepath.Base(publicID))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dir exposes the root for the static file handler.
func (s *FileStore) Dir() string {
	return s.root
}
