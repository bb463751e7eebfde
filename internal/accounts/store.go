package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/campus-research/portal/internal/models"
)

// ErrStoreUnavailable marks a failed read or write of the backing file. It is
// never silently reported as empty success.
var ErrStoreUnavailable = errors.New("account store unavailable")

// FileStore persists user records as a flat JSON collection keyed by unique
// username. Passwords are stored as bcrypt hashes. Every change rewrites the
// whole file through a temp-and-rename so a crash never leaves a torn file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store over the given JSON file, creating an empty
// collection (and parent directory) when the file does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if err := s.write(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s, nil
}

// List returns all user records without password hashes.
func (s *FileStore) List() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToPublic())
	}
	return out, nil
}

// Add inserts a new record, hashing the password. Duplicate usernames are
// rejected with ErrUsernameTaken.
func (s *FileStore) Add(user models.User, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == user.Username {
			return ErrUsernameTaken
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", ErrStoreUnavailable, err)
	}
	user.PasswordHash = string(hash)
	users = append(users, user)
	return s.write(users)
}

// Authenticate returns the matching record, or nil when the credentials do
// not match any user.
func (s *FileStore) Authenticate(username, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(users[i].PasswordHash), []byte(password)) != nil {
			return nil, nil
		}
		pub := users[i].ToPublic()
		return &pub, nil
	}
	return nil, nil
}

// Credit adds reward points to a user's balance. Unknown usernames report
// models.ErrNotFound.
func (s *FileStore) Credit(username string, points int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username != username {
			continue
		}
		if users[i].Metadata == nil {
			users[i].Metadata = &models.UserMetadata{}
		}
		users[i].Metadata.Points += points
		if err := s.write(users); err != nil {
			return nil, err
		}
		pub := users[i].ToPublic()
		return &pub, nil
	}
	return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, username)
}

func (s *FileStore) read() ([]models.User, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var users []models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return users, nil
}

func (s *FileStore) write(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	raw, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
