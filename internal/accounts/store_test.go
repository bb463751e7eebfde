package accounts

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	return store
}

func TestStoreAddAndAuthenticate(t *testing.T) {
	store := newTestStore(t)
	user := models.User{
		ID:       uuid.New(),
		Username: "maya",
		Name:     "Maya Lin",
		Role:     models.RoleParticipant,
		Metadata: &models.UserMetadata{Major: "Psychology", Age: 22},
	}
	if err := store.Add(user, "hunter2"); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	got, err := store.Authenticate("maya", "hunter2")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.PasswordHash != "" {
		t.Fatalf("password hash leaked in authenticate result")
	}

	// Wrong password and unknown username both come back as no match.
	if got, err := store.Authenticate("maya", "wrong"); err != nil || got != nil {
		t.Fatalf("wrong password = (%+v, %v), want (nil, nil)", got, err)
	}
	if got, err := store.Authenticate("nobody", "hunter2"); err != nil || got != nil {
		t.Fatalf("unknown user = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestStoreRejectsDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add(models.User{ID: uuid.New(), Username: "sam"}, "pw"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	err := store.Add(models.User{ID: uuid.New(), Username: "sam"}, "pw2")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate add = %v, want ErrUsernameTaken", err)
	}
	users, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("record count = %d, want 1", len(users))
	}
}

func TestStoreCredit(t *testing.T) {
	store := newTestStore(t)
	user := models.User{ID: uuid.New(), Username: "sam", Role: models.RoleParticipant}
	if err := store.Add(user, "pw"); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	got, err := store.Credit("sam", 25)
	if err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	if got.Metadata == nil || got.Metadata.Points != 25 {
		t.Fatalf("points after first credit: %+v", got.Metadata)
	}

	// Balance accumulates and survives a fresh store over the same file.
	if _, err := store.Credit("sam", 15); err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	reopened, err := NewFileStore(store.path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	users, err := reopened.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(users) != 1 || users[0].Metadata == nil || users[0].Metadata.Points != 40 {
		t.Fatalf("reopened balance: %+v", users)
	}

	if _, err := store.Credit("nobody", 10); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("credit unknown = %v, want ErrNotFound", err)
	}
}

func TestStoreListHidesHashes(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add(models.User{ID: uuid.New(), Username: "sam"}, "pw"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	users, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Fatalf("hash leaked for %s", u.Username)
		}
	}
}
