package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": errMsg == "",
		"data":    data,
		"error":   errMsg,
	})
}

func TestClientGetUsers(t *testing.T) {
	want := []models.User{
		{ID: uuid.New(), Username: "maya", Role: models.RoleParticipant},
		{ID: uuid.New(), Username: "drkim", Role: models.RoleResearcher},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, want, "")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	users, err := client.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers error: %v", err)
	}
	if len(users) != 2 || users[0].Username != "maya" {
		t.Fatalf("unexpected users: %+v", users)
	}

	got, err := client.GetUserByID(context.Background(), want[1].ID)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if got == nil || got.Username != "drkim" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got, err := client.GetUserByID(context.Background(), uuid.New()); err != nil || got != nil {
		t.Fatalf("unknown id = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestClientFindUser(t *testing.T) {
	user := models.User{ID: uuid.New(), Username: "maya"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["password"] == "hunter2" {
			writeEnvelope(w, http.StatusOK, user, "")
			return
		}
		writeEnvelope(w, http.StatusUnauthorized, nil, "invalid credentials")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	got, err := client.FindUser(context.Background(), "maya", "hunter2")
	if err != nil {
		t.Fatalf("FindUser error: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("unexpected user: %+v", got)
	}

	// Bad credentials are a no-match, not an error.
	got, err = client.FindUser(context.Background(), "maya", "wrong")
	if err != nil || got != nil {
		t.Fatalf("bad credentials = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestClientAddUserConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.User.Username == "taken" {
			writeEnvelope(w, http.StatusConflict, nil, "username already exists")
			return
		}
		writeEnvelope(w, http.StatusCreated, body.User, "")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	if err := client.AddUser(context.Background(), models.User{Username: "fresh"}, "pw"); err != nil {
		t.Fatalf("AddUser error: %v", err)
	}
	err := client.AddUser(context.Background(), models.User{Username: "taken"}, "pw")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate add = %v, want ErrUsernameTaken", err)
	}
}

func TestClientMapsFailuresToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, nil, "disk on fire")
	}))
	client := NewClient(srv.URL, time.Second, nil)
	if _, err := client.GetUsers(context.Background()); !errors.Is(err, models.ErrCollaboratorUnavailable) {
		t.Fatalf("500 response = %v, want ErrCollaboratorUnavailable", err)
	}
	srv.Close()

	// A dead endpoint degrades the same way.
	if _, err := client.GetUsers(context.Background()); !errors.Is(err, models.ErrCollaboratorUnavailable) {
		t.Fatalf("dead endpoint = %v, want ErrCollaboratorUnavailable", err)
	}
}

func TestClientCreditPoints(t *testing.T) {
	var gotPath string
	var gotPoints int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]int
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		gotPoints = body["points"]
		writeEnvelope(w, http.StatusOK, nil, "")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	if err := client.CreditPoints(context.Background(), "maya", 40); err != nil {
		t.Fatalf("CreditPoints error: %v", err)
	}
	if gotPath != "/api/users/maya/credits" || gotPoints != 40 {
		t.Fatalf("request = %s points=%d", gotPath, gotPoints)
	}
}
