package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/models"
)

// ErrUsernameTaken marks the directory's duplicate-username rejection.
var ErrUsernameTaken = errors.New("username already exists")

// Client talks to the account directory service. The portal trusts its
// results as-is and never persists credentials itself. Transport failures and
// unexpected statuses surface as ErrCollaboratorUnavailable, never as empty
// success.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an account directory client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// GetUsers returns all user records.
func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, http.StatusOK, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserByID looks a user up by id.
func (c *Client) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	users, err := c.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}

// FindUser authenticates username/password. Returns (nil, nil) when the
// credentials do not match any record.
func (c *Client) FindUser(ctx context.Context, username, password string) (*models.User, error) {
	body := map[string]string{"username": username, "password": password}
	var user models.User
	err := c.do(ctx, http.MethodPost, "/api/users/authenticate", body, http.StatusOK, &user)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// AddUser inserts a new user record. A duplicate username is rejected with
// ErrUsernameTaken.
func (c *Client) AddUser(ctx context.Context, user models.User, password string) error {
	body := createUserRequest{User: user, Password: password}
	err := c.do(ctx, http.MethodPost, "/api/users", body, http.StatusCreated, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusConflict {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// UsernameExists reports whether the username is already registered.
func (c *Client) UsernameExists(ctx context.Context, username string) (bool, error) {
	users, err := c.GetUsers(ctx)
	if err != nil {
		return false, err
	}
	for i := range users {
		if users[i].Username == username {
			return true, nil
		}
	}
	return false, nil
}

// CreditPoints adds reward points to a participant's balance.
func (c *Client) CreditPoints(ctx context.Context, username string, points int) error {
	body := map[string]int{"points": points}
	path := "/api/users/" + username + "/credits"
	return c.do(ctx, http.MethodPost, path, body, http.StatusOK, nil)
}

// statusError carries a non-2xx directory response so callers can distinguish
// conflict and auth-failure outcomes from unavailability.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("account directory: %d %s", e.code, e.msg)
}

// do sends one request and decodes the envelope's data into out. Non-2xx
// statuses matching a distinguishable outcome (401, 409) return a statusError;
// anything else, including transport failures, maps to
// models.ErrCollaboratorUnavailable.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, wantStatus int, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %v", models.ErrCollaboratorUnavailable, err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrCollaboratorUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("account directory request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %v", models.ErrCollaboratorUnavailable, err)
	}

	if resp.StatusCode != wantStatus {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusConflict:
			return &statusError{code: resp.StatusCode, msg: env.Error}
		default:
			c.logger.Warn("account directory error response",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("error", env.Error),
			)
			return fmt.Errorf("%w: status %d", models.ErrCollaboratorUnavailable, resp.StatusCode)
		}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", models.ErrCollaboratorUnavailable, err)
		}
	}
	return nil
}

// createUserRequest is the body for POST /api/users.
type createUserRequest struct {
	User     models.User `json:"user"`
	Password string      `json:"password"`
}
