package accounts

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/models"
	"github.com/campus-research/portal/pkg/response"
)

// Handler serves the account directory API (cmd/accountd).
type Handler struct {
	store  *FileStore
	logger *zap.Logger
}

// NewHandler creates an account directory handler.
func NewHandler(store *FileStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// CreateRequest is the body for POST /api/users.
type CreateRequest struct {
	User     models.User `json:"user" binding:"required"`
	Password string      `json:"password" binding:"required,min=4"`
}

// AuthenticateRequest is the body for POST /api/users/authenticate.
type AuthenticateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreditRequest is the body for POST /api/users/:username/credits.
type CreditRequest struct {
	Points int `json:"points" binding:"required,gt=0"`
}

// List handles GET /api/users.
func (h *Handler) List(c *gin.Context) {
	users, err := h.store.List()
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to read users")
		return
	}
	response.OK(c, users)
}

// Create handles POST /api/users. Duplicate usernames are rejected with 409.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.User.Username == "" {
		response.BadRequest(c, "username required")
		return
	}
	if req.User.ID == uuid.Nil {
		req.User.ID = uuid.New()
	}
	if err := h.store.Add(req.User, req.Password); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			response.Conflict(c, "username already exists")
			return
		}
		h.logger.Error("add user failed", zap.Error(err), zap.String("username", req.User.Username))
		response.ServiceUnavailable(c, "failed to add user")
		return
	}
	response.Created(c, req.User.ToPublic())
}

// Authenticate handles POST /api/users/authenticate.
func (h *Handler) Authenticate(c *gin.Context) {
	var req AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Error("authenticate failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to read users")
		return
	}
	if user == nil {
		response.Unauthorized(c, "invalid username or password")
		return
	}
	response.OK(c, user)
}

// Credit handles POST /api/users/:username/credits.
func (h *Handler) Credit(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.store.Credit(c.Param("username"), req.Points)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("credit failed", zap.Error(err), zap.String("username", c.Param("username")))
		response.ServiceUnavailable(c, "failed to update user")
		return
	}
	h.logger.Info("points credited",
		zap.String("username", user.Username),
		zap.Int("points", req.Points),
	)
	response.OK(c, user)
}
