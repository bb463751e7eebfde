package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/accounts"
	"github.com/campus-research/portal/internal/models"
	"github.com/campus-research/portal/pkg/response"
)

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=4"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role"` // optional, defaults to participant
	Major    string `json:"major"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Handler handles auth HTTP endpoints. Credentials live in the account
// directory; the portal only exchanges them for a session token.
type Handler struct {
	accounts *accounts.Client
	jwt      *JWTService
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(accounts *accounts.Client, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{accounts: accounts, jwt: jwt, logger: logger}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleParticipant
	switch req.Role {
	case "", string(models.RoleParticipant):
	case string(models.RoleResearcher):
		role = models.RoleResearcher
	case string(models.RoleAdmin):
		role = models.RoleAdmin
	default:
		response.BadRequest(c, "invalid role")
		return
	}

	user := models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Role:     role,
	}
	if req.Major != "" || req.Age > 0 || req.Gender != "" {
		user.Metadata = &models.UserMetadata{Major: req.Major, Age: req.Age, Gender: req.Gender}
	}

	if err := h.accounts.AddUser(c.Request.Context(), user, req.Password); err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) {
			response.Conflict(c, "username already exists")
			return
		}
		h.logger.Error("signup failed", zap.Error(err), zap.String("username", req.Username))
		response.Error(c, err)
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.accounts.FindUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("login lookup failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	if user == nil {
		response.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}
