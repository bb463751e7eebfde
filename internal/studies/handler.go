package studies

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/middleware"
	"github.com/campus-research/portal/internal/models"
	"github.com/campus-research/portal/pkg/response"
)

// NameResolver looks up a display name for the researcher stamped onto new
// studies. Lookup failure is non-fatal; the username from the session is used
// instead.
type NameResolver interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ProposeRequest is the body for POST /studies.
type ProposeRequest struct {
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description" binding:"required"`
	Type              string   `json:"type" binding:"required"`
	RewardPoints      int      `json:"reward_points"`
	DurationMinutes   int      `json:"duration_minutes" binding:"required"`
	Location          string   `json:"location"`
	PrescreenCriteria []string `json:"prescreen_criteria"`
}

// EditRequest is the body for PATCH /studies/:id; absent fields stay unchanged.
type EditRequest struct {
	Title             *string   `json:"title"`
	Description       *string   `json:"description"`
	Type              *string   `json:"type"`
	RewardPoints      *int      `json:"reward_points"`
	DurationMinutes   *int      `json:"duration_minutes"`
	Location          *string   `json:"location"`
	PrescreenCriteria *[]string `json:"prescreen_criteria"`
}

// AddSlotRequest is the body for POST /studies/:id/slots.
type AddSlotRequest struct {
	StartTime string `json:"start_time" binding:"required"` // RFC3339
	Capacity  int    `json:"capacity" binding:"required"`
}

// Handler handles study lifecycle HTTP endpoints.
type Handler struct {
	registry *Registry
	names    NameResolver
	logger   *zap.Logger
}

// NewHandler creates a study handler. names may be nil.
func NewHandler(registry *Registry, names NameResolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, names: names, logger: logger}
}

// Propose handles POST /studies (researcher only).
func (h *Handler) Propose(c *gin.Context) {
	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actor := middleware.CurrentActor(c)

	st, err := h.registry.Propose(actor.ID, h.resolveName(c), ProposeParams{
		Title:             req.Title,
		Description:       req.Description,
		Type:              models.StudyType(req.Type),
		RewardPoints:      req.RewardPoints,
		DurationMinutes:   req.DurationMinutes,
		Location:          req.Location,
		PrescreenCriteria: req.PrescreenCriteria,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("study proposed", zap.String("study_id", st.ID.String()), zap.String("researcher_id", actor.ID.String()))
	response.Created(c, st)
}

// Edit handles PATCH /studies/:id (owning researcher only).
func (h *Handler) Edit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid study id")
		return
	}
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	fields := EditFields{
		Title:             req.Title,
		Description:       req.Description,
		RewardPoints:      req.RewardPoints,
		DurationMinutes:   req.DurationMinutes,
		Location:          req.Location,
		PrescreenCriteria: req.PrescreenCriteria,
	}
	if req.Type != nil {
		t := models.StudyType(*req.Type)
		fields.Type = &t
	}
	st, err := h.registry.Edit(id, middleware.CurrentActor(c), fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, st)
}

// Get handles GET /studies/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid study id")
		return
	}
	st, err := h.registry.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, st)
}

// Submit handles POST /studies/:id/submit: re-propose a rejected draft.
func (h *Handler) Submit(c *gin.Context) {
	h.lifecycle(c, func(id uuid.UUID, actor models.Actor) (*models.Study, error) {
		return h.registry.Submit(id, actor)
	})
}

// Approve handles POST /studies/:id/approve (admin only).
func (h *Handler) Approve(c *gin.Context) {
	h.lifecycle(c, func(id uuid.UUID, actor models.Actor) (*models.Study, error) {
		st, err := h.registry.Approve(id)
		if err == nil {
			h.logger.Info("study approved", zap.String("study_id", id.String()), zap.String("admin_id", actor.ID.String()))
		}
		return st, err
	})
}

// Reject handles POST /studies/:id/reject (admin only).
func (h *Handler) Reject(c *gin.Context) {
	h.lifecycle(c, func(id uuid.UUID, actor models.Actor) (*models.Study, error) {
		st, err := h.registry.Reject(id)
		if err == nil {
			h.logger.Info("study rejected", zap.String("study_id", id.String()), zap.String("admin_id", actor.ID.String()))
		}
		return st, err
	})
}

// Complete handles POST /studies/:id/complete (owner or admin).
func (h *Handler) Complete(c *gin.Context) {
	h.lifecycle(c, func(id uuid.UUID, actor models.Actor) (*models.Study, error) {
		return h.registry.Complete(id, actor)
	})
}

func (h *Handler) lifecycle(c *gin.Context, op func(uuid.UUID, models.Actor) (*models.Study, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid study id")
		return
	}
	st, err := op(id, middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, st)
}

// AddSlot handles POST /studies/:id/slots (owning researcher only).
func (h *Handler) AddSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid study id")
		return
	}
	var req AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		response.BadRequest(c, "invalid start_time")
		return
	}
	slot, err := h.registry.AddSlot(id, middleware.CurrentActor(c), start, req.Capacity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

func (h *Handler) resolveName(c *gin.Context) string {
	username := c.MustGet(middleware.ContextUsername).(string)
	if h.names == nil {
		return username
	}
	user, err := h.names.GetUserByID(c.Request.Context(), middleware.CurrentActor(c).ID)
	if err != nil || user == nil {
		return username
	}
	return user.Name
}
