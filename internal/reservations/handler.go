package reservations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/middleware"
	"github.com/campus-research/portal/pkg/response"
)

// AttendanceRequest is the body for POST /reservations/:id/attendance.
type AttendanceRequest struct {
	Attended *bool `json:"attended" binding:"required"`
}

// Handler handles reservation HTTP endpoints.
type Handler struct {
	ledger *Ledger
	logger *zap.Logger
}

// NewHandler creates a reservations handler.
func NewHandler(ledger *Ledger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ledger: ledger, logger: logger}
}

// Book handles POST /studies/:id/slots/:slotId/reservations (participant only).
func (h *Handler) Book(c *gin.Context) {
	studyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid study id")
		return
	}
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		response.BadRequest(c, "invalid slot id")
		return
	}
	actor := middleware.CurrentActor(c)

	res, err := h.ledger.Book(studyID, slotID, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("slot booked",
		zap.String("reservation_id", res.ID.String()),
		zap.String("slot_id", slotID.String()),
		zap.String("participant_id", actor.ID.String()),
	)
	response.Created(c, res)
}

// Cancel handles DELETE /reservations/:id (owning participant or admin).
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation id")
		return
	}
	if err := h.ledger.Cancel(id, middleware.CurrentActor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAttendance handles POST /reservations/:id/attendance (study's researcher
// or admin).
func (h *Handler) MarkAttendance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation id")
		return
	}
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Attended == nil {
		response.BadRequest(c, "attended required")
		return
	}
	res, err := h.ledger.MarkAttendance(c.Request.Context(), id, *req.Attended, middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
