package directory

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/middleware"
	"github.com/campus-research/portal/internal/models"
	"github.com/campus-research/portal/pkg/response"
)

// AccountLookup resolves the participant's profile for recommendation
// requests. Lookup failure only disables highlighting.
type AccountLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// StudyListing is one entry in a dashboard study list, with seat totals the
// dashboards render alongside the study.
type StudyListing struct {
	*models.Study
	TotalBooked   int  `json:"total_booked"`
	TotalCapacity int  `json:"total_capacity"`
	Recommended   bool `json:"recommended,omitempty"`
}

// Handler serves the read-only dashboard queries.
type Handler struct {
	dir      *Directory
	accounts AccountLookup
	logger   *zap.Logger
}

// NewHandler creates a directory handler. accounts may be nil.
func NewHandler(dir *Directory, accounts AccountLookup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{dir: dir, accounts: accounts, logger: logger}
}

// List handles GET /studies. The default view is the participant's browsing
// list (ACTIVE studies); ?mine=1 returns the researcher's own studies and
// ?pending=1 the admin review queue. With ?recommended=1 the default view
// marks the studies the recommendation service suggests; if that call fails,
// nothing is highlighted.
func (h *Handler) List(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	switch {
	case c.Query("mine") == "1":
		if actor.Role != models.RoleResearcher && !actor.IsAdmin() {
			response.Forbidden(c, "researcher view only")
			return
		}
		response.OK(c, toListings(h.dir.StudiesByResearcher(actor.ID)))
		return
	case c.Query("pending") == "1":
		if !actor.IsAdmin() {
			response.Forbidden(c, "admin view only")
			return
		}
		response.OK(c, toListings(h.dir.PendingStudies()))
		return
	}

	listings := toListings(h.dir.ActiveStudies())
	if c.Query("recommended") == "1" {
		lang := c.DefaultQuery("lang", "en")
		recommended := h.recommendedSet(c, lang)
		for _, l := range listings {
			if _, ok := recommended[l.ID]; ok {
				l.Recommended = true
			}
		}
	}
	response.OK(c, listings)
}

// Capacity handles GET /studies/:id/capacity.
func (h *Handler) Capacity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid study id")
		return
	}
	booked, capacity, err := h.dir.AggregateCapacity(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"study_id": id, "total_booked": booked, "total_capacity": capacity})
}

// ListMyReservations handles GET /reservations: the participant's bookings.
func (h *Handler) ListMyReservations(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	response.OK(c, h.dir.ReservationsByParticipant(actor.ID))
}

// ListStudyReservations handles GET /studies/:id/reservations: the
// researcher's attendance view.
func (h *Handler) ListStudyReservations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid study id")
		return
	}
	response.OK(c, h.dir.ReservationsByStudy(id))
}

func (h *Handler) recommendedSet(c *gin.Context, lang string) map[uuid.UUID]struct{} {
	actor := middleware.CurrentActor(c)
	user := models.User{
		ID:       actor.ID,
		Username: c.MustGet(middleware.ContextUsername).(string),
		Role:     actor.Role,
	}
	if h.accounts != nil {
		if full, err := h.accounts.GetUserByID(c.Request.Context(), actor.ID); err == nil && full != nil {
			user = *full
		} else if err != nil {
			h.logger.Warn("profile lookup for recommendations failed", zap.Error(err))
		}
	}

	ids := h.dir.RecommendedStudyIDs(c.Request.Context(), user, lang)
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func toListings(studies []*models.Study) []*StudyListing {
	out := make([]*StudyListing, 0, len(studies))
	for _, st := range studies {
		l := &StudyListing{Study: st}
		for _, slot := range st.Slots {
			l.TotalBooked += slot.BookedCount
			l.TotalCapacity += slot.Capacity
		}
		out = append(out, l)
	}
	return out
}
