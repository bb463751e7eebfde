package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

// StudySource is the read-only view the directory takes over the study registry.
type StudySource interface {
	Get(id uuid.UUID) (*models.Study, error)
	ListByStatus(status models.StudyStatus) []*models.Study
	ListByResearcher(researcherID uuid.UUID) []*models.Study
}

// ReservationSource is the read-only view over the reservation ledger.
type ReservationSource interface {
	ListByParticipant(participantID uuid.UUID) []models.Reservation
	ListByStudy(studyID uuid.UUID) []models.Reservation
}

// Recommender suggests study ids for a participant. Best-effort: an empty
// result is always a valid outcome.
type Recommender interface {
	RecommendStudies(ctx context.Context, user models.User, studies []*models.Study, lang string) []uuid.UUID
}

// Directory answers the read-only questions behind the three dashboards. It
// never mutates state; every answer reflects the latest committed state of the
// registry and ledger.
type Directory struct {
	studies      StudySource
	reservations ReservationSource
	recommender  Recommender
}

// New creates a directory. recommender may be nil, in which case no study is
// ever highlighted.
func New(studies StudySource, reservations ReservationSource, recommender Recommender) *Directory {
	return &Directory{studies: studies, reservations: reservations, recommender: recommender}
}

// ActiveStudies lists the studies open for participant booking.
func (d *Directory) ActiveStudies() []*models.Study {
	return d.studies.ListByStatus(models.StudyStatusActive)
}

// PendingStudies lists the studies awaiting admin review.
func (d *Directory) PendingStudies() []*models.Study {
	return d.studies.ListByStatus(models.StudyStatusPending)
}

// StudiesByResearcher lists a researcher's own studies in every status.
func (d *Directory) StudiesByResearcher(researcherID uuid.UUID) []*models.Study {
	return d.studies.ListByResearcher(researcherID)
}

// ReservationsByParticipant lists a participant's reservations.
func (d *Directory) ReservationsByParticipant(participantID uuid.UUID) []models.Reservation {
	return d.reservations.ListByParticipant(participantID)
}

// ReservationsByStudy lists all reservations against a study.
func (d *Directory) ReservationsByStudy(studyID uuid.UUID) []models.Reservation {
	return d.reservations.ListByStudy(studyID)
}

// AggregateCapacity sums booked seats and capacity across the study's slots.
// A study with zero slots yields (0, 0), not an error.
func (d *Directory) AggregateCapacity(studyID uuid.UUID) (booked, capacity int, err error) {
	st, err := d.studies.Get(studyID)
	if err != nil {
		return 0, 0, err
	}
	for _, slot := range st.Slots {
		booked += slot.BookedCount
		capacity += slot.Capacity
	}
	return booked, capacity, nil
}

// RecommendedStudyIDs asks the recommender to highlight active studies for the
// user. Any collaborator failure degrades to no highlighting.
func (d *Directory) RecommendedStudyIDs(ctx context.Context, user models.User, lang string) []uuid.UUID {
	if d.recommender == nil {
		return nil
	}
	active := d.ActiveStudies()
	if len(active) == 0 {
		return nil
	}
	return d.recommender.RecommendStudies(ctx, user, active, lang)
}
