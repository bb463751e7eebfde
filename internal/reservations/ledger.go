package reservations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/models"
)

// StudyRegistry is the slice of the study registry the ledger needs: study
// lookup plus the atomic slot reserve/release pair.
type StudyRegistry interface {
	Get(id uuid.UUID) (*models.Study, error)
	Reserve(studyID, slotID, participantID uuid.UUID) error
	Release(studyID, slotID, participantID uuid.UUID)
}

// CreditNotifyFunc is invoked after a reservation is marked ATTENDED, carrying
// the study's reward points. It is fire-and-forget: the reservation state is
// already committed and a failing notifier must not undo it.
type CreditNotifyFunc func(ctx context.Context, res models.Reservation, points int)

// Ledger owns all reservations. Slot counters stay with the registry; the
// ledger drives them only through Reserve/Release so the counter and the
// reservation record move together.
type Ledger struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]*models.Reservation
	registry     StudyRegistry
	notifyCredit CreditNotifyFunc
	logger       *zap.Logger
	now          func() time.Time
}

// NewLedger creates an empty reservation ledger over the given registry.
func NewLedger(registry StudyRegistry, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		reservations: make(map[uuid.UUID]*models.Reservation),
		registry:     registry,
		logger:       logger,
		now:          time.Now,
	}
}

// SetCreditNotifier installs the credit-award hook fired on ATTENDED.
func (l *Ledger) SetCreditNotifier(fn CreditNotifyFunc) {
	l.notifyCredit = fn
}

// Book claims a seat on the slot and records an UPCOMING reservation. The
// registry performs the status, capacity and duplicate checks in one step; the
// reservation record is created under the ledger lock before the seat becomes
// observable, so either both the counter and the record exist or neither does.
func (l *Ledger) Book(studyID, slotID, participantID uuid.UUID) (*models.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.registry.Reserve(studyID, slotID, participantID); err != nil {
		return nil, err
	}
	res := &models.Reservation{
		ID:            uuid.New(),
		StudyID:       studyID,
		SlotID:        slotID,
		ParticipantID: participantID,
		Status:        models.ReservationUpcoming,
		BookedAt:      l.now(),
	}
	l.reservations[res.ID] = res
	out := *res
	return &out, nil
}

// Cancel transitions UPCOMING to CANCELLED and frees the seat. Only the owning
// participant or an admin may cancel. Cancelling an already-terminal
// reservation reports ErrInvalidTransition and leaves the counter untouched.
func (l *Ledger) Cancel(reservationID uuid.UUID, actor models.Actor) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	res, ok := l.reservations[reservationID]
	if !ok {
		return fmt.Errorf("%w: reservation %s", models.ErrNotFound, reservationID)
	}
	if !actor.IsAdmin() && res.ParticipantID != actor.ID {
		return fmt.Errorf("%w: not your reservation", models.ErrForbidden)
	}
	if res.Status != models.ReservationUpcoming {
		return fmt.Errorf("%w: reservation is %s", models.ErrInvalidTransition, res.Status)
	}
	res.Status = models.ReservationCancelled
	l.registry.Release(res.StudyID, res.SlotID, res.ParticipantID)
	return nil
}

// MarkAttendance closes an UPCOMING reservation as ATTENDED or NO_SHOW. Only
// the study's researcher or an admin may call it. ATTENDED triggers the
// credit-award hook after the state is committed.
func (l *Ledger) MarkAttendance(ctx context.Context, reservationID uuid.UUID, attended bool, actor models.Actor) (*models.Reservation, error) {
	l.mu.Lock()
	res, ok := l.reservations[reservationID]
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: reservation %s", models.ErrNotFound, reservationID)
	}
	st, err := l.registry.Get(res.StudyID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if !actor.IsAdmin() && st.ResearcherID != actor.ID {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: only the study's researcher may mark attendance", models.ErrForbidden)
	}
	if res.Status != models.ReservationUpcoming {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: reservation is %s", models.ErrInvalidTransition, res.Status)
	}
	if attended {
		res.Status = models.ReservationAttended
	} else {
		res.Status = models.ReservationNoShow
	}
	out := *res
	notify := l.notifyCredit
	l.mu.Unlock()

	if attended && notify != nil {
		notify(ctx, out, st.RewardPoints)
	}
	return &out, nil
}

// Get returns a copy of the reservation, or ErrNotFound.
func (l *Ledger) Get(id uuid.UUID) (*models.Reservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res, ok := l.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", models.ErrNotFound, id)
	}
	out := *res
	return &out, nil
}

// ListByParticipant returns copies of the participant's reservations, newest first.
func (l *Ledger) ListByParticipant(participantID uuid.UUID) []models.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Reservation
	for _, res := range l.reservations {
		if res.ParticipantID == participantID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.After(out[j].BookedAt) })
	return out
}

// ListByStudy returns copies of all reservations against the study, for the
// researcher's attendance view.
func (l *Ledger) ListByStudy(studyID uuid.UUID) []models.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Reservation
	for _, res := range l.reservations {
		if res.StudyID == studyID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.Before(out[j].BookedAt) })
	return out
}
