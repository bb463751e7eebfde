package studies

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

// Registry owns every study aggregate together with its slots. All mutation
// goes through registry methods under a single lock, so the capacity check and
// the booked-counter update on the booking path form one critical section:
// concurrent reserves against the same slot behave as if executed one at a
// time and BookedCount can never exceed Capacity or go negative.
type Registry struct {
	mu      sync.RWMutex
	studies map[uuid.UUID]*models.Study
	now     func() time.Time
}

// NewRegistry creates an empty study registry.
func NewRegistry() *Registry {
	return &Registry{
		studies: make(map[uuid.UUID]*models.Study),
		now:     time.Now,
	}
}

// Get returns a copy of the study, or ErrNotFound.
func (r *Registry) Get(id uuid.UUID) (*models.Study, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.studies[id]
	if !ok {
		return nil, fmt.Errorf("%w: study %s", models.ErrNotFound, id)
	}
	return cloneStudy(st), nil
}

// ListByStatus returns copies of all studies in the given status.
func (r *Registry) ListByStatus(status models.StudyStatus) []*models.Study {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Study
	for _, st := range r.studies {
		if st.Status == status {
			out = append(out, cloneStudy(st))
		}
	}
	sortStudies(out)
	return out
}

// ListByResearcher returns copies of all studies owned by the researcher,
// regardless of status.
func (r *Registry) ListByResearcher(researcherID uuid.UUID) []*models.Study {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Study
	for _, st := range r.studies {
		if st.ResearcherID == researcherID {
			out = append(out, cloneStudy(st))
		}
	}
	sortStudies(out)
	return out
}

// Reserve atomically claims one seat on a slot for the participant. The study
// must be ACTIVE, the slot must have free capacity and the participant must
// not already hold a live reservation on it. On failure nothing is mutated.
func (r *Registry) Reserve(studyID, slotID, participantID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.studies[studyID]
	if !ok {
		return fmt.Errorf("%w: study %s", models.ErrNotFound, studyID)
	}
	if st.Status != models.StudyStatusActive {
		return fmt.Errorf("%w: study is %s", models.ErrStudyNotActive, st.Status)
	}
	slot := findSlot(st, slotID)
	if slot == nil {
		return fmt.Errorf("%w: slot %s", models.ErrNotFound, slotID)
	}
	if slot.HasParticipant(participantID) {
		return models.ErrAlreadyBooked
	}
	if slot.BookedCount >= slot.Capacity {
		return models.ErrSlotFull
	}
	slot.ParticipantIDs = append(slot.ParticipantIDs, participantID)
	slot.BookedCount++
	return nil
}

// Release frees the participant's seat on a slot. It is an idempotent no-op
// when the participant holds nothing on the slot, so the counter decrements by
// exactly one per live reservation and never goes negative.
func (r *Registry) Release(studyID, slotID, participantID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.studies[studyID]
	if !ok {
		return
	}
	slot := findSlot(st, slotID)
	if slot == nil {
		return
	}
	for i, id := range slot.ParticipantIDs {
		if id == participantID {
			slot.ParticipantIDs = append(slot.ParticipantIDs[:i], slot.ParticipantIDs[i+1:]...)
			slot.BookedCount--
			return
		}
	}
}

func findSlot(st *models.Study, slotID uuid.UUID) *models.TimeSlot {
	for _, s := range st.Slots {
		if s.ID == slotID {
			return s
		}
	}
	return nil
}

func sortStudies(list []*models.Study) {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
}

func cloneStudy(st *models.Study) *models.Study {
	out := *st
	out.PrescreenCriteria = append([]string(nil), st.PrescreenCriteria...)
	out.Slots = make([]*models.TimeSlot, len(st.Slots))
	for i, s := range st.Slots {
		out.Slots[i] = cloneSlot(s)
	}
	return &out
}

func cloneSlot(s *models.TimeSlot) *models.TimeSlot {
	out := *s
	out.ParticipantIDs = append([]uuid.UUID(nil), s.ParticipantIDs...)
	return &out
}
