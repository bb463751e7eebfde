package studies

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

func newActiveStudy(t *testing.T, r *Registry, researcherID uuid.UUID) *models.Study {
	t.Helper()
	st, err := r.Propose(researcherID, "Dr. Kim", ProposeParams{
		Title:           "Memory and Sleep",
		Description:     "An overnight memory consolidation study.",
		Type:            models.StudyTypeOnline,
		RewardPoints:    50,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Propose error: %v", err)
	}
	if _, err := r.Approve(st.ID); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	return st
}

func addSlot(t *testing.T, r *Registry, st *models.Study, researcherID uuid.UUID, capacity int) *models.TimeSlot {
	t.Helper()
	actor := models.Actor{ID: researcherID, Role: models.RoleResearcher}
	slot, err := r.AddSlot(st.ID, actor, time.Now().Add(48*time.Hour), capacity)
	if err != nil {
		t.Fatalf("AddSlot error: %v", err)
	}
	return slot
}

func slotState(t *testing.T, r *Registry, studyID, slotID uuid.UUID) *models.TimeSlot {
	t.Helper()
	st, err := r.Get(studyID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	for _, s := range st.Slots {
		if s.ID == slotID {
			return s
		}
	}
	t.Fatalf("slot %s not found", slotID)
	return nil
}

func TestReserveCapacityScenario(t *testing.T) {
	r := NewRegistry()
	researcher := uuid.New()
	st := newActiveStudy(t, r, researcher)
	slot := addSlot(t, r, st, researcher, 2)

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	if err := r.Reserve(st.ID, slot.ID, a); err != nil {
		t.Fatalf("A reserve error: %v", err)
	}
	if got := slotState(t, r, st.ID, slot.ID).BookedCount; got != 1 {
		t.Fatalf("bookedCount = %d, want 1", got)
	}

	if err := r.Reserve(st.ID, slot.ID, a); !errors.Is(err, models.ErrAlreadyBooked) {
		t.Fatalf("duplicate reserve = %v, want ErrAlreadyBooked", err)
	}
	if got := slotState(t, r, st.ID, slot.ID).BookedCount; got != 1 {
		t.Fatalf("bookedCount after duplicate = %d, want 1", got)
	}

	if err := r.Reserve(st.ID, slot.ID, b); err != nil {
		t.Fatalf("B reserve error: %v", err)
	}
	if err := r.Reserve(st.ID, slot.ID, c); !errors.Is(err, models.ErrSlotFull) {
		t.Fatalf("full reserve = %v, want ErrSlotFull", err)
	}
	if got := slotState(t, r, st.ID, slot.ID).BookedCount; got != 2 {
		t.Fatalf("bookedCount after full = %d, want 2", got)
	}

	r.Release(st.ID, slot.ID, a)
	if got := slotState(t, r, st.ID, slot.ID).BookedCount; got != 1 {
		t.Fatalf("bookedCount after release = %d, want 1", got)
	}
	if err := r.Reserve(st.ID, slot.ID, c); err != nil {
		t.Fatalf("C reserve after release error: %v", err)
	}
	if got := slotState(t, r, st.ID, slot.ID).BookedCount; got != 2 {
		t.Fatalf("final bookedCount = %d, want 2", got)
	}
}

func TestReserveRequiresActiveStudy(t *testing.T) {
	r := NewRegistry()
	researcher := uuid.New()
	st, err := r.Propose(researcher, "Dr. Kim", ProposeParams{
		Title:           "Reaction Times",
		Description:     "Simple reaction time battery.",
		Type:            models.StudyTypeOnline,
		RewardPoints:    10,
		DurationMinutes: 15,
	})
	if err != nil {
		t.Fatalf("Propose error: %v", err)
	}
	actor := models.Actor{ID: researcher, Role: models.RoleResearcher}
	slot, err := r.AddSlot(st.ID, actor, time.Now().Add(time.Hour), 3)
	if err != nil {
		t.Fatalf("AddSlot error: %v", err)
	}

	if err := r.Reserve(st.ID, slot.ID, uuid.New()); !errors.Is(err, models.ErrStudyNotActive) {
		t.Fatalf("reserve on pending study = %v, want ErrStudyNotActive", err)
	}
	if got := slotState(t, r, st.ID, slot.ID).BookedCount; got != 0 {
		t.Fatalf("bookedCount changed on failed reserve: %d", got)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry()
	researcher := uuid.New()
	st := newActiveStudy(t, r, researcher)
	slot := addSlot(t, r, st, researcher, 1)
	p := uuid.New()

	if err := r.Reserve(st.ID, slot.ID, p); err != nil {
		t.Fatalf("reserve error: %v", err)
	}
	r.Release(st.ID, slot.ID, p)
	r.Release(st.ID, slot.ID, p)
	r.Release(st.ID, slot.ID, uuid.New())

	if got := slotState(t, r, st.ID, slot.ID).BookedCount; got != 0 {
		t.Fatalf("bookedCount = %d, want 0", got)
	}
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	r := NewRegistry()
	researcher := uuid.New()
	st := newActiveStudy(t, r, researcher)
	slot := addSlot(t, r, st, researcher, 5)

	const participants = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < participants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Reserve(st.ID, slot.ID, uuid.New()); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 5 {
		t.Fatalf("successes = %d, want 5", successes)
	}
	got := slotState(t, r, st.ID, slot.ID)
	if got.BookedCount != 5 || len(got.ParticipantIDs) != 5 {
		t.Fatalf("bookedCount = %d, participants = %d, want 5/5", got.BookedCount, len(got.ParticipantIDs))
	}
}

func TestGetReturnsCopies(t *testing.T) {
	r := NewRegistry()
	researcher := uuid.New()
	st := newActiveStudy(t, r, researcher)
	slot := addSlot(t, r, st, researcher, 2)

	snapshot, err := r.Get(st.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	snapshot.Slots[0].BookedCount = 99
	snapshot.Title = "tampered"

	fresh := slotState(t, r, st.ID, slot.ID)
	if fresh.BookedCount != 0 {
		t.Fatalf("mutating a snapshot leaked into the registry")
	}
}
