package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyType distinguishes remote from on-site studies. In-person studies must
// carry a location.
type StudyType string

const (
	StudyTypeOnline   StudyType = "ONLINE"
	StudyTypeInPerson StudyType = "IN_PERSON"
)

// StudyStatus is the approval lifecycle state. Only ACTIVE studies accept
// reservations; COMPLETED is terminal.
type StudyStatus string

const (
	StudyStatusDraft     StudyStatus = "DRAFT"
	StudyStatusPending   StudyStatus = "PENDING"
	StudyStatusActive    StudyStatus = "ACTIVE"
	StudyStatusCompleted StudyStatus = "COMPLETED"
)

// Study is the researcher-owned aggregate: the posting content plus its
// bookable time slots. Slot counters are mutated only through the registry.
type Study struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	ResearcherID      uuid.UUID   `json:"researcher_id"`
	ResearcherName    string      `json:"researcher_name"`
	Type              StudyType   `json:"type"`
	Status            StudyStatus `json:"status"`
	RewardPoints      int         `json:"reward_points"`
	DurationMinutes   int         `json:"duration_minutes"`
	Location          string      `json:"location,omitempty"`
	PrescreenCriteria []string    `json:"prescreen_criteria,omitempty"`
	Slots             []*TimeSlot `json:"slots"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TimeSlot is one bookable session window. BookedCount always equals
// len(ParticipantIDs) and never exceeds Capacity.
type TimeSlot struct {
	ID             uuid.UUID   `json:"id"`
	StudyID        uuid.UUID   `json:"study_id"`
	StartTime      time.Time   `json:"start_time"`
	Capacity       int         `json:"capacity"`
	BookedCount    int         `json:"booked_count"`
	ParticipantIDs []uuid.UUID `json:"participant_ids,omitempty"`
}

// HasParticipant reports whether the participant currently holds a seat on the slot.
func (s *TimeSlot) HasParticipant(participantID uuid.UUID) bool {
	for _, id := range s.ParticipantIDs {
		if id == participantID {
			return true
		}
	}
	return false
}
