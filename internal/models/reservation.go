package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the reservation lifecycle state. UPCOMING is the only
// live state; the other three are terminal.
type ReservationStatus string

const (
	ReservationUpcoming  ReservationStatus = "UPCOMING"
	ReservationAttended  ReservationStatus = "ATTENDED"
	ReservationNoShow    ReservationStatus = "NO_SHOW"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation records one participant's claim on a slot. A cancelled
// reservation frees its seat; attended and no-show reservations keep it.
type Reservation struct {
	ID            uuid.UUID         `json:"id"`
	StudyID       uuid.UUID         `json:"study_id"`
	SlotID        uuid.UUID         `json:"slot_id"`
	ParticipantID uuid.UUID         `json:"participant_id"`
	Status        ReservationStatus `json:"status"`
	BookedAt      time.Time         `json:"booked_at"`
}
