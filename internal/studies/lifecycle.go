package studies

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

// ProposeParams carries the researcher-authored content of a new study.
type ProposeParams struct {
	Title             string
	Description       string
	Type              models.StudyType
	RewardPoints      int
	DurationMinutes   int
	Location          string
	PrescreenCriteria []string
}

// EditFields carries a partial update; nil fields are left unchanged.
type EditFields struct {
	Title             *string
	Description       *string
	Type              *models.StudyType
	RewardPoints      *int
	DurationMinutes   *int
	Location          *string
	PrescreenCriteria *[]string
}

// Propose validates the content and creates a study in PENDING, owned by the
// researcher and awaiting admin review.
func (r *Registry) Propose(researcherID uuid.UUID, researcherName string, p ProposeParams) (*models.Study, error) {
	if err := validateContent(p.Title, p.Description, p.Type, p.RewardPoints, p.DurationMinutes, p.Location); err != nil {
		return nil, err
	}
	now := r.now()
	st := &models.Study{
		ID:                uuid.New(),
		Title:             strings.TrimSpace(p.Title),
		Description:       strings.TrimSpace(p.Description),
		ResearcherID:      researcherID,
		ResearcherName:    researcherName,
		Type:              p.Type,
		Status:            models.StudyStatusPending,
		RewardPoints:      p.RewardPoints,
		DurationMinutes:   p.DurationMinutes,
		Location:          p.Location,
		PrescreenCriteria: append([]string(nil), p.PrescreenCriteria...),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	r.mu.Lock()
	r.studies[st.ID] = st
	r.mu.Unlock()
	return cloneStudy(st), nil
}

// Edit applies a partial update. Only the owning researcher may edit, and only
// while the study is DRAFT, PENDING or ACTIVE; editing an ACTIVE study does
// not change its status. The merged content must still validate.
func (r *Registry) Edit(studyID uuid.UUID, actor models.Actor, fields EditFields) (*models.Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.studies[studyID]
	if !ok {
		return nil, fmt.Errorf("%w: study %s", models.ErrNotFound, studyID)
	}
	if st.ResearcherID != actor.ID {
		return nil, fmt.Errorf("%w: only the owning researcher may edit", models.ErrForbidden)
	}
	if st.Status == models.StudyStatusCompleted {
		return nil, fmt.Errorf("%w: completed studies cannot be edited", models.ErrInvalidTransition)
	}

	merged := *st
	if fields.Title != nil {
		merged.Title = strings.TrimSpace(*fields.Title)
	}
	if fields.Description != nil {
		merged.Description = strings.TrimSpace(*fields.Description)
	}
	if fields.Type != nil {
		merged.Type = *fields.Type
	}
	if fields.RewardPoints != nil {
		merged.RewardPoints = *fields.RewardPoints
	}
	if fields.DurationMinutes != nil {
		merged.DurationMinutes = *fields.DurationMinutes
	}
	if fields.Location != nil {
		merged.Location = *fields.Location
	}
	if fields.PrescreenCriteria != nil {
		merged.PrescreenCriteria = append([]string(nil), (*fields.PrescreenCriteria)...)
	}
	if err := validateContent(merged.Title, merged.Description, merged.Type, merged.RewardPoints, merged.DurationMinutes, merged.Location); err != nil {
		return nil, err
	}

	merged.UpdatedAt = r.now()
	*st = merged
	return cloneStudy(st), nil
}

// Submit moves a DRAFT study back to PENDING for review. This is the
// re-propose path after an admin rejection.
func (r *Registry) Submit(studyID uuid.UUID, actor models.Actor) (*models.Study, error) {
	return r.transition(studyID, models.StudyStatusDraft, models.StudyStatusPending, &actor)
}

// Approve moves a PENDING study to ACTIVE, opening it for booking. Admin role
// is enforced by the caller.
func (r *Registry) Approve(studyID uuid.UUID) (*models.Study, error) {
	return r.transition(studyID, models.StudyStatusPending, models.StudyStatusActive, nil)
}

// Reject returns a PENDING study to DRAFT for revision; it is not deleted.
func (r *Registry) Reject(studyID uuid.UUID) (*models.Study, error) {
	return r.transition(studyID, models.StudyStatusPending, models.StudyStatusDraft, nil)
}

// Complete closes an ACTIVE study. Once COMPLETED no further edits, slots or
// reservations are permitted. Owner or admin only.
func (r *Registry) Complete(studyID uuid.UUID, actor models.Actor) (*models.Study, error) {
	return r.transition(studyID, models.StudyStatusActive, models.StudyStatusCompleted, &actor)
}

// transition moves a study from exactly one status to another. When owner is
// non-nil the actor must own the study or carry the admin role.
func (r *Registry) transition(studyID uuid.UUID, from, to models.StudyStatus, owner *models.Actor) (*models.Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.studies[studyID]
	if !ok {
		return nil, fmt.Errorf("%w: study %s", models.ErrNotFound, studyID)
	}
	if owner != nil && !owner.IsAdmin() && st.ResearcherID != owner.ID {
		return nil, fmt.Errorf("%w: not the owning researcher", models.ErrForbidden)
	}
	if st.Status != from {
		return nil, fmt.Errorf("%w: study is %s, expected %s", models.ErrInvalidTransition, st.Status, from)
	}
	st.Status = to
	st.UpdatedAt = r.now()
	return cloneStudy(st), nil
}

// AddSlot appends a new bookable slot to the study. Only the owning researcher
// may add slots, and not once the study is COMPLETED. The start time must be
// after the study was created and capacity must be positive.
func (r *Registry) AddSlot(studyID uuid.UUID, actor models.Actor, startTime time.Time, capacity int) (*models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.studies[studyID]
	if !ok {
		return nil, fmt.Errorf("%w: study %s", models.ErrNotFound, studyID)
	}
	if st.ResearcherID != actor.ID {
		return nil, fmt.Errorf("%w: only the owning researcher may add slots", models.ErrForbidden)
	}
	if st.Status == models.StudyStatusCompleted {
		return nil, fmt.Errorf("%w: completed studies cannot take new slots", models.ErrInvalidTransition)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", models.ErrValidation)
	}
	if !startTime.After(st.CreatedAt) {
		return nil, fmt.Errorf("%w: slot start must be after study creation", models.ErrValidation)
	}
	slot := &models.TimeSlot{
		ID:        uuid.New(),
		StudyID:   st.ID,
		StartTime: startTime,
		Capacity:  capacity,
	}
	st.Slots = append(st.Slots, slot)
	st.UpdatedAt = r.now()
	return cloneSlot(slot), nil
}

func validateContent(title, description string, typ models.StudyType, rewardPoints, durationMinutes int, location string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title required", models.ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description required", models.ErrValidation)
	}
	switch typ {
	case models.StudyTypeOnline, models.StudyTypeInPerson:
	default:
		return fmt.Errorf("%w: unknown study type %q", models.ErrValidation, typ)
	}
	if rewardPoints < 0 {
		return fmt.Errorf("%w: reward points cannot be negative", models.ErrValidation)
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", models.ErrValidation)
	}
	if typ == models.StudyTypeInPerson && strings.TrimSpace(location) == "" {
		return fmt.Errorf("%w: location required for in-person studies", models.ErrValidation)
	}
	return nil
}
