package colleges

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus tracks a list entry through the application funnel.
type ApplicationStatus string

const (
	StatusConsidering ApplicationStatus = "considering"
	StatusApplying    ApplicationStatus = "applying"
	StatusApplied     ApplicationStatus = "applied"
	StatusAccepted    ApplicationStatus = "accepted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusEnrolled    ApplicationStatus = "enrolled"
)

// ErrInvalidStatus indicates an unrecognised application status.
var ErrInvalidStatus = errors.New("colleges: invalid application status")

// ParseStatus validates raw input against the funnel states.
func ParseStatus(rawInput string) (ApplicationStatus, error) {
	switch ApplicationStatus(strings.TrimSpace(strings.ToLower(rawInput))) {
	case StatusConsidering:
		return StatusConsidering, nil
	case StatusApplying:
		return StatusApplying, nil
	case StatusApplied:
		return StatusApplied, nil
	case StatusAccepted:
		return StatusAccepted, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusEnrolled:
		return StatusEnrolled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, rawInput)
	}
}

// College is a catalog row shared by all users.
type College struct {
	CollegeID      string    `gorm:"column:college_id;primaryKey;size:190;not null"`
	Name           string    `gorm:"column:name;size:255;not null;index"`
	Location       string    `gorm:"column:location;size:255"`
	Type           string    `gorm:"column:type;size:64"`
	AcceptanceRate float64   `gorm:"column:acceptance_rate"`
	TuitionInState float64   `gorm:"column:tuition_in_state"`
	TuitionOutOf   float64   `gorm:"column:tuition_out_of_state"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (College) TableName() string {
	return "colleges"
}

// UserCollege is a user's list entry referencing a catalog row.
type UserCollege struct {
	EntryID         string     `gorm:"column:entry_id;primaryKey;size:190;not null"`
	UserID          string     `gorm:"column:user_id;size:190;not null;index:idx_user_colleges,priority:1"`
	CollegeID       string     `gorm:"column:college_id;size:190;not null;index:idx_user_colleges,priority:2"`
	Status          string     `gorm:"column:status;size:32;not null;default:'considering'"`
	ApplicationType string     `gorm:"column:application_type;size:64"`
	Deadline        *time.Time `gorm:"column:deadline"`
	Notes           string     `gorm:"column:notes;type:text"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (UserCollege) TableName() string {
	return "user_colleges"
}

// ListEntry pairs a user's entry with its catalog row, joined in memory.
type ListEntry struct {
	Entry   UserCollege
	College College
}
