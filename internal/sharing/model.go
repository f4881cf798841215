package sharing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ContentType enumerates the shareable content surfaces.
type ContentType string

const (
	// ContentTypePortfolio shares the whole portfolio page.
	ContentTypePortfolio ContentType = "portfolio"
	// ContentTypeCollegeApplication shares a single application.
	ContentTypeCollegeApplication ContentType = "college_application"
	// ContentTypeCollegeProfile shares the college-facing profile.
	ContentTypeCollegeProfile ContentType = "college_profile"
)

var (
	// ErrInvalidContentType indicates an unrecognised content type.
	ErrInvalidContentType = errors.New("sharing: invalid content type")
	// ErrInvalidShareToken indicates an empty or oversized share token.
	ErrInvalidShareToken = errors.New("sharing: invalid share token")
)

// ParseContentType validates raw input against the shareable surfaces.
func ParseContentType(rawInput string) (ContentType, error) {
	switch ContentType(strings.TrimSpace(rawInput)) {
	case ContentTypePortfolio:
		return ContentTypePortfolio, nil
	case ContentTypeCollegeApplication:
		return ContentTypeCollegeApplication, nil
	case ContentTypeCollegeProfile:
		return ContentTypeCollegeProfile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidContentType, rawInput)
	}
}

const maxTokenLength = 64

// ShareToken represents a validated opaque share identifier.
type ShareToken string

// NewShareToken validates raw input and returns a ShareToken.
func NewShareToken(rawInput string) (ShareToken, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidShareToken)
	}
	if len(trimmed) > maxTokenLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidShareToken, maxTokenLength)
	}
	return ShareToken(trimmed), nil
}

// String returns the underlying token.
func (token ShareToken) String() string {
	return string(token)
}

// ShareLink models a persisted share record. The ShareID token is generated
// once at creation and never rotates; is_public and expires_at are read-time
// gates, not write-time constraints.
type ShareLink struct {
	LinkID      string         `gorm:"column:link_id;primaryKey;size:190;not null"`
	ShareID     string         `gorm:"column:share_id;size:64;uniqueIndex;not null"`
	UserID      string         `gorm:"column:user_id;size:190;not null;index:idx_share_owner_scope,priority:1"`
	ContentType string         `gorm:"column:content_type;size:32;not null;index:idx_share_owner_scope,priority:2"`
	ContentID   *string        `gorm:"column:content_id;size:190;index:idx_share_owner_scope,priority:3"`
	IsPublic    bool           `gorm:"column:is_public;not null;default:true"`
	ExpiresAt   *time.Time     `gorm:"column:expires_at"`
	Settings    datatypes.JSON `gorm:"column:settings"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (ShareLink) TableName() string {
	return "shared_links"
}

// Settings holds the persisted per-section visibility flags. Pointer fields
// distinguish "absent" from an explicit false.
type Settings struct {
	ShowAcademics        *bool `json:"showAcademics,omitempty"`
	ShowExtracurriculars *bool `json:"showExtracurriculars,omitempty"`
	ShowAwards           *bool `json:"showAwards,omitempty"`
	ShowEssays           *bool `json:"showEssays,omitempty"`
	ShowColleges         *bool `json:"showColleges,omitempty"`
	ShowCourses          *bool `json:"showCourses,omitempty"`
	ShowTestScores       *bool `json:"showTestScores,omitempty"`
}

// ResolvedSettings is the fully-merged visibility decision for a visitor.
type ResolvedSettings struct {
	ShowAcademics        bool `json:"showAcademics"`
	ShowExtracurriculars bool `json:"showExtracurriculars"`
	ShowAwards           bool `json:"showAwards"`
	ShowEssays           bool `json:"showEssays"`
	ShowColleges         bool `json:"showColleges"`
	ShowCourses          bool `json:"showCourses"`
	ShowTestScores       bool `json:"showTestScores"`
}

// ResolveSettings merges persisted settings with the default-open policy:
// every flag defaults to true when absent, so sections added after a link
// was created appear rather than being silently hidden. Only an explicit
// false hides a section. Malformed JSON falls back to all-open.
func ResolveSettings(persisted datatypes.JSON) ResolvedSettings {
	resolved := ResolvedSettings{
		ShowAcademics:        true,
		ShowExtracurriculars: true,
		ShowAwards:           true,
		ShowEssays:           true,
		ShowColleges:         true,
		ShowCourses:          true,
		ShowTestScores:       true,
	}
	if len(persisted) == 0 {
		return resolved
	}

	var stored Settings
	if err := json.Unmarshal(persisted, &stored); err != nil {
		return resolved
	}
	applyFlag(&resolved.ShowAcademics, stored.ShowAcademics)
	applyFlag(&resolved.ShowExtracurriculars, stored.ShowExtracurriculars)
	applyFlag(&resolved.ShowAwards, stored.ShowAwards)
	applyFlag(&resolved.ShowEssays, stored.ShowEssays)
	applyFlag(&resolved.ShowColleges, stored.ShowColleges)
	applyFlag(&resolved.ShowCourses, stored.ShowCourses)
	applyFlag(&resolved.ShowTestScores, stored.ShowTestScores)
	return resolved
}

func applyFlag(target *bool, stored *bool) {
	if stored != nil {
		*target = *stored
	}
}
