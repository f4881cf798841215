package academics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CourseLevel enumerates the academic rigor tiers recognised by the GPA engine.
type CourseLevel string

const (
	// LevelRegular carries no weighting bonus.
	LevelRegular CourseLevel = "Regular"
	// LevelHonors carries a +0.5 weighting bonus.
	LevelHonors CourseLevel = "Honors"
	// LevelAPIB carries a +1.0 weighting bonus.
	LevelAPIB CourseLevel = "AP/IB"
	// LevelCollege carries a +1.0 weighting bonus.
	LevelCollege CourseLevel = "College"
)

// Grade levels span the four high-school years.
const (
	GradeLevelFreshman  = "9"
	GradeLevelSophomore = "10"
	GradeLevelJunior    = "11"
	GradeLevelSenior    = "12"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("academics: invalid user id")
	// ErrInvalidLetterGrade indicates a letter grade outside the grading table.
	ErrInvalidLetterGrade = errors.New("academics: invalid letter grade")
	// ErrInvalidCourseLevel indicates an unrecognised course level.
	ErrInvalidCourseLevel = errors.New("academics: invalid course level")
	// ErrInvalidGradeLevel indicates a grade level outside 9-12.
	ErrInvalidGradeLevel = errors.New("academics: invalid grade level")
	// ErrInvalidCredits indicates non-positive course credits.
	ErrInvalidCredits = errors.New("academics: credits must be positive")
)

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// ParseCourseLevel validates raw input against the known rigor tiers.
func ParseCourseLevel(rawInput string) (CourseLevel, error) {
	switch CourseLevel(strings.TrimSpace(rawInput)) {
	case LevelRegular:
		return LevelRegular, nil
	case LevelHonors:
		return LevelHonors, nil
	case LevelAPIB:
		return LevelAPIB, nil
	case LevelCollege:
		return LevelCollege, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCourseLevel, rawInput)
	}
}

// ParseGradeLevel validates raw input against grades 9-12.
func ParseGradeLevel(rawInput string) (string, error) {
	trimmed := strings.TrimSpace(rawInput)
	switch trimmed {
	case GradeLevelFreshman, GradeLevelSophomore, GradeLevelJunior, GradeLevelSenior:
		return trimmed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGradeLevel, rawInput)
	}
}

// Course models a persisted course record. GradePoints and
// WeightedGradePoints are denormalised caches recomputed from grade and
// level on every write; they are never accepted from the client.
type Course struct {
	CourseID            string    `gorm:"column:course_id;primaryKey;size:190;not null"`
	UserID              string    `gorm:"column:user_id;size:190;not null;index:idx_courses_user,priority:1"`
	Name                string    `gorm:"column:name;size:255;not null"`
	Grade               string    `gorm:"column:grade;size:8;not null"`
	Credits             float64   `gorm:"column:credits;not null;default:1"`
	Level               string    `gorm:"column:level;size:32;not null;default:'Regular'"`
	GradeLevel          string    `gorm:"column:grade_level;size:8;not null;index:idx_courses_user,priority:2"`
	Term                string    `gorm:"column:term;size:64"`
	GradePoints         float64   `gorm:"column:grade_points;not null"`
	WeightedGradePoints float64   `gorm:"column:weighted_grade_points;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Course) TableName() string {
	return "courses"
}

// ManualGPA overrides the computed figures entirely when UseManual is set.
// At most one row exists per user.
type ManualGPA struct {
	UserID     string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Unweighted float64   `gorm:"column:unweighted;not null;default:0"`
	Weighted   float64   `gorm:"column:weighted;not null;default:0"`
	UCGPA      float64   `gorm:"column:uc_gpa;not null;default:0"`
	UseManual  bool      `gorm:"column:use_manual;not null;default:false"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (ManualGPA) TableName() string {
	return "manual_gpas"
}

// TestScore records a standardised test result (SAT, ACT, AP, IB).
type TestScore struct {
	ScoreID   string    `gorm:"column:score_id;primaryKey;size:190;not null"`
	UserID    string    `gorm:"column:user_id;size:190;not null;index"`
	TestType  string    `gorm:"column:test_type;size:32;not null"`
	Subject   string    `gorm:"column:subject;size:128"`
	Score     float64   `gorm:"column:score;not null"`
	TestDate  string    `gorm:"column:test_date;size:32"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (TestScore) TableName() string {
	return "test_scores"
}
