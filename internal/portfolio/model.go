package portfolio

import (
	"strings"
	"time"
	"unicode"
)

// Extracurricular records an activity entry on the portfolio.
type Extracurricular struct {
	ActivityID   string    `gorm:"column:activity_id;primaryKey;size:190;not null"`
	UserID       string    `gorm:"column:user_id;size:190;not null;index"`
	Name         string    `gorm:"column:name;size:255;not null"`
	Role         string    `gorm:"column:role;size:255"`
	Organization string    `gorm:"column:organization;size:255"`
	GradeLevels  string    `gorm:"column:grade_levels;size:32"`
	HoursPerWeek float64   `gorm:"column:hours_per_week"`
	WeeksPerYear float64   `gorm:"column:weeks_per_year"`
	Description  string    `gorm:"column:description;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Extracurricular) TableName() string {
	return "extracurriculars"
}

// Award records an honor or award entry on the portfolio.
type Award struct {
	AwardID     string    `gorm:"column:award_id;primaryKey;size:190;not null"`
	UserID      string    `gorm:"column:user_id;size:190;not null;index"`
	Title       string    `gorm:"column:title;size:255;not null"`
	Level       string    `gorm:"column:level;size:64"`
	GradeLevel  string    `gorm:"column:grade_level;size:8"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Award) TableName() string {
	return "awards"
}

// Essay records an application essay draft. WordCount is derived from the
// content on every write.
type Essay struct {
	EssayID   string    `gorm:"column:essay_id;primaryKey;size:190;not null"`
	UserID    string    `gorm:"column:user_id;size:190;not null;index"`
	Title     string    `gorm:"column:title;size:255;not null"`
	Prompt    string    `gorm:"column:prompt;type:text"`
	Content   string    `gorm:"column:content;type:text"`
	WordCount int       `gorm:"column:word_count;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Essay) TableName() string {
	return "essays"
}

// CountWords counts whitespace-delimited words in essay content.
func CountWords(content string) int {
	return len(strings.FieldsFunc(content, unicode.IsSpace))
}
