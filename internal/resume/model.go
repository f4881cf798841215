package resume

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Resume models a persisted resume row. Content holds the structured
// sections as JSON.
type Resume struct {
	ResumeID  string         `gorm:"column:resume_id;primaryKey;size:190;not null"`
	UserID    string         `gorm:"column:user_id;size:190;not null;index"`
	Title     string         `gorm:"column:title;size:255;not null"`
	Content   datatypes.JSON `gorm:"column:content"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Resume) TableName() string {
	return "resumes"
}

// PersonalInfo holds the resume header fields.
type PersonalInfo struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

// ExperienceEntry holds one work or activity experience.
type ExperienceEntry struct {
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Description  string `json:"description,omitempty"`
}

// EducationEntry holds one school record.
type EducationEntry struct {
	School    string `json:"school,omitempty"`
	Degree    string `json:"degree,omitempty"`
	StartYear string `json:"startYear,omitempty"`
	EndYear   string `json:"endYear,omitempty"`
	GPA       string `json:"gpa,omitempty"`
}

// SkillEntry holds one skill line.
type SkillEntry struct {
	Name  string `json:"name,omitempty"`
	Level string `json:"level,omitempty"`
}

// Content is the structured resume body. Sections are explicit typed
// records rather than an open-ended map.
type Content struct {
	PersonalInfo PersonalInfo      `json:"personalInfo"`
	Summary      string            `json:"summary,omitempty"`
	Experience   []ExperienceEntry `json:"experience,omitempty"`
	Education    []EducationEntry  `json:"education,omitempty"`
	Skills       []SkillEntry      `json:"skills,omitempty"`
}

// DecodeContent parses the persisted JSON column into typed sections.
// An empty column decodes to the zero Content.
func DecodeContent(persisted datatypes.JSON) (Content, error) {
	var content Content
	if len(persisted) == 0 {
		return content, nil
	}
	if err := json.Unmarshal(persisted, &content); err != nil {
		return Content{}, err
	}
	return content, nil
}

// EncodeContent serialises typed sections for the JSON column.
func EncodeContent(content Content) (datatypes.JSON, error) {
	encoded, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}
