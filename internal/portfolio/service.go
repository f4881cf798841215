package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waypointhq/waypoint/backend/internal/validate"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ErrNotFound indicates the portfolio record does not exist for the user.
var ErrNotFound = errors.New("portfolio: record not found")

// ServiceError pairs a machine-readable code with its cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the op.reason error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew     = "portfolio.service.new"
	opSaveActivity   = "portfolio.save_activity"
	opDeleteActivity = "portfolio.delete_activity"
	opListActivities = "portfolio.list_activities"
	opSaveAward      = "portfolio.save_award"
	opDeleteAward    = "portfolio.delete_award"
	opListAwards     = "portfolio.list_awards"
	opSaveEssay      = "portfolio.save_essay"
	opSaveEssayDraft = "portfolio.save_essay_draft"
	opDeleteEssay    = "portfolio.delete_essay"
	opListEssays     = "portfolio.list_essays"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the portfolio service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns extracurriculars, awards and essays.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, idProvider: cfg.IDProvider, logger: logger}, nil
}

// ActivityInput carries the client-settable extracurricular fields.
type ActivityInput struct {
	Name         string
	Role         string
	Organization string
	GradeLevels  string
	HoursPerWeek float64
	WeeksPerYear float64
	Description  string
}

// SaveActivity creates or updates an extracurricular. An empty activityID
// creates a new record.
func (s *Service) SaveActivity(ctx context.Context, userID, activityID string, input ActivityInput) (Extracurricular, validate.Errors, error) {
	errs := validate.Errors{}
	if message := validate.Required(input.Name, "Activity name"); message != "" {
		errs.Add("name", message)
	}
	if input.HoursPerWeek < 0 {
		errs.Add("hours_per_week", "Hours per week must not be negative")
	}
	if input.WeeksPerYear < 0 {
		errs.Add("weeks_per_year", "Weeks per year must not be negative")
	}
	if errs.Any() {
		return Extracurricular{}, errs, nil
	}

	var activity Extracurricular
	if activityID == "" {
		newID, err := s.idProvider.NewID()
		if err != nil {
			s.logError(opSaveActivity, "id_generation_failed", err, zap.String("user_id", userID))
			return Extracurricular{}, nil, newServiceError(opSaveActivity, "id_generation_failed", err)
		}
		activity = Extracurricular{ActivityID: newID, UserID: userID}
	} else {
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND activity_id = ?", userID, activityID).
			Take(&activity).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Extracurricular{}, nil, ErrNotFound
		} else if err != nil {
			s.logError(opSaveActivity, "lookup_failed", err, zap.String("user_id", userID))
			return Extracurricular{}, nil, newServiceError(opSaveActivity, "lookup_failed", err)
		}
	}

	activity.Name = input.Name
	activity.Role = input.Role
	activity.Organization = input.Organization
	activity.GradeLevels = input.GradeLevels
	activity.HoursPerWeek = input.HoursPerWeek
	activity.WeeksPerYear = input.WeeksPerYear
	activity.Description = input.Description

	if err := s.db.WithContext(ctx).Save(&activity).Error; err != nil {
		s.logError(opSaveActivity, "save_failed", err, zap.String("user_id", userID))
		return Extracurricular{}, nil, newServiceError(opSaveActivity, "save_failed", err)
	}
	return activity, nil, nil
}

// DeleteActivity removes the user's extracurricular by id.
func (s *Service) DeleteActivity(ctx context.Context, userID, activityID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		Delete(&Extracurricular{})
	if result.Error != nil {
		s.logError(opDeleteActivity, "delete_failed", result.Error, zap.String("user_id", userID))
		return newServiceError(opDeleteActivity, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActivities returns the user's extracurriculars.
func (s *Service) ListActivities(ctx context.Context, userID string) ([]Extracurricular, error) {
	var activities []Extracurricular
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&activities).Error; err != nil {
		s.logError(opListActivities, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListActivities, "query_failed", err)
	}
	return activities, nil
}

// AwardInput carries the client-settable award fields.
type AwardInput struct {
	Title       string
	Level       string
	GradeLevel  string
	Description string
}

// SaveAward creates or updates an award. An empty awardID creates a record.
func (s *Service) SaveAward(ctx context.Context, userID, awardID string, input AwardInput) (Award, validate.Errors, error) {
	errs := validate.Errors{}
	if message := validate.Required(input.Title, "Award title"); message != "" {
		errs.Add("title", message)
	}
	if errs.Any() {
		return Award{}, errs, nil
	}

	var award Award
	if awardID == "" {
		newID, err := s.idProvider.NewID()
		if err != nil {
			s.logError(opSaveAward, "id_generation_failed", err, zap.String("user_id", userID))
			return Award{}, nil, newServiceError(opSaveAward, "id_generation_failed", err)
		}
		award = Award{AwardID: newID, UserID: userID}
	} else {
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND award_id = ?", userID, awardID).
			Take(&award).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Award{}, nil, ErrNotFound
		} else if err != nil {
			s.logError(opSaveAward, "lookup_failed", err, zap.String("user_id", userID))
			return Award{}, nil, newServiceError(opSaveAward, "lookup_failed", err)
		}
	}

	award.Title = input.Title
	award.Level = input.Level
	award.GradeLevel = input.GradeLevel
	award.Description = input.Description

	if err := s.db.WithContext(ctx).Save(&award).Error; err != nil {
		s.logError(opSaveAward, "save_failed", err, zap.String("user_id", userID))
		return Award{}, nil, newServiceError(opSaveAward, "save_failed", err)
	}
	return award, nil, nil
}

// DeleteAward removes the user's award by id.
func (s *Service) DeleteAward(ctx context.Context, userID, awardID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND award_id = ?", userID, awardID).
		Delete(&Award{})
	if result.Error != nil {
		s.logError(opDeleteAward, "delete_failed", result.Error, zap.String("user_id", userID))
		return newServiceError(opDeleteAward, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAwards returns the user's awards.
func (s *Service) ListAwards(ctx context.Context, userID string) ([]Award, error) {
	var awards []Award
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&awards).Error; err != nil {
		s.logError(opListAwards, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListAwards, "query_failed", err)
	}
	return awards, nil
}

// EssayInput carries the client-settable essay fields. WordCount is always
// derived from the content.
type EssayInput struct {
	Title   string
	Prompt  string
	Content string
}

// SaveEssay creates or updates an essay. An empty essayID creates a record.
func (s *Service) SaveEssay(ctx context.Context, userID, essayID string, input EssayInput) (Essay, validate.Errors, error) {
	errs := validate.Errors{}
	if message := validate.Required(input.Title, "Essay title"); message != "" {
		errs.Add("title", message)
	}
	if errs.Any() {
		return Essay{}, errs, nil
	}

	var essay Essay
	if essayID == "" {
		newID, err := s.idProvider.NewID()
		if err != nil {
			s.logError(opSaveEssay, "id_generation_failed", err, zap.String("user_id", userID))
			return Essay{}, nil, newServiceError(opSaveEssay, "id_generation_failed", err)
		}
		essay = Essay{EssayID: newID, UserID: userID}
	} else {
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND essay_id = ?", userID, essayID).
			Take(&essay).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Essay{}, nil, ErrNotFound
		} else if err != nil {
			s.logError(opSaveEssay, "lookup_failed", err, zap.String("user_id", userID))
			return Essay{}, nil, newServiceError(opSaveEssay, "lookup_failed", err)
		}
	}

	essay.Title = input.Title
	essay.Prompt = input.Prompt
	essay.Content = input.Content
	essay.WordCount = CountWords(input.Content)

	if err := s.db.WithContext(ctx).Save(&essay).Error; err != nil {
		s.logError(opSaveEssay, "save_failed", err, zap.String("user_id", userID))
		return Essay{}, nil, newServiceError(opSaveEssay, "save_failed", err)
	}
	return essay, nil, nil
}

// SaveEssayDraft persists only the essay content and derived word count.
// It backs the debounced auto-save path, so it skips title validation.
func (s *Service) SaveEssayDraft(ctx context.Context, userID, essayID, content string) error {
	result := s.db.WithContext(ctx).Model(&Essay{}).
		Where("user_id = ? AND essay_id = ?", userID, essayID).
		Updates(map[string]interface{}{
			"content":    content,
			"word_count": CountWords(content),
		})
	if result.Error != nil {
		s.logError(opSaveEssayDraft, "save_failed", result.Error, zap.String("user_id", userID))
		return newServiceError(opSaveEssayDraft, "save_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEssay removes the user's essay by id.
func (s *Service) DeleteEssay(ctx context.Context, userID, essayID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND essay_id = ?", userID, essayID).
		Delete(&Essay{})
	if result.Error != nil {
		s.logError(opDeleteEssay, "delete_failed", result.Error, zap.String("user_id", userID))
		return newServiceError(opDeleteEssay, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEssays returns the user's essays.
func (s *Service) ListEssays(ctx context.Context, userID string) ([]Essay, error) {
	var essays []Essay
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&essays).Error; err != nil {
		s.logError(opListEssays, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListEssays, "query_failed", err)
	}
	return essays, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("portfolio service error", attrs...)
}
