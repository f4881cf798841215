package academics

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

// ErrCourseNotFound indicates the course does not exist for the user.
var ErrCourseNotFound = errors.New("academics: course not found")

// ErrScoreNotFound indicates the test score does not exist for the user.
var ErrScoreNotFound = errors.New("academics: test score not found")

// ErrManualGPAOutOfRange indicates a manual figure outside its scale bound.
var ErrManualGPAOutOfRange = errors.New("academics: manual gpa out of range")

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
	opServiceNew      = "academics.service.new"
	opCreateCourse    = "academics.create_course"
	opBulkCourses     = "academics.bulk_create_courses"
	opUpdateCourse    = "academics.update_course"
	opDeleteCourse    = "academics.delete_course"
	opListCourses     = "academics.list_courses"
	opGetManualGPA    = "academics.get_manual_gpa"
	opPutManualGPA    = "academics.put_manual_gpa"
	opSummary         = "academics.summary"
	opCreateTestScore = "academics.create_test_score"
	opUpdateTestScore = "academics.update_test_score"
	opDeleteTestScore = "academics.delete_test_score"
	opListTestScores  = "academics.list_test_scores"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the academics service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns courses, manual GPA overrides and test scores.
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

// CourseInput carries the client-settable course fields. Grade points are
// always derived server-side.
type CourseInput struct {
	Name       string
	Grade      string
	Credits    float64
	Level      string
	GradeLevel string
	Term       string
}

func (input CourseInput) validate() (validate.Errors, CourseLevel, string, float64) {
	errs := validate.Errors{}
	if message := validate.Required(input.Name, "Course name"); message != "" {
		errs.Add("name", message)
	}

	base, err := GradePoints(input.Grade)
	if err != nil {
		errs.Add("grade", "Grade must be a letter grade between A+ and F")
	}

	level, err := ParseCourseLevel(input.Level)
	if err != nil {
		errs.Add("level", "Level must be Regular, Honors, AP/IB or College")
	}

	gradeLevel, err := ParseGradeLevel(input.GradeLevel)
	if err != nil {
		errs.Add("grade_level", "Grade level must be between 9 and 12")
	}

	if input.Credits <= 0 {
		errs.Add("credits", "Credits must be a positive number")
	}

	if errs.Any() {
		return errs, "", "", 0
	}
	return errs, level, gradeLevel, base
}

// CreateCourse validates the input, derives grade points and persists the row.
func (s *Service) CreateCourse(ctx context.Context, userID UserID, input CourseInput) (Course, validate.Errors, error) {
	errs, level, gradeLevel, base := input.validate()
	if errs.Any() {
		return Course{}, errs, nil
	}

	courseID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreateCourse, "id_generation_failed", err, zap.String("user_id", userID.String()))
		return Course{}, nil, newServiceError(opCreateCourse, "id_generation_failed", err)
	}

	weighted, err := WeightedPoints(input.Grade, level)
	if err != nil {
		return Course{}, nil, newServiceError(opCreateCourse, "weighting_failed", err)
	}

	course := Course{
		CourseID:            courseID,
		UserID:              userID.String(),
		Name:                input.Name,
		Grade:               input.Grade,
		Credits:             input.Credits,
		Level:               string(level),
		GradeLevel:          gradeLevel,
		Term:                input.Term,
		GradePoints:         base,
		WeightedGradePoints: weighted,
	}
	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		s.logError(opCreateCourse, "insert_failed", err, zap.String("user_id", userID.String()))
		return Course{}, nil, newServiceError(opCreateCourse, "insert_failed", err)
	}
	return course, nil, nil
}

// BulkCourseInput carries one row of the bulk-entry flow, which accepts the
// split AP and IB rigor designations.
type BulkCourseInput struct {
	Name       string
	Grade      string
	Credits    float64
	Level      string
	GradeLevel string
	Term       string
}

// BulkCreateCourses persists a batch of courses using the bulk weighting
// rule, in a single transaction. Rows that fail validation reject the batch.
func (s *Service) BulkCreateCourses(ctx context.Context, userID UserID, inputs []BulkCourseInput) ([]Course, validate.Errors, error) {
	created := make([]Course, 0, len(inputs))
	for index, input := range inputs {
		errs := validate.Errors{}
		if message := validate.Required(input.Name, "Course name"); message != "" {
			errs.Add(fmt.Sprintf("courses[%d].name", index), message)
		}
		base, err := GradePoints(input.Grade)
		if err != nil {
			errs.Add(fmt.Sprintf("courses[%d].grade", index), "Grade must be a letter grade between A+ and F")
		}
		gradeLevel, err := ParseGradeLevel(input.GradeLevel)
		if err != nil {
			errs.Add(fmt.Sprintf("courses[%d].grade_level", index), "Grade level must be between 9 and 12")
		}
		if input.Credits <= 0 {
			errs.Add(fmt.Sprintf("courses[%d].credits", index), "Credits must be a positive number")
		}
		if errs.Any() {
			return nil, errs, nil
		}

		weighted, err := BulkWeightedPoints(input.Grade, input.Level)
		if err != nil {
			return nil, nil, newServiceError(opBulkCourses, "weighting_failed", err)
		}

		courseID, err := s.idProvider.NewID()
		if err != nil {
			s.logError(opBulkCourses, "id_generation_failed", err, zap.String("user_id", userID.String()))
			return nil, nil, newServiceError(opBulkCourses, "id_generation_failed", err)
		}

		created = append(created, Course{
			CourseID:            courseID,
			UserID:              userID.String(),
			Name:                input.Name,
			Grade:               input.Grade,
			Credits:             input.Credits,
			Level:               string(courseLevelForBulk(input.Level)),
			GradeLevel:          gradeLevel,
			Term:                input.Term,
			GradePoints:         base,
			WeightedGradePoints: weighted,
		})
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range created {
			if err := tx.Create(&created[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		s.logError(opBulkCourses, "insert_failed", txErr, zap.String("user_id", userID.String()))
		return nil, nil, newServiceError(opBulkCourses, "insert_failed", txErr)
	}
	return created, nil, nil
}

// UpdateCourse revalidates the input and recomputes the derived points.
func (s *Service) UpdateCourse(ctx context.Context, userID UserID, courseID string, input CourseInput) (Course, validate.Errors, error) {
	errs, level, gradeLevel, base := input.validate()
	if errs.Any() {
		return Course{}, errs, nil
	}

	var course Course
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID.String(), courseID).
		Take(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Course{}, nil, ErrCourseNotFound
	} else if err != nil {
		s.logError(opUpdateCourse, "lookup_failed", err, zap.String("user_id", userID.String()))
		return Course{}, nil, newServiceError(opUpdateCourse, "lookup_failed", err)
	}

	weighted, err := WeightedPoints(input.Grade, level)
	if err != nil {
		return Course{}, nil, newServiceError(opUpdateCourse, "weighting_failed", err)
	}

	course.Name = input.Name
	course.Grade = input.Grade
	course.Credits = input.Credits
	course.Level = string(level)
	course.GradeLevel = gradeLevel
	course.Term = input.Term
	course.GradePoints = base
	course.WeightedGradePoints = weighted

	if err := s.db.WithContext(ctx).Save(&course).Error; err != nil {
		s.logError(opUpdateCourse, "save_failed", err, zap.String("user_id", userID.String()))
		return Course{}, nil, newServiceError(opUpdateCourse, "save_failed", err)
	}
	return course, nil, nil
}

// DeleteCourse removes the user's course by id.
func (s *Service) DeleteCourse(ctx context.Context, userID UserID, courseID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID.String(), courseID).
		Delete(&Course{})
	if result.Error != nil {
		s.logError(opDeleteCourse, "delete_failed", result.Error, zap.String("user_id", userID.String()))
		return newServiceError(opDeleteCourse, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// ListCourses returns the user's courses ordered by grade level, then name.
func (s *Service) ListCourses(ctx context.Context, userID UserID) ([]Course, error) {
	var courses []Course
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("grade_level ASC, name ASC").
		Find(&courses).Error; err != nil {
		s.logError(opListCourses, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newServiceError(opListCourses, "query_failed", err)
	}
	return courses, nil
}

// ManualGPAInput carries the client-settable override fields.
type ManualGPAInput struct {
	Unweighted float64
	Weighted   float64
	UCGPA      float64
	UseManual  bool
}

// GetManualGPA returns the user's override row, or nil when absent.
func (s *Service) GetManualGPA(ctx context.Context, userID UserID) (*ManualGPA, error) {
	var manual ManualGPA
	err := s.db.WithContext(ctx).Where("user_id = ?", userID.String()).Take(&manual).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opGetManualGPA, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newServiceError(opGetManualGPA, "query_failed", err)
	}
	return &manual, nil
}

// PutManualGPA validates the figures against their per-scale bounds and
// upserts the single override row for the user.
func (s *Service) PutManualGPA(ctx context.Context, userID UserID, input ManualGPAInput) (ManualGPA, validate.Errors, error) {
	errs := validate.Errors{}
	if !validate.IsGPA(input.Unweighted, validate.MaxUnweightedGPA) {
		errs.Add("unweighted", fmt.Sprintf("Unweighted GPA must be between 0 and %.1f", validate.MaxUnweightedGPA))
	}
	if !validate.IsGPA(input.Weighted, validate.MaxWeightedGPA) {
		errs.Add("weighted", fmt.Sprintf("Weighted GPA must be between 0 and %.1f", validate.MaxWeightedGPA))
	}
	if !validate.IsGPA(input.UCGPA, validate.MaxWeightedGPA) {
		errs.Add("uc_gpa", fmt.Sprintf("UC GPA must be between 0 and %.1f", validate.MaxWeightedGPA))
	}
	if errs.Any() {
		return ManualGPA{}, errs, nil
	}

	manual := ManualGPA{
		UserID:     userID.String(),
		Unweighted: input.Unweighted,
		Weighted:   input.Weighted,
		UCGPA:      input.UCGPA,
		UseManual:  input.UseManual,
	}
	if err := s.db.WithContext(ctx).Save(&manual).Error; err != nil {
		s.logError(opPutManualGPA, "save_failed", err, zap.String("user_id", userID.String()))
		return ManualGPA{}, nil, newServiceError(opPutManualGPA, "save_failed", err)
	}
	return manual, nil, nil
}

// SummaryReport pairs the cumulative figures with the per-level breakdown.
type SummaryReport struct {
	Summary   Summary
	Breakdown []LevelBreakdown
}

// Summary loads the user's courses and override row and aggregates them.
func (s *Service) Summary(ctx context.Context, userID UserID) (SummaryReport, error) {
	courses, err := s.ListCourses(ctx, userID)
	if err != nil {
		return SummaryReport{}, newServiceError(opSummary, "course_query_failed", err)
	}
	manual, err := s.GetManualGPA(ctx, userID)
	if err != nil {
		return SummaryReport{}, newServiceError(opSummary, "manual_query_failed", err)
	}
	return SummaryReport{
		Summary:   Cumulative(courses, manual),
		Breakdown: Breakdown(courses),
	}, nil
}

// TestScoreInput carries the client-settable test score fields.
type TestScoreInput struct {
	TestType string
	Subject  string
	Score    float64
	TestDate string
}

func (input TestScoreInput) validate() validate.Errors {
	errs := validate.Errors{}
	if message := validate.Required(input.TestType, "Test type"); message != "" {
		errs.Add("test_type", message)
	}
	if input.Score < 0 {
		errs.Add("score", "Score must not be negative")
	}
	return errs
}

// CreateTestScore validates and persists a test score for the user.
func (s *Service) CreateTestScore(ctx context.Context, userID UserID, input TestScoreInput) (TestScore, validate.Errors, error) {
	if errs := input.validate(); errs.Any() {
		return TestScore{}, errs, nil
	}
	scoreID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreateTestScore, "id_generation_failed", err, zap.String("user_id", userID.String()))
		return TestScore{}, nil, newServiceError(opCreateTestScore, "id_generation_failed", err)
	}
	score := TestScore{
		ScoreID:  scoreID,
		UserID:   userID.String(),
		TestType: input.TestType,
		Subject:  input.Subject,
		Score:    input.Score,
		TestDate: input.TestDate,
	}
	if err := s.db.WithContext(ctx).Create(&score).Error; err != nil {
		s.logError(opCreateTestScore, "insert_failed", err, zap.String("user_id", userID.String()))
		return TestScore{}, nil, newServiceError(opCreateTestScore, "insert_failed", err)
	}
	return score, nil, nil
}

// UpdateTestScore revalidates and saves the user's test score.
func (s *Service) UpdateTestScore(ctx context.Context, userID UserID, scoreID string, input TestScoreInput) (TestScore, validate.Errors, error) {
	if errs := input.validate(); errs.Any() {
		return TestScore{}, errs, nil
	}
	var score TestScore
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND score_id = ?", userID.String(), scoreID).
		Take(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TestScore{}, nil, ErrScoreNotFound
	} else if err != nil {
		s.logError(opUpdateTestScore, "lookup_failed", err, zap.String("user_id", userID.String()))
		return TestScore{}, nil, newServiceError(opUpdateTestScore, "lookup_failed", err)
	}
	score.TestType = input.TestType
	score.Subject = input.Subject
	score.Score = input.Score
	score.TestDate = input.TestDate
	if err := s.db.WithContext(ctx).Save(&score).Error; err != nil {
		s.logError(opUpdateTestScore, "save_failed", err, zap.String("user_id", userID.String()))
		return TestScore{}, nil, newServiceError(opUpdateTestScore, "save_failed", err)
	}
	return score, nil, nil
}

// DeleteTestScore removes the user's test score by id.
func (s *Service) DeleteTestScore(ctx context.Context, userID UserID, scoreID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND score_id = ?", userID.String(), scoreID).
		Delete(&TestScore{})
	if result.Error != nil {
		s.logError(opDeleteTestScore, "delete_failed", result.Error, zap.String("user_id", userID.String()))
		return newServiceError(opDeleteTestScore, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScoreNotFound
	}
	return nil
}

// ListTestScores returns the user's scores ordered by test date.
func (s *Service) ListTestScores(ctx context.Context, userID UserID) ([]TestScore, error) {
	var scores []TestScore
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("test_date DESC").
		Find(&scores).Error; err != nil {
		s.logError(opListTestScores, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newServiceError(opListTestScores, "query_failed", err)
	}
	return scores, nil
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
	s.logger.Error("academics service error", attrs...)
}
