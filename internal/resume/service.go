package resume

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

// ErrResumeNotFound indicates the resume does not exist for the user.
var ErrResumeNotFound = errors.New("resume: not found")

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
	opServiceNew   = "resume.service.new"
	opCreateResume = "resume.create"
	opUpdateResume = "resume.update"
	opSaveDraft    = "resume.save_draft"
	opDeleteResume = "resume.delete"
	opGetResume    = "resume.get"
	opListResumes  = "resume.list"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the resume service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns resume rows and their structured content.
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

// Create persists a new resume with the supplied title and content.
func (s *Service) Create(ctx context.Context, userID, title string, content Content) (Resume, validate.Errors, error) {
	errs := validate.Errors{}
	if message := validate.Required(title, "Resume title"); message != "" {
		errs.Add("title", message)
	}
	if errs.Any() {
		return Resume{}, errs, nil
	}

	resumeID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreateResume, "id_generation_failed", err, zap.String("user_id", userID))
		return Resume{}, nil, newServiceError(opCreateResume, "id_generation_failed", err)
	}
	encoded, err := EncodeContent(content)
	if err != nil {
		return Resume{}, nil, newServiceError(opCreateResume, "content_encode_failed", err)
	}

	row := Resume{ResumeID: resumeID, UserID: userID, Title: title, Content: encoded}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.logError(opCreateResume, "insert_failed", err, zap.String("user_id", userID))
		return Resume{}, nil, newServiceError(opCreateResume, "insert_failed", err)
	}
	return row, nil, nil
}

// Update replaces the title and content of the user's resume.
func (s *Service) Update(ctx context.Context, userID, resumeID, title string, content Content) (Resume, validate.Errors, error) {
	errs := validate.Errors{}
	if message := validate.Required(title, "Resume title"); message != "" {
		errs.Add("title", message)
	}
	if errs.Any() {
		return Resume{}, errs, nil
	}

	var row Resume
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND resume_id = ?", userID, resumeID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Resume{}, nil, ErrResumeNotFound
	} else if err != nil {
		s.logError(opUpdateResume, "lookup_failed", err, zap.String("user_id", userID))
		return Resume{}, nil, newServiceError(opUpdateResume, "lookup_failed", err)
	}

	encoded, err := EncodeContent(content)
	if err != nil {
		return Resume{}, nil, newServiceError(opUpdateResume, "content_encode_failed", err)
	}
	row.Title = title
	row.Content = encoded
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		s.logError(opUpdateResume, "save_failed", err, zap.String("user_id", userID))
		return Resume{}, nil, newServiceError(opUpdateResume, "save_failed", err)
	}
	return row, nil, nil
}

// SaveDraft replaces only the content column. It backs the debounced
// auto-save path.
func (s *Service) SaveDraft(ctx context.Context, userID, resumeID string, content Content) error {
	encoded, err := EncodeContent(content)
	if err != nil {
		return newServiceError(opSaveDraft, "content_encode_failed", err)
	}
	result := s.db.WithContext(ctx).Model(&Resume{}).
		Where("user_id = ? AND resume_id = ?", userID, resumeID).
		Update("content", encoded)
	if result.Error != nil {
		s.logError(opSaveDraft, "save_failed", result.Error, zap.String("user_id", userID))
		return newServiceError(opSaveDraft, "save_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}

// Delete removes the user's resume by id.
func (s *Service) Delete(ctx context.Context, userID, resumeID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND resume_id = ?", userID, resumeID).
		Delete(&Resume{})
	if result.Error != nil {
		s.logError(opDeleteResume, "delete_failed", result.Error, zap.String("user_id", userID))
		return newServiceError(opDeleteResume, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}

// Get loads the user's resume with its decoded content.
func (s *Service) Get(ctx context.Context, userID, resumeID string) (Resume, Content, error) {
	var row Resume
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND resume_id = ?", userID, resumeID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Resume{}, Content{}, ErrResumeNotFound
	} else if err != nil {
		s.logError(opGetResume, "lookup_failed", err, zap.String("user_id", userID))
		return Resume{}, Content{}, newServiceError(opGetResume, "lookup_failed", err)
	}
	content, err := DecodeContent(row.Content)
	if err != nil {
		s.logError(opGetResume, "content_decode_failed", err, zap.String("user_id", userID))
		return Resume{}, Content{}, newServiceError(opGetResume, "content_decode_failed", err)
	}
	return row, content, nil
}

// List returns the user's resumes, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]Resume, error) {
	var rows []Resume
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		s.logError(opListResumes, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListResumes, "query_failed", err)
	}
	return rows, nil
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
	s.logger.Error("resume service error", attrs...)
}
