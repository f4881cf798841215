package colleges

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// ErrEntryNotFound indicates the list entry does not exist for the user.
var ErrEntryNotFound = errors.New("colleges: list entry not found")

// ErrCollegeNotFound indicates the referenced catalog row does not exist.
var ErrCollegeNotFound = errors.New("colleges: college not found")

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
	opServiceNew    = "colleges.service.new"
	opAddEntry      = "colleges.add_entry"
	opUpdateEntry   = "colleges.update_entry"
	opRemoveEntry   = "colleges.remove_entry"
	opListForUser   = "colleges.list_for_user"
	opSearchCatalog = "colleges.search_catalog"
	opSeedCatalog   = "colleges.seed_catalog"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the colleges service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns the college catalog and per-user college lists.
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

// EntryInput carries the client-settable list entry fields.
type EntryInput struct {
	CollegeID       string
	Status          string
	ApplicationType string
	Deadline        *time.Time
	Notes           string
}

func (input EntryInput) validate() (validate.Errors, ApplicationStatus) {
	errs := validate.Errors{}
	if message := validate.Required(input.CollegeID, "College"); message != "" {
		errs.Add("college_id", message)
	}
	status, err := ParseStatus(input.Status)
	if err != nil {
		errs.Add("status", "Status must be one of considering, applying, applied, accepted, rejected, enrolled")
	}
	if errs.Any() {
		return errs, ""
	}
	return errs, status
}

// AddEntry validates the input, checks the catalog reference and persists
// the list entry for the user.
func (s *Service) AddEntry(ctx context.Context, userID string, input EntryInput) (ListEntry, validate.Errors, error) {
	errs, status := input.validate()
	if errs.Any() {
		return ListEntry{}, errs, nil
	}

	var college College
	err := s.db.WithContext(ctx).Where("college_id = ?", input.CollegeID).Take(&college).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ListEntry{}, nil, ErrCollegeNotFound
	} else if err != nil {
		s.logError(opAddEntry, "catalog_lookup_failed", err, zap.String("user_id", userID))
		return ListEntry{}, nil, newServiceError(opAddEntry, "catalog_lookup_failed", err)
	}

	entryID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opAddEntry, "id_generation_failed", err, zap.String("user_id", userID))
		return ListEntry{}, nil, newServiceError(opAddEntry, "id_generation_failed", err)
	}

	entry := UserCollege{
		EntryID:         entryID,
		UserID:          userID,
		CollegeID:       input.CollegeID,
		Status:          string(status),
		ApplicationType: input.ApplicationType,
		Deadline:        input.Deadline,
		Notes:           input.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logError(opAddEntry, "insert_failed", err, zap.String("user_id", userID))
		return ListEntry{}, nil, newServiceError(opAddEntry, "insert_failed", err)
	}
	return ListEntry{Entry: entry, College: college}, nil, nil
}

// UpdateEntry revalidates and saves the mutable list entry fields.
func (s *Service) UpdateEntry(ctx context.Context, userID, entryID string, input EntryInput) (UserCollege, validate.Errors, error) {
	errs := validate.Errors{}
	status, err := ParseStatus(input.Status)
	if err != nil {
		errs.Add("status", "Status must be one of considering, applying, applied, accepted, rejected, enrolled")
		return UserCollege{}, errs, nil
	}

	var entry UserCollege
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND entry_id = ?", userID, entryID).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserCollege{}, nil, ErrEntryNotFound
	} else if err != nil {
		s.logError(opUpdateEntry, "lookup_failed", err, zap.String("user_id", userID))
		return UserCollege{}, nil, newServiceError(opUpdateEntry, "lookup_failed", err)
	}

	entry.Status = string(status)
	entry.ApplicationType = input.ApplicationType
	entry.Deadline = input.Deadline
	entry.Notes = input.Notes
	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		s.logError(opUpdateEntry, "save_failed", err, zap.String("user_id", userID))
		return UserCollege{}, nil, newServiceError(opUpdateEntry, "save_failed", err)
	}
	return entry, nil, nil
}

// RemoveEntry deletes the user's list entry by id.
func (s *Service) RemoveEntry(ctx context.Context, userID, entryID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND entry_id = ?", userID, entryID).
		Delete(&UserCollege{})
	if result.Error != nil {
		s.logError(opRemoveEntry, "delete_failed", result.Error, zap.String("user_id", userID))
		return newServiceError(opRemoveEntry, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListForUser returns the user's entries joined to their catalog rows. The
// join runs in memory over two equality-filtered queries, mirroring the
// original client's query shape. Entries whose catalog row has vanished are
// dropped rather than erroring.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]ListEntry, error) {
	var entries []UserCollege
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		s.logError(opListForUser, "entry_query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListForUser, "entry_query_failed", err)
	}
	if len(entries) == 0 {
		return []ListEntry{}, nil
	}

	collegeIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		collegeIDs = append(collegeIDs, entry.CollegeID)
	}
	var catalog []College
	if err := s.db.WithContext(ctx).
		Where("college_id IN ?", collegeIDs).
		Find(&catalog).Error; err != nil {
		s.logError(opListForUser, "catalog_query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListForUser, "catalog_query_failed", err)
	}
	byID := make(map[string]College, len(catalog))
	for _, college := range catalog {
		byID[college.CollegeID] = college
	}

	joined := make([]ListEntry, 0, len(entries))
	for _, entry := range entries {
		college, ok := byID[entry.CollegeID]
		if !ok {
			continue
		}
		joined = append(joined, ListEntry{Entry: entry, College: college})
	}
	return joined, nil
}

// SearchCatalog returns catalog rows whose name contains the query,
// case-insensitively, ordered by name.
func (s *Service) SearchCatalog(ctx context.Context, query string) ([]College, error) {
	var results []College
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	if err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		Limit(50).
		Find(&results).Error; err != nil {
		s.logError(opSearchCatalog, "query_failed", err)
		return nil, newServiceError(opSearchCatalog, "query_failed", err)
	}
	return results, nil
}

// SeedCatalog inserts catalog rows that are not present yet, keyed by name.
func (s *Service) SeedCatalog(ctx context.Context, rows []College) error {
	for _, row := range rows {
		var existing College
		err := s.db.WithContext(ctx).Where("name = ?", row.Name).Take(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return newServiceError(opSeedCatalog, "lookup_failed", err)
		}
		if row.CollegeID == "" {
			collegeID, err := s.idProvider.NewID()
			if err != nil {
				return newServiceError(opSeedCatalog, "id_generation_failed", err)
			}
			row.CollegeID = collegeID
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return newServiceError(opSeedCatalog, "insert_failed", err)
		}
	}
	return nil
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
	s.logger.Error("colleges service error", attrs...)
}
