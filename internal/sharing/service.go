package sharing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	errMissingDatabase      = errors.New("database handle is required")
	errMissingIDProvider    = errors.New("id provider is required")
	errMissingTokenProvider = errors.New("token provider is required")
	noOpLogger              = zap.NewNop()
)

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
	opServiceNew = "sharing.service.new"
	opUpsertLink = "sharing.upsert_link"
	opResolve    = "sharing.resolve"
	opGetLink    = "sharing.get_link"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the sharing service.
type ServiceConfig struct {
	Database      *gorm.DB
	Clock         func() time.Time
	IDProvider    IDProvider
	TokenProvider TokenProvider
	BaseURL       string
	Logger        *zap.Logger
}

// Service owns share-link lifecycle and visitor resolution.
type Service struct {
	db            *gorm.DB
	clock         func() time.Time
	idProvider    IDProvider
	tokenProvider TokenProvider
	baseURL       string
	logger        *zap.Logger
}

// NewService validates dependencies and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	if cfg.TokenProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_token_provider", errMissingTokenProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:            cfg.Database,
		clock:         clock,
		idProvider:    cfg.IDProvider,
		tokenProvider: cfg.TokenProvider,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		logger:        logger,
	}, nil
}

// UpsertInput carries the mutable share-link fields. The token itself is
// never part of the input.
type UpsertInput struct {
	IsPublic  bool
	ExpiresAt *time.Time
	Settings  Settings
}

// Upsert creates or updates the single share link for the
// (user, content_type, content_id) tuple. A second call never creates a
// second row; duplicate rows left behind by a race are pruned, keeping the
// oldest survivor so its token stays stable.
func (s *Service) Upsert(ctx context.Context, userID string, contentType ContentType, contentID *string, input UpsertInput) (ShareLink, error) {
	settingsJSON, err := json.Marshal(input.Settings)
	if err != nil {
		return ShareLink{}, newServiceError(opUpsertLink, "settings_encode_failed", err)
	}

	var survivor ShareLink
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []ShareLink
		query := tx.Where("user_id = ? AND content_type = ?", userID, string(contentType))
		if contentID == nil {
			query = query.Where("content_id IS NULL")
		} else {
			query = query.Where("content_id = ?", *contentID)
		}
		if err := query.Order("created_at ASC").Find(&existing).Error; err != nil {
			return newServiceError(opUpsertLink, "lookup_failed", err)
		}

		if len(existing) == 0 {
			linkID, err := s.idProvider.NewID()
			if err != nil {
				return newServiceError(opUpsertLink, "id_generation_failed", err)
			}
			token, err := s.tokenProvider.NewToken()
			if err != nil {
				return newServiceError(opUpsertLink, "token_generation_failed", err)
			}
			survivor = ShareLink{
				LinkID:      linkID,
				ShareID:     token,
				UserID:      userID,
				ContentType: string(contentType),
				ContentID:   contentID,
				IsPublic:    input.IsPublic,
				ExpiresAt:   input.ExpiresAt,
				Settings:    datatypes.JSON(settingsJSON),
			}
			if err := tx.Create(&survivor).Error; err != nil {
				return newServiceError(opUpsertLink, "insert_failed", err)
			}
			return nil
		}

		survivor = existing[0]
		if len(existing) > 1 {
			duplicateIDs := make([]string, 0, len(existing)-1)
			for _, duplicate := range existing[1:] {
				duplicateIDs = append(duplicateIDs, duplicate.LinkID)
			}
			if err := tx.Where("link_id IN ?", duplicateIDs).Delete(&ShareLink{}).Error; err != nil {
				return newServiceError(opUpsertLink, "prune_failed", err)
			}
			s.logger.Warn("pruned duplicate share links",
				zap.String("user_id", userID),
				zap.String("content_type", string(contentType)),
				zap.Int("pruned", len(duplicateIDs)))
		}

		// Only the mutable fields change; the token never rotates.
		survivor.IsPublic = input.IsPublic
		survivor.ExpiresAt = input.ExpiresAt
		survivor.Settings = datatypes.JSON(settingsJSON)
		if err := tx.Model(&ShareLink{}).
			Where("link_id = ?", survivor.LinkID).
			Updates(map[string]interface{}{
				"is_public":  input.IsPublic,
				"expires_at": input.ExpiresAt,
				"settings":   datatypes.JSON(settingsJSON),
			}).Error; err != nil {
			return newServiceError(opUpsertLink, "update_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opUpsertLink, txErr, zap.String("user_id", userID), zap.String("content_type", string(contentType)))
		return ShareLink{}, txErr
	}
	return survivor, nil
}

// Resolution is the outcome of a visitor lookup.
type Resolution struct {
	State    AccessState
	Link     *ShareLink
	Settings ResolvedSettings
}

// Resolve looks up a share record by token and content type and runs the
// access state machine. Lookup failures classify as Invalid rather than
// erroring, so visitors always receive a terminal state.
func (s *Service) Resolve(ctx context.Context, token ShareToken, contentType ContentType) (Resolution, error) {
	var link ShareLink
	err := s.db.WithContext(ctx).
		Where("share_id = ? AND content_type = ?", token.String(), string(contentType)).
		Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{State: AccessInvalid}, nil
	}
	if err != nil {
		s.logError(opResolve, err, zap.String("content_type", string(contentType)))
		return Resolution{}, newServiceError(opResolve, "lookup_failed", err)
	}

	state := ClassifyAccess(&link, s.clock().UTC())
	resolution := Resolution{State: state, Link: &link}
	if state == AccessValid {
		resolution.Settings = ResolveSettings(link.Settings)
	}
	return resolution, nil
}

// GetForOwner returns the owner's share link for the content tuple, or nil
// when none exists yet. The original creates links lazily on first share.
func (s *Service) GetForOwner(ctx context.Context, userID string, contentType ContentType, contentID *string) (*ShareLink, error) {
	var link ShareLink
	query := s.db.WithContext(ctx).Where("user_id = ? AND content_type = ?", userID, string(contentType))
	if contentID == nil {
		query = query.Where("content_id IS NULL")
	} else {
		query = query.Where("content_id = ?", *contentID)
	}
	err := query.Order("created_at ASC").Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opGetLink, err, zap.String("user_id", userID))
		return nil, newServiceError(opGetLink, "lookup_failed", err)
	}
	return &link, nil
}

// ShareURL renders the public URL for a link.
func (s *Service) ShareURL(link ShareLink) string {
	return fmt.Sprintf("%s/share/%s/%s", s.baseURL, link.ContentType, link.ShareID)
}

func (s *Service) logError(operation string, err error, fields ...zap.Field) {
	attrs := []zap.Field{zap.String("operation", operation)}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("sharing service error", attrs...)
}
