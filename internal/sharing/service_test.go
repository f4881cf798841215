package sharing

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type uuidIDProvider struct{}

func (uuidIDProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

func openTestDatabase(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&ShareLink{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, clock func() time.Time) *Service {
	t.Helper()
	if clock == nil {
		clock = time.Now
	}
	service, err := NewService(ServiceConfig{
		Database:      db,
		Clock:         clock,
		IDProvider:    uuidIDProvider{},
		TokenProvider: NewNUIDProvider(),
		BaseURL:       "https://app.waypoint.example",
		Logger:        zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func boolPtr(value bool) *bool {
	return &value
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := openTestDatabase(t, "sharing_idempotent")
	service := newTestService(t, db, nil)
	ctx := context.Background()

	first, err := service.Upsert(ctx, "user-1", ContentTypePortfolio, nil, UpsertInput{IsPublic: true})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if first.ShareID == "" {
		t.Fatalf("expected a generated share token")
	}

	expiry := time.Unix(1800000000, 0).UTC()
	second, err := service.Upsert(ctx, "user-1", ContentTypePortfolio, nil, UpsertInput{
		IsPublic:  false,
		ExpiresAt: &expiry,
		Settings:  Settings{ShowEssays: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ShareID != first.ShareID {
		t.Fatalf("expected token to stay stable across updates, got %q then %q", first.ShareID, second.ShareID)
	}
	if second.IsPublic {
		t.Fatalf("expected mutable fields to update")
	}

	var count int64
	if err := db.Model(&ShareLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row after two upserts, got %d", count)
	}
}

func TestUpsertScopesByContentTuple(t *testing.T) {
	db := openTestDatabase(t, "sharing_tuple")
	service := newTestService(t, db, nil)
	ctx := context.Background()

	applicationID := "app-1"
	portfolio, err := service.Upsert(ctx, "user-1", ContentTypePortfolio, nil, UpsertInput{IsPublic: true})
	if err != nil {
		t.Fatalf("portfolio upsert failed: %v", err)
	}
	application, err := service.Upsert(ctx, "user-1", ContentTypeCollegeApplication, &applicationID, UpsertInput{IsPublic: true})
	if err != nil {
		t.Fatalf("application upsert failed: %v", err)
	}
	if portfolio.ShareID == application.ShareID {
		t.Fatalf("expected distinct tokens for distinct tuples")
	}

	var count int64
	if err := db.Model(&ShareLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected two rows for two tuples, got %d", count)
	}
}

func TestUpsertPrunesDuplicateRows(t *testing.T) {
	db := openTestDatabase(t, "sharing_prune")
	service := newTestService(t, db, nil)
	ctx := context.Background()

	// Seed two duplicate rows simulating a historical race.
	older := ShareLink{
		LinkID: "link-old", ShareID: "token-old", UserID: "user-1",
		ContentType: string(ContentTypePortfolio), IsPublic: true,
		CreatedAt: time.Unix(1700000000, 0),
	}
	newer := ShareLink{
		LinkID: "link-new", ShareID: "token-new", UserID: "user-1",
		ContentType: string(ContentTypePortfolio), IsPublic: true,
		CreatedAt: time.Unix(1700000500, 0),
	}
	if err := db.Create(&older).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(&newer).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	survivor, err := service.Upsert(ctx, "user-1", ContentTypePortfolio, nil, UpsertInput{IsPublic: false})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if survivor.ShareID != "token-old" {
		t.Fatalf("expected the oldest row to survive, got %q", survivor.ShareID)
	}

	var count int64
	if err := db.Model(&ShareLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected duplicates pruned to one row, got %d", count)
	}
}

func TestResolveClassifiesVisitorAccess(t *testing.T) {
	db := openTestDatabase(t, "sharing_resolve")
	now := time.Unix(1700000000, 0).UTC()
	service := newTestService(t, db, func() time.Time { return now })
	ctx := context.Background()

	past := now.Add(-time.Minute)
	expired := ShareLink{
		LinkID: "link-exp", ShareID: "token-exp", UserID: "user-1",
		ContentType: string(ContentTypePortfolio), IsPublic: true, ExpiresAt: &past,
	}
	private := ShareLink{
		LinkID: "link-priv", ShareID: "token-priv", UserID: "user-1",
		ContentType: string(ContentTypePortfolio), IsPublic: false,
	}
	open := ShareLink{
		LinkID: "link-open", ShareID: "token-open", UserID: "user-1",
		ContentType: string(ContentTypePortfolio), IsPublic: true,
		Settings: datatypes.JSON(`{"showAwards":false}`),
	}
	for _, link := range []*ShareLink{&expired, &private, &open} {
		if err := db.Create(link).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		token    string
		expected AccessState
	}{
		{name: "unknown token", token: "token-missing", expected: AccessInvalid},
		{name: "expired before public", token: "token-exp", expected: AccessExpired},
		{name: "private", token: "token-priv", expected: AccessPrivate},
		{name: "valid", token: "token-open", expected: AccessValid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, err := NewShareToken(tc.token)
			if err != nil {
				t.Fatalf("unexpected token error: %v", err)
			}
			resolution, err := service.Resolve(ctx, token, ContentTypePortfolio)
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if resolution.State != tc.expected {
				t.Fatalf("state = %q, want %q", resolution.State, tc.expected)
			}
		})
	}

	// Token valid for one content type must not resolve another.
	token, _ := NewShareToken("token-open")
	resolution, err := service.Resolve(ctx, token, ContentTypeCollegeProfile)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolution.State != AccessInvalid {
		t.Fatalf("expected content-type mismatch to classify Invalid, got %q", resolution.State)
	}

	// Valid resolutions carry the merged settings.
	resolution, err = service.Resolve(ctx, token, ContentTypePortfolio)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolution.Settings.ShowAwards || !resolution.Settings.ShowEssays {
		t.Fatalf("unexpected resolved settings: %+v", resolution.Settings)
	}
}

func TestGetForOwnerReturnsNilWhenAbsent(t *testing.T) {
	db := openTestDatabase(t, "sharing_owner")
	service := newTestService(t, db, nil)
	ctx := context.Background()

	link, err := service.GetForOwner(ctx, "user-1", ContentTypePortfolio, nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if link != nil {
		t.Fatalf("expected nil for a user who never opened the share dialog")
	}

	created, err := service.Upsert(ctx, "user-1", ContentTypePortfolio, nil, UpsertInput{IsPublic: true})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	link, err = service.GetForOwner(ctx, "user-1", ContentTypePortfolio, nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if link == nil || link.ShareID != created.ShareID {
		t.Fatalf("expected the created link, got %+v", link)
	}
}

func TestShareURLShape(t *testing.T) {
	db := openTestDatabase(t, "sharing_url")
	service := newTestService(t, db, nil)
	link := ShareLink{ContentType: string(ContentTypeCollegeProfile), ShareID: "abc123"}
	expected := "https://app.waypoint.example/share/college_profile/abc123"
	if got := service.ShareURL(link); got != expected {
		t.Fatalf("ShareURL = %q, want %q", got, expected)
	}
}
