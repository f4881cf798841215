package academics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Course{}, &ManualGPA{}, &TestScore{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return time.Unix(1700000000, 0) },
		IDProvider: NewUUIDProvider(),
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func TestCreateCourseDerivesGradePoints(t *testing.T) {
	db := openTestDatabase(t, "academics_create")
	service := newTestService(t, db)
	userID, err := NewUserID("user-1")
	if err != nil {
		t.Fatalf("unexpected user id error: %v", err)
	}

	course, errs, err := service.CreateCourse(context.Background(), userID, CourseInput{
		Name:       "AP Chemistry",
		Grade:      "B",
		Credits:    1.0,
		Level:      "AP/IB",
		GradeLevel: "11",
		Term:       "Fall 2025",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if errs.Any() {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if course.GradePoints != 3.0 {
		t.Fatalf("expected base points 3.0, got %v", course.GradePoints)
	}
	if course.WeightedGradePoints != 4.0 {
		t.Fatalf("expected weighted points 4.0, got %v", course.WeightedGradePoints)
	}
	if course.CourseID == "" {
		t.Fatalf("expected generated course id")
	}
}

func TestCreateCourseAccumulatesValidationErrors(t *testing.T) {
	db := openTestDatabase(t, "academics_validation")
	service := newTestService(t, db)
	userID, _ := NewUserID("user-1")

	_, errs, err := service.CreateCourse(context.Background(), userID, CourseInput{
		Grade:      "Z",
		Credits:    -1,
		Level:      "Gifted",
		GradeLevel: "13",
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	if len(errs) != 5 {
		t.Fatalf("expected all five fields reported before surfacing, got %v", errs)
	}

	var count int64
	if err := db.Model(&Course{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("validation failures must not reach the store, found %d rows", count)
	}
}

func TestUpdateCourseRecomputesDerivedFields(t *testing.T) {
	db := openTestDatabase(t, "academics_update")
	service := newTestService(t, db)
	userID, _ := NewUserID("user-1")

	created, _, err := service.CreateCourse(context.Background(), userID, CourseInput{
		Name: "Biology", Grade: "A", Credits: 1, Level: "Regular", GradeLevel: "10",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, errs, err := service.UpdateCourse(context.Background(), userID, created.CourseID, CourseInput{
		Name: "Honors Biology", Grade: "B-", Credits: 1, Level: "Honors", GradeLevel: "10",
	})
	if err != nil || errs.Any() {
		t.Fatalf("update failed: %v %v", err, errs)
	}
	if updated.GradePoints != 2.7 {
		t.Fatalf("expected base points recomputed to 2.7, got %v", updated.GradePoints)
	}
	if updated.WeightedGradePoints != 3.2 {
		t.Fatalf("expected weighted points recomputed to 3.2, got %v", updated.WeightedGradePoints)
	}
}

func TestUpdateCourseScopedToOwner(t *testing.T) {
	db := openTestDatabase(t, "academics_scope")
	service := newTestService(t, db)
	owner, _ := NewUserID("owner")
	intruder, _ := NewUserID("intruder")

	created, _, err := service.CreateCourse(context.Background(), owner, CourseInput{
		Name: "Calculus", Grade: "A", Credits: 1, Level: "Regular", GradeLevel: "12",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, _, err = service.UpdateCourse(context.Background(), intruder, created.CourseID, CourseInput{
		Name: "Calculus", Grade: "F", Credits: 1, Level: "Regular", GradeLevel: "12",
	})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound for foreign user, got %v", err)
	}
	if err := service.DeleteCourse(context.Background(), intruder, created.CourseID); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected delete to be scoped to owner, got %v", err)
	}
}

func TestBulkCreateCoursesUsesBulkWeighting(t *testing.T) {
	db := openTestDatabase(t, "academics_bulk")
	service := newTestService(t, db)
	userID, _ := NewUserID("user-1")

	created, errs, err := service.BulkCreateCourses(context.Background(), userID, []BulkCourseInput{
		{Name: "AP Physics", Grade: "B", Credits: 1, Level: BulkLevelAP, GradeLevel: "11"},
		{Name: "AP Statistics", Grade: "D", Credits: 1, Level: BulkLevelAP, GradeLevel: "11"},
	})
	if err != nil || errs.Any() {
		t.Fatalf("bulk create failed: %v %v", err, errs)
	}
	if len(created) != 2 {
		t.Fatalf("expected two courses, got %d", len(created))
	}
	if created[0].WeightedGradePoints != 4.0 {
		t.Fatalf("expected B at AP to weight to 4.0, got %v", created[0].WeightedGradePoints)
	}
	if created[1].WeightedGradePoints != 1.0 {
		t.Fatalf("expected D at AP to keep base points on the bulk path, got %v", created[1].WeightedGradePoints)
	}
	if created[0].Level != string(LevelAPIB) {
		t.Fatalf("expected bulk AP tier folded to stored enum, got %q", created[0].Level)
	}
}

func TestBulkCreateCoursesRejectsWholeBatchOnValidationFailure(t *testing.T) {
	db := openTestDatabase(t, "academics_bulk_reject")
	service := newTestService(t, db)
	userID, _ := NewUserID("user-1")

	_, errs, err := service.BulkCreateCourses(context.Background(), userID, []BulkCourseInput{
		{Name: "World History", Grade: "A", Credits: 1, Level: BulkLevelHonors, GradeLevel: "10"},
		{Name: "", Grade: "A", Credits: 1, Level: BulkLevelHonors, GradeLevel: "10"},
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	if !errs.Any() {
		t.Fatalf("expected validation errors for the second row")
	}

	var count int64
	if err := db.Model(&Course{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows persisted for a rejected batch, found %d", count)
	}
}

func TestPutManualGPAEnforcesPerScaleBounds(t *testing.T) {
	db := openTestDatabase(t, "academics_manual")
	service := newTestService(t, db)
	userID, _ := NewUserID("user-1")

	_, errs, err := service.PutManualGPA(context.Background(), userID, ManualGPAInput{
		Unweighted: 4.3,
		Weighted:   4.3,
		UCGPA:      4.3,
		UseManual:  true,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("expected only the unweighted figure to fail, got %v", errs)
	}
	if _, ok := errs["unweighted"]; !ok {
		t.Fatalf("expected unweighted bound failure, got %v", errs)
	}

	stored, errs, err := service.PutManualGPA(context.Background(), userID, ManualGPAInput{
		Unweighted: 3.8,
		Weighted:   4.3,
		UCGPA:      4.1,
		UseManual:  true,
	})
	if err != nil || errs.Any() {
		t.Fatalf("put failed: %v %v", err, errs)
	}
	if !stored.UseManual || stored.Weighted != 4.3 {
		t.Fatalf("unexpected stored override: %+v", stored)
	}

	// Second put must update the single row, never add another.
	if _, _, err := service.PutManualGPA(context.Background(), userID, ManualGPAInput{Unweighted: 3.9}); err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	var count int64
	if err := db.Model(&ManualGPA{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one manual gpa row, got %d", count)
	}
}

func TestSummaryAppliesManualOverride(t *testing.T) {
	db := openTestDatabase(t, "academics_summary")
	service := newTestService(t, db)
	userID, _ := NewUserID("user-1")

	if _, _, err := service.CreateCourse(context.Background(), userID, CourseInput{
		Name: "English", Grade: "C", Credits: 1, Level: "Regular", GradeLevel: "11",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	report, err := service.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if report.Summary.Unweighted != 2.0 {
		t.Fatalf("expected computed unweighted 2.0, got %v", report.Summary.Unweighted)
	}

	if _, _, err := service.PutManualGPA(context.Background(), userID, ManualGPAInput{
		Unweighted: 3.5, Weighted: 4.0, UCGPA: 3.9, UseManual: true,
	}); err != nil {
		t.Fatalf("manual put failed: %v", err)
	}

	report, err = service.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !report.Summary.Manual || report.Summary.Unweighted != 3.5 {
		t.Fatalf("expected manual override in summary, got %+v", report.Summary)
	}
	if len(report.Breakdown) != 4 {
		t.Fatalf("expected breakdown for all four grade levels, got %d", len(report.Breakdown))
	}
}

func TestTestScoreLifecycle(t *testing.T) {
	db := openTestDatabase(t, "academics_scores")
	service := newTestService(t, db)
	userID, _ := NewUserID("user-1")

	score, errs, err := service.CreateTestScore(context.Background(), userID, TestScoreInput{
		TestType: "SAT", Score: 1450, TestDate: "2025-10-04",
	})
	if err != nil || errs.Any() {
		t.Fatalf("create failed: %v %v", err, errs)
	}

	updated, errs, err := service.UpdateTestScore(context.Background(), userID, score.ScoreID, TestScoreInput{
		TestType: "SAT", Score: 1510, TestDate: "2025-12-06",
	})
	if err != nil || errs.Any() {
		t.Fatalf("update failed: %v %v", err, errs)
	}
	if updated.Score != 1510 {
		t.Fatalf("expected updated score, got %v", updated.Score)
	}

	scores, err := service.ListTestScores(context.Background(), userID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("expected one score, got %d", len(scores))
	}

	if err := service.DeleteTestScore(context.Background(), userID, score.ScoreID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := service.DeleteTestScore(context.Background(), userID, score.ScoreID); !errors.Is(err, ErrScoreNotFound) {
		t.Fatalf("expected ErrScoreNotFound on second delete, got %v", err)
	}
}
