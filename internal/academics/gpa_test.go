package academics

import (
	"math"
	"testing"
)

func mustCourse(t *testing.T, grade string, level CourseLevel, gradeLevel string, credits float64) Course {
	t.Helper()
	base, err := GradePoints(grade)
	if err != nil {
		t.Fatalf("unexpected grade error: %v", err)
	}
	weighted, err := WeightedPoints(grade, level)
	if err != nil {
		t.Fatalf("unexpected weighting error: %v", err)
	}
	return Course{
		Grade:               grade,
		Level:               string(level),
		GradeLevel:          gradeLevel,
		Credits:             credits,
		GradePoints:         base,
		WeightedGradePoints: weighted,
	}
}

func TestGradePointTable(t *testing.T) {
	tests := []struct {
		grade    string
		expected float64
	}{
		{grade: "A+", expected: 4.0},
		{grade: "A", expected: 4.0},
		{grade: "A-", expected: 3.7},
		{grade: "B+", expected: 3.3},
		{grade: "B", expected: 3.0},
		{grade: "B-", expected: 2.7},
		{grade: "C+", expected: 2.3},
		{grade: "C", expected: 2.0},
		{grade: "C-", expected: 1.7},
		{grade: "D+", expected: 1.3},
		{grade: "D", expected: 1.0},
		{grade: "D-", expected: 0.7},
		{grade: "F", expected: 0.0},
		{grade: " b ", expected: 3.0},
	}
	for _, tc := range tests {
		points, err := GradePoints(tc.grade)
		if err != nil {
			t.Fatalf("GradePoints(%q) returned error: %v", tc.grade, err)
		}
		if points != tc.expected {
			t.Fatalf("GradePoints(%q) = %v, want %v", tc.grade, points, tc.expected)
		}
	}

	if _, err := GradePoints("E"); err == nil {
		t.Fatalf("expected unknown letter grade to be rejected")
	}
}

func TestWeightedPointsAppliesLevelBonus(t *testing.T) {
	tests := []struct {
		level    CourseLevel
		expected float64
	}{
		{level: LevelRegular, expected: 3.0},
		{level: LevelHonors, expected: 3.5},
		{level: LevelAPIB, expected: 4.0},
		{level: LevelCollege, expected: 4.0},
	}
	for _, tc := range tests {
		points, err := WeightedPoints("B", tc.level)
		if err != nil {
			t.Fatalf("unexpected error for level %q: %v", tc.level, err)
		}
		if points != tc.expected {
			t.Fatalf("WeightedPoints(B, %q) = %v, want %v", tc.level, points, tc.expected)
		}
	}
}

func TestWeightedPointsBonusIgnoresLetterGrade(t *testing.T) {
	// The primary path grants the bonus even for failing grades.
	points, err := WeightedPoints("F", LevelAPIB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points != 1.0 {
		t.Fatalf("expected F at AP/IB to weight to 1.0, got %v", points)
	}
}

func TestBulkWeightedPointsSuppressesBonusForDAndF(t *testing.T) {
	tests := []struct {
		grade    string
		level    string
		expected float64
	}{
		{grade: "A", level: BulkLevelAP, expected: 5.0},
		{grade: "B+", level: BulkLevelIBHL, expected: 4.3},
		{grade: "C-", level: BulkLevelCollege, expected: 2.7},
		{grade: "B", level: BulkLevelHonors, expected: 3.5},
		{grade: "D", level: BulkLevelAP, expected: 1.0},
		{grade: "D+", level: BulkLevelHonors, expected: 1.3},
		{grade: "F", level: BulkLevelIBSL, expected: 0.0},
		{grade: "A", level: "Regular", expected: 4.0},
	}
	for _, tc := range tests {
		points, err := BulkWeightedPoints(tc.grade, tc.level)
		if err != nil {
			t.Fatalf("unexpected error for %q/%q: %v", tc.grade, tc.level, err)
		}
		if math.Abs(points-tc.expected) > 1e-9 {
			t.Fatalf("BulkWeightedPoints(%q, %q) = %v, want %v", tc.grade, tc.level, points, tc.expected)
		}
	}
}

func TestCumulativeZeroCreditsYieldsZero(t *testing.T) {
	summary := Cumulative(nil, nil)
	if summary.Unweighted != 0 || summary.Weighted != 0 || summary.UCGPA != 0 {
		t.Fatalf("expected empty course list to yield zeros, got %+v", summary)
	}

	zeroCredit := mustCourse(t, "A", LevelRegular, GradeLevelJunior, 0)
	summary = Cumulative([]Course{zeroCredit}, nil)
	if summary.Unweighted != 0 || summary.Weighted != 0 || summary.UCGPA != 0 {
		t.Fatalf("expected zero total credits to yield zeros, got %+v", summary)
	}
	if math.IsNaN(summary.Unweighted) {
		t.Fatalf("zero-credit aggregation must not produce NaN")
	}
}

func TestCumulativeCreditWeightedAverage(t *testing.T) {
	courses := []Course{
		mustCourse(t, "A", LevelRegular, GradeLevelJunior, 1.0),
		mustCourse(t, "C", LevelRegular, GradeLevelJunior, 2.0),
	}
	summary := Cumulative(courses, nil)
	expected := (4.0*1.0 + 2.0*2.0) / 3.0
	if math.Abs(summary.Unweighted-expected) > 1e-9 {
		t.Fatalf("unweighted = %v, want %v", summary.Unweighted, expected)
	}
	if FormatGPA(summary.Unweighted) != "2.67" {
		t.Fatalf("expected display rounding to 2.67, got %s", FormatGPA(summary.Unweighted))
	}
}

func TestUCGPAExcludesFreshmanCourses(t *testing.T) {
	courses := []Course{
		mustCourse(t, "A", LevelRegular, GradeLevelFreshman, 1.0),
		mustCourse(t, "C", LevelHonors, GradeLevelJunior, 1.0),
	}
	summary := Cumulative(courses, nil)
	if summary.UCGPA != 2.5 {
		t.Fatalf("expected UC GPA to equal the junior course weighted points (2.5), got %v", summary.UCGPA)
	}
	// The all-years weighted figure still counts the freshman course.
	if summary.Weighted != (4.0+2.5)/2.0 {
		t.Fatalf("expected weighted GPA over both courses, got %v", summary.Weighted)
	}
}

func TestManualOverrideWinsForAllVariants(t *testing.T) {
	courses := []Course{
		mustCourse(t, "F", LevelRegular, GradeLevelSenior, 4.0),
	}
	manual := &ManualGPA{Unweighted: 3.9, Weighted: 4.4, UCGPA: 4.2, UseManual: true}

	if got := UnweightedGPA(courses, manual); got != 3.9 {
		t.Fatalf("unweighted override = %v, want 3.9", got)
	}
	if got := WeightedGPA(courses, manual); got != 4.4 {
		t.Fatalf("weighted override = %v, want 4.4", got)
	}
	if got := UCGPA(courses, manual); got != 4.2 {
		t.Fatalf("uc override = %v, want 4.2", got)
	}

	summary := Cumulative(courses, manual)
	if !summary.Manual || summary.Unweighted != 3.9 || summary.Weighted != 4.4 || summary.UCGPA != 4.2 {
		t.Fatalf("expected manual summary, got %+v", summary)
	}

	manual.UseManual = false
	if got := UnweightedGPA(courses, manual); got != 0 {
		t.Fatalf("expected computed figure when override disabled, got %v", got)
	}
}

func TestBreakdownDistinguishesNoDataFromZero(t *testing.T) {
	courses := []Course{
		mustCourse(t, "F", LevelRegular, GradeLevelSophomore, 1.0),
		mustCourse(t, "B", LevelHonors, GradeLevelJunior, 1.0),
	}
	breakdown := Breakdown(courses)
	if len(breakdown) != 4 {
		t.Fatalf("expected four grade levels, got %d", len(breakdown))
	}

	byLevel := map[string]LevelBreakdown{}
	for _, entry := range breakdown {
		byLevel[entry.GradeLevel] = entry
	}

	if byLevel[GradeLevelFreshman].HasCourses {
		t.Fatalf("expected freshman year to report no data")
	}
	sophomore := byLevel[GradeLevelSophomore]
	if !sophomore.HasCourses || sophomore.Unweighted != 0 {
		t.Fatalf("expected sophomore year to report a genuine zero GPA, got %+v", sophomore)
	}
	junior := byLevel[GradeLevelJunior]
	if !junior.HasCourses || junior.Unweighted != 3.0 || junior.Weighted != 3.5 {
		t.Fatalf("unexpected junior breakdown: %+v", junior)
	}
}
