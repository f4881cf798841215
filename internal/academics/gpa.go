package academics

import (
	"fmt"
	"math"
	"strings"
)

// gradePointTable maps letter grades to base points on the 4.0 scale.
var gradePointTable = map[string]float64{
	"A+": 4.0,
	"A":  4.0,
	"A-": 3.7,
	"B+": 3.3,
	"B":  3.0,
	"B-": 2.7,
	"C+": 2.3,
	"C":  2.0,
	"C-": 1.7,
	"D+": 1.3,
	"D":  1.0,
	"D-": 0.7,
	"F":  0.0,
}

// GradePoints converts a letter grade to its base 4.0-scale points.
func GradePoints(letterGrade string) (float64, error) {
	normalized := strings.ToUpper(strings.TrimSpace(letterGrade))
	points, ok := gradePointTable[normalized]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLetterGrade, letterGrade)
	}
	return points, nil
}

// LevelBonus returns the rigor bonus applied on the primary weighting path.
// The bonus is unconditional on the letter grade.
func LevelBonus(level CourseLevel) float64 {
	switch level {
	case LevelHonors:
		return 0.5
	case LevelAPIB, LevelCollege:
		return 1.0
	default:
		return 0
	}
}

// WeightedPoints computes the weighted points for the primary path:
// base points plus the level bonus, regardless of the letter grade.
func WeightedPoints(letterGrade string, level CourseLevel) (float64, error) {
	base, err := GradePoints(letterGrade)
	if err != nil {
		return 0, err
	}
	return base + LevelBonus(level), nil
}

// Bulk-entry rigor tiers. The bulk importer predates the consolidated level
// enum and still accepts the split AP and IB designations.
const (
	BulkLevelHonors  = "Honors"
	BulkLevelAP      = "AP"
	BulkLevelIBHL    = "IB HL"
	BulkLevelIBSL    = "IB SL"
	BulkLevelCollege = "College"
)

// BulkWeightedPoints computes weighted points for the bulk-entry path. This
// path differs from WeightedPoints on purpose: the bonus applies only to A,
// B and C letter families, so D and F grades never receive a rigor bonus.
func BulkWeightedPoints(letterGrade, bulkLevel string) (float64, error) {
	base, err := GradePoints(letterGrade)
	if err != nil {
		return 0, err
	}

	letterFamily := strings.ToUpper(strings.TrimSpace(letterGrade))
	if letterFamily == "" {
		return base, nil
	}
	switch letterFamily[0] {
	case 'A', 'B', 'C':
	default:
		return base, nil
	}

	switch strings.TrimSpace(bulkLevel) {
	case BulkLevelHonors:
		return base + 0.5, nil
	case BulkLevelAP, BulkLevelIBHL, BulkLevelIBSL, BulkLevelCollege:
		return base + 1.0, nil
	default:
		return base, nil
	}
}

// courseLevelForBulk folds the bulk-entry rigor tiers onto the stored enum.
func courseLevelForBulk(bulkLevel string) CourseLevel {
	switch strings.TrimSpace(bulkLevel) {
	case BulkLevelHonors:
		return LevelHonors
	case BulkLevelAP, BulkLevelIBHL, BulkLevelIBSL:
		return LevelAPIB
	case BulkLevelCollege:
		return LevelCollege
	default:
		return LevelRegular
	}
}

// Summary aggregates a user's course list into the three cumulative figures.
type Summary struct {
	Unweighted float64
	Weighted   float64
	UCGPA      float64
	Manual     bool
}

// LevelBreakdown carries the per-grade-level averages. HasCourses
// distinguishes "no data" from a genuine zero GPA.
type LevelBreakdown struct {
	GradeLevel string
	Unweighted float64
	Weighted   float64
	HasCourses bool
}

// creditWeightedAverage computes sum(points*credits)/sum(credits) over the
// supplied courses. Zero total credits yields exactly 0, never NaN.
func creditWeightedAverage(courses []Course, weighted bool) float64 {
	var totalPoints, totalCredits float64
	for _, course := range courses {
		points := course.GradePoints
		if weighted {
			points = course.WeightedGradePoints
		}
		totalPoints += points * course.Credits
		totalCredits += course.Credits
	}
	if totalCredits == 0 {
		return 0
	}
	return totalPoints / totalCredits
}

// Cumulative computes the three GPA variants over the course list. When the
// manual override is active it wins outright, regardless of the courses.
func Cumulative(courses []Course, manual *ManualGPA) Summary {
	if manual != nil && manual.UseManual {
		return Summary{
			Unweighted: manual.Unweighted,
			Weighted:   manual.Weighted,
			UCGPA:      manual.UCGPA,
			Manual:     true,
		}
	}

	return Summary{
		Unweighted: creditWeightedAverage(courses, false),
		Weighted:   creditWeightedAverage(courses, true),
		UCGPA:      creditWeightedAverage(excludeFreshman(courses), true),
	}
}

// UnweightedGPA returns the cumulative unweighted figure.
func UnweightedGPA(courses []Course, manual *ManualGPA) float64 {
	if manual != nil && manual.UseManual {
		return manual.Unweighted
	}
	return creditWeightedAverage(courses, false)
}

// WeightedGPA returns the cumulative weighted figure over all grade levels.
func WeightedGPA(courses []Course, manual *ManualGPA) float64 {
	if manual != nil && manual.UseManual {
		return manual.Weighted
	}
	return creditWeightedAverage(courses, true)
}

// UCGPA returns the weighted figure restricted to grades 10-12, per the
// University-of-California recalculation convention.
func UCGPA(courses []Course, manual *ManualGPA) float64 {
	if manual != nil && manual.UseManual {
		return manual.UCGPA
	}
	return creditWeightedAverage(excludeFreshman(courses), true)
}

func excludeFreshman(courses []Course) []Course {
	filtered := make([]Course, 0, len(courses))
	for _, course := range courses {
		if course.GradeLevel == GradeLevelFreshman {
			continue
		}
		filtered = append(filtered, course)
	}
	return filtered
}

// Breakdown computes independent credit-weighted averages per grade level
// 9-12, in ascending order. Levels without courses report HasCourses=false.
func Breakdown(courses []Course) []LevelBreakdown {
	levels := []string{GradeLevelFreshman, GradeLevelSophomore, GradeLevelJunior, GradeLevelSenior}
	breakdown := make([]LevelBreakdown, 0, len(levels))
	for _, level := range levels {
		var scoped []Course
		for _, course := range courses {
			if course.GradeLevel == level {
				scoped = append(scoped, course)
			}
		}
		entry := LevelBreakdown{GradeLevel: level, HasCourses: len(scoped) > 0}
		if entry.HasCourses {
			entry.Unweighted = creditWeightedAverage(scoped, false)
			entry.Weighted = creditWeightedAverage(scoped, true)
		}
		breakdown = append(breakdown, entry)
	}
	return breakdown
}

// FormatGPA rounds a figure to two decimals for display.
func FormatGPA(value float64) string {
	return fmt.Sprintf("%.2f", math.Round(value*100)/100)
}
