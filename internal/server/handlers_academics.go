package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waypointhq/waypoint/backend/internal/academics"
	"go.uber.org/zap"
)

type coursePayload struct {
	Name       string  `json:"name"`
	Grade      string  `json:"grade"`
	Credits    float64 `json:"credits"`
	Level      string  `json:"level"`
	GradeLevel string  `json:"grade_level"`
	Term       string  `json:"term"`
}

type courseResponsePayload struct {
	CourseID            string  `json:"course_id"`
	Name                string  `json:"name"`
	Grade               string  `json:"grade"`
	Credits             float64 `json:"credits"`
	Level               string  `json:"level"`
	GradeLevel          string  `json:"grade_level"`
	Term                string  `json:"term"`
	GradePoints         float64 `json:"grade_points"`
	WeightedGradePoints float64 `json:"weighted_grade_points"`
}

func courseResponse(course academics.Course) courseResponsePayload {
	return courseResponsePayload{
		CourseID:            course.CourseID,
		Name:                course.Name,
		Grade:               course.Grade,
		Credits:             course.Credits,
		Level:               course.Level,
		GradeLevel:          course.GradeLevel,
		Term:                course.Term,
		GradePoints:         course.GradePoints,
		WeightedGradePoints: course.WeightedGradePoints,
	}
}

func (h *httpHandler) academicsUserID(c *gin.Context) (academics.UserID, bool) {
	raw, ok := h.requireUserID(c)
	if !ok {
		return "", false
	}
	userID, err := academics.NewUserID(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

func (h *httpHandler) handleListCourses(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	courses, err := h.academics.ListCourses(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list courses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]courseResponsePayload, 0, len(courses))
	for _, course := range courses {
		response = append(response, courseResponse(course))
	}
	c.JSON(http.StatusOK, gin.H{"courses": response})
}

func (h *httpHandler) handleCreateCourse(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	var request coursePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	course, errs, err := h.academics.CreateCourse(c.Request.Context(), userID, academics.CourseInput{
		Name:       request.Name,
		Grade:      request.Grade,
		Credits:    request.Credits,
		Level:      request.Level,
		GradeLevel: request.GradeLevel,
		Term:       request.Term,
	})
	if err != nil {
		h.logger.Error("failed to create course", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusCreated, courseResponse(course))
}

type bulkCoursesPayload struct {
	Courses []coursePayload `json:"courses"`
}

func (h *httpHandler) handleBulkCreateCourses(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	var request bulkCoursesPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Courses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	inputs := make([]academics.BulkCourseInput, 0, len(request.Courses))
	for _, row := range request.Courses {
		inputs = append(inputs, academics.BulkCourseInput{
			Name:       row.Name,
			Grade:      row.Grade,
			Credits:    row.Credits,
			Level:      row.Level,
			GradeLevel: row.GradeLevel,
			Term:       row.Term,
		})
	}
	created, errs, err := h.academics.BulkCreateCourses(c.Request.Context(), userID, inputs)
	if err != nil {
		h.logger.Error("failed to bulk create courses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	response := make([]courseResponsePayload, 0, len(created))
	for _, course := range created {
		response = append(response, courseResponse(course))
	}
	c.JSON(http.StatusCreated, gin.H{"courses": response})
}

func (h *httpHandler) handleUpdateCourse(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	var request coursePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	course, errs, err := h.academics.UpdateCourse(c.Request.Context(), userID, c.Param("id"), academics.CourseInput{
		Name:       request.Name,
		Grade:      request.Grade,
		Credits:    request.Credits,
		Level:      request.Level,
		GradeLevel: request.GradeLevel,
		Term:       request.Term,
	})
	if errors.Is(err, academics.ErrCourseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update course", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusOK, courseResponse(course))
}

func (h *httpHandler) handleDeleteCourse(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	err := h.academics.DeleteCourse(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, academics.ErrCourseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete course", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

type gpaBreakdownPayload struct {
	GradeLevel string `json:"grade_level"`
	Unweighted string `json:"unweighted"`
	Weighted   string `json:"weighted"`
}

func (h *httpHandler) handleGPASummary(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	report, err := h.academics.Summary(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to compute gpa summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "summary_failed"})
		return
	}

	breakdown := make([]gpaBreakdownPayload, 0, len(report.Breakdown))
	for _, level := range report.Breakdown {
		entry := gpaBreakdownPayload{GradeLevel: level.GradeLevel, Unweighted: "N/A", Weighted: "N/A"}
		if level.HasCourses {
			entry.Unweighted = academics.FormatGPA(level.Unweighted)
			entry.Weighted = academics.FormatGPA(level.Weighted)
		}
		breakdown = append(breakdown, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"unweighted": academics.FormatGPA(report.Summary.Unweighted),
		"weighted":   academics.FormatGPA(report.Summary.Weighted),
		"uc_gpa":     academics.FormatGPA(report.Summary.UCGPA),
		"manual":     report.Summary.Manual,
		"breakdown":  breakdown,
	})
}

type manualGPAPayload struct {
	Unweighted float64 `json:"unweighted"`
	Weighted   float64 `json:"weighted"`
	UCGPA      float64 `json:"uc_gpa"`
	UseManual  bool    `json:"use_manual"`
}

func (h *httpHandler) handleGetManualGPA(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	manual, err := h.academics.GetManualGPA(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load manual gpa", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	if manual == nil {
		c.JSON(http.StatusOK, gin.H{"manual": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"manual": manualGPAPayload{
		Unweighted: manual.Unweighted,
		Weighted:   manual.Weighted,
		UCGPA:      manual.UCGPA,
		UseManual:  manual.UseManual,
	}})
}

func (h *httpHandler) handlePutManualGPA(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	var request manualGPAPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	manual, errs, err := h.academics.PutManualGPA(c.Request.Context(), userID, academics.ManualGPAInput{
		Unweighted: request.Unweighted,
		Weighted:   request.Weighted,
		UCGPA:      request.UCGPA,
		UseManual:  request.UseManual,
	})
	if err != nil {
		h.logger.Error("failed to save manual gpa", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusOK, gin.H{"manual": manualGPAPayload{
		Unweighted: manual.Unweighted,
		Weighted:   manual.Weighted,
		UCGPA:      manual.UCGPA,
		UseManual:  manual.UseManual,
	}})
}

type testScorePayload struct {
	TestType string  `json:"test_type"`
	Subject  string  `json:"subject"`
	Score    float64 `json:"score"`
	TestDate string  `json:"test_date"`
}

type testScoreResponsePayload struct {
	ScoreID  string  `json:"score_id"`
	TestType string  `json:"test_type"`
	Subject  string  `json:"subject"`
	Score    float64 `json:"score"`
	TestDate string  `json:"test_date"`
}

func testScoreResponse(score academics.TestScore) testScoreResponsePayload {
	return testScoreResponsePayload{
		ScoreID:  score.ScoreID,
		TestType: score.TestType,
		Subject:  score.Subject,
		Score:    score.Score,
		TestDate: score.TestDate,
	}
}

func (h *httpHandler) handleListTestScores(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	scores, err := h.academics.ListTestScores(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list test scores", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]testScoreResponsePayload, 0, len(scores))
	for _, score := range scores {
		response = append(response, testScoreResponse(score))
	}
	c.JSON(http.StatusOK, gin.H{"scores": response})
}

func (h *httpHandler) handleCreateTestScore(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	var request testScorePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	score, errs, err := h.academics.CreateTestScore(c.Request.Context(), userID, academics.TestScoreInput{
		TestType: request.TestType,
		Subject:  request.Subject,
		Score:    request.Score,
		TestDate: request.TestDate,
	})
	if err != nil {
		h.logger.Error("failed to create test score", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusCreated, testScoreResponse(score))
}

func (h *httpHandler) handleUpdateTestScore(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	var request testScorePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	score, errs, err := h.academics.UpdateTestScore(c.Request.Context(), userID, c.Param("id"), academics.TestScoreInput{
		TestType: request.TestType,
		Subject:  request.Subject,
		Score:    request.Score,
		TestDate: request.TestDate,
	})
	if errors.Is(err, academics.ErrScoreNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update test score", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusOK, testScoreResponse(score))
}

func (h *httpHandler) handleDeleteTestScore(c *gin.Context) {
	userID, ok := h.academicsUserID(c)
	if !ok {
		return
	}
	err := h.academics.DeleteTestScore(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, academics.ErrScoreNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete test score", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
