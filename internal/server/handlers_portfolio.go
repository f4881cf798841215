package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waypointhq/waypoint/backend/internal/portfolio"
	"go.uber.org/zap"
)

type activityPayload struct {
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Organization string  `json:"organization"`
	GradeLevels  string  `json:"grade_levels"`
	HoursPerWeek float64 `json:"hours_per_week"`
	WeeksPerYear float64 `json:"weeks_per_year"`
	Description  string  `json:"description"`
}

type activityResponsePayload struct {
	ActivityID   string  `json:"activity_id"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Organization string  `json:"organization"`
	GradeLevels  string  `json:"grade_levels"`
	HoursPerWeek float64 `json:"hours_per_week"`
	WeeksPerYear float64 `json:"weeks_per_year"`
	Description  string  `json:"description"`
}

func activityResponse(activity portfolio.Extracurricular) activityResponsePayload {
	return activityResponsePayload{
		ActivityID:   activity.ActivityID,
		Name:         activity.Name,
		Role:         activity.Role,
		Organization: activity.Organization,
		GradeLevels:  activity.GradeLevels,
		HoursPerWeek: activity.HoursPerWeek,
		WeeksPerYear: activity.WeeksPerYear,
		Description:  activity.Description,
	}
}

func (h *httpHandler) handleListActivities(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	activities, err := h.portfolio.ListActivities(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list activities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]activityResponsePayload, 0, len(activities))
	for _, activity := range activities {
		response = append(response, activityResponse(activity))
	}
	c.JSON(http.StatusOK, gin.H{"activities": response})
}

func (h *httpHandler) saveActivity(c *gin.Context, activityID string) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request activityPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	activity, errs, err := h.portfolio.SaveActivity(c.Request.Context(), userID, activityID, portfolio.ActivityInput{
		Name:         request.Name,
		Role:         request.Role,
		Organization: request.Organization,
		GradeLevels:  request.GradeLevels,
		HoursPerWeek: request.HoursPerWeek,
		WeeksPerYear: request.WeeksPerYear,
		Description:  request.Description,
	})
	if errors.Is(err, portfolio.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to save activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	status := http.StatusOK
	if activityID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, activityResponse(activity))
}

func (h *httpHandler) handleSaveActivity(c *gin.Context) {
	h.saveActivity(c, "")
}

func (h *httpHandler) handleUpdateActivity(c *gin.Context) {
	h.saveActivity(c, c.Param("id"))
}

func (h *httpHandler) handleDeleteActivity(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	err := h.portfolio.DeleteActivity(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, portfolio.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

type awardPayload struct {
	Title       string `json:"title"`
	Level       string `json:"level"`
	GradeLevel  string `json:"grade_level"`
	Description string `json:"description"`
}

type awardResponsePayload struct {
	AwardID     string `json:"award_id"`
	Title       string `json:"title"`
	Level       string `json:"level"`
	GradeLevel  string `json:"grade_level"`
	Description string `json:"description"`
}

func awardResponse(award portfolio.Award) awardResponsePayload {
	return awardResponsePayload{
		AwardID:     award.AwardID,
		Title:       award.Title,
		Level:       award.Level,
		GradeLevel:  award.GradeLevel,
		Description: award.Description,
	}
}

func (h *httpHandler) handleListAwards(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	awards, err := h.portfolio.ListAwards(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list awards", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]awardResponsePayload, 0, len(awards))
	for _, award := range awards {
		response = append(response, awardResponse(award))
	}
	c.JSON(http.StatusOK, gin.H{"awards": response})
}

func (h *httpHandler) saveAward(c *gin.Context, awardID string) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request awardPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	award, errs, err := h.portfolio.SaveAward(c.Request.Context(), userID, awardID, portfolio.AwardInput{
		Title:       request.Title,
		Level:       request.Level,
		GradeLevel:  request.GradeLevel,
		Description: request.Description,
	})
	if errors.Is(err, portfolio.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to save award", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	status := http.StatusOK
	if awardID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, awardResponse(award))
}

func (h *httpHandler) handleSaveAward(c *gin.Context) {
	h.saveAward(c, "")
}

func (h *httpHandler) handleUpdateAward(c *gin.Context) {
	h.saveAward(c, c.Param("id"))
}

func (h *httpHandler) handleDeleteAward(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	err := h.portfolio.DeleteAward(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, portfolio.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete award", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

type essayPayload struct {
	Title   string `json:"title"`
	Prompt  string `json:"prompt"`
	Content string `json:"content"`
}

type essayResponsePayload struct {
	EssayID   string `json:"essay_id"`
	Title     string `json:"title"`
	Prompt    string `json:"prompt"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

func essayResponse(essay portfolio.Essay) essayResponsePayload {
	return essayResponsePayload{
		EssayID:   essay.EssayID,
		Title:     essay.Title,
		Prompt:    essay.Prompt,
		Content:   essay.Content,
		WordCount: essay.WordCount,
	}
}

func (h *httpHandler) handleListEssays(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	essays, err := h.portfolio.ListEssays(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list essays", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]essayResponsePayload, 0, len(essays))
	for _, essay := range essays {
		response = append(response, essayResponse(essay))
	}
	c.JSON(http.StatusOK, gin.H{"essays": response})
}

func (h *httpHandler) saveEssay(c *gin.Context, essayID string) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request essayPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	essay, errs, err := h.portfolio.SaveEssay(c.Request.Context(), userID, essayID, portfolio.EssayInput{
		Title:   request.Title,
		Prompt:  request.Prompt,
		Content: request.Content,
	})
	if errors.Is(err, portfolio.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to save essay", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	status := http.StatusOK
	if essayID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, essayResponse(essay))
}

func (h *httpHandler) handleSaveEssay(c *gin.Context) {
	h.saveEssay(c, "")
}

func (h *httpHandler) handleUpdateEssay(c *gin.Context) {
	h.saveEssay(c, c.Param("id"))
}

type essayDraftPayload struct {
	Content string `json:"content"`
}

// handleSaveEssayDraft accepts the draft immediately and defers the
// persist through the debouncer, so rapid keystrokes collapse into one
// write. Without a debouncer configured it persists inline.
func (h *httpHandler) handleSaveEssayDraft(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	essayID := c.Param("id")
	var request essayDraftPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if h.debouncer == nil {
		err := h.portfolio.SaveEssayDraft(c.Request.Context(), userID, essayID, request.Content)
		if errors.Is(err, portfolio.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		if err != nil {
			h.logger.Error("failed to save essay draft", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "saved"})
		return
	}

	content := request.Content
	h.debouncer.Schedule("essay:"+userID+":"+essayID, func() error {
		return h.portfolio.SaveEssayDraft(context.Background(), userID, essayID, content)
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
}

func (h *httpHandler) handleDeleteEssay(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	err := h.portfolio.DeleteEssay(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, portfolio.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete essay", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
