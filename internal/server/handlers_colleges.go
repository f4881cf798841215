package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/waypointhq/waypoint/backend/internal/colleges"
	"go.uber.org/zap"
)

type collegeEntryPayload struct {
	CollegeID       string     `json:"college_id"`
	Status          string     `json:"status"`
	ApplicationType string     `json:"application_type"`
	Deadline        *time.Time `json:"deadline"`
	Notes           string     `json:"notes"`
}

type catalogResponsePayload struct {
	CollegeID      string  `json:"college_id"`
	Name           string  `json:"name"`
	Location       string  `json:"location"`
	Type           string  `json:"type"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	TuitionInState float64 `json:"tuition_in_state"`
	TuitionOutOf   float64 `json:"tuition_out_of_state"`
}

type collegeEntryResponsePayload struct {
	EntryID         string                 `json:"entry_id"`
	Status          string                 `json:"status"`
	ApplicationType string                 `json:"application_type"`
	Deadline        *time.Time             `json:"deadline"`
	Notes           string                 `json:"notes"`
	College         catalogResponsePayload `json:"college"`
}

func catalogResponse(college colleges.College) catalogResponsePayload {
	return catalogResponsePayload{
		CollegeID:      college.CollegeID,
		Name:           college.Name,
		Location:       college.Location,
		Type:           college.Type,
		AcceptanceRate: college.AcceptanceRate,
		TuitionInState: college.TuitionInState,
		TuitionOutOf:   college.TuitionOutOf,
	}
}

func collegeEntryResponse(entry colleges.ListEntry) collegeEntryResponsePayload {
	return collegeEntryResponsePayload{
		EntryID:         entry.Entry.EntryID,
		Status:          entry.Entry.Status,
		ApplicationType: entry.Entry.ApplicationType,
		Deadline:        entry.Entry.Deadline,
		Notes:           entry.Entry.Notes,
		College:         catalogResponse(entry.College),
	}
}

func (h *httpHandler) handleSearchColleges(c *gin.Context) {
	if _, ok := h.requireUserID(c); !ok {
		return
	}
	results, err := h.colleges.SearchCatalog(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("failed to search catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]catalogResponsePayload, 0, len(results))
	for _, college := range results {
		response = append(response, catalogResponse(college))
	}
	c.JSON(http.StatusOK, gin.H{"colleges": response})
}

func (h *httpHandler) handleListColleges(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	entries, err := h.colleges.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list college entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]collegeEntryResponsePayload, 0, len(entries))
	for _, entry := range entries {
		response = append(response, collegeEntryResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"entries": response})
}

func (h *httpHandler) handleAddCollege(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request collegeEntryPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	entry, errs, err := h.colleges.AddEntry(c.Request.Context(), userID, colleges.EntryInput{
		CollegeID:       request.CollegeID,
		Status:          request.Status,
		ApplicationType: request.ApplicationType,
		Deadline:        request.Deadline,
		Notes:           request.Notes,
	})
	if errors.Is(err, colleges.ErrCollegeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "college_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to add college entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusCreated, collegeEntryResponse(entry))
}

func (h *httpHandler) handleUpdateCollege(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request collegeEntryPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	entry, errs, err := h.colleges.UpdateEntry(c.Request.Context(), userID, c.Param("id"), colleges.EntryInput{
		CollegeID:       request.CollegeID,
		Status:          request.Status,
		ApplicationType: request.ApplicationType,
		Deadline:        request.Deadline,
		Notes:           request.Notes,
	})
	if errors.Is(err, colleges.ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update college entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entry_id":         entry.EntryID,
		"status":           entry.Status,
		"application_type": entry.ApplicationType,
		"deadline":         entry.Deadline,
		"notes":            entry.Notes,
	})
}

func (h *httpHandler) handleRemoveCollege(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	err := h.colleges.RemoveEntry(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, colleges.ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to remove college entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
