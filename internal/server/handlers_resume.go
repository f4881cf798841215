package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waypointhq/waypoint/backend/internal/resume"
	"go.uber.org/zap"
)

type resumePayload struct {
	Title   string         `json:"title"`
	Content resume.Content `json:"content"`
}

type resumeResponsePayload struct {
	ResumeID string         `json:"resume_id"`
	Title    string         `json:"title"`
	Content  resume.Content `json:"content"`
}

type resumeSummaryPayload struct {
	ResumeID string `json:"resume_id"`
	Title    string `json:"title"`
}

func (h *httpHandler) handleListResumes(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.resumes.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list resumes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	response := make([]resumeSummaryPayload, 0, len(rows))
	for _, row := range rows {
		response = append(response, resumeSummaryPayload{ResumeID: row.ResumeID, Title: row.Title})
	}
	c.JSON(http.StatusOK, gin.H{"resumes": response})
}

func (h *httpHandler) handleCreateResume(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request resumePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	created, errs, err := h.resumes.Create(c.Request.Context(), userID, request.Title, request.Content)
	if err != nil {
		h.logger.Error("failed to create resume", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusCreated, resumeResponsePayload{
		ResumeID: created.ResumeID,
		Title:    created.Title,
		Content:  request.Content,
	})
}

func (h *httpHandler) handleGetResume(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	row, content, err := h.resumes.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, resume.ErrResumeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load resume", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	c.JSON(http.StatusOK, resumeResponsePayload{
		ResumeID: row.ResumeID,
		Title:    row.Title,
		Content:  content,
	})
}

func (h *httpHandler) handleUpdateResume(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request resumePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	updated, errs, err := h.resumes.Update(c.Request.Context(), userID, c.Param("id"), request.Title, request.Content)
	if errors.Is(err, resume.ErrResumeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update resume", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	if errs.Any() {
		respondValidation(c, errs)
		return
	}
	c.JSON(http.StatusOK, resumeResponsePayload{
		ResumeID: updated.ResumeID,
		Title:    updated.Title,
		Content:  request.Content,
	})
}

type resumeDraftPayload struct {
	Content resume.Content `json:"content"`
}

// handleSaveResumeDraft mirrors the essay draft flow: accept now,
// persist through the debouncer.
func (h *httpHandler) handleSaveResumeDraft(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	resumeID := c.Param("id")
	var request resumeDraftPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if h.debouncer == nil {
		err := h.resumes.SaveDraft(c.Request.Context(), userID, resumeID, request.Content)
		if errors.Is(err, resume.ErrResumeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		if err != nil {
			h.logger.Error("failed to save resume draft", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "saved"})
		return
	}

	content := request.Content
	h.debouncer.Schedule("resume:"+userID+":"+resumeID, func() error {
		return h.resumes.SaveDraft(context.Background(), userID, resumeID, content)
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
}

func (h *httpHandler) handleDeleteResume(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	err := h.resumes.Delete(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, resume.ErrResumeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete resume", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleExportResumePDF(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	row, content, err := h.resumes.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, resume.ErrResumeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load resume for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", row.Title+".pdf"))
	c.Status(http.StatusOK)
	if err := resume.ExportPDF(row.Title, content, c.Writer); err != nil {
		h.logger.Error("pdf export failed", zap.Error(err))
	}
}

func (h *httpHandler) handleExportResumeDOCX(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	row, content, err := h.resumes.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, resume.ErrResumeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load resume for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", row.Title+".docx"))
	c.Status(http.StatusOK)
	if err := resume.ExportDOCX(row.Title, content, c.Writer); err != nil {
		h.logger.Error("docx export failed", zap.Error(err))
	}
}
