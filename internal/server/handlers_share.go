package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/waypointhq/waypoint/backend/internal/academics"
	"github.com/waypointhq/waypoint/backend/internal/sharing"
	"go.uber.org/zap"
)

type shareLinkPayload struct {
	ContentType string           `json:"content_type"`
	ContentID   *string          `json:"content_id"`
	IsPublic    *bool            `json:"is_public"`
	ExpiresAt   *time.Time       `json:"expires_at"`
	Settings    sharing.Settings `json:"settings"`
}

type shareLinkResponsePayload struct {
	ShareID     string     `json:"share_id"`
	ContentType string     `json:"content_type"`
	ContentID   *string    `json:"content_id"`
	IsPublic    bool       `json:"is_public"`
	ExpiresAt   *time.Time `json:"expires_at"`
	URL         string     `json:"url"`
}

func (h *httpHandler) shareLinkResponse(link sharing.ShareLink) shareLinkResponsePayload {
	return shareLinkResponsePayload{
		ShareID:     link.ShareID,
		ContentType: link.ContentType,
		ContentID:   link.ContentID,
		IsPublic:    link.IsPublic,
		ExpiresAt:   link.ExpiresAt,
		URL:         h.sharing.ShareURL(link),
	}
}

func (h *httpHandler) handleUpsertShareLink(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var request shareLinkPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	contentType, err := sharing.ParseContentType(request.ContentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_content_type"})
		return
	}

	// Links default to public; an explicit false switches them off.
	isPublic := true
	if request.IsPublic != nil {
		isPublic = *request.IsPublic
	}

	link, err := h.sharing.Upsert(c.Request.Context(), userID, contentType, request.ContentID, sharing.UpsertInput{
		IsPublic:  isPublic,
		ExpiresAt: request.ExpiresAt,
		Settings:  request.Settings,
	})
	if err != nil {
		h.logger.Error("failed to upsert share link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}
	c.JSON(http.StatusOK, h.shareLinkResponse(link))
}

func (h *httpHandler) handleGetShareLink(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	contentType, err := sharing.ParseContentType(c.Query("content_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_content_type"})
		return
	}
	var contentID *string
	if value := c.Query("content_id"); value != "" {
		contentID = &value
	}
	link, err := h.sharing.GetForOwner(c.Request.Context(), userID, contentType, contentID)
	if err != nil {
		h.logger.Error("failed to load share link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	if link == nil {
		c.JSON(http.StatusOK, gin.H{"link": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": h.shareLinkResponse(*link)})
}

// handlePublicShare serves the unauthenticated share page. The access
// state maps onto distinct status codes so the client can render the
// matching terminal screen, and the payload only carries sections the
// owner left visible.
func (h *httpHandler) handlePublicShare(c *gin.Context) {
	contentType, err := sharing.ParseContentType(c.Param("contentType"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	token, err := sharing.NewShareToken(c.Param("shareID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	resolution, err := h.sharing.Resolve(c.Request.Context(), token, contentType)
	if err != nil {
		h.logger.Error("failed to resolve share link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve_failed"})
		return
	}

	switch resolution.State {
	case sharing.AccessInvalid:
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	case sharing.AccessExpired:
		c.JSON(http.StatusGone, gin.H{"error": "link_expired"})
		return
	case sharing.AccessPrivate:
		c.JSON(http.StatusForbidden, gin.H{"error": "link_private"})
		return
	}

	payload, err := h.buildSharePayload(c, resolution)
	if err != nil {
		h.logger.Error("failed to build share payload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payload_failed"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *httpHandler) buildSharePayload(c *gin.Context, resolution sharing.Resolution) (gin.H, error) {
	ctx := c.Request.Context()
	link := resolution.Link
	settings := resolution.Settings
	payload := gin.H{"content_type": link.ContentType}

	ownerID, err := academics.NewUserID(link.UserID)
	if err != nil {
		return nil, err
	}

	if settings.ShowAcademics {
		report, err := h.academics.Summary(ctx, ownerID)
		if err != nil {
			return nil, err
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
		payload["academics"] = gin.H{
			"unweighted": academics.FormatGPA(report.Summary.Unweighted),
			"weighted":   academics.FormatGPA(report.Summary.Weighted),
			"uc_gpa":     academics.FormatGPA(report.Summary.UCGPA),
			"breakdown":  breakdown,
		}
	}

	if settings.ShowCourses {
		courses, err := h.academics.ListCourses(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		list := make([]courseResponsePayload, 0, len(courses))
		for _, course := range courses {
			list = append(list, courseResponse(course))
		}
		payload["courses"] = list
	}

	if settings.ShowTestScores {
		scores, err := h.academics.ListTestScores(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		list := make([]testScoreResponsePayload, 0, len(scores))
		for _, score := range scores {
			list = append(list, testScoreResponse(score))
		}
		payload["test_scores"] = list
	}

	if settings.ShowExtracurriculars {
		activities, err := h.portfolio.ListActivities(ctx, link.UserID)
		if err != nil {
			return nil, err
		}
		list := make([]activityResponsePayload, 0, len(activities))
		for _, activity := range activities {
			list = append(list, activityResponse(activity))
		}
		payload["extracurriculars"] = list
	}

	if settings.ShowAwards {
		awards, err := h.portfolio.ListAwards(ctx, link.UserID)
		if err != nil {
			return nil, err
		}
		list := make([]awardResponsePayload, 0, len(awards))
		for _, award := range awards {
			list = append(list, awardResponse(award))
		}
		payload["awards"] = list
	}

	if settings.ShowEssays {
		essays, err := h.portfolio.ListEssays(ctx, link.UserID)
		if err != nil {
			return nil, err
		}
		list := make([]essayResponsePayload, 0, len(essays))
		for _, essay := range essays {
			list = append(list, essayResponse(essay))
		}
		payload["essays"] = list
	}

	if settings.ShowColleges {
		entries, err := h.colleges.ListForUser(ctx, link.UserID)
		if err != nil {
			return nil, err
		}
		if link.ContentType == string(sharing.ContentTypeCollegeApplication) && link.ContentID != nil {
			scoped := make([]collegeEntryResponsePayload, 0, 1)
			for _, entry := range entries {
				if entry.Entry.EntryID == *link.ContentID {
					scoped = append(scoped, collegeEntryResponse(entry))
				}
			}
			payload["colleges"] = scoped
		} else {
			list := make([]collegeEntryResponsePayload, 0, len(entries))
			for _, entry := range entries {
				list = append(list, collegeEntryResponse(entry))
			}
			payload["colleges"] = list
		}
	}

	return payload, nil
}
