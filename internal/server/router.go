package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/waypointhq/waypoint/backend/internal/academics"
	"github.com/waypointhq/waypoint/backend/internal/auth"
	"github.com/waypointhq/waypoint/backend/internal/autosave"
	"github.com/waypointhq/waypoint/backend/internal/colleges"
	"github.com/waypointhq/waypoint/backend/internal/portfolio"
	"github.com/waypointhq/waypoint/backend/internal/resume"
	"github.com/waypointhq/waypoint/backend/internal/sharing"
	"go.uber.org/zap"
)

const userIDContextKey = "waypoint_user_id"

var (
	errMissingSessionVerifier  = errors.New("session verifier dependency required")
	errMissingIdentityResolver = errors.New("identity resolver dependency required")
	errMissingTokenManager     = errors.New("token manager dependency required")
	errMissingAcademicsService = errors.New("academics service dependency required")
	errMissingCollegesService  = errors.New("colleges service dependency required")
	errMissingPortfolioService = errors.New("portfolio service dependency required")
	errMissingResumeService    = errors.New("resume service dependency required")
	errMissingSharingService   = errors.New("sharing service dependency required")
	errInvalidAuthorization    = errors.New("authorization header missing or invalid")
)

// SessionVerifier validates provider-issued session JWTs.
type SessionVerifier interface {
	ValidateToken(token string) (auth.SessionClaims, error)
}

// IdentityResolver maps validated session claims to a canonical user id.
type IdentityResolver interface {
	ResolveCanonicalUserID(claims auth.SessionClaims) (string, error)
}

// BackendTokenManager issues and validates backend bearer tokens.
type BackendTokenManager interface {
	IssueBackendToken(ctx context.Context, userID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	SessionVerifier  SessionVerifier
	IdentityResolver IdentityResolver
	TokenManager     BackendTokenManager
	Academics        *academics.Service
	Colleges         *colleges.Service
	Portfolio        *portfolio.Service
	Resumes          *resume.Service
	Sharing          *sharing.Service
	Debouncer        *autosave.Debouncer
	Logger           *zap.Logger
}

// NewHTTPHandler wires the routes and middleware for the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.SessionVerifier == nil {
		return nil, errMissingSessionVerifier
	}
	if deps.IdentityResolver == nil {
		return nil, errMissingIdentityResolver
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Academics == nil {
		return nil, errMissingAcademicsService
	}
	if deps.Colleges == nil {
		return nil, errMissingCollegesService
	}
	if deps.Portfolio == nil {
		return nil, errMissingPortfolioService
	}
	if deps.Resumes == nil {
		return nil, errMissingResumeService
	}
	if deps.Sharing == nil {
		return nil, errMissingSharingService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions:  deps.SessionVerifier,
		identity:  deps.IdentityResolver,
		tokens:    deps.TokenManager,
		academics: deps.Academics,
		colleges:  deps.Colleges,
		portfolio: deps.Portfolio,
		resumes:   deps.Resumes,
		sharing:   deps.Sharing,
		debouncer: deps.Debouncer,
		logger:    logger,
	}

	router.POST("/auth/session", handler.handleSessionAuth)
	router.GET("/share/:contentType/:shareID", handler.handlePublicShare)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)

	protected.GET("/courses", handler.handleListCourses)
	protected.POST("/courses", handler.handleCreateCourse)
	protected.POST("/courses/bulk", handler.handleBulkCreateCourses)
	protected.PUT("/courses/:id", handler.handleUpdateCourse)
	protected.DELETE("/courses/:id", handler.handleDeleteCourse)
	protected.GET("/gpa/summary", handler.handleGPASummary)
	protected.GET("/gpa/manual", handler.handleGetManualGPA)
	protected.PUT("/gpa/manual", handler.handlePutManualGPA)
	protected.GET("/scores", handler.handleListTestScores)
	protected.POST("/scores", handler.handleCreateTestScore)
	protected.PUT("/scores/:id", handler.handleUpdateTestScore)
	protected.DELETE("/scores/:id", handler.handleDeleteTestScore)

	protected.GET("/colleges/search", handler.handleSearchColleges)
	protected.GET("/colleges", handler.handleListColleges)
	protected.POST("/colleges", handler.handleAddCollege)
	protected.PUT("/colleges/:id", handler.handleUpdateCollege)
	protected.DELETE("/colleges/:id", handler.handleRemoveCollege)

	protected.GET("/activities", handler.handleListActivities)
	protected.POST("/activities", handler.handleSaveActivity)
	protected.PUT("/activities/:id", handler.handleUpdateActivity)
	protected.DELETE("/activities/:id", handler.handleDeleteActivity)
	protected.GET("/awards", handler.handleListAwards)
	protected.POST("/awards", handler.handleSaveAward)
	protected.PUT("/awards/:id", handler.handleUpdateAward)
	protected.DELETE("/awards/:id", handler.handleDeleteAward)
	protected.GET("/essays", handler.handleListEssays)
	protected.POST("/essays", handler.handleSaveEssay)
	protected.PUT("/essays/:id", handler.handleUpdateEssay)
	protected.PUT("/essays/:id/draft", handler.handleSaveEssayDraft)
	protected.DELETE("/essays/:id", handler.handleDeleteEssay)

	protected.GET("/resumes", handler.handleListResumes)
	protected.POST("/resumes", handler.handleCreateResume)
	protected.GET("/resumes/:id", handler.handleGetResume)
	protected.PUT("/resumes/:id", handler.handleUpdateResume)
	protected.PUT("/resumes/:id/draft", handler.handleSaveResumeDraft)
	protected.DELETE("/resumes/:id", handler.handleDeleteResume)
	protected.GET("/resumes/:id/export/pdf", handler.handleExportResumePDF)
	protected.GET("/resumes/:id/export/docx", handler.handleExportResumeDOCX)

	protected.GET("/share-links", handler.handleGetShareLink)
	protected.POST("/share-links", handler.handleUpsertShareLink)

	return router, nil
}

type httpHandler struct {
	sessions  SessionVerifier
	identity  IdentityResolver
	tokens    BackendTokenManager
	academics *academics.Service
	colleges  *colleges.Service
	portfolio *portfolio.Service
	resumes   *resume.Service
	sharing   *sharing.Service
	debouncer *autosave.Debouncer
	logger    *zap.Logger
}

type authRequestPayload struct {
	SessionToken string `json:"session_token"`
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleSessionAuth(c *gin.Context) {
	var request authRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.SessionToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	claims, err := h.sessions.ValidateToken(request.SessionToken)
	if err != nil {
		h.logger.Warn("session token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, err := h.identity.ResolveCanonicalUserID(claims)
	if err != nil {
		h.logger.Error("failed to resolve user identity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "identity_resolution_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueBackendToken(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to issue backend token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		// Expired tokens are routine client behavior, not a fault.
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

func (h *httpHandler) requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

func respondValidation(c *gin.Context, errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "fields": errs})
}
