package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/waypointhq/waypoint/backend/internal/academics"
	"github.com/waypointhq/waypoint/backend/internal/auth"
	"github.com/waypointhq/waypoint/backend/internal/autosave"
	"github.com/waypointhq/waypoint/backend/internal/colleges"
	"github.com/waypointhq/waypoint/backend/internal/portfolio"
	"github.com/waypointhq/waypoint/backend/internal/resume"
	"github.com/waypointhq/waypoint/backend/internal/server"
	"github.com/waypointhq/waypoint/backend/internal/sharing"
	"github.com/waypointhq/waypoint/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionSigningSecret = "integration-session-secret"
	backendSigningSecret = "integration-backend-secret"
	sessionIssuer        = "accounts.example.com"
	sessionUserID        = "student-abc"
	jsonContentType      = "application/json"
)

func buildTestStack(testContext *testing.T) (http.Handler, *autosave.Debouncer) {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&users.Identity{},
		&academics.Course{},
		&academics.ManualGPA{},
		&academics.TestScore{},
		&sharing.ShareLink{},
		&colleges.College{},
		&colleges.UserCollege{},
		&portfolio.Extracurricular{},
		&portfolio.Award{},
		&portfolio.Essay{},
		&resume.Resume{},
	); err != nil {
		testContext.Fatalf("failed to migrate: %v", err)
	}

	logger := zap.NewNop()
	idProvider := academics.NewUUIDProvider()

	sessionValidator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(sessionSigningSecret),
		Issuer:        sessionIssuer,
	})
	if err != nil {
		testContext.Fatalf("failed to construct session validator: %v", err)
	}
	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(backendSigningSecret),
		TokenTTL:      time.Hour,
	})
	identityService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		testContext.Fatalf("failed to build users service: %v", err)
	}
	academicsService, err := academics.NewService(academics.ServiceConfig{Database: db, IDProvider: idProvider, Logger: logger})
	if err != nil {
		testContext.Fatalf("failed to build academics service: %v", err)
	}
	collegesService, err := colleges.NewService(colleges.ServiceConfig{Database: db, IDProvider: idProvider, Logger: logger})
	if err != nil {
		testContext.Fatalf("failed to build colleges service: %v", err)
	}
	portfolioService, err := portfolio.NewService(portfolio.ServiceConfig{Database: db, IDProvider: idProvider, Logger: logger})
	if err != nil {
		testContext.Fatalf("failed to build portfolio service: %v", err)
	}
	resumeService, err := resume.NewService(resume.ServiceConfig{Database: db, IDProvider: idProvider, Logger: logger})
	if err != nil {
		testContext.Fatalf("failed to build resume service: %v", err)
	}
	sharingService, err := sharing.NewService(sharing.ServiceConfig{
		Database:      db,
		IDProvider:    idProvider,
		TokenProvider: sharing.NewNUIDProvider(),
		BaseURL:       "https://waypoint.example.com",
		Logger:        logger,
	})
	if err != nil {
		testContext.Fatalf("failed to build sharing service: %v", err)
	}
	debouncer, err := autosave.NewDebouncer(10*time.Millisecond, logger)
	if err != nil {
		testContext.Fatalf("failed to build debouncer: %v", err)
	}
	testContext.Cleanup(debouncer.Stop)

	handler, err := server.NewHTTPHandler(server.Dependencies{
		SessionVerifier:  sessionValidator,
		IdentityResolver: identityService,
		TokenManager:     tokenManager,
		Academics:        academicsService,
		Colleges:         collegesService,
		Portfolio:        portfolioService,
		Resumes:          resumeService,
		Sharing:          sharingService,
		Debouncer:        debouncer,
		Logger:           logger,
	})
	if err != nil {
		testContext.Fatalf("failed to build handler: %v", err)
	}
	return handler, debouncer
}

func mustMintSessionToken(testContext *testing.T, subject string) string {
	testContext.Helper()
	claims := auth.SessionClaims{
		UserID:          subject,
		UserEmail:       subject + "@example.com",
		UserDisplayName: "Integration Student",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(sessionSigningSecret))
	if err != nil {
		testContext.Fatalf("failed to sign session token: %v", err)
	}
	return signed
}

func postJSON(testContext *testing.T, client *http.Client, url, bearer string, payload any) *http.Response {
	testContext.Helper()
	encoded, err := json.Marshal(payload)
	if err != nil {
		testContext.Fatalf("failed to encode payload: %v", err)
	}
	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		testContext.Fatalf("failed to build request: %v", err)
	}
	request.Header.Set("Content-Type", jsonContentType)
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	response, err := client.Do(request)
	if err != nil {
		testContext.Fatalf("request failed: %v", err)
	}
	return response
}

func getJSON(testContext *testing.T, client *http.Client, url, bearer string) *http.Response {
	testContext.Helper()
	request, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		testContext.Fatalf("failed to build request: %v", err)
	}
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	response, err := client.Do(request)
	if err != nil {
		testContext.Fatalf("request failed: %v", err)
	}
	return response
}

func decodeBody(testContext *testing.T, response *http.Response, target any) {
	testContext.Helper()
	defer response.Body.Close()
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		testContext.Fatalf("failed to decode response: %v", err)
	}
}

func TestApplicationFlow(testContext *testing.T) {
	handler, _ := buildTestStack(testContext)
	testServer := httptest.NewServer(handler)
	defer testServer.Close()
	client := testServer.Client()

	// Exchange the provider session for a backend bearer token.
	authResponse := postJSON(testContext, client, testServer.URL+"/auth/session", "", map[string]string{
		"session_token": mustMintSessionToken(testContext, sessionUserID),
	})
	if authResponse.StatusCode != http.StatusOK {
		testContext.Fatalf("session auth failed: %d", authResponse.StatusCode)
	}
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(testContext, authResponse, &tokens)
	if tokens.AccessToken == "" {
		testContext.Fatalf("expected an access token")
	}
	bearer := tokens.AccessToken

	// Record a transcript.
	for _, course := range []map[string]any{
		{"name": "AP Calculus BC", "grade": "A", "credits": 1.0, "level": "AP/IB", "grade_level": "12"},
		{"name": "English 12", "grade": "B+", "credits": 1.0, "level": "Regular", "grade_level": "12"},
	} {
		response := postJSON(testContext, client, testServer.URL+"/courses", bearer, course)
		if response.StatusCode != http.StatusCreated {
			testContext.Fatalf("course create failed: %d", response.StatusCode)
		}
		response.Body.Close()
	}

	summaryResponse := getJSON(testContext, client, testServer.URL+"/gpa/summary", bearer)
	if summaryResponse.StatusCode != http.StatusOK {
		testContext.Fatalf("summary failed: %d", summaryResponse.StatusCode)
	}
	var summary struct {
		Unweighted string `json:"unweighted"`
		Weighted   string `json:"weighted"`
	}
	decodeBody(testContext, summaryResponse, &summary)
	// (4.0 + 3.33) / 2 and (5.0 + 3.33) / 2.
	if summary.Unweighted != "3.67" || summary.Weighted != "4.17" {
		testContext.Fatalf("unexpected summary figures: %+v", summary)
	}

	// Build a small portfolio and share it.
	awardResponse := postJSON(testContext, client, testServer.URL+"/awards", bearer, map[string]any{
		"title": "Science Fair Winner", "level": "State", "grade_level": "11",
	})
	if awardResponse.StatusCode != http.StatusCreated {
		testContext.Fatalf("award create failed: %d", awardResponse.StatusCode)
	}
	awardResponse.Body.Close()

	shareResponse := postJSON(testContext, client, testServer.URL+"/share-links", bearer, map[string]any{
		"content_type": "portfolio",
	})
	if shareResponse.StatusCode != http.StatusOK {
		testContext.Fatalf("share upsert failed: %d", shareResponse.StatusCode)
	}
	var link struct {
		ShareID string `json:"share_id"`
		URL     string `json:"url"`
	}
	decodeBody(testContext, shareResponse, &link)
	if link.ShareID == "" {
		testContext.Fatalf("expected a share token")
	}
	expectedURL := fmt.Sprintf("https://waypoint.example.com/share/portfolio/%s", link.ShareID)
	if link.URL != expectedURL {
		testContext.Fatalf("unexpected share url %q", link.URL)
	}

	// The public page needs no credentials.
	publicResponse := getJSON(testContext, client, testServer.URL+"/share/portfolio/"+link.ShareID, "")
	if publicResponse.StatusCode != http.StatusOK {
		testContext.Fatalf("public share failed: %d", publicResponse.StatusCode)
	}
	var page map[string]json.RawMessage
	decodeBody(testContext, publicResponse, &page)
	if _, ok := page["academics"]; !ok {
		testContext.Fatalf("expected academics on the public page")
	}
	if _, ok := page["awards"]; !ok {
		testContext.Fatalf("expected awards on the public page")
	}

	// Resume create and PDF export round trip.
	resumeResponse := postJSON(testContext, client, testServer.URL+"/resumes", bearer, map[string]any{
		"title": "Senior Resume",
		"content": map[string]any{
			"personalInfo": map[string]any{"fullName": "Integration Student"},
			"summary":      "Testing end to end.",
		},
	})
	if resumeResponse.StatusCode != http.StatusCreated {
		testContext.Fatalf("resume create failed: %d", resumeResponse.StatusCode)
	}
	var createdResume struct {
		ResumeID string `json:"resume_id"`
	}
	decodeBody(testContext, resumeResponse, &createdResume)

	exportResponse := getJSON(testContext, client, testServer.URL+"/resumes/"+createdResume.ResumeID+"/export/pdf", bearer)
	if exportResponse.StatusCode != http.StatusOK {
		testContext.Fatalf("pdf export failed: %d", exportResponse.StatusCode)
	}
	exported, err := io.ReadAll(exportResponse.Body)
	exportResponse.Body.Close()
	if err != nil {
		testContext.Fatalf("failed to read export: %v", err)
	}
	if !bytes.HasPrefix(exported, []byte("%PDF")) {
		testContext.Fatalf("expected a PDF document")
	}
}
