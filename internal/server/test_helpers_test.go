package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/auth"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/database"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/printers"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/spaces"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const testSigningSecret = "server-test-signing-secret"

type stubIdentityVerifier struct {
	identity domain.Identity
	err      error
	calls    int
}

func (s *stubIdentityVerifier) VerifyIdentity(_ context.Context, _ string) (domain.Identity, error) {
	s.calls++
	return s.identity, s.err
}

type testServer struct {
	handler  http.Handler
	db       *gorm.DB
	issuer   *auth.SessionIssuer
	verifier *stubIdentityVerifier
}

type testServerOptions struct {
	variant         domain.Variant
	requireIdentity bool
	devLogin        bool
	reportRate      rate.Limit
	reportBurst     int
	logger          *zap.Logger
}

func openServerTestDatabase(t *testing.T, variant domain.Variant) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{DSN: filepath.Join(t.TempDir(), "server.db")}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if _, err := database.EnsureSchema(db, variant, zap.NewNop()); err != nil {
		t.Fatalf("failed to initialise schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestServer(t *testing.T, options testServerOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openServerTestDatabase(t, options.variant)
	return newTestServerWithDatabase(t, db, options)
}

func newTestServerWithDatabase(t *testing.T, db *gorm.DB, options testServerOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{SigningSecret: []byte(testSigningSecret), TTL: time.Hour})
	if err != nil {
		t.Fatalf("failed to build issuer: %v", err)
	}
	validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(testSigningSecret),
		CookieName:    "crowdstatus_session",
	})
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}
	verifier := &stubIdentityVerifier{}
	reportRate := options.reportRate
	if reportRate == 0 {
		reportRate = 100
	}

	deps := Dependencies{
		Variant:     options.variant,
		Sessions:    validator,
		Issuer:      issuer,
		SSO:         verifier,
		Database:    db,
		Logger:      options.logger,
		ReportRate:  reportRate,
		ReportBurst: options.reportBurst,
		DevLogin:    options.devLogin,
	}
	switch options.variant {
	case domain.VariantPrinters:
		service, err := printers.NewService(printers.ServiceConfig{
			Database:        db,
			IDProvider:      domain.NewUUIDProvider(),
			RequireIdentity: options.requireIdentity,
		})
		if err != nil {
			t.Fatalf("failed to build printer service: %v", err)
		}
		deps.PrinterService = service
	case domain.VariantSpaces:
		service, err := spaces.NewService(spaces.ServiceConfig{
			Database:        db,
			IDProvider:      domain.NewUUIDProvider(),
			RequireIdentity: options.requireIdentity,
		})
		if err != nil {
			t.Fatalf("failed to build space service: %v", err)
		}
		deps.SpaceService = service
	}

	handler, err := NewHTTPHandler(deps)
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return &testServer{handler: handler, db: db, issuer: issuer, verifier: verifier}
}

func (s *testServer) sessionCookie(t *testing.T, netID string) *http.Cookie {
	t.Helper()
	token, _, err := s.issuer.Issue(domain.Identity{NetID: netID, Email: netID + "@nyu.edu"})
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	return &http.Cookie{Name: "crowdstatus_session", Value: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeObject(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode object %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func decodeList(t *testing.T, recorder *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var payload []map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode list %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func expectStatus(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, recorder.Code, recorder.Body.String())
	}
}

func expectErrorKind(t *testing.T, recorder *httptest.ResponseRecorder, status int, kind domain.Kind) map[string]interface{} {
	t.Helper()
	expectStatus(t, recorder, status)
	payload := decodeObject(t, recorder)
	if payload["error"] != string(kind) {
		t.Fatalf("expected error kind %q, got %v", kind, payload["error"])
	}
	return payload
}
