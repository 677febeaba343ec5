// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/newsdesk/internal/auth"
	"github.com/olegiv/newsdesk/internal/imaging"
	"github.com/olegiv/newsdesk/internal/middleware"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/service"
	"github.com/olegiv/newsdesk/internal/session"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/testutil"
)

const testPassword = "correct horse battery"

type testEnv struct {
	t           *testing.T
	f           *testutil.Fixtures
	sm          *scs.SessionManager
	server      http.Handler
	audit       *service.AuditService
	incomingDir string
	uploadDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	logger := testutil.TestLogger()

	incoming, uploads := t.TempDir(), t.TempDir()
	pipeline, err := imaging.NewPipeline(imaging.Config{UploadDir: uploads, Workers: 1}, logger)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	pipeline.Start()
	t.Cleanup(pipeline.Stop)

	audit := service.NewAuditService(db, logger)
	home := service.NewHomeService(slots.NewEngine(db, 30*time.Minute), nil, 0, audit, logger)
	sm := session.New(db, true, time.Hour)

	h := NewHandler(Config{
		DB:       db,
		Sessions: sm,
		Home:     home,
		Content:  service.NewContentService(db, 30*time.Minute, home, audit, logger),
		Media:    service.NewMediaService(db, pipeline, audit, logger),
		Audit:    audit,
		Login: middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit: 100,
			IPBurst:     100,
		}),
		IncomingDir: incoming,
		IsDev:       true,
		Logger:      logger,
	})

	return &testEnv{
		t:           t,
		f:           testutil.NewFixtures(t, db),
		sm:          sm,
		server:      sm.LoadAndSave(h.Routes()),
		audit:       audit,
		incomingDir: incoming,
		uploadDir:   uploads,
	}
}

// editor creates a user with a known password.
func (e *testEnv) editor(name, email string) store.User {
	e.t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		e.t.Fatalf("HashPassword: %v", err)
	}
	u, err := e.f.Q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         model.RoleEditor,
		CreatedAt:    e.f.Base,
		UpdatedAt:    e.f.Base,
	})
	if err != nil {
		e.t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func (e *testEnv) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// login signs in and returns the session cookies.
func (e *testEnv) login(email string) []*http.Cookie {
	e.t.Helper()
	rr := e.do(http.MethodPost, RouteLogin, LoginRequest{Email: email, Password: testPassword}, nil)
	if rr.Code != http.StatusOK {
		e.t.Fatalf("login status = %d, body = %s", rr.Code, rr.Body.String())
	}
	return rr.Result().Cookies()
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v (body %s)", err, rr.Body.String())
	}
	return resp.Data
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error: %v (body %s)", err, rr.Body.String())
	}
	return resp.Error
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func TestWriteAppError_HidesInternalMessageOutsideDev(t *testing.T) {
	h := NewHandler(Config{Logger: testutil.TestLogger()})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	h.writeAppError(rr, req, context.DeadlineExceeded)

	assertStatus(t, rr, http.StatusInternalServerError)
	if got := decodeError(t, rr); got.Message != "Internal Server Error" || got.Code != "internal" {
		t.Errorf("error = %+v", got)
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")

	rr := env.do(http.MethodPost, RouteLogin, map[string]string{"email": "marie@example.com", "pw": "x"}, nil)
	assertStatus(t, rr, http.StatusBadRequest)
}
