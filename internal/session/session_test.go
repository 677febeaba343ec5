// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk/internal/testutil"
)

func TestNew_DevMode(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, true, 0)
	assert.False(t, sm.Cookie.Secure)
	assert.NotEqual(t, "__Host-session", sm.Cookie.Name)
	assert.Equal(t, DefaultLifetime, sm.Lifetime)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sm.Cookie.SameSite)
	assert.NotNil(t, sm.Store)
}

func TestNew_ProductionMode(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, false, 8*time.Hour)
	assert.True(t, sm.Cookie.Secure)
	assert.Equal(t, "__Host-session", sm.Cookie.Name)
	assert.Equal(t, "/", sm.Cookie.Path)
	assert.Equal(t, 8*time.Hour, sm.Lifetime)
}

func TestLoginLogout(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	u := testutil.NewFixtures(t, db).User("marie")
	sm := New(db, true, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, Login(r.Context(), sm, &u))
	})
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strconv.FormatInt(UserID(r.Context(), sm), 10)))
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, Logout(r.Context(), sm))
	})
	do := func(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		sm.LoadAndSave(mux).ServeHTTP(rec, req)
		return rec
	}

	login := do("/login", nil)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	assert.Equal(t, strconv.FormatInt(u.ID, 10), do("/whoami", cookies).Body.String())
	assert.Equal(t, "0", do("/whoami", nil).Body.String())

	do("/logout", cookies)
	assert.Equal(t, "0", do("/whoami", cookies).Body.String())
}
