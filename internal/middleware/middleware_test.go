package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"petmatch/internal/platform/logger"
	"petmatch/internal/ports/auth"
	"petmatch/internal/session"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeVerifier map[string]auth.Claims

func (v fakeVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	c, ok := v[token]
	if !ok {
		return auth.Claims{}, errors.New("invalid token")
	}
	return c, nil
}

type fakeResolver struct{ calls int }

func (r *fakeResolver) ResolveSession(_ context.Context, c auth.Claims) session.Session {
	r.calls++
	role := session.RoleAdopter
	if c.UserID == "shelter-1" {
		role = session.RoleShelter
	}
	return session.Session{PrincipalID: c.UserID, Email: c.Email, Role: role, DisplayName: "name-" + c.UserID}
}

type captured struct {
	sess  session.Session
	ok    bool
	token string
}

func capture(out *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out.sess, out.ok = session.FromContext(r.Context())
		out.token = GetToken(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthContext(t *testing.T) {
	verifier := fakeVerifier{"tok-1": {UserID: "shelter-1", Email: "s@example.com"}}

	cases := []struct {
		name       string
		allowDebug bool
		setup      func(r *http.Request)
		wantOK     bool
		wantID     string
		wantRole   session.Role
		wantToken  string
	}{
		{
			name:   "anonymous",
			setup:  func(*http.Request) {},
			wantOK: false,
		},
		{
			name:      "bearer token",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer tok-1") },
			wantOK:    true,
			wantID:    "shelter-1",
			wantRole:  session.RoleShelter,
			wantToken: "tok-1",
		},
		{
			name:      "query token for websockets",
			setup:     func(r *http.Request) { r.URL.RawQuery = "token=tok-1" },
			wantOK:    true,
			wantID:    "shelter-1",
			wantRole:  session.RoleShelter,
			wantToken: "tok-1",
		},
		{
			name:   "invalid token stays anonymous",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantOK: false,
		},
		{
			name:   "malformed header",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Basic tok-1") },
			wantOK: false,
		},
		{
			name:       "debug header when allowed",
			allowDebug: true,
			setup:      func(r *http.Request) { r.Header.Set(DebugUserHeader, "adopter-9") },
			wantOK:     true,
			wantID:     "adopter-9",
			wantRole:   session.RoleAdopter,
		},
		{
			name:   "debug header ignored when not allowed",
			setup:  func(r *http.Request) { r.Header.Set(DebugUserHeader, "adopter-9") },
			wantOK: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := &fakeResolver{}
			var got captured
			h := AuthContext(verifier, res, tc.allowDebug)(capture(&got))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			h.ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, tc.wantOK, got.ok)
			if !tc.wantOK {
				assert.Equal(t, 0, res.calls)
				return
			}
			assert.Equal(t, tc.wantID, got.sess.PrincipalID)
			assert.Equal(t, tc.wantRole, got.sess.Role)
			assert.Equal(t, tc.wantToken, got.token)
			assert.Equal(t, 1, res.calls, "session resolved once per request")
		})
	}
}

func TestAuthContext_NoVerifierAcceptsDebugHeader(t *testing.T) {
	var got captured
	h := AuthContext(nil, nil, false)(capture(&got))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(DebugUserHeader, "u-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, got.ok)
	assert.Equal(t, "u-1", got.sess.PrincipalID)
	assert.Equal(t, session.DefaultRole, got.sess.Role)
}

func TestRequestLog_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZap(zap.New(core))

	h := chimw.RequestID(RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets", nil))
	assert.NotEmpty(t, rec.Header().Get(chimw.RequestIDHeader))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/missing", entries[1].ContextMap()["path"])
}

func TestRecover_Returns500AndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZap(zap.New(core))

	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
