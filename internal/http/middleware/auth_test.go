package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubVerifier struct {
	userID uint
	err    error
	seen   string
}

func (s *stubVerifier) Verify(token string) (uint, error) {
	s.seen = token
	return s.userID, s.err
}

func authRouter(v TokenVerifier, fallback bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireAuth(v, fallback))
	r.GET("/me", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func TestRequireAuth_ValidToken(t *testing.T) {
	v := &stubVerifier{userID: 7}
	r := authRouter(v, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if v.seen != "tok-123" {
		t.Fatalf("verifier saw %q", v.seen)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
		v      *stubVerifier
	}{
		{"missing header", "", &stubVerifier{userID: 7}},
		{"wrong scheme", "Basic abc", &stubVerifier{userID: 7}},
		{"empty token", "Bearer   ", &stubVerifier{userID: 7}},
		{"verify error", "Bearer bad", &stubVerifier{err: errors.New("boom")}},
		{"zero user", "Bearer tok", &stubVerifier{userID: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := authRouter(tc.v, false)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if got := w.Header().Get("WWW-Authenticate"); got == "" {
				t.Fatalf("expected WWW-Authenticate header")
			}
		})
	}
}

func TestRequireAuth_HeaderFallback(t *testing.T) {
	v := &stubVerifier{userID: 7}

	t.Run("enabled", func(t *testing.T) {
		r := authRouter(v, true)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("X-User-ID", "42")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		r := authRouter(v, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("X-User-ID", "42")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("non-numeric falls through to token check", func(t *testing.T) {
		r := authRouter(v, true)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("X-User-ID", "abc")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}
