package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", RequireSession(svc), func(c *gin.Context) {
		uid, _ := UserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})
	r.GET("/maybe", OptionalSession(svc), func(c *gin.Context) {
		_, err := UserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"authenticated": err == nil})
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSession_StatusCodes(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "ana@example.com")
	r := newRouter(f.svc)

	if w := do(r, "/private", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", w.Code)
	}
	if w := do(r, "/private", "garbage"); w.Code != http.StatusForbidden {
		t.Fatalf("bad token: expected 403, got %d", w.Code)
	}
	if w := do(r, "/private", res.Token); w.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", w.Code)
	}

	_ = f.svc.Logout(context.Background(), res.Token)
	if w := do(r, "/private", res.Token); w.Code != http.StatusForbidden {
		t.Fatalf("revoked token: expected 403, got %d", w.Code)
	}
}

func TestOptionalSession_NeverRejects(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "ana@example.com")
	r := newRouter(f.svc)

	if w := do(r, "/maybe", "garbage"); w.Code != http.StatusOK || w.Body.String() != `{"authenticated":false}` {
		t.Fatalf("unexpected anonymous response %d %s", w.Code, w.Body.String())
	}
	if w := do(r, "/maybe", res.Token); w.Body.String() != `{"authenticated":true}` {
		t.Fatalf("unexpected authenticated response %s", w.Body.String())
	}
}

func TestBearerToken_SchemeIsCaseInsensitive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer abc":   "abc",
		"BEARER  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		if got := BearerToken(c); got != want {
			t.Fatalf("%q: expected %q, got %q", header, want, got)
		}
	}
}

func TestRequireSession_AcceptsLowercaseScheme(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "ana@example.com")
	r := newRouter(f.svc)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "bearer "+res.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
