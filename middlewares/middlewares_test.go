package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_ledger/utils"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationId(), SessionMiddleware())
	r.GET("/open", func(c *gin.Context) {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.String(http.StatusOK, cid)
	})
	r.GET("/private", RequireSession(), func(c *gin.Context) {
		username, _ := utils.GetUsernameFromContext(c.Request.Context())
		businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())
		c.String(http.StatusOK, username+"@"+businessId)
	})
	return r
}

func TestCorrelationId(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(CorrelationHeader) != "abc-123" {
		t.Fatalf("expected the caller's correlation id to be kept, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	if w.Body.String() == "" {
		t.Fatalf("expected a generated correlation id")
	}
}

func TestSession(t *testing.T) {
	r := testRouter()
	token, err := utils.JwtGenerate(7, "cashier", "shop-1")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	noBusiness, err := utils.JwtGenerate(8, "auditor", "")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	testCases := []struct {
		name     string
		header   string
		value    string
		expected int
		body     string
	}{
		{"bearer", "Authorization", "Bearer " + token, http.StatusOK, "cashier@shop-1"},
		{"legacy header", "token", token, http.StatusOK, "cashier@shop-1"},
		{"no token", "", "", http.StatusUnauthorized, ""},
		{"bad token", "Authorization", "Bearer nope", http.StatusUnauthorized, ""},
		{"no business", "Authorization", "Bearer " + noBusiness, http.StatusForbidden, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, w.Code)
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Fatalf("expected %q, got %q", tc.body, w.Body.String())
			}
		})
	}
}

func TestRateLimiterWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(nil, 1, 0).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, w.Code)
		}
	}
}
