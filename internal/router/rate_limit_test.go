package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hmdp-next/internal/identity"
	"github.com/hmdp-next/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/voucher-order/seckill/1", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"
	if key := KeyByUser(c); key != "1.2.3.4" {
		t.Fatalf("anonymous key want 1.2.3.4 got %s", key)
	}

	ctx := identity.WithUser(c.Request.Context(), &models.UserDTO{ID: 42})
	c.Request = c.Request.WithContext(ctx)
	if key := KeyByUser(c); key != "user:42" {
		t.Fatalf("user key want user:42 got %s", key)
	}
}

func TestRateLimitMiddlewareBlocksAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(RateLimitMiddleware(client, RateLimitRule{Prefix: "rate:test", WindowSeconds: 10, MaxRequests: 2}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status want 200 got %d", i, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status want 429 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "10 秒") {
		t.Fatalf("expected wait seconds in message, got %s", w.Body.String())
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitRuleKey(t *testing.T) {
	rule := RateLimitRule{Prefix: "rate:seckill", WindowSeconds: 1, MaxRequests: 1}
	if got := rule.key("user:1"); got != "rate:seckill:user:1" {
		t.Fatalf("prefixed key want rate:seckill:user:1 got %s", got)
	}
	if got := (RateLimitRule{}).key("1.2.3.4"); got != "1.2.3.4" {
		t.Fatalf("bare key want 1.2.3.4 got %s", got)
	}
	if (RateLimitRule{WindowSeconds: 1}).enabled() {
		t.Fatalf("rule without max requests should be disabled")
	}
}
