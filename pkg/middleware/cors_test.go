package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// newCORSRouter はCORSミドルウェアを適用したテスト用ルーターを生成する。
// ハンドラが実行されたかどうかをcalledで返す。
func newCORSRouter(origins []string, called *bool) *gin.Engine {
	router := gin.New()
	router.Use(CORS(origins))
	handler := func(c *gin.Context) {
		*called = true
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/test", handler)
	router.OPTIONS("/test", handler)
	return router
}

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		wantStatus  int
		wantAllow   string
		wantHandler bool
	}{
		{
			name:        "許可されたオリジンにCORSヘッダーが設定されること",
			origins:     []string{"http://localhost:8080", "https://example.com"},
			method:      http.MethodGet,
			origin:      "https://example.com",
			wantStatus:  http.StatusOK,
			wantAllow:   "https://example.com",
			wantHandler: true,
		},
		{
			name:        "末尾スラッシュ付きの設定でも一致すること",
			origins:     []string{"http://localhost:8080/"},
			method:      http.MethodGet,
			origin:      "http://localhost:8080",
			wantStatus:  http.StatusOK,
			wantAllow:   "http://localhost:8080",
			wantHandler: true,
		},
		{
			name:        "許可されていないオリジンにはヘッダーが設定されないこと",
			origins:     []string{"http://localhost:8080"},
			method:      http.MethodGet,
			origin:      "https://evil.example.com",
			wantStatus:  http.StatusOK,
			wantAllow:   "",
			wantHandler: true,
		},
		{
			name:        "ワイルドカード指定ではどのオリジンも許可されること",
			origins:     []string{"*"},
			method:      http.MethodGet,
			origin:      "https://any.example.com",
			wantStatus:  http.StatusOK,
			wantAllow:   "https://any.example.com",
			wantHandler: true,
		},
		{
			name:        "Originヘッダーが無い場合はヘッダーが設定されないこと",
			origins:     []string{"*"},
			method:      http.MethodGet,
			origin:      "",
			wantStatus:  http.StatusOK,
			wantAllow:   "",
			wantHandler: true,
		},
		{
			name:        "OPTIONSリクエストは204で中断されること",
			origins:     []string{"http://localhost:8080"},
			method:      http.MethodOptions,
			origin:      "http://localhost:8080",
			wantStatus:  http.StatusNoContent,
			wantAllow:   "http://localhost:8080",
			wantHandler: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var called bool
			router := newCORSRouter(tt.origins, &called)

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if called != tt.wantHandler {
				t.Errorf("ハンドラ実行 = %v, want %v", called, tt.wantHandler)
			}
			if tt.wantAllow != "" && w.Header().Get("Vary") != "Origin" {
				t.Errorf("Vary = %q, want Origin", w.Header().Get("Vary"))
			}
		})
	}
}
