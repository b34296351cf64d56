// Package api はトラッカーのHTTPサーバーを組み立てる。
//
// 認証APIとプロジェクト・タスクAPIを /api 以下にまとめ、
// パニック回復・アクセスログ・CORSを全ルートに適用する。
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/tracker/internal/auth"
	"github.com/nao1215/tracker/internal/config"
	"github.com/nao1215/tracker/internal/project"
	trackerdb "github.com/nao1215/tracker/internal/store/db"
	"github.com/nao1215/tracker/internal/token"
	"github.com/nao1215/tracker/pkg/middleware"
	"github.com/nao1215/tracker/pkg/validation"
)

// Server はトラッカーAPIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はリッスン中のHTTPサーバー。
	httpServer *http.Server
	// authService は認証の業務処理。
	authService *auth.Service
	// projects はプロジェクト・タスクAPIのハンドラ。
	projects *project.Handler
}

// NewServer は新しいServerを生成する。dbはマイグレーション適用済みであること。
func NewServer(db *sql.DB, cfg config.Config) *Server {
	validation.Setup()

	authService := auth.NewService(
		trackerdb.New(db),
		auth.NewPasswordHasher(cfg.BcryptCost),
		token.NewManager(token.Config{
			Secret:     cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		}),
	)

	router := gin.New()
	// 末尾スラッシュはtrimTrailingSlashで取り除くため、リダイレクトは不要
	router.RedirectTrailingSlash = false
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:      router,
		authService: authService,
		projects:    project.NewHandler(db, project.Options{CascadeDeleteTasks: cfg.CascadeDeleteTasks}),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	requireAuth := middleware.JWTAuth(s.authService)

	api := s.router.Group("/api")

	// 認証エンドポイント（/me以外は認証不要）
	auth.NewHandler(s.authService).RegisterRoutes(api.Group("/auth"), requireAuth)

	// プロジェクト・タスク（認証必須）
	protected := api.Group("")
	protected.Use(requireAuth)
	s.projects.RegisterRoutes(protected)

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tracker"})
	})
}

// Handler はルーティング済みのhttp.Handlerを返す。
// /api/projects/{id}/ のような末尾スラッシュ付きのパスもリダイレクトせずに処理する。
func (s *Server) Handler() http.Handler {
	return trimTrailingSlash(s.router)
}

// trimTrailingSlash はパス末尾の "/" を取り除いてからnextに渡す。ルートパスはそのまま渡す。
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = strings.TrimRight(r.URL.Path, "/")
			if r2.URL.Path == "" {
				r2.URL.Path = "/"
			}
			r2.URL.RawPath = strings.TrimRight(r.URL.RawPath, "/")
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

// Run はHTTPサーバーを起動する。Shutdownが呼ばれるとnilを返す。
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストの完了を待ってサーバーを停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
