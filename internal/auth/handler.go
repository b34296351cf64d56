package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	trackerdb "github.com/nao1215/tracker/internal/store/db"
	"github.com/nao1215/tracker/pkg/apperror"
	"github.com/nao1215/tracker/pkg/middleware"
	"github.com/nao1215/tracker/pkg/validation"
)

// Handler は認証APIのHTTPハンドラ群。
type Handler struct {
	// service は認証の業務処理。
	service *Service
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes は認証APIのルーティングを設定する。
// requireAuthは /me にのみ適用される。
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/register", h.handleRegister())
	rg.POST("/login", h.handleLogin())
	rg.POST("/token/refresh", h.handleRefresh())
	rg.POST("/token/verify", h.handleVerify())
	rg.GET("/me", requireAuth, h.handleMe())
}

// registerRequest は利用者登録リクエストのボディ。
type registerRequest struct {
	Username        string `json:"username" binding:"required,max=150"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	// FirstCredential はメールアドレスまたはユーザー名。
	FirstCredential string `json:"first_credential" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// refreshRequest はトークン再発行リクエストのボディ。
type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// verifyRequest はトークン検証リクエストのボディ。
type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// userResponse は利用者情報のレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// toUserResponse はDBモデルをレスポンス形式に変換する。
func toUserResponse(u trackerdb.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleRegister は利用者登録のハンドラを返す。
func (h *Handler) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}

		user, pair, err := h.service.Register(c.Request.Context(), RegisterInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
		})
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user":    toUserResponse(user),
			"access":  pair.Access,
			"refresh": pair.Refresh,
			"message": "ユーザー登録が完了しました",
		})
	}
}

// handleLogin はログインのハンドラを返す。
func (h *Handler) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}

		user, pair, err := h.service.Login(c.Request.Context(), req.FirstCredential, req.Password)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":    toUserResponse(user),
			"access":  pair.Access,
			"refresh": pair.Refresh,
		})
	}
}

// handleRefresh はアクセストークン再発行のハンドラを返す。
func (h *Handler) handleRefresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}

		access, err := h.service.Refresh(req.Refresh)
		if err != nil {
			apperror.Respond(c, apperror.New(err, "リフレッシュトークンが無効か有効期限が切れています"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access":  access,
			"message": "アクセストークンを再発行しました",
		})
	}
}

// handleVerify はトークン検証のハンドラを返す。
func (h *Handler) handleVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}

		if !h.service.Verify(req.Token) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"valid": false,
				"error": "トークンが無効か有効期限が切れています",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"valid":   true,
			"message": "トークンは有効です",
		})
	}
}

// handleMe は現在のユーザー情報を返すハンドラを返す。
func (h *Handler) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			apperror.Respond(c, apperror.New(apperror.ErrAuthenticationFailed, "認証が必要です"))
			return
		}

		user, err := h.service.GetUser(c.Request.Context(), userID)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
	}
}
