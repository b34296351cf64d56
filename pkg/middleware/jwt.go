package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/tracker/pkg/apperror"
)

// contextKeyUserID はGinコンテキストに認証済みユーザーIDを格納するキー。
const contextKeyUserID = "user_id"

// Authenticator はアクセストークンから利用者を特定する。
// 返すエラーはapperror.ErrInvalidTokenまたはapperror.ErrAuthenticationFailedに分類される。
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (userID string, err error)
}

// JWTAuth はBearerトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "user_id" を設定する。
func JWTAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := BearerToken(c)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		userID, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		SetUserID(c, userID)
		c.Next()
	}
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func BearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperror.New(apperror.ErrAuthenticationFailed, "Authorizationヘッダーが必要です")
	}

	scheme, tokenString, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
		return "", apperror.New(apperror.ErrAuthenticationFailed, "Bearer トークン形式が不正です")
	}
	return strings.TrimSpace(tokenString), nil
}

// SetUserID はGinコンテキストに認証済みユーザーIDを設定する。
func SetUserID(c *gin.Context, userID string) {
	c.Set(contextKeyUserID, userID)
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(contextKeyUserID)
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
