package apperror

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	// ErrValidation は必須項目の欠落や形式不正を表す。
	ErrValidation = errors.New("validation error")
	// ErrAuthenticationFailed は資格情報またはトークンの利用者が確認できないことを表す。
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidToken はトークンの署名不正・期限切れ・種別違いを表す。
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden は認証済みだがリソースへの権限がないことを表す。
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound はリソースが存在しないことを表す。
	ErrNotFound = errors.New("not found")
	// ErrConflict はユーザー名・メールアドレスの重複を表す。
	ErrConflict = errors.New("conflict")
)

// Error は分類とクライアント向けメッセージを持つエラー。
type Error struct {
	// Kind はエラー分類（上記のErrXxxのいずれか）。
	Kind error
	// Message はレスポンスに含めるメッセージ。
	Message string
	// MissingFields は欠落している必須項目名。
	MissingFields []string
}

// New は分類とメッセージからエラーを生成する。
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Missing は必須項目の欠落を表すエラーを生成する。
func Missing(fields ...string) *Error {
	return &Error{
		Kind:          ErrValidation,
		Message:       "必須項目が不足しています",
		MissingFields: fields,
	}
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

// Unwrap はerrors.Isで分類を判定できるようにする。
func (e *Error) Unwrap() error {
	return e.Kind
}

// StatusCode はエラーに対応するHTTPステータスコードを返す。
// 分類されていないエラーは500になる。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		// 重複はこれまでのクライアントとの互換のため409ではなく400で返す
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond はエラーをJSONレスポンスとして書き込み、後続ハンドラを中断する。
// 500になるエラーは内容をログに記録し、クライアントには詳細を返さない。
func Respond(c *gin.Context, err error) {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Printf("内部エラー: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(status, gin.H{"error": "内部サーバーエラーが発生しました"})
		return
	}

	body := gin.H{"error": err.Error()}
	var appErr *Error
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if len(appErr.MissingFields) > 0 {
			body["missing_fields"] = appErr.MissingFields
		}
	}
	c.AbortWithStatusJSON(status, body)
}
