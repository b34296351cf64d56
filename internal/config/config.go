// Package config は環境変数からサーバーの設定を読み込む。
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret は開発用の署名鍵。本番環境ではJWT_SECRETで必ず上書きする。
const DefaultJWTSecret = "dev-secret-key"

// Config はサーバーの設定値。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// AccessTokenTTL はアクセストークンの有効期間。
	AccessTokenTTL time.Duration
	// RefreshTokenTTL はリフレッシュトークンの有効期間。
	RefreshTokenTTL time.Duration
	// BcryptCost はパスワードハッシュのコスト。
	BcryptCost int
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
	// CascadeDeleteTasks はプロジェクト削除時に配下のタスクも削除するかどうか。
	CascadeDeleteTasks bool
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration
}

// Load は環境変数から設定を読み込む。未設定の項目には既定値を使う。
// 数値・期間・真偽値として解釈できない値はエラーになる。
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnvOr("PORT", "8000"),
		DatabasePath:   getEnvOr("DATABASE_PATH", "tracker.db"),
		JWTSecret:      getEnvOr("JWT_SECRET", DefaultJWTSecret),
		AllowedOrigins: splitList(getEnvOr("FRONTEND_URL", "http://localhost:8080")),
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", 12); err != nil {
		return Config{}, err
	}
	if cfg.CascadeDeleteTasks, err = boolEnv("CASCADE_DELETE_TASKS", true); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == DefaultJWTSecret {
		log.Printf("警告: JWT_SECRETが未設定のため開発用の署名鍵を使用します")
	}
	return cfg, nil
}

// getEnvOr は環境変数の値を取得し、未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// durationEnv は環境変数を期間として解釈する。0以下はエラーになる。
func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s は正の期間で指定してください: %s", key, v)
	}
	return d, nil
}

// intEnv は環境変数を整数として解釈する。
func intEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です: %w", key, err)
	}
	return n, nil
}

// boolEnv は環境変数を真偽値として解釈する。
func boolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s の値が不正です: %w", key, err)
	}
	return b, nil
}

// splitList はカンマ区切りの文字列を分割し、空要素を除く。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
