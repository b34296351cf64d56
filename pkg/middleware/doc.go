// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンによる認証、パニックリカバリ、CORS設定を含む。
// トークンの検証そのものはAuthenticatorの実装に委ねる。
package middleware
