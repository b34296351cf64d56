// Package httpclient はトラッカーAPIを呼び出すGoクライアントを提供する。
//
// 認証・プロジェクト・タスクの各エンドポイントに対応するメソッドを持ち、
// 2xx以外のレスポンスはAPIErrorとして返す。アクセストークンは
// WithAccessTokenでコンテキストに載せるとBearerヘッダーとして送信される。
package httpclient
