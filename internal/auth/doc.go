// Package auth は利用者の登録・ログインとトークン発行を担う認証ゲートウェイを提供する。
//
// 資格情報はbcryptでハッシュ化して保存し、ログインに成功した利用者には
// アクセストークンとリフレッシュトークンの組を発行する。
// Serviceはmiddleware.Authenticatorを実装し、アクセストークンを利用者に解決する。
package auth
