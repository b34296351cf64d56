// Package apperror はHTTP APIで返すエラーの分類を提供する。
//
// ハンドラは分類済みのエラー（ErrValidation、ErrNotFound等）を返し、
// Respondがそれを対応するHTTPステータスとJSONボディに変換する。
package apperror
