// Package project はプロジェクトとその配下のタスクを扱うAPIを提供する。
//
// すべてのハンドラは認証済みの利用者を前提とし、リソースへのアクセス可否は
// canAccessに集約する。タスクの所有者は親プロジェクトの所有者とみなす。
package project
