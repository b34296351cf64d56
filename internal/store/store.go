// Package store はSQLiteデータベースへの接続とスキーマ管理を提供する。
//
// プロセス起動時に1度だけOpenを呼び、得られた*sql.DBを各サービスの
// コンストラクタに渡す。パッケージレベルの接続は持たない。
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/tracker/pkg/migration"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MemoryDSN はテスト用のインメモリデータベースのDSN。
const MemoryDSN = ":memory:"

// Open はSQLiteデータベースを開き、未適用のマイグレーションを適用する。
// pathに":memory:"を指定するとインメモリデータベースになる。
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// SQLiteの書き込みは1本に直列化される。インメモリDBは接続ごとに別物になる。
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return db, nil
}

// dsn はパスにPRAGMA指定を付与したDSNを返す。
func dsn(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == MemoryDSN {
		return path + "?" + pragmas
	}
	return path + "?" + pragmas + "&_pragma=journal_mode(WAL)"
}

// IsUniqueViolation はerrがUNIQUE制約違反かどうかを返す。
// columnを指定した場合は "table.column" がエラーメッセージに含まれるときのみtrueを返す。
func IsUniqueViolation(err error, column string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	// 拡張リザルトコードが無効な接続でも判定できるよう下位8ビットとメッセージで見る
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT || !strings.Contains(se.Error(), "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(se.Error(), column)
}
