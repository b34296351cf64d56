package migration

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// openTestDB はテスト用のインメモリSQLiteを開く。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	// インメモリDBは接続ごとに別物になるため1接続に固定する
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCollect はマイグレーションファイルの収集を検証する。
func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("バージョン順に並び替え、無関係なファイルを無視すること", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/000002_second.up.sql":  {Data: []byte("SELECT 1;")},
			"m/000001_first.up.sql":   {Data: []byte("SELECT 1;")},
			"m/000001_first.down.sql": {Data: []byte("SELECT 1;")},
			"m/README.md":             {Data: []byte("readme")},
			"m/abc_invalid.up.sql":    {Data: []byte("SELECT 1;")},
		}

		files, err := Collect(fsys, "m")
		if err != nil {
			t.Fatalf("Collect()でエラーが発生: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("ファイル数 = %d, want 2", len(files))
		}
		if files[0].Version != 1 || files[0].Name != "first" || files[0].Path != "m/000001_first.up.sql" {
			t.Errorf("files[0] = %+v", files[0])
		}
		if files[1].Version != 2 || files[1].Name != "second" {
			t.Errorf("files[1] = %+v", files[1])
		}
	})

	t.Run("バージョンが重複している場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/000001_a.up.sql": {Data: []byte("SELECT 1;")},
			"m/1_b.up.sql":      {Data: []byte("SELECT 1;")},
		}
		if _, err := Collect(fsys, "m"); err == nil {
			t.Fatal("重複バージョンでエラーが返らなかった")
		}
	})
}

// TestRun はマイグレーションの適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/000001_items.up.sql": {Data: []byte(`
			CREATE TABLE items (id TEXT PRIMARY KEY);
			CREATE INDEX idx_items_id ON items(id);
		`)},
		"m/000002_seed.up.sql": {Data: []byte(`INSERT INTO items (id) VALUES ('a');`)},
	}

	t.Run("未適用のマイグレーションをすべて適用すること", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)

		done, err := Run(context.Background(), db, fsys, "m")
		if err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
		if len(done) != 2 {
			t.Fatalf("適用数 = %d, want 2", len(done))
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
			t.Fatalf("件数の取得に失敗: %v", err)
		}
		if count != 1 {
			t.Errorf("items件数 = %d, want 1", count)
		}
	})

	t.Run("2回目の実行では何も適用しないこと", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)

		if _, err := Run(context.Background(), db, fsys, "m"); err != nil {
			t.Fatalf("1回目のRun()でエラーが発生: %v", err)
		}
		done, err := Run(context.Background(), db, fsys, "m")
		if err != nil {
			t.Fatalf("2回目のRun()でエラーが発生: %v", err)
		}
		if len(done) != 0 {
			t.Errorf("2回目の適用数 = %d, want 0", len(done))
		}

		applied, err := AppliedVersions(context.Background(), db)
		if err != nil {
			t.Fatalf("AppliedVersions()でエラーが発生: %v", err)
		}
		if !applied[1] || !applied[2] {
			t.Errorf("applied = %v, want 1と2", applied)
		}
	})

	t.Run("SQLが不正な場合はロールバックされること", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)

		broken := fstest.MapFS{
			"m/000001_ok.up.sql":     {Data: []byte(`CREATE TABLE ok (id TEXT);`)},
			"m/000002_broken.up.sql": {Data: []byte(`CREATE TABLE broken (;`)},
		}
		done, err := Run(context.Background(), db, broken, "m")
		if err == nil {
			t.Fatal("不正なSQLでエラーが返らなかった")
		}
		if len(done) != 1 || done[0] != 1 {
			t.Errorf("done = %v, want [1]", done)
		}

		applied, err := AppliedVersions(context.Background(), db)
		if err != nil {
			t.Fatalf("AppliedVersions()でエラーが発生: %v", err)
		}
		if applied[2] {
			t.Error("失敗したバージョン2が記録されている")
		}
	})
}
