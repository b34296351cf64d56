// トラッカーAPIサーバーのエントリポイント。
// 利用者の登録・認証と、利用者ごとのプロジェクト・タスク管理を提供する。
package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/nao1215/tracker/internal/api"
	"github.com/nao1215/tracker/internal/config"
	"github.com/nao1215/tracker/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	db, err := store.Open(context.Background(), cfg.DatabasePath)
	if err != nil {
		log.Fatalf("データベースの初期化に失敗: %v", err)
	}

	server := api.NewServer(db, cfg)
	go func() {
		log.Printf("トラッカーサービスを起動します: :%s", cfg.Port)
		if err := server.Run(); err != nil {
			log.Fatalf("トラッカーサービスの起動に失敗: %v", err)
		}
	}()

	// シグナル受信後、HTTPサーバー、データベースの順に停止する
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Println("HTTPサーバーを停止します")
				if err := server.Shutdown(ctx); err != nil {
					return err
				}
				log.Println("データベース接続を閉じます")
				return db.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("トラッカーサービスを終了しました: exit code %d", exitCode)
	os.Exit(exitCode)
}
