package middleware

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/tracker/pkg/apperror"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニックの値とスタックトレースをログに出力し、apperror.Respondで500エラーを返す。
// パニックの値はレスポンスに含めない。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Printf("[PANIC] %v\n%s", r, debug.Stack())

			// 送信済みのレスポンスは書き換えられない
			if c.Writer.Written() {
				c.Abort()
				return
			}
			apperror.Respond(c, fmt.Errorf("ハンドラでパニックが発生: %v", r))
		}()
		c.Next()
	}
}
