// Command stepclub は歩数をクラブポイントに変換するAPIサーバーとワーカーを起動する。
//
// 使い方:
//
//	stepclub [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/stepclub/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "stepclub: %v\n", err)
		os.Exit(1)
	}
}
