// Command summercamp はサマーキャンプ講座マーケットプレイスのAPIサーバーを起動する。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/summercamp/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "summercamp: %v\n", err)
		os.Exit(1)
	}
}
