package main

import (
	"os"

	"github.com/shouni/go-sprite-kit/cmd"
)

// main はアプリケーションの唯一のエントリーポイントなのだ！
// コマンドライン引数の解析と実行はすべて cmd パッケージに委ねるのだよ。
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
