package builder

import (
	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/layout"
	"github.com/shouni/go-sprite-kit/pkg/report"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config         // Configは、環境変数から読み込まれた設定です（バックエンド、モデル名など）。
	Options   config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Reporter  *report.Reporter       // Reporterは、進捗を人間向けに表示する出力先です。
	Templates *layout.TemplateCache  // Templatesは、描画済みグリッドテンプレートのキャッシュです。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, reporter *report.Reporter) *AppContext {
	if reporter == nil {
		reporter = report.Discard()
	}
	return &AppContext{
		Config:    cfg,
		Options:   cfg.Options,
		Reporter:  reporter,
		Templates: layout.NewTemplateCache(),
	}
}
