package cmd

import (
	"log/slog"
	"time"

	"github.com/shouni/go-sprite-kit/internal/pipeline"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/report"

	"github.com/spf13/cobra"
)

// animateCommand は、ルートコマンドの実行ロジック本体なのだ。
// 必須フラグを確認し、pipeline.Execute を呼び出して一連の処理をキックするのだ。
func animateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.InputFile == "" {
		return domain.NewConfigError("入力画像 (--input) を指定してほしいのだ")
	}
	if opts.OutputFile == "" {
		return domain.NewConfigError("出力ファイル (--output) を指定してほしいのだ")
	}
	opts.Duration = time.Duration(durationMS) * time.Millisecond
	opts.RateIntervalSet = cmd.Flags().Changed("rate-interval")

	// 2. 環境変数から基本設定をロードし、フラグを反映
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "スプライト生成パイプラインを起動するのだ！",
		"input", cfg.Options.InputFile,
		"output", cfg.Options.OutputFile,
		"animation", cfg.Options.Animation)

	// 3. パイプライン実行
	_, err = pipeline.Execute(ctx, cfg, report.New(cmd.ErrOrStderr()))
	return err
}
