package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-sprite-kit/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// opts は CLI フラグの値を受け取る実行時パラメータなのだ。
var (
	opts       config.GenerateOptions
	durationMS int
)

// newRootCmd はルートコマンド (アニメーション生成) とサブコマンドを組み立てるのだ。
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sprite-animator",
		Short: "画像1枚からピクセルアートのスプライトアニメーション GIF を生成するのだ。",
		Long: `入力画像とラベル付きグリッドテンプレートを画像生成モデルに渡してスプライトシートを作り、
それをフレームに切り分けてループする GIF に組み立てるのだ。

  sprite-animator -i cat.png -o cat_wave.gif -a wave
  sprite-animator template -a dance -o dance_template.png
  sprite-animator presets`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: preRunAppE,
		RunE:              animateCommand,
	}

	addAppFlags(rootCmd)
	rootCmd.AddCommand(newTemplateCmd(), newPresetsCmd())
	return rootCmd
}

// addAppFlags は、アプリケーション全般に適用されるフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- サブコマンドと共有するもの ---
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.OutputFile, "output", "o", "", "出力ファイルのパスなのだ。")
	pf.StringVarP(&opts.Animation, "animation", "a", config.DefaultAnimation, "アニメーションの種類 (idle, wave, bounce, dance など) なのだ。")
	pf.StringVar(&opts.PresetsFile, "presets", "", "プリセットを追加・上書きする YAML ファイルなのだ。")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")

	// --- アニメーション生成 ---
	f := rootCmd.Flags()
	f.StringVarP(&opts.InputFile, "input", "i", "", "入力画像のパス (PNG / JPEG / GIF / WebP) なのだ。")
	f.IntVarP(&opts.Size, "size", "s", config.DefaultSize, "出力 GIF の一辺のピクセル数なのだ。")
	f.StringVarP(&opts.Resolution, "resolution", "r", config.DefaultResolution, "生成するシートの解像度 (1K / 2K) なのだ。")
	f.IntVarP(&durationMS, "duration", "d", int(config.DefaultDuration.Milliseconds()), "1フレームの表示時間 (ミリ秒) なのだ。")
	f.BoolVar(&opts.TwoStep, "two-step", false, "先に入力をピクセルアート化してからアニメーションを生成するのだ。")

	f.BoolVar(&opts.KeepSheet, "keep-sheet", false, "生成されたスプライトシートを <名前>_sheet.png として残すのだ。")
	f.BoolVar(&opts.KeepFrames, "keep-frames", false, "切り出したフレームを <名前>_frames/ に残すのだ。")
	f.BoolVar(&opts.KeepTemplate, "keep-template", false, "グリッドテンプレートを <名前>_template.png として残すのだ。")

	// --- バックエンド ---
	f.StringVar(&opts.APIKey, "api-key", "", "API キー (未指定なら環境変数を使う) なのだ。")
	f.StringVar(&opts.Backend, "backend", "", "画像生成バックエンド (gemini / openai) なのだ。既定は SPRITE_BACKEND か gemini。")
	f.StringVar(&opts.Model, "model", "", "バックエンドの画像モデル名なのだ。")
	f.DurationVar(&opts.RateInterval, "rate-interval", 0, "バックエンド呼び出しの最小間隔なのだ (例: 10s)。")
}

// preRunAppE は、.env の読み込みとロガーの設定を行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig は環境変数の設定にフラグの値を重ねて返すのだ。
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Options = opts
	return cfg, nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// Ctrl-C で実行中のバックエンド呼び出しを中断できるよう、シグナルをコンテキストに結び付けるのだよ。
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
