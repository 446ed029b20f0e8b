package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/shouni/go-sprite-kit/internal/builder"
	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/layout"
	"github.com/shouni/go-sprite-kit/pkg/publisher"
	"github.com/shouni/go-sprite-kit/pkg/report"
	"github.com/shouni/go-sprite-kit/pkg/runner"
)

// Execute は入力画像からスプライトアニメーションを生成し、GIF として保存するのだ。
// 認証情報はバックエンドを呼ぶ前に一度だけ解決します。
func Execute(ctx context.Context, cfg *config.Config, reporter *report.Reporter) (runner.Result, error) {
	return execute(ctx, cfg, reporter, builder.InitializeGenerator)
}

func execute(ctx context.Context, cfg *config.Config, reporter *report.Reporter, newGen builder.GeneratorFactory) (runner.Result, error) {
	opts := cfg.Options
	if reporter == nil {
		reporter = report.Discard()
	}

	// 1. 認証情報
	backend, err := cfg.BackendName()
	if err != nil {
		return runner.Result{}, err
	}
	apiKey, err := config.ResolveAPIKey(opts.APIKey, backend)
	if err != nil {
		return runner.Result{}, err
	}

	// 2. プリセットと列挙値
	preset, err := loadPreset(opts)
	if err != nil {
		return runner.Result{}, err
	}
	resolution, err := generator.ParseResolution(opts.Resolution)
	if err != nil {
		return runner.Result{}, err
	}

	// 3. 入力画像
	input, err := readInputImage(opts.InputFile)
	if err != nil {
		return runner.Result{}, err
	}

	appCtx := builder.NewAppContext(cfg, reporter)
	spriteRunner, err := builder.BuildSpriteRunner(ctx, appCtx, apiKey, newGen)
	if err != nil {
		return runner.Result{}, err
	}

	grid := layout.GridOf(preset)
	fields := []report.Field{
		report.F("input", opts.InputFile),
		report.F("animation", fmt.Sprintf("%s (%d frames, %s grid)", preset.Name, grid.Cells(), grid)),
		report.F("backend", fmt.Sprintf("%s (%s)", backend, cfg.ImageModel(backend))),
	}
	if opts.TwoStep {
		fields = append(fields, report.F("mode", "two-step (pixelate → animate)"))
	}
	fields = append(fields, report.F("output", opts.OutputFile))
	reporter.Header("sprite-animator", fields...)

	res, err := spriteRunner.Run(ctx, runner.RunInput{
		Input:        input,
		Preset:       preset,
		Output:       opts.OutputFile,
		Size:         opts.Size,
		Duration:     opts.Duration,
		Resolution:   resolution,
		TwoStep:      opts.TwoStep,
		KeepSheet:    opts.KeepSheet,
		KeepFrames:   opts.KeepFrames,
		KeepTemplate: opts.KeepTemplate,
	})
	if err != nil {
		return res, err
	}

	var extras []report.Field
	if opts.KeepSheet {
		extras = append(extras, report.F("sheet", res.Artifacts.Sheet))
	}
	if opts.KeepFrames {
		extras = append(extras, report.F("frames", res.Artifacts.FramesDir+string(os.PathSeparator)))
	}
	if opts.KeepTemplate {
		extras = append(extras, report.F("template", res.Artifacts.Template))
	}
	if opts.TwoStep {
		extras = append(extras, report.F("pixel", res.Artifacts.Pixel))
	}
	reporter.Done(opts.OutputFile, extras...)
	return res, nil
}

// ExecuteTemplate はグリッドテンプレートだけを描画して保存します。外部サービスは呼びません。
func ExecuteTemplate(ctx context.Context, cfg *config.Config, reporter *report.Reporter) (string, error) {
	opts := cfg.Options
	if reporter == nil {
		reporter = report.Discard()
	}
	if opts.OutputFile == "" {
		return "", domain.NewConfigError("出力パスを指定してください")
	}

	preset, err := loadPreset(opts)
	if err != nil {
		return "", err
	}

	appCtx := builder.NewAppContext(cfg, reporter)
	tpl, err := appCtx.Templates.Get(layout.TemplateSpecFor(preset))
	if err != nil {
		return "", err
	}

	pub := publisher.NewPublisher()
	if err := pub.Stage(opts.OutputFile, tpl.PNG); err != nil {
		_ = pub.Abort()
		return "", err
	}
	if _, err := pub.Commit(); err != nil {
		return "", err
	}

	size := tpl.Spec.Size()
	slog.InfoContext(ctx, "テンプレートを保存しました", "animation", preset.Name, "path", opts.OutputFile, "width", size.X, "height", size.Y)
	reporter.Done(opts.OutputFile, report.F("template", fmt.Sprintf("%dx%d", size.X, size.Y)))
	return opts.OutputFile, nil
}

// ListPresets は組み込みと --presets で追加されたプリセットを名前順に返します。
func ListPresets(cfg *config.Config) ([]domain.Preset, error) {
	reg, err := domain.LoadPresets(cfg.Options.PresetsFile)
	if err != nil {
		return nil, err
	}
	names := reg.Names()
	presets := make([]domain.Preset, 0, len(names))
	for _, name := range names {
		p, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, nil
}

func loadPreset(opts config.GenerateOptions) (domain.Preset, error) {
	reg, err := domain.LoadPresets(opts.PresetsFile)
	if err != nil {
		return domain.Preset{}, err
	}
	name := opts.Animation
	if name == "" {
		name = config.DefaultAnimation
	}
	return reg.Get(name)
}

// readInputImage は入力画像を読み込みます。読めない・デコードできない場合は設定エラーです。
func readInputImage(path string) (image.Image, error) {
	if path == "" {
		return nil, domain.NewConfigError("入力画像を指定してください")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigError{Msg: fmt.Sprintf("入力画像が見つかりません: %s", path), Err: err}
	}
	img, format, err := generator.DecodeImage(data)
	if err != nil {
		return nil, &domain.ConfigError{Msg: fmt.Sprintf("入力画像を読み込めません: %s", path), Err: err}
	}
	slog.Debug("入力画像を読み込みました", "path", path, "format", format, "size", img.Bounds().Size())
	return img, nil
}
