package runner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/animation"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/layout"
	"github.com/shouni/go-sprite-kit/pkg/prompts"
	"github.com/shouni/go-sprite-kit/pkg/publisher"
	"github.com/shouni/go-sprite-kit/pkg/report"
)

// RunInput は1回のアニメーション生成に必要な値です。
// 環境変数や認証情報はここに含めず、呼び出し側で解決済みのものを渡すのだ。
type RunInput struct {
	Input      image.Image
	Preset     domain.Preset
	Output     string
	Size       int
	Duration   time.Duration
	Resolution generator.Resolution
	TwoStep    bool

	KeepSheet    bool
	KeepFrames   bool
	KeepTemplate bool
}

// Result は生成結果の概要です。
type Result struct {
	Artifacts  publisher.Artifacts
	Written    []string
	FrameCount int
	SheetSize  image.Point
}

// SpriteRunner は テンプレート生成 → シート生成 → フレーム切り出し → GIF 組み立て を順番に実行します。
type SpriteRunner struct {
	generator generator.SheetGenerator
	templates *layout.TemplateCache
	prompts   prompts.PromptBuilder
	reporter  *report.Reporter
}

// NewSpriteRunner は依存関係を注入して初期化します。
func NewSpriteRunner(gen generator.SheetGenerator, templates *layout.TemplateCache, pb prompts.PromptBuilder, reporter *report.Reporter) *SpriteRunner {
	if templates == nil {
		templates = layout.NewTemplateCache()
	}
	if pb == nil {
		pb = prompts.NewSheetPromptBuilder()
	}
	if reporter == nil {
		reporter = report.Discard()
	}
	return &SpriteRunner{
		generator: gen,
		templates: templates,
		prompts:   pb,
		reporter:  reporter,
	}
}

// Run はスプライトアニメーションを生成して in.Output に書き出します。
// 途中で失敗した場合、ステージ済みのファイルはすべて破棄されます。
func (r *SpriteRunner) Run(ctx context.Context, in RunInput) (res Result, err error) {
	// 1. 外部呼び出しの前に入力をすべて検証する
	if in.Input == nil {
		return res, domain.NewConfigError("入力画像がありません")
	}
	if err := in.Preset.Validate(); err != nil {
		return res, err
	}
	opts := animation.Options{Size: in.Size, Duration: in.Duration}
	if err := opts.Validate(); err != nil {
		return res, err
	}
	resolution := in.Resolution
	if resolution == "" {
		resolution = generator.Resolution1K
	}
	artifacts, err := publisher.ResolveArtifacts(in.Output)
	if err != nil {
		return res, &domain.ConfigError{Msg: "出力パスが不正です", Err: err}
	}
	prompt, err := r.prompts.Build(in.Preset)
	if err != nil {
		return res, err
	}
	res.Artifacts = artifacts

	grid := layout.GridOf(in.Preset)
	slog.InfoContext(ctx, "スプライト生成を開始します",
		"animation", in.Preset.Name,
		"grid", grid.String(),
		"frames", grid.Cells(),
		"two_step", in.TwoStep,
		"output", in.Output)

	pub := publisher.NewPublisher()
	defer func() {
		if err != nil {
			if abortErr := pub.Abort(); abortErr != nil {
				slog.WarnContext(ctx, "一時ファイルの削除に失敗しました", "error", abortErr)
				err = errors.Join(err, abortErr)
			}
		}
	}()

	source := in.Input

	// 2. 2段階モードでは入力をピクセルアート化してから使う
	if in.TwoStep {
		r.reporter.Step("pixelating input image")
		pixel, err := r.generator.Generate(ctx, generator.Request{
			Images:     []image.Image{source},
			Prompt:     prompts.PixelatePrompt,
			Resolution: generator.Resolution1K,
		})
		if err != nil {
			return res, fmt.Errorf("入力画像のピクセル化に失敗しました: %w", err)
		}
		if err := pub.StagePNG(artifacts.Pixel, pixel); err != nil {
			return res, err
		}
		source = pixel
		r.reporter.OK("pixelated version created")
	}

	// 3. グリッドテンプレート
	r.reporter.Step("creating sprite sheet template")
	tpl, err := r.templates.Get(layout.TemplateSpecFor(in.Preset))
	if err != nil {
		return res, err
	}
	r.reporter.Detail("template", tpl.Spec.Size())
	if in.KeepTemplate {
		if err := pub.Stage(artifacts.Template, tpl.PNG); err != nil {
			return res, err
		}
	}

	// 4. テンプレート → 入力の順で参照画像を渡してシートを生成する
	r.reporter.Step("generating sprite sheet")
	sheet, err := r.generator.Generate(ctx, generator.Request{
		Images:     []image.Image{tpl.Image, source},
		Prompt:     prompt,
		Resolution: resolution,
	})
	if err != nil {
		return res, fmt.Errorf("スプライトシートの生成に失敗しました: %w", err)
	}
	// 透過部分は白背景に合成してから保存・切り出しを行う
	sheet = layout.FlattenOnWhite(sheet)
	res.SheetSize = sheet.Bounds().Size()
	r.reporter.OK("sprite sheet generated (%dx%d)", res.SheetSize.X, res.SheetSize.Y)
	if res.SheetSize.X%grid.Columns != 0 || res.SheetSize.Y%grid.Rows != 0 {
		r.reporter.Warn("sheet %dx%d does not divide evenly into a %s grid, remainder pixels are dropped", res.SheetSize.X, res.SheetSize.Y, grid)
	}
	if in.KeepSheet {
		if err := pub.StagePNG(artifacts.Sheet, sheet); err != nil {
			return res, err
		}
	}

	// 5. フレームの切り出し
	r.reporter.Step("extracting %d frames", grid.Cells())
	frames, err := layout.ExtractFrames(sheet, grid)
	if err != nil {
		return res, err
	}
	res.FrameCount = len(frames)
	r.reporter.OK("extracted %d frames", len(frames))
	if in.KeepFrames {
		if err := pub.StageFrames(artifacts.FramesDir, frames); err != nil {
			return res, err
		}
	}

	// 6. GIF の組み立て
	r.reporter.Step("assembling animated GIF")
	seq := make([]image.Image, len(frames))
	for i, f := range frames {
		seq[i] = f
	}
	anim, err := animation.Assemble(seq, opts)
	if err != nil {
		return res, err
	}
	if err := pub.StageWriter(artifacts.Output, func(w io.Writer) error {
		return animation.Encode(w, anim)
	}); err != nil {
		return res, err
	}

	// 7. すべて揃ってから配置する
	published, err := pub.Commit()
	if err != nil {
		return res, err
	}
	res.Written = published.Paths

	slog.InfoContext(ctx, "スプライト生成が完了しました", "output", artifacts.Output, "files", len(res.Written))
	return res, nil
}
