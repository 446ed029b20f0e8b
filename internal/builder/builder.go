package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/prompts"
	"github.com/shouni/go-sprite-kit/pkg/runner"
)

// GeneratorFactory は設定と認証情報から SheetGenerator を作る関数です。
type GeneratorFactory func(ctx context.Context, cfg *config.Config, apiKey string) (generator.SheetGenerator, error)

// BuildSpriteRunner はスプライト生成を担当する Runner を構築します。
// apiKey は呼び出し側で解決済みのものを受け取るのだ。newGen が nil なら InitializeGenerator を使います。
func BuildSpriteRunner(ctx context.Context, appCtx *AppContext, apiKey string, newGen GeneratorFactory) (*runner.SpriteRunner, error) {
	if newGen == nil {
		newGen = InitializeGenerator
	}
	gen, err := newGen(ctx, appCtx.Config, apiKey)
	if err != nil {
		return nil, err
	}
	return runner.NewSpriteRunner(
		gen,
		appCtx.Templates,
		prompts.NewSheetPromptBuilder(),
		appCtx.Reporter,
	), nil
}

// InitializeGenerator は設定されたバックエンドの SheetGenerator を初期化し、呼び出し間隔の制御を被せます。
func InitializeGenerator(ctx context.Context, cfg *config.Config, apiKey string) (generator.SheetGenerator, error) {
	backend, err := cfg.BackendName()
	if err != nil {
		return nil, err
	}
	model := cfg.ImageModel(backend)

	var gen generator.SheetGenerator
	switch backend {
	case config.BackendOpenAI:
		gen, err = generator.NewOpenAIGenerator(apiKey, model)
	default:
		gen, err = generator.NewGeminiGenerator(ctx, apiKey, model)
	}
	if err != nil {
		return nil, fmt.Errorf("%s ジェネレーターの初期化に失敗しました: %w", backend, err)
	}

	interval := cfg.Interval()
	slog.DebugContext(ctx, "画像生成バックエンドを初期化しました", "backend", backend, "model", model, "interval", interval)
	return generator.NewPaced(gen, interval), nil
}
