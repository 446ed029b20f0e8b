package config

import (
	"strings"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultBackend    = BackendGemini
	DefaultAnimation  = "idle"
	DefaultSize       = 128
	DefaultResolution = "1K"
	DefaultDuration   = 100 * time.Millisecond
)

// 画像生成バックエンドの名前です。
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// Config は環境変数から読み込まれる設定と、CLI フラグの値を保持する構造体なのだ。
type Config struct {
	Backend          string
	GeminiImageModel string
	OpenAIImageModel string
	RateInterval     time.Duration

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Backend:          envutil.GetEnv("SPRITE_BACKEND", DefaultBackend),
		GeminiImageModel: envutil.GetEnv("GEMINI_IMAGE_MODEL", generator.DefaultGeminiModel),
		OpenAIImageModel: envutil.GetEnv("OPENAI_IMAGE_MODEL", generator.DefaultOpenAIModel),
	}

	if raw := envutil.GetEnv("SPRITE_RATE_INTERVAL", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, &domain.ConfigError{Msg: "SPRITE_RATE_INTERVAL は 0 以上の時間で指定してください (例: 10s)", Err: err}
		}
		cfg.RateInterval = d
	}
	return cfg, nil
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入出力
	InputFile   string // --input
	OutputFile  string // --output
	PresetsFile string // --presets

	// アニメーション
	Animation  string        // --animation
	Size       int           // --size
	Resolution string        // --resolution
	Duration   time.Duration // --duration (ミリ秒で受け取る)
	TwoStep    bool          // --two-step

	// 付随ファイル
	KeepSheet    bool // --keep-sheet
	KeepFrames   bool // --keep-frames
	KeepTemplate bool // --keep-template

	// バックエンド
	APIKey       string        // --api-key
	Backend      string        // --backend
	Model        string        // --model
	RateInterval time.Duration // --rate-interval
	// RateIntervalSet は --rate-interval が明示されたかどうかです。0 の指定で環境変数を打ち消せるのだ。
	RateIntervalSet bool

	Verbose bool // --verbose
}

// BackendName はフラグ、環境変数の順で使用するバックエンドを決定します。
func (c *Config) BackendName() (string, error) {
	name := c.Options.Backend
	if name == "" {
		name = c.Backend
	}
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		return DefaultBackend, nil
	case BackendGemini, BackendOpenAI:
		return name, nil
	default:
		return "", domain.NewConfigError("不明なバックエンドです: %q (gemini または openai)", name)
	}
}

// ImageModel はバックエンドごとの画像モデル名を返します。--model が優先されます。
func (c *Config) ImageModel(backend string) string {
	if c.Options.Model != "" {
		return c.Options.Model
	}
	if backend == BackendOpenAI {
		return c.OpenAIImageModel
	}
	return c.GeminiImageModel
}

// Interval は外部呼び出しの最小間隔を返します。--rate-interval が優先されます。
func (c *Config) Interval() time.Duration {
	if c.Options.RateIntervalSet || c.Options.RateInterval > 0 {
		return c.Options.RateInterval
	}
	return c.RateInterval
}
