package prompts

import (
	_ "embed"
	"strings"
	"sync"
	"text/template"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// PixelatePrompt は2段階モードの1回目で入力画像だけを送るときのプロンプトです。
//
//go:embed pixelate.md
var PixelatePrompt string

// PromptBuilder は、プリセットから生成プロンプトを構築する契約です。
type PromptBuilder interface {
	Build(preset domain.Preset) (string, error)
}

// TemplateData はプリセットのプロンプトテンプレートに渡すデータ構造です。
type TemplateData struct {
	Name       string
	Columns    int
	Rows       int
	FrameCount int
	Labels     []string
}

// SheetPromptBuilder はプリセットのプロンプトを text/template として展開します。
// 解析済みテンプレートはプロンプト文字列ごとに保持するのだ。
type SheetPromptBuilder struct {
	mu        sync.Mutex
	templates map[string]*template.Template
}

var _ PromptBuilder = (*SheetPromptBuilder)(nil)

// NewSheetPromptBuilder は SheetPromptBuilder を初期化します。
func NewSheetPromptBuilder() *SheetPromptBuilder {
	return &SheetPromptBuilder{
		templates: make(map[string]*template.Template),
	}
}

// Build はプリセットのグリッド形状をプロンプトに埋め込みます。
// テンプレートの解析・実行に失敗した場合は設定エラーを返します。
func (b *SheetPromptBuilder) Build(preset domain.Preset) (string, error) {
	tmpl, err := b.parse(preset)
	if err != nil {
		return "", err
	}

	data := TemplateData{
		Name:       preset.Name,
		Columns:    preset.Columns,
		Rows:       preset.Rows,
		FrameCount: preset.FrameCount(),
		Labels:     preset.Labels,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", &domain.ConfigError{Msg: "プリセット '" + preset.Name + "' のプロンプト展開に失敗しました", Err: err}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (b *SheetPromptBuilder) parse(preset domain.Preset) (*template.Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tmpl, ok := b.templates[preset.Prompt]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New(preset.Name).Option("missingkey=error").Parse(preset.Prompt)
	if err != nil {
		return nil, &domain.ConfigError{Msg: "プリセット '" + preset.Name + "' のプロンプト解析に失敗しました", Err: err}
	}
	b.templates[preset.Prompt] = tmpl
	return tmpl, nil
}
