package generator

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel はスプライトシート生成に使う Gemini の画像モデルです。
	DefaultGeminiModel = "gemini-3-pro-image-preview"

	backendGemini = "gemini"
)

// contentGenerator は genai.Models のうち、このパッケージが使うメソッドだけを抜き出したものです。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator は Gemini API で合成画像を生成する SheetGenerator 実装です。
type GeminiGenerator struct {
	models contentGenerator
	model  string
}

var _ SheetGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator は API キーから Gemini クライアントを初期化します。
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, domain.NewConfigError("gemini API key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &domain.ServiceError{Backend: backendGemini, Err: fmt.Errorf("クライアントの初期化に失敗しました: %w", err)}
	}
	return newGeminiGenerator(client.Models, model), nil
}

func newGeminiGenerator(models contentGenerator, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{models: models, model: model}
}

// Generate は参照画像とプロンプトを1回のリクエストで送信し、最初の画像パートを返します。
// テキストパートはモデルのコメントとしてログに出すだけなのだ。
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (image.Image, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		data, err := encodePNG(img)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, "image/png"))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if req.Resolution != "" {
		config.ImageConfig = &genai.ImageConfig{ImageSize: string(req.Resolution)}
	}

	slog.DebugContext(ctx, "Gemini に画像生成を要求します",
		"model", g.model,
		"images", len(req.Images),
		"resolution", req.Resolution)

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, &domain.ServiceError{Backend: backendGemini, Err: err}
	}
	return g.firstImage(ctx, resp)
}

func (g *GeminiGenerator) firstImage(ctx context.Context, resp *genai.GenerateContentResponse) (image.Image, error) {
	if resp == nil {
		return nil, &domain.ServiceError{Backend: backendGemini, Err: ErrNoImage}
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				slog.DebugContext(ctx, "モデルからのコメント", "text", part.Text)
			}
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			img, _, err := DecodeImage(part.InlineData.Data)
			if err != nil {
				return nil, &domain.ServiceError{Backend: backendGemini, Err: err}
			}
			return img, nil
		}
	}
	return nil, &domain.ServiceError{Backend: backendGemini, Err: ErrNoImage}
}
