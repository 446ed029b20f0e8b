package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultOpenAIModel は OpenAI バックエンドで使う画像編集モデルです。
	DefaultOpenAIModel = "gpt-image-1"

	backendOpenAI = "openai"

	// openAISquareSize は gpt-image-1 が受け付ける正方形の出力サイズです。
	// どちらの解像度段階でもこの値を使います。
	openAISquareSize = "1024x1024"
)

// imageEditor は openai.ImageService のうち、このパッケージが使うメソッドだけを抜き出したものです。
type imageEditor interface {
	Edit(ctx context.Context, body openai.ImageEditParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// OpenAIGenerator は OpenAI の画像編集 API で合成画像を生成する SheetGenerator 実装です。
type OpenAIGenerator struct {
	images imageEditor
	model  string
}

var _ SheetGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator は API キーから OpenAI クライアントを初期化します。
func NewOpenAIGenerator(apiKey, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, domain.NewConfigError("openai API key is empty")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return newOpenAIGenerator(&client.Images, model), nil
}

func newOpenAIGenerator(images imageEditor, model string) *OpenAIGenerator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIGenerator{images: images, model: model}
}

// Generate は参照画像を PNG としてアップロードし、返された base64 画像をデコードします。
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (image.Image, error) {
	if len(req.Images) == 0 {
		return nil, &domain.ServiceError{Backend: backendOpenAI, Err: fmt.Errorf("image edit requires at least one reference image")}
	}

	files := make([]io.Reader, 0, len(req.Images))
	for i, img := range req.Images {
		data, err := encodePNG(img)
		if err != nil {
			return nil, err
		}
		files = append(files, openai.File(bytes.NewReader(data), fmt.Sprintf("reference_%d.png", i+1), "image/png"))
	}

	slog.DebugContext(ctx, "OpenAI に画像生成を要求します",
		"model", g.model,
		"images", len(files),
		"resolution", req.Resolution)

	resp, err := g.images.Edit(ctx, openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFileArray: files},
		Prompt: req.Prompt,
		Model:  openai.ImageModel(g.model),
		Size:   openai.ImageEditParamsSize(openAISquareSize),
	})
	if err != nil {
		return nil, &domain.ServiceError{Backend: backendOpenAI, Err: err}
	}
	if resp == nil {
		return nil, &domain.ServiceError{Backend: backendOpenAI, Err: ErrNoImage}
	}

	for _, item := range resp.Data {
		if item.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, &domain.ServiceError{Backend: backendOpenAI, Err: fmt.Errorf("base64のデコードに失敗しました: %w", err)}
		}
		img, _, err := DecodeImage(data)
		if err != nil {
			return nil, &domain.ServiceError{Backend: backendOpenAI, Err: err}
		}
		return img, nil
	}
	return nil, &domain.ServiceError{Backend: backendOpenAI, Err: ErrNoImage}
}
