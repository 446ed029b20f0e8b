package generator

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// Resolution は外部生成サービスに要求する解像度の段階です。
type Resolution string

const (
	// Resolution1K は標準的な解像度の設定（1024x1024相当）です。
	Resolution1K Resolution = "1K"
	// Resolution2K は高解像度の設定（2048x2048相当）です。
	Resolution2K Resolution = "2K"
)

// ErrNoImage は応答に画像が含まれていなかったことを表します。
var ErrNoImage = errors.New("response contained no image data")

// ParseResolution は CLI の文字列を Resolution に変換します。
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(strings.ToUpper(strings.TrimSpace(s))) {
	case Resolution1K:
		return Resolution1K, nil
	case Resolution2K:
		return Resolution2K, nil
	default:
		return "", domain.NewConfigError("invalid resolution %q (want %s or %s)", s, Resolution1K, Resolution2K)
	}
}

// Request は外部生成サービスへの1回分の要求です。
// Images は送信順に並べた参照画像 (テンプレート、元画像の順) です。
type Request struct {
	Images     []image.Image
	Prompt     string
	Resolution Resolution
}

// SheetGenerator は画像とプロンプトを受け取り、合成画像を1枚返す外部境界です。
// 出力がテンプレートに正確に従う保証はありません。
type SheetGenerator interface {
	Generate(ctx context.Context, req Request) (image.Image, error)
}
