package animation

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	xdraw "golang.org/x/image/draw"
)

// gifDelayUnit は GIF のフレーム遅延の単位 (1/100 秒) です。
const gifDelayUnit = 10 * time.Millisecond

// Options は出力アニメーションの寸法と表示時間を指定します。
type Options struct {
	// Size は各フレームの一辺のピクセル数です。全フレームが Size×Size に引き伸ばされます。
	Size int
	// Duration は全フレーム共通の表示時間です。
	Duration time.Duration
}

// Validate はサイズと表示時間が GIF で表現できる値かを検証します。
func (o Options) Validate() error {
	if o.Size <= 0 {
		return domain.NewConfigError("output size must be positive, got %d", o.Size)
	}
	if o.Duration < gifDelayUnit {
		return domain.NewConfigError("frame duration must be at least %s, got %s", gifDelayUnit, o.Duration)
	}
	return nil
}

// DelayCentiseconds は Duration を GIF の遅延値に丸めて返します。
func (o Options) DelayCentiseconds() int {
	return int((o.Duration + gifDelayUnit/2) / gifDelayUnit)
}

// Assemble はフレーム列を無限ループの GIF に組み立てます。
//
// 各フレームは最近傍補間で Size×Size に引き伸ばし、透過部分は白背景に合成します。
// 全フレームで同じパレットと同じ遅延を使い、フレーム順は入力のまま保持します。
func Assemble(frames []image.Image, opts Options) (*gif.GIF, error) {
	if len(frames) == 0 {
		return nil, &domain.ShapeError{
			What:     "frame sequence",
			Expected: "at least 1 frame",
			Actual:   "0 frames",
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	scaled := make([]*image.RGBA, len(frames))
	for i, f := range frames {
		if f == nil {
			return nil, &domain.ShapeError{
				What:     fmt.Sprintf("frame %d", i),
				Expected: "an image",
				Actual:   "nil",
			}
		}
		scaled[i] = resizeOnWhite(f, opts.Size)
	}

	pal := buildPalette(scaled)
	delay := opts.DelayCentiseconds()

	out := &gif.GIF{
		Image:     make([]*image.Paletted, len(scaled)),
		Delay:     make([]int, len(scaled)),
		LoopCount: 0,
		Config: image.Config{
			ColorModel: pal,
			Width:      opts.Size,
			Height:     opts.Size,
		},
	}
	mapper := newPaletteMapper(pal)
	for i, img := range scaled {
		out.Image[i] = mapper.paletted(img)
		out.Delay[i] = delay
	}
	return out, nil
}

// Encode は GIF を書き出します。
func Encode(w io.Writer, g *gif.GIF) error {
	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("GIFのエンコードに失敗しました: %w", err)
	}
	return nil
}

// resizeOnWhite は白背景の上に最近傍補間で拡大縮小したフレームを合成します。
func resizeOnWhite(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
