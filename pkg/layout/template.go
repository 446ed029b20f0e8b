package layout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	gridLineWidth = 3
	labelFontSize = 20
)

var (
	backgroundColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	gridLineColor   = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	labelColor      = color.RGBA{R: 80, G: 80, B: 80, A: 255}
)

// labelFont は同梱の Go Bold フォントを一度だけパースして共有します。
var labelFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

// TemplateSpec はテンプレート画像の描画に必要な入力です。
// Labels は行優先で、長さは Columns×Rows と一致しなければなりません。
type TemplateSpec struct {
	Grid
	CellSize int
	Labels   []string
}

// TemplateSpecFor はプリセットから既定セルサイズのテンプレート仕様を作ります。
func TemplateSpecFor(p domain.Preset) TemplateSpec {
	return TemplateSpec{
		Grid:     GridOf(p),
		CellSize: DefaultCellSize,
		Labels:   p.Labels,
	}
}

// Validate はグリッド形状・セルサイズ・ラベル数を検証します。
func (s TemplateSpec) Validate() error {
	if err := s.Grid.validate(); err != nil {
		return err
	}
	if s.CellSize <= 0 {
		return &domain.ShapeError{
			What:     "template cell size",
			Expected: "a positive pixel count",
			Actual:   fmt.Sprintf("%d", s.CellSize),
		}
	}
	if len(s.Labels) != s.Cells() {
		return &domain.ShapeError{
			What:     fmt.Sprintf("template labels for %s grid", s.Grid),
			Expected: fmt.Sprintf("%d labels", s.Cells()),
			Actual:   fmt.Sprintf("%d labels", len(s.Labels)),
		}
	}
	return nil
}

// Size はテンプレート画像のピクセル寸法を返します。常に (Columns, Rows) で割り切れます。
func (s TemplateSpec) Size() image.Point {
	return image.Pt(s.Columns*s.CellSize, s.Rows*s.CellSize)
}

// RenderTemplate は枠線とラベル付きのグリッド画像を描画します。
// 乱数は使わないため、同じ入力からは常に同一の画像が得られます。
func RenderTemplate(spec TemplateSpec) (*image.RGBA, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	size := spec.Size()
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	drawGridLines(img, spec)

	f, err := labelFont()
	if err != nil {
		return nil, fmt.Errorf("ラベル用フォントの読み込みに失敗しました: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    labelFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("フォントフェイスの生成に失敗しました: %w", err)
	}
	defer face.Close()

	for i, label := range spec.Labels {
		col, row := spec.Cell(i)
		cx := col*spec.CellSize + spec.CellSize/2
		cy := row*spec.CellSize + spec.CellSize/2
		drawCenteredLabel(img, face, label, cx, cy)
	}

	return img, nil
}

// drawGridLines は外枠を含むすべてのセル境界に線を引きます。
func drawGridLines(img *image.RGBA, spec TemplateSpec) {
	size := spec.Size()
	line := image.NewUniform(gridLineColor)
	half := gridLineWidth / 2

	for c := 0; c <= spec.Columns; c++ {
		x := c * spec.CellSize
		r := image.Rect(x-half, 0, x-half+gridLineWidth, size.Y).Intersect(img.Bounds())
		draw.Draw(img, r, line, image.Point{}, draw.Src)
	}
	for r := 0; r <= spec.Rows; r++ {
		y := r * spec.CellSize
		rect := image.Rect(0, y-half, size.X, y-half+gridLineWidth).Intersect(img.Bounds())
		draw.Draw(img, rect, line, image.Point{}, draw.Src)
	}
}

func drawCenteredLabel(img *image.RGBA, face font.Face, label string, cx, cy int) {
	bounds, _ := font.BoundString(face, label)
	tw := (bounds.Max.X - bounds.Min.X).Ceil()
	th := (bounds.Max.Y - bounds.Min.Y).Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(cx-tw/2-bounds.Min.X.Floor(), cy-th/2-bounds.Min.Y.Floor()),
	}
	d.DrawString(label)
}

// EncodePNG は画像を PNG バイト列にエンコードします。
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("PNGエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
