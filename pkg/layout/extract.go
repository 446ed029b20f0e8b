package layout

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/mandykoh/prism"
)

// ExtractFrames はシート画像を Columns×Rows の等面積セルに分割し、行優先で返します。
//
// セル幅は floor(W/Columns)、セル高さは floor(H/Rows) で、割り切れない余りのピクセルは
// 右端・下端から切り捨てます。モデル出力のずれは補正せず、名目上のグリッドをそのまま信頼します。
// 各フレームは原点 (0,0) の独立したコピーなので、同じ入力からは常に同一のフレーム列が得られます。
func ExtractFrames(sheet image.Image, grid Grid) ([]*image.NRGBA, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, &domain.ShapeError{
			What:     "sprite sheet",
			Expected: "an image",
			Actual:   "nil",
		}
	}

	b := sheet.Bounds()
	if b.Dx() < grid.Columns || b.Dy() < grid.Rows {
		return nil, &domain.ShapeError{
			What:     fmt.Sprintf("sprite sheet for %s grid", grid),
			Expected: fmt.Sprintf("at least %dx%d pixels", grid.Columns, grid.Rows),
			Actual:   fmt.Sprintf("%dx%d pixels", b.Dx(), b.Dy()),
		}
	}

	// 色モデルを NRGBA に揃えてから切り出すのだ。
	src := prism.ConvertImageToNRGBA(sheet, 1)

	frames := make([]*image.NRGBA, 0, grid.Cells())
	for i := 0; i < grid.Cells(); i++ {
		cell := CellRect(src.Bounds(), grid, i)

		frame := image.NewNRGBA(image.Rect(0, 0, cell.Dx(), cell.Dy()))
		draw.Draw(frame, frame.Bounds(), src, cell.Min, draw.Src)
		frames = append(frames, frame)
	}
	return frames, nil
}

// CellRect はシート上で index 番目のセルが占める矩形を返します。
func CellRect(bounds image.Rectangle, grid Grid, index int) image.Rectangle {
	cellW := bounds.Dx() / grid.Columns
	cellH := bounds.Dy() / grid.Rows
	col, row := grid.Cell(index)
	p := bounds.Min.Add(image.Pt(col*cellW, row*cellH))
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(cellW, cellH))}
}

// FlattenOnWhite は透過を含むシートを白背景に合成し、不透明な画像として返します。
// すでに不透明な画像はそのまま返すのだ。
func FlattenOnWhite(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
