package testutil

import (
	"context"
	"image"
	"image/color"

	"github.com/shouni/go-sprite-kit/pkg/generator"
)

// StubGenerator は外部サービスの代わりに合成グリッド画像を返す SheetGenerator です。
// セル (col, row) は CellColor(col, row) で塗りつぶされます。
type StubGenerator struct {
	Columns  int
	Rows     int
	CellSize int

	// Err が設定されていれば、Generate は画像の代わりにこのエラーを返します。
	Err error
	// FailOn が正の値なら、その回数目の呼び出しだけ Err を返すのだ。
	FailOn int

	Requests []generator.Request
}

var _ generator.SheetGenerator = (*StubGenerator)(nil)

// NewStubGenerator は columns x rows のグリッドを返す StubGenerator を生成します。
func NewStubGenerator(columns, rows, cellSize int) *StubGenerator {
	return &StubGenerator{Columns: columns, Rows: rows, CellSize: cellSize}
}

func (s *StubGenerator) Generate(ctx context.Context, req generator.Request) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Requests = append(s.Requests, req)
	if s.Err != nil && (s.FailOn <= 0 || s.FailOn == len(s.Requests)) {
		return nil, s.Err
	}
	return GridSheet(s.Columns, s.Rows, s.CellSize), nil
}

// Calls は Generate が呼ばれた回数を返します。
func (s *StubGenerator) Calls() int {
	return len(s.Requests)
}

// GridSheet はセルごとに異なる単色で塗られたシート画像を生成します。
func GridSheet(columns, rows, cellSize int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, columns*cellSize, rows*cellSize))
	for row := 0; row < rows; row++ {
		for col := 0; col < columns; col++ {
			c := CellColor(col, row)
			for y := row * cellSize; y < (row+1)*cellSize; y++ {
				for x := col * cellSize; x < (col+1)*cellSize; x++ {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

// CellColor はセル位置から決まる不透明色を返します。
func CellColor(col, row int) color.NRGBA {
	return color.NRGBA{R: uint8(col*60 + 10), G: uint8(row*60 + 10), B: 128, A: 255}
}
