package layout

import (
	"fmt"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// DefaultCellSize はテンプレート1セルあたりの一辺のピクセル数です。
const DefaultCellSize = 256

// Grid はスプライトシートの列数と行数です。
type Grid struct {
	Columns int
	Rows    int
}

// GridOf はプリセットのグリッド形状を返します。
func GridOf(p domain.Preset) Grid {
	return Grid{Columns: p.Columns, Rows: p.Rows}
}

// Cells はセル総数 (Columns×Rows) を返します。
func (g Grid) Cells() int {
	return g.Columns * g.Rows
}

// Cell は行優先のインデックスを (列, 行) に変換します。
func (g Grid) Cell(index int) (col, row int) {
	return index % g.Columns, index / g.Columns
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Columns, g.Rows)
}

func (g Grid) validate() error {
	if g.Columns <= 0 || g.Rows <= 0 {
		return &domain.ShapeError{
			What:     "grid",
			Expected: "at least 1x1",
			Actual:   g.String(),
		}
	}
	return nil
}
