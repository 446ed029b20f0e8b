package animation

import (
	"image"
	"image/color"
	"sort"
)

const maxPaletteSize = 256

type bucket struct {
	key     uint32
	count   int
	r, g, b int
}

// buildPalette は全フレーム共通のパレットを決定論的に作ります。
// 色数が 256 以下ならそのまま使い、超える場合は各チャネル 5bit に量子化した上で
// 出現頻度の高いものから 256 色を選ぶのだ。フレームは不透明である前提です。
func buildPalette(frames []*image.RGBA) color.Palette {
	exact := make(map[uint32]int)
	for _, f := range frames {
		for i := 0; i+3 < len(f.Pix); i += 4 {
			key := uint32(f.Pix[i])<<16 | uint32(f.Pix[i+1])<<8 | uint32(f.Pix[i+2])
			exact[key]++
		}
	}

	if len(exact) <= maxPaletteSize {
		keys := make([]uint32, 0, len(exact))
		for k := range exact {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		pal := make(color.Palette, len(keys))
		for i, k := range keys {
			pal[i] = color.RGBA{R: uint8(k >> 16), G: uint8(k >> 8), B: uint8(k), A: 255}
		}
		return pal
	}

	buckets := make(map[uint32]*bucket)
	for k, n := range exact {
		r, g, b := int(k>>16&0xFF), int(k>>8&0xFF), int(k&0xFF)
		bk := uint32(r>>3)<<10 | uint32(g>>3)<<5 | uint32(b>>3)
		bu, ok := buckets[bk]
		if !ok {
			bu = &bucket{key: bk}
			buckets[bk] = bu
		}
		bu.count += n
		bu.r += r * n
		bu.g += g * n
		bu.b += b * n
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bu := range buckets {
		ranked = append(ranked, bu)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})
	if len(ranked) > maxPaletteSize {
		ranked = ranked[:maxPaletteSize]
	}

	pal := make(color.Palette, len(ranked))
	for i, bu := range ranked {
		pal[i] = color.RGBA{
			R: uint8(bu.r / bu.count),
			G: uint8(bu.g / bu.count),
			B: uint8(bu.b / bu.count),
			A: 255,
		}
	}
	return pal
}

// paletteMapper は RGB 値からパレットインデックスへの対応をメモ化します。
type paletteMapper struct {
	pal   color.Palette
	index map[uint32]uint8
}

func newPaletteMapper(pal color.Palette) *paletteMapper {
	return &paletteMapper{pal: pal, index: make(map[uint32]uint8)}
}

func (m *paletteMapper) paletted(img *image.RGBA) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(b, m.pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
			idx, ok := m.index[key]
			if !ok {
				idx = uint8(m.pal.Index(c))
				m.index[key] = idx
			}
			out.SetColorIndex(x, y, idx)
		}
	}
	return out
}
