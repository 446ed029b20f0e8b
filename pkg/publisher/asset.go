package publisher

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// StagePNG は画像を PNG としてステージします。
func (p *Publisher) StagePNG(path string, img image.Image) error {
	return p.StageWriter(path, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

// StageFrames はフレームを framesDir/frame_NN.png として順番にステージします。
func (p *Publisher) StageFrames(framesDir string, frames []*image.NRGBA) error {
	for i, frame := range frames {
		if err := p.StagePNG(FramePath(framesDir, i), frame); err != nil {
			return fmt.Errorf("フレーム %d の保存に失敗しました: %w", i, err)
		}
	}
	return nil
}
