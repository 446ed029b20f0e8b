package publisher

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Artifacts は出力 GIF のパスから導出される成果物のパス一式です。
type Artifacts struct {
	Output    string
	Sheet     string
	FramesDir string
	Template  string
	Pixel     string
}

// ResolveArtifacts は出力パスと同じディレクトリに置く付随ファイルのパスを導出します。
// 例: out/wave.gif → out/wave_sheet.png, out/wave_frames/, out/wave_template.png, out/wave_pixel.png
func ResolveArtifacts(output string) (Artifacts, error) {
	if strings.TrimSpace(output) == "" {
		return Artifacts{}, fmt.Errorf("出力パスが空です")
	}
	dir := filepath.Dir(output)
	base := filepath.Base(output)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	return Artifacts{
		Output:    output,
		Sheet:     filepath.Join(dir, stem+"_sheet.png"),
		FramesDir: filepath.Join(dir, stem+"_frames"),
		Template:  filepath.Join(dir, stem+"_template.png"),
		Pixel:     filepath.Join(dir, stem+"_pixel.png"),
	}, nil
}

// FramePath はフレーム番号 (0始まり) に対応するファイルパスを返します。
func FramePath(framesDir string, index int) string {
	return filepath.Join(framesDir, fmt.Sprintf("frame_%02d.png", index))
}
