package generator

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// 入力画像として受け付けるフォーマットのデコーダを登録するのだ。
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// DecodeImage は PNG / JPEG / GIF / WebP のバイト列をデコードします。
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	return img, format, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("参照画像のPNGエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
