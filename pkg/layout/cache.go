package layout

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultTemplateExpiration = 30 * time.Minute
	templateCleanupInterval   = 1 * time.Hour
)

// Template は描画済みのテンプレート画像とその PNG エンコードを保持します。
// キャッシュから返される値は共有されるため、呼び出し側で変更してはいけません。
type Template struct {
	Spec  TemplateSpec
	Image *image.RGBA
	PNG   []byte
}

// TemplateCache は同じ仕様のテンプレートを再描画しないためのメモ化層です。
type TemplateCache struct {
	store *cache.Cache
}

// NewTemplateCache は既定の有効期限で TemplateCache を生成します。
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		store: cache.New(defaultTemplateExpiration, templateCleanupInterval),
	}
}

// Get はキャッシュ済みのテンプレートを返し、なければ描画して格納します。
func (c *TemplateCache) Get(spec TemplateSpec) (*Template, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	key := templateKey(spec)
	if v, ok := c.store.Get(key); ok {
		if tpl, ok := v.(*Template); ok {
			return tpl, nil
		}
	}

	img, err := RenderTemplate(spec)
	if err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	tpl := &Template{
		Spec:  spec,
		Image: img,
		PNG:   data,
	}
	c.store.Set(key, tpl, cache.DefaultExpiration)
	return tpl, nil
}

// Len はキャッシュ中のテンプレート数を返します。
func (c *TemplateCache) Len() int {
	return c.store.ItemCount()
}

// templateKey はテンプレート仕様から衝突しにくいキーを作ります。
// ラベルは長さ付きで連結するため、区切り文字を含むラベルでも曖昧になりません。
func templateKey(spec TemplateSpec) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d|", spec.Columns, spec.Rows, spec.CellSize)
	var n [8]byte
	for _, label := range spec.Labels {
		binary.BigEndian.PutUint64(n[:], uint64(len(label)))
		h.Write(n[:])
		h.Write([]byte(label))
	}
	return hex.EncodeToString(h.Sum(nil))
}
