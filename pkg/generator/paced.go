package generator

import (
	"context"
	"fmt"
	"image"
	"time"

	"golang.org/x/time/rate"
)

// Paced は外部呼び出しの間隔を最低 interval 空けるための SheetGenerator デコレータです。
// 待機するだけで、失敗した呼び出しの再試行は行いません。
type Paced struct {
	next    SheetGenerator
	limiter *rate.Limiter
}

var _ SheetGenerator = (*Paced)(nil)

// NewPaced は interval ごとに1回だけ next を呼び出す Paced を返します。
// interval が 0 以下なら制限しません。
func NewPaced(next SheetGenerator, interval time.Duration) *Paced {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Paced{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (p *Paced) Generate(ctx context.Context, req Request) (image.Image, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限の待機中に中断されました: %w", err)
	}
	return p.next.Generate(ctx, req)
}
