package runner

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-sprite-kit/internal/testutil"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/layout"
	"github.com/shouni/go-sprite-kit/pkg/prompts"
	"github.com/shouni/go-sprite-kit/pkg/publisher"
	"github.com/shouni/go-sprite-kit/pkg/report"
)

func wavePreset(t *testing.T) domain.Preset {
	t.Helper()
	p, err := domain.DefaultPresets().Get("wave")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func sourceImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func baseInput(t *testing.T, dir string) RunInput {
	return RunInput{
		Input:    sourceImage(),
		Preset:   wavePreset(t),
		Output:   filepath.Join(dir, "wave.gif"),
		Size:     32,
		Duration: 180 * time.Millisecond,
	}
}

func readGIF(t *testing.T, path string) *gif.GIF {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("GIF のデコードに失敗しました: %v", err)
	}
	return g
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

func sameRGBA(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func TestSpriteRunner_Run(t *testing.T) {
	dir := t.TempDir()
	stub := testutil.NewStubGenerator(4, 4, 64)
	r := NewSpriteRunner(stub, nil, nil, nil)

	in := baseInput(t, dir)
	res, err := r.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run でエラーが発生しました: %v", err)
	}

	if res.FrameCount != 16 {
		t.Errorf("FrameCount = %d, want 16", res.FrameCount)
	}
	if res.SheetSize != image.Pt(256, 256) {
		t.Errorf("SheetSize = %v, want 256x256", res.SheetSize)
	}
	if len(res.Written) != 1 || res.Written[0] != in.Output {
		t.Errorf("Written = %v, want [%s]", res.Written, in.Output)
	}

	t.Run("GIFの構造", func(t *testing.T) {
		g := readGIF(t, in.Output)
		if len(g.Image) != 16 {
			t.Fatalf("frames = %d, want 16", len(g.Image))
		}
		if g.LoopCount != 0 {
			t.Errorf("LoopCount = %d, want 0", g.LoopCount)
		}
		for i, frame := range g.Image {
			if frame.Bounds().Size() != image.Pt(32, 32) {
				t.Errorf("frame %d size = %v", i, frame.Bounds().Size())
			}
			if g.Delay[i] != 18 {
				t.Errorf("frame %d delay = %d, want 18", i, g.Delay[i])
			}
			// 行優先: i = row*4 + col
			want := testutil.CellColor(i%4, i/4)
			if got := frame.At(16, 16); !sameRGBA(got, want) {
				t.Errorf("frame %d color = %v, want %v", i, got, want)
			}
		}
	})

	t.Run("バックエンドへのリクエスト", func(t *testing.T) {
		if stub.Calls() != 1 {
			t.Fatalf("calls = %d, want 1", stub.Calls())
		}
		req := stub.Requests[0]
		if len(req.Images) != 2 {
			t.Fatalf("images = %d, want 2", len(req.Images))
		}
		if req.Images[0].Bounds().Size() != image.Pt(1024, 1024) {
			t.Errorf("1枚目はテンプレートであるべきです: %v", req.Images[0].Bounds())
		}
		if req.Images[1] != in.Input {
			t.Error("2枚目は入力画像であるべきです")
		}
		if !strings.Contains(req.Prompt, "4x4") || !strings.Contains(req.Prompt, "WAVE") {
			t.Errorf("プロンプトにプリセットが反映されていません: %q", req.Prompt)
		}
		if req.Resolution != generator.Resolution1K {
			t.Errorf("Resolution = %q, want 1K", req.Resolution)
		}
	})

	if files := entries(t, dir); len(files) != 1 {
		t.Errorf("出力ディレクトリに余計なファイルがあります: %v", files)
	}
}

func TestSpriteRunner_KeepArtifacts(t *testing.T) {
	dir := t.TempDir()
	stub := testutil.NewStubGenerator(4, 4, 32)
	r := NewSpriteRunner(stub, layout.NewTemplateCache(), prompts.NewSheetPromptBuilder(), nil)

	in := baseInput(t, dir)
	in.KeepSheet = true
	in.KeepFrames = true
	in.KeepTemplate = true
	in.Resolution = generator.Resolution2K

	res, err := r.Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	paths, _ := publisher.ResolveArtifacts(in.Output)
	for _, p := range []string{paths.Output, paths.Sheet, paths.Template, publisher.FramePath(paths.FramesDir, 0), publisher.FramePath(paths.FramesDir, 15)} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s が保存されていません: %v", p, err)
		}
	}
	if got := len(entries(t, paths.FramesDir)); got != 16 {
		t.Errorf("frames = %d, want 16", got)
	}
	if len(res.Written) != 1+1+1+16 {
		t.Errorf("Written = %d", len(res.Written))
	}
	if _, err := os.Stat(paths.Pixel); !os.IsNotExist(err) {
		t.Error("2段階モードでないのにピクセル画像が保存されています")
	}
	if stub.Requests[0].Resolution != generator.Resolution2K {
		t.Errorf("Resolution = %q, want 2K", stub.Requests[0].Resolution)
	}
}

// fixedSheet は常に同じシート画像を返すジェネレーターです。
type fixedSheet struct {
	sheet image.Image
}

func (f fixedSheet) Generate(ctx context.Context, _ generator.Request) (image.Image, error) {
	return f.sheet, ctx.Err()
}

func TestSpriteRunner_TransparentUnevenSheet(t *testing.T) {
	dir := t.TempDir()
	// 4x4 グリッドで割り切れない 66x66 の透明なシート
	sheet := image.NewNRGBA(image.Rect(0, 0, 66, 66))
	var buf bytes.Buffer
	r := NewSpriteRunner(fixedSheet{sheet: sheet}, nil, nil, report.New(&buf))

	in := baseInput(t, dir)
	in.KeepSheet = true
	in.KeepFrames = true
	res, err := r.Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.SheetSize != image.Pt(66, 66) {
		t.Errorf("SheetSize = %v, want 66x66", res.SheetSize)
	}
	if !strings.Contains(buf.String(), "remainder pixels are dropped") {
		t.Errorf("余りの警告が出力されていません:\n%s", buf.String())
	}

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for _, path := range []string{res.Artifacts.Sheet, publisher.FramePath(res.Artifacts.FramesDir, 0)} {
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if got := color.NRGBAModel.Convert(img.At(0, 0)); got != white {
			t.Errorf("%s: 透明部分が白に合成されていません: %v", path, got)
		}
	}
}

func TestSpriteRunner_TwoStep(t *testing.T) {
	dir := t.TempDir()
	stub := testutil.NewStubGenerator(4, 4, 16)
	r := NewSpriteRunner(stub, nil, nil, nil)

	in := baseInput(t, dir)
	in.TwoStep = true
	in.Resolution = generator.Resolution2K
	if _, err := r.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}

	if stub.Calls() != 2 {
		t.Fatalf("calls = %d, want 2", stub.Calls())
	}
	first, second := stub.Requests[0], stub.Requests[1]
	if len(first.Images) != 1 || first.Images[0] != in.Input {
		t.Error("1回目は入力画像だけを送るべきです")
	}
	if first.Prompt != prompts.PixelatePrompt || first.Resolution != generator.Resolution1K {
		t.Errorf("1回目のリクエストが不正です: %q %q", first.Prompt, first.Resolution)
	}
	// 2回目の入力はピクセル化の結果に置き換わるのだ
	if second.Images[1].Bounds().Size() != image.Pt(64, 64) {
		t.Errorf("2回目の入力がピクセル化結果ではありません: %v", second.Images[1].Bounds())
	}
	paths, _ := publisher.ResolveArtifacts(in.Output)
	if _, err := os.Stat(paths.Pixel); err != nil {
		t.Errorf("ピクセル画像が保存されていません: %v", err)
	}
}

func TestSpriteRunner_Failures(t *testing.T) {
	svcErr := &domain.ServiceError{Backend: "stub", Err: errors.New("quota exceeded")}

	tests := []struct {
		name    string
		stub    *testutil.StubGenerator
		mutate  func(*RunInput)
		wantErr error
		calls   int
	}{
		{
			name:    "シート生成の失敗",
			stub:    &testutil.StubGenerator{Columns: 4, Rows: 4, CellSize: 8, Err: svcErr},
			mutate:  func(in *RunInput) { in.KeepTemplate = true },
			wantErr: domain.ErrService,
			calls:   1,
		},
		{
			name:    "ピクセル化の失敗はフォールバックしない",
			stub:    &testutil.StubGenerator{Columns: 4, Rows: 4, CellSize: 8, Err: svcErr, FailOn: 1},
			mutate:  func(in *RunInput) { in.TwoStep = true },
			wantErr: domain.ErrService,
			calls:   1,
		},
		{
			name:    "2回目のシート生成だけ失敗",
			stub:    &testutil.StubGenerator{Columns: 4, Rows: 4, CellSize: 8, Err: svcErr, FailOn: 2},
			mutate:  func(in *RunInput) { in.TwoStep = true; in.KeepTemplate = true },
			wantErr: domain.ErrService,
			calls:   2,
		},
		{
			name:    "小さすぎるシート",
			stub:    testutil.NewStubGenerator(1, 1, 2),
			mutate:  func(in *RunInput) { in.KeepSheet = true; in.KeepTemplate = true },
			wantErr: domain.ErrShape,
			calls:   1,
		},
		{
			name:    "不正なフレーム間隔",
			stub:    testutil.NewStubGenerator(4, 4, 8),
			mutate:  func(in *RunInput) { in.Duration = 5 * time.Millisecond },
			wantErr: domain.ErrConfig,
		},
		{
			name:    "不正なサイズ",
			stub:    testutil.NewStubGenerator(4, 4, 8),
			mutate:  func(in *RunInput) { in.Size = 0 },
			wantErr: domain.ErrConfig,
		},
		{
			name:    "入力画像なし",
			stub:    testutil.NewStubGenerator(4, 4, 8),
			mutate:  func(in *RunInput) { in.Input = nil },
			wantErr: domain.ErrConfig,
		},
		{
			name: "ラベル数の不一致",
			stub: testutil.NewStubGenerator(4, 4, 8),
			mutate: func(in *RunInput) {
				in.Preset.Labels = in.Preset.Labels[:15]
			},
			wantErr: domain.ErrShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := baseInput(t, dir)
			tt.mutate(&in)

			_, err := NewSpriteRunner(tt.stub, nil, nil, nil).Run(context.Background(), in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.stub.Calls() != tt.calls {
				t.Errorf("calls = %d, want %d", tt.stub.Calls(), tt.calls)
			}
			if files := entries(t, dir); len(files) != 0 {
				t.Errorf("失敗後にファイルが残っています: %v", files)
			}
		})
	}
}

func TestSpriteRunner_Cancelled(t *testing.T) {
	dir := t.TempDir()
	stub := testutil.NewStubGenerator(4, 4, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSpriteRunner(stub, nil, nil, nil).Run(ctx, baseInput(t, dir))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if files := entries(t, dir); len(files) != 0 {
		t.Errorf("中断後にファイルが残っています: %v", files)
	}
}
