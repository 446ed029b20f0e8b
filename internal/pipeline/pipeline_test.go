package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/internal/testutil"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/report"

	"github.com/google/go-cmp/cmp"
)

// stubFactory は呼び出し回数を数えつつ StubGenerator を返すファクトリを作ります。
func stubFactory(stub *testutil.StubGenerator, calls *int) func(context.Context, *config.Config, string) (generator.SheetGenerator, error) {
	return func(_ context.Context, _ *config.Config, _ string) (generator.SheetGenerator, error) {
		*calls++
		return stub, nil
	}
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cat.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, testutil.GridSheet(1, 1, 8)); err != nil {
		t.Fatal(err)
	}
	return path
}

func newConfig(dir, input string) *config.Config {
	return &config.Config{
		Backend:          config.BackendGemini,
		GeminiImageModel: generator.DefaultGeminiModel,
		Options: config.GenerateOptions{
			InputFile:  input,
			OutputFile: filepath.Join(dir, "out", "sprite.gif"),
			Animation:  "wave",
			Size:       config.DefaultSize,
			Resolution: config.DefaultResolution,
			Duration:   config.DefaultDuration,
			APIKey:     "test-key",
		},
	}
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	cfg := newConfig(dir, writeInput(t, dir))
	cfg.Options.KeepFrames = true

	stub := testutil.NewStubGenerator(4, 4, 16)
	var factoryCalls int
	var buf bytes.Buffer

	res, err := execute(context.Background(), cfg, report.New(&buf), stubFactory(stub, &factoryCalls))
	if err != nil {
		t.Fatalf("execute でエラーが発生しました: %v", err)
	}
	if res.FrameCount != 16 {
		t.Errorf("FrameCount = %d, want 16", res.FrameCount)
	}
	if factoryCalls != 1 || stub.Calls() != 1 {
		t.Errorf("factory=%d calls=%d, want 1/1", factoryCalls, stub.Calls())
	}
	if _, err := os.Stat(cfg.Options.OutputFile); err != nil {
		t.Errorf("GIF が保存されていません: %v", err)
	}
	if len(res.Written) != 17 {
		t.Errorf("Written = %d, want 17", len(res.Written))
	}

	out := buf.String()
	for _, want := range []string{"animation: wave (16 frames, 4x4 grid)", "done! saved: " + cfg.Options.OutputFile, "frames: "} {
		if !strings.Contains(out, want) {
			t.Errorf("進捗出力に %q が含まれていません:\n%s", want, out)
		}
	}
}

func TestExecute_NoCredential(t *testing.T) {
	for _, key := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	cfg := newConfig(dir, writeInput(t, dir))
	cfg.Options.APIKey = ""

	stub := testutil.NewStubGenerator(4, 4, 16)
	var factoryCalls int
	_, err := execute(context.Background(), cfg, nil, stubFactory(stub, &factoryCalls))

	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *domain.ConfigError", err)
	}
	if factoryCalls != 0 || stub.Calls() != 0 {
		t.Errorf("認証情報がないのにバックエンドが呼ばれました: factory=%d calls=%d", factoryCalls, stub.Calls())
	}
}

func TestExecute_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"入力画像なし", func(c *config.Config) { c.Options.InputFile = filepath.Join(filepath.Dir(c.Options.InputFile), "missing.png") }},
		{"未知のアニメーション", func(c *config.Config) { c.Options.Animation = "moonwalk" }},
		{"不正な解像度", func(c *config.Config) { c.Options.Resolution = "8K" }},
		{"不正なバックエンド", func(c *config.Config) { c.Options.Backend = "local" }},
		{"プリセットファイルなし", func(c *config.Config) { c.Options.PresetsFile = "does-not-exist.yaml" }},
		{"不正なフレーム間隔", func(c *config.Config) { c.Options.Duration = time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := newConfig(dir, writeInput(t, dir))
			tt.mutate(cfg)

			stub := testutil.NewStubGenerator(4, 4, 16)
			var factoryCalls int
			_, err := execute(context.Background(), cfg, nil, stubFactory(stub, &factoryCalls))
			if !errors.Is(err, domain.ErrConfig) {
				t.Fatalf("err = %v, want ErrConfig", err)
			}
			if stub.Calls() != 0 {
				t.Errorf("設定エラーなのにバックエンドが呼ばれました: %d", stub.Calls())
			}
		})
	}

	t.Run("デコードできない入力", func(t *testing.T) {
		dir := t.TempDir()
		bad := filepath.Join(dir, "notes.txt")
		if err := os.WriteFile(bad, []byte("hello"), 0o644); err != nil {
			t.Fatal(err)
		}
		var factoryCalls int
		_, err := execute(context.Background(), newConfig(dir, bad), nil, stubFactory(testutil.NewStubGenerator(4, 4, 4), &factoryCalls))
		if !errors.Is(err, domain.ErrConfig) {
			t.Errorf("err = %v, want ErrConfig", err)
		}
	})
}

func TestExecute_CustomPreset(t *testing.T) {
	dir := t.TempDir()
	presets := filepath.Join(dir, "presets.yaml")
	yaml := `presets:
  - name: Nod
    columns: 2
    rows: 2
    labels: ["1:up", "2:mid", "3:down", "4:mid"]
    prompt: "Fill this {{.Columns}}x{{.Rows}} grid with a nodding character."
`
	if err := os.WriteFile(presets, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := newConfig(dir, writeInput(t, dir))
	cfg.Options.PresetsFile = presets
	cfg.Options.Animation = "nod"

	stub := testutil.NewStubGenerator(2, 2, 16)
	var factoryCalls int
	res, err := execute(context.Background(), cfg, nil, stubFactory(stub, &factoryCalls))
	if err != nil {
		t.Fatal(err)
	}
	if res.FrameCount != 4 {
		t.Errorf("FrameCount = %d, want 4", res.FrameCount)
	}
	if got := stub.Requests[0].Prompt; got != "Fill this 2x2 grid with a nodding character." {
		t.Errorf("Prompt = %q", got)
	}
	if got := stub.Requests[0].Images[0].Bounds().Size(); got != image.Pt(512, 512) {
		t.Errorf("template size = %v, want 512x512", got)
	}
}

func TestExecuteTemplate(t *testing.T) {
	for _, key := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	cfg := &config.Config{Options: config.GenerateOptions{
		Animation:  "bounce",
		OutputFile: filepath.Join(dir, "bounce_template.png"),
	}}

	path, err := ExecuteTemplate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("ExecuteTemplate でエラーが発生しました: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(1024, 1024) {
		t.Errorf("template size = %v, want 1024x1024", img.Bounds().Size())
	}

	t.Run("出力パスなし", func(t *testing.T) {
		_, err := ExecuteTemplate(context.Background(), &config.Config{}, nil)
		if !errors.Is(err, domain.ErrConfig) {
			t.Errorf("err = %v, want ErrConfig", err)
		}
	})
}

func TestListPresets(t *testing.T) {
	presets, err := ListPresets(&config.Config{})
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"bounce", "dance", "idle", "wave"}, names); diff != "" {
		t.Errorf("ListPresets() mismatch (-want +got):\n%s", diff)
	}
}
