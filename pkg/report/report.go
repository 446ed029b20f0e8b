package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorHeader = lipgloss.Color("12") // bright blue
	colorStep   = lipgloss.Color("6")  // cyan
	colorOK     = lipgloss.Color("2")  // green
	colorWarn   = lipgloss.Color("3")  // yellow
	colorMuted  = lipgloss.Color("8")  // dim

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	stepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorStep)

	okStyle = lipgloss.NewStyle().
		Foreground(colorOK)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	columnHeaderStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Underline(true)
)

// Reporter は実行中の進捗を人間向けの行として書き出します。
// ログ (slog) とは別に、stderr へ短い装飾付きの行を出すのだ。
type Reporter struct {
	w    io.Writer
	step int
}

// New は w に書き出す Reporter を返します。w が nil なら何も出力しません。
func New(w io.Writer) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w}
}

// Discard は何も出力しない Reporter を返します。
func Discard() *Reporter {
	return New(io.Discard)
}

// Header は実行の概要を出力します。
func (r *Reporter) Header(title string, fields ...Field) {
	fmt.Fprintln(r.w, headerStyle.Render(title))
	for _, f := range fields {
		r.Detail(f.Key, f.Value)
	}
}

// Step は次の処理段階の見出しを出力します。段階番号は自動で進みます。
func (r *Reporter) Step(format string, args ...any) {
	r.step++
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.w, stepStyle.Render(fmt.Sprintf("step %d: %s", r.step, msg)))
}

// Detail は段階内の補足情報を出力します。
func (r *Reporter) Detail(key string, value any) {
	fmt.Fprintln(r.w, detailStyle.Render(fmt.Sprintf("   %s: %v", key, value)))
}

// OK は段階の成功を出力します。
func (r *Reporter) OK(format string, args ...any) {
	fmt.Fprintln(r.w, okStyle.Render("   ✓ "+fmt.Sprintf(format, args...)))
}

// Warn は処理を継続できる問題を出力します。
func (r *Reporter) Warn(format string, args ...any) {
	fmt.Fprintln(r.w, warnStyle.Render("   ! "+fmt.Sprintf(format, args...)))
}

// Done は完了行と成果物のパスを出力します。
func (r *Reporter) Done(output string, extras ...Field) {
	fmt.Fprintln(r.w, okStyle.Bold(true).Render("done! saved: "+output))
	for _, f := range extras {
		r.Detail(f.Key, f.Value)
	}
}

// Field は Header や Done に添えるキーと値の組です。
type Field struct {
	Key   string
	Value any
}

// F は Field を生成する短縮形です。
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Table は列幅を揃えた表を出力します。
func (r *Reporter) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		out := make([]string, 0, len(cells))
		for i, c := range cells {
			if i < len(widths) {
				out = append(out, style.Width(widths[i]+2).Render(c))
			}
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, out...)
	}

	fmt.Fprintln(r.w, render(header, columnHeaderStyle))
	for _, row := range rows {
		fmt.Fprintln(r.w, render(row, lipgloss.NewStyle()))
	}
}
