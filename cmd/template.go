package cmd

import (
	"github.com/shouni/go-sprite-kit/internal/pipeline"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/report"

	"github.com/spf13/cobra"
)

// newTemplateCmd は、グリッドテンプレートだけを書き出すサブコマンドなのだ。
// 認証情報は不要で、外部サービスも呼ばないのだ。
func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "プリセットのグリッドテンプレートを PNG で保存するのだ。",
		Args:  cobra.NoArgs,
		RunE:  templateCommand,
	}
}

func templateCommand(cmd *cobra.Command, args []string) error {
	if opts.OutputFile == "" {
		return domain.NewConfigError("出力ファイル (--output) を指定してほしいのだ")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, err = pipeline.ExecuteTemplate(cmd.Context(), cfg, report.New(cmd.ErrOrStderr()))
	return err
}
