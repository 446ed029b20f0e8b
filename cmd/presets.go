package cmd

import (
	"strconv"
	"strings"

	"github.com/shouni/go-sprite-kit/internal/pipeline"
	"github.com/shouni/go-sprite-kit/pkg/report"

	"github.com/spf13/cobra"
)

var showLabels bool

// newPresetsCmd は、利用できるプリセットを一覧表示するサブコマンドなのだ。
func newPresetsCmd() *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "利用できるアニメーションプリセットを一覧表示するのだ。",
		Args:  cobra.NoArgs,
		RunE:  presetsCommand,
	}
	presetsCmd.Flags().BoolVarP(&showLabels, "labels", "l", false, "各セルのラベルも表示するのだ。")
	return presetsCmd
}

func presetsCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	presets, err := pipeline.ListPresets(cfg)
	if err != nil {
		return err
	}

	header := []string{"NAME", "GRID", "FRAMES"}
	if showLabels {
		header = append(header, "LABELS")
	}
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		row := []string{p.Name, strconv.Itoa(p.Columns) + "x" + strconv.Itoa(p.Rows), strconv.Itoa(p.FrameCount())}
		if showLabels {
			row = append(row, strings.Join(p.Labels, ", "))
		}
		rows = append(rows, row)
	}
	report.New(cmd.OutOrStdout()).Table(header, rows)
	return nil
}
