// Copyright 2025-2026 肖其顿 (XIAO QI DUN)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xiaoqidun/otxrd"
)

// NewRenderCmd 渲染命令
// 返回: *cobra.Command 命令
func NewRenderCmd() *cobra.Command {
	var outDir, format string
	renderCmd := cobra.Command{
		Use:   "render <file.xrd>",
		Short: "Render the figures of a data file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := otxrd.LoadFile(args[0], otxrd.WithRenderer(newRenderer()))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
				return errors.Wrapf(err, "failed to create %s", outDir)
			}
			r := newRenderer()
			stem := otxrd.FileStem(filepath.Base(args[0]))
			for _, fig := range r.RenderEntry(entry) {
				name := filepath.Join(outDir, fig.FileName(stem, format))
				if err := writeFigure(fig, name, format, r.DPI); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s\n", name)
			}
			return nil
		},
	}
	renderCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	renderCmd.Flags().StringVar(&format, "format", otxrd.FormatSVG, "figure format: svg, pdf or png")
	return &renderCmd
}

// writeFigure 将图表写入文件
// 入参: fig 图表, name 文件路径, format 格式, dpi 光栅分辨率
// 返回: error 错误信息
func writeFigure(fig *otxrd.Figure, name, format string, dpi float64) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", name)
	}
	defer f.Close()
	return fig.Write(f, format, dpi)
}

func init() {
	rootCmd.AddCommand(NewRenderCmd())
}
