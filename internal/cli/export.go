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

// NewExportCmd 导出命令
// 返回: *cobra.Command 命令
func NewExportCmd() *cobra.Command {
	var out string
	exportCmd := cobra.Command{
		Use:   "export <file.xrd>",
		Short: "Export the results table of a data file to xlsx.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := otxrd.LoadFile(args[0], otxrd.WithRenderer(newRenderer()))
			if err != nil {
				return err
			}
			if out == "" {
				out = otxrd.FileStem(filepath.Base(args[0])) + ".xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return errors.Wrapf(err, "failed to create %s", out)
			}
			defer f.Close()
			if err := otxrd.ExportResultsXLSX(f, entry); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %d results to %s\n", len(entry.Results), out)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&out, "out", "", "output xlsx file, defaults to <stem>.xlsx")
	return &exportCmd
}

func init() {
	rootCmd.AddCommand(NewExportCmd())
}
