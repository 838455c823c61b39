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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/xiaoqidun/otxrd"
	"github.com/xiaoqidun/otxrd/internal/logging"
)

var processCmd = &cobra.Command{
	Use:   "process <file.xrd>...",
	Short: "Copy data files into the local upload and process them.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := otxrd.NewParser(cfg.Parser.Parameter, libOptions()...)
		host := otxrd.NewHost(afero.NewOsFs(), cfg.Upload.Root, cfg.Upload.ID, parser, libOptions()...)
		out := cmd.OutOrStdout()
		color.New(color.FgCyan).Fprintf(out, "upload %s\n", cfg.Upload.ID)
		var failed int
		for _, file := range args {
			if err := processFile(out, host, file); err != nil {
				failed++
				logging.Logger().WithError(err).WithField("mainfile", file).Error("failed to process file")
				color.New(color.FgRed).Fprintf(out, "  %s: %s\n", filepath.Base(file), err)
			}
		}
		if failed > 0 {
			return errors.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

// processFile 复制数据文件到上传目录并处理
// 入参: out 输出, host 宿主, file 数据文件路径
// 返回: error 错误信息
func processFile(out io.Writer, host *otxrd.Host, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", file)
	}
	name := filepath.Base(file)
	if err := host.Context().WriteRaw(name, data); err != nil {
		return err
	}
	raw, err := host.ProcessMainfile(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s -> %s\n", color.GreenString(raw.Metadata.EntryName), raw.Metadata.EntryID)
	entry, err := host.LoadEntry(otxrd.ArchiveFileName(name))
	if err != nil {
		return err
	}
	m, ok := entry.Data.(*otxrd.OmegaThetaXRD)
	if !ok {
		return errors.Errorf("unexpected entry %T for %s", entry.Data, name)
	}
	if m.MeasurementType == "" {
		color.New(color.FgYellow).Fprintf(out, "    unrecognized document, no results\n")
		return nil
	}
	fmt.Fprintf(out, "    %s %s, %d points, %d figures\n",
		color.CyanString(m.Name), m.MeasurementType, len(m.Results), len(m.Figures))
	if !cfg.Export.XLSX {
		return nil
	}
	var buf bytes.Buffer
	if err := otxrd.ExportResultsXLSX(&buf, m); err != nil {
		return err
	}
	xlsx := otxrd.FileStem(name) + ".results.xlsx"
	if err := host.Context().WriteRaw(xlsx, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(out, "    exported %s\n", xlsx)
	return nil
}

func init() {
	rootCmd.AddCommand(processCmd)
}
