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

package otxrd

import (
	"io"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// ResultsSheet 结果工作表名称
const ResultsSheet = "Results"

// ExportResultsXLSX 导出测量结果表格
// 入参: w 输出流, entry 测量条目
// 返回: error 错误信息
func ExportResultsXLSX(w io.Writer, entry *OmegaThetaXRD) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return errors.Wrap(err, "failed to create results sheet")
	}
	header := append([]string{"Name"}, TableHeader...)
	cells := lo.ToAnySlice(header)
	if err := f.SetSheetRow(ResultsSheet, "A1", &cells); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := f.SetCellStyle(ResultsSheet, "A1", last, style); err != nil {
		return errors.Wrap(err, "failed to style header")
	}
	for i, p := range entry.Results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.WithStack(err)
		}
		row := []any{
			p.Name, p.XPos, p.YPos, p.Tilt, p.TiltDirection,
			p.Component0, p.Component90, p.ReferenceOffset, p.ReferenceAxis,
		}
		if err := f.SetSheetRow(ResultsSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+2)
		}
	}
	if err := f.SetColWidth(ResultsSheet, "A", "I", 18); err != nil {
		return errors.WithStack(err)
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write xlsx")
	}
	return nil
}
