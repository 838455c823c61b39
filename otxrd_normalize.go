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
	"bytes"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/TencentBlueKing/gopkg/collection/set"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TimeStampLayout 设备时间戳格式 月/日/年 时:分:秒
const TimeStampLayout = "1/2/2006 15:04:05"

// instrumentFilePrefix 仪器归档文件名前缀
const instrumentFilePrefix = "Freiberger_Omega_Theta_XRD_"

// Normalize 读取数据文件并填充测量条目
// 数据文件为空时不做处理; 无法识别的文档仅记录告警
// 入参: archive 条目归档, opts 配置选项
// 返回: error 错误信息
func (e *OmegaThetaXRD) Normalize(archive *EntryArchive, opts ...Option) error {
	if e.DataFile == "" {
		return nil
	}
	o := newOptions(opts...)
	logger := o.Logger.WithField("data_file", e.DataFile)
	ctx := archive.Context
	if ctx == nil {
		return errors.New("archive has no context")
	}
	if e.SampleSpecifications != nil {
		if err := e.SampleSpecifications.Validate(); err != nil {
			return err
		}
	}
	doc, err := e.readDataFile(ctx)
	if err != nil {
		if errors.Is(err, ErrUnrecognizedDocument) {
			logger.Warn("unrecognized omega theta xrd document")
			return nil
		}
		return err
	}
	e.applyHeader(doc.Header(), logger)
	switch d := doc.(type) {
	case *SingleScan:
		err = e.normalizeSingle(d, ctx, o)
	case *BatchScan:
		err = e.normalizeBatch(d, ctx, o)
	}
	if err != nil {
		return err
	}
	if archive.Metadata.EntryName == "" {
		archive.Metadata.EntryName = e.Name
	}
	logger.WithFields(logrus.Fields{
		"measurement_type": e.MeasurementType,
		"points":           len(e.Results),
	}).Info("normalized omega theta xrd entry")
	return nil
}

// readDataFile 通过上下文读取并分类数据文件
// 入参: ctx 上下文
// 返回: Document 文档, error 错误信息
func (e *OmegaThetaXRD) readDataFile(ctx Context) (Document, error) {
	rc, err := ctx.OpenRaw(e.DataFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", e.DataFile)
	}
	defer rc.Close()
	doc, err := ReadDocument(rc)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to read %s", e.DataFile)
	}
	return doc, nil
}

// applyHeader 填充条目级字段
// 入参: info 文档级基本信息, logger 日志
func (e *OmegaThetaXRD) applyHeader(info GeneralInfo, logger logrus.FieldLogger) {
	e.Name = EntryName(str(info.Name))
	e.LabID = e.Name
	e.ScanRecipeName = str(info.ScanRecipeName)
	e.Datetime = nil
	if info.TimeStamp != nil {
		t, err := time.Parse(TimeStampLayout, strings.TrimSpace(*info.TimeStamp))
		if err != nil {
			logger.WithError(err).Warn("invalid measurement time stamp")
		} else {
			e.Datetime = &t
		}
	}
}

// normalizeSingle 填充单次测量
// 入参: d 单次测量文档, ctx 上下文, o 配置
// 返回: error 错误信息
func (e *OmegaThetaXRD) normalizeSingle(d *SingleScan, ctx Context, o *Options) error {
	e.MeasurementType = MeasurementTypeSingle
	result, err := NewParameterList(d.Measurement)
	if err != nil {
		return err
	}
	ref, err := instrumentReference(ctx, str(d.Info.DeviceSerialNo))
	if err != nil {
		return err
	}
	e.Instruments = []InstrumentReference{ref}
	e.Results = []ParameterList{result}
	if d.Scans != nil {
		fig := o.renderer().RenderScanCurves(*d.Scans)
		if e.Results[0].Figures, err = e.persistFigures(ctx, o, fig); err != nil {
			return err
		}
	}
	e.Figures, err = e.persistFigures(ctx, o, o.renderer().RenderTable(e.Results))
	return err
}

// normalizeBatch 填充批量测量
// 入参: d 批量测量文档, ctx 上下文, o 配置
// 返回: error 错误信息
func (e *OmegaThetaXRD) normalizeBatch(d *BatchScan, ctx Context, o *Options) error {
	e.MeasurementType = MeasurementTypeMapping
	e.Results = make([]ParameterList, 0, len(d.Points))
	serials := set.NewStringSet()
	for i, p := range d.Points {
		result, err := NewParameterList(p)
		if err != nil {
			return errors.WithMessagef(err, "point %d", i)
		}
		e.Results = append(e.Results, result)
		serials.Append(instrumentLabID(str(p.Info.DeviceSerialNo)))
	}
	for _, serial := range serials.ToSlice() {
		if _, err := instrumentReference(ctx, serial); err != nil {
			return err
		}
	}
	e.Instruments = nil
	if n := len(d.Points); n > 0 {
		// 以最后一个测量点的仪器为准
		ref, err := instrumentReference(ctx, str(d.Points[n-1].Info.DeviceSerialNo))
		if err != nil {
			return err
		}
		e.Instruments = []InstrumentReference{ref}
	}
	figs, err := e.persistFigures(ctx, o, o.renderer().RenderPositionGrids(e.Results)...)
	if err != nil {
		return err
	}
	e.Figures = figs
	return nil
}

// persistFigures 将图表写入原始目录并返回引用
// 只读上下文仅记录图表名称
// 入参: ctx 上下文, o 配置, figs 图表
// 返回: []FigureRef 图表引用, error 错误信息
func (e *OmegaThetaXRD) persistFigures(ctx Context, o *Options, figs ...*Figure) ([]FigureRef, error) {
	stem := FileStem(path.Base(e.DataFile))
	refs := make([]FigureRef, 0, len(figs))
	for _, fig := range figs {
		ref := FigureRef{Label: fig.Label, Index: fig.Index}
		if !ctx.ReadOnly() {
			for _, format := range o.Formats {
				var buf bytes.Buffer
				if err := fig.Write(&buf, format, o.renderer().DPI); err != nil {
					return nil, errors.WithMessagef(err, "failed to render %s", fig.Label)
				}
				name := fig.FileName(stem, format)
				if err := ctx.WriteRaw(name, buf.Bytes()); err != nil {
					return nil, errors.Wrapf(err, "failed to write %s", name)
				}
				ref.Files = append(ref.Files, name)
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// NewParameterList 将提取的测量转换为结果节
// 入参: m 测量
// 返回: ParameterList 结果, error 错误信息
func NewParameterList(m Measurement) (ParameterList, error) {
	p := m.Parameters
	result := ParameterList{
		Name:          str(m.Info.Name),
		ReferenceAxis: p.ReferenceAxis,
	}
	var err error
	if result.XPos, err = parseInt("xpos", p.XPos); err != nil {
		return ParameterList{}, err
	}
	if result.YPos, err = parseInt("ypos", p.YPos); err != nil {
		return ParameterList{}, err
	}
	floats := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"tilt", p.Tilt, &result.Tilt},
		{"tilt_direction", p.TiltDirection, &result.TiltDirection},
		{"component_0", p.Component0, &result.Component0},
		{"component_90", p.Component90, &result.Component90},
		{"reference_offset", p.ReferenceOffset, &result.ReferenceOffset},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.name, f.raw); err != nil {
			return ParameterList{}, err
		}
	}
	if m.Scans != nil {
		result.ScanCurves = []ScanCurve{m.Scans.R, m.Scans.L}
	}
	return result, nil
}

// EntryName 条目名称取测量名称首个下划线之前的部分
// 入参: name 测量名称
// 返回: string 条目名称
func EntryName(name string) string {
	before, _, _ := strings.Cut(name, "_")
	return before
}

// instrumentLabID 仪器序列号, 缺省时使用默认值
// 入参: serial 设备序列号
// 返回: string 序列号
func instrumentLabID(serial string) string {
	if serial == "" {
		return DefaultInstrumentLabID
	}
	return serial
}

// instrumentReference 创建(若不存在)仪器归档并返回引用
// 入参: ctx 上下文, serial 设备序列号
// 返回: InstrumentReference 仪器引用, error 错误信息
func instrumentReference(ctx Context, serial string) (InstrumentReference, error) {
	labID := instrumentLabID(serial)
	ref, err := CreateArchive(NewInstrument(labID), ctx, instrumentFilePrefix+labID+".archive.json")
	if err != nil {
		return InstrumentReference{}, err
	}
	return InstrumentReference{LabID: labID, Reference: ref}, nil
}

// parseInt 解析整数参数
// 入参: name 参数名, raw 原始值
// 返回: int 值, error 错误信息
func parseInt(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return v, nil
}

// parseFloat 解析浮点参数
// 入参: name 参数名, raw 原始值
// 返回: float64 值, error 错误信息
func parseFloat(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return v, nil
}
