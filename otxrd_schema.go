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
	"time"

	"github.com/pkg/errors"
)

// 测量类型
const (
	MeasurementTypeSingle  = "single measurement"
	MeasurementTypeMapping = "mapping"
)

// 样品朝下的表面
const (
	SampleSideAlDown = "Al unten"
	SampleSideNDown  = "N unten"
)

// 仪器默认值
const (
	DefaultInstrumentName  = "Freiberger Omega Theta XRD"
	DefaultInstrumentLabID = "26-0019"
)

// 节定义名称, 序列化时写入 m_def
const (
	defOmegaThetaXRD        = "otxrd.OmegaThetaXRD"
	defInstrument           = "otxrd.OmegaThetaXRDInstrument"
	defRawFileOmegaThetaXRD = "otxrd.RawFileOmegaThetaXRDData"
)

// Section 可归档的节
type Section interface {
	// SectionDef 节定义名称
	SectionDef() string
}

// OmegaThetaXRDInstrument 仪器条目
type OmegaThetaXRDInstrument struct {
	InstrumentName string `json:"instrument_name"`
	LabID          string `json:"lab_id"`
}

// NewInstrument 创建仪器条目
// 入参: labID 仪器序列号, 为空时使用默认值
// 返回: *OmegaThetaXRDInstrument 仪器
func NewInstrument(labID string) *OmegaThetaXRDInstrument {
	if labID == "" {
		labID = DefaultInstrumentLabID
	}
	return &OmegaThetaXRDInstrument{
		InstrumentName: DefaultInstrumentName,
		LabID:          labID,
	}
}

// SectionDef 实现 Section
func (*OmegaThetaXRDInstrument) SectionDef() string { return defInstrument }

// InstrumentReference 仪器引用
type InstrumentReference struct {
	LabID     string `json:"lab_id,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// SampleSpecifications 样品说明
type SampleSpecifications struct {
	SamplePreparationStatus string `json:"sample_preparation_status,omitempty"`
	SampleSideFacingDown    string `json:"sample_side_facing_down,omitempty"`
}

// Validate 校验枚举字段
// 返回: error 错误信息
func (s *SampleSpecifications) Validate() error {
	switch s.SampleSideFacingDown {
	case "", SampleSideAlDown, SampleSideNDown:
		return nil
	}
	return errors.Errorf("invalid sample_side_facing_down %q", s.SampleSideFacingDown)
}

// FigureRef 已持久化的图表
type FigureRef struct {
	Label string   `json:"label"`
	Index int      `json:"index,omitempty"`
	Files []string `json:"files,omitempty"`
}

// ParameterList 单个测量点的结果
type ParameterList struct {
	Name            string      `json:"name,omitempty"`
	XPos            int         `json:"x_pos"`
	YPos            int         `json:"y_pos"`
	Tilt            float64     `json:"tilt"`
	TiltDirection   float64     `json:"tilt_direction"`
	Component0      float64     `json:"component_0"`
	Component90     float64     `json:"component_90"`
	ReferenceOffset float64     `json:"reference_offset"`
	ReferenceAxis   string      `json:"reference_axis,omitempty"`
	ScanCurves      []ScanCurve `json:"Scan_Curves,omitempty"`
	Figures         []FigureRef `json:"figures,omitempty"`
}

// OmegaThetaXRD 测量条目
type OmegaThetaXRD struct {
	Name                 string                `json:"name,omitempty"`
	LabID                string                `json:"lab_id,omitempty"`
	Datetime             *time.Time            `json:"datetime,omitempty"`
	ScanRecipeName       string                `json:"scan_recipe_name,omitempty"`
	DataFile             string                `json:"data_file,omitempty"`
	MeasurementType      string                `json:"measurement_type,omitempty"`
	SampleSpecifications *SampleSpecifications `json:"sample_specifications,omitempty"`
	Results              []ParameterList       `json:"results,omitempty"`
	Instruments          []InstrumentReference `json:"instruments,omitempty"`
	Figures              []FigureRef           `json:"figures,omitempty"`
}

// SectionDef 实现 Section
func (*OmegaThetaXRD) SectionDef() string { return defOmegaThetaXRD }

// RawFileOmegaThetaXRDData 原始 *.xrd 文件条目
type RawFileOmegaThetaXRDData struct {
	Measurement string `json:"measurement,omitempty"`
}

// SectionDef 实现 Section
func (*RawFileOmegaThetaXRDData) SectionDef() string { return defRawFileOmegaThetaXRD }

// EntryMetadata 条目元数据
type EntryMetadata struct {
	UploadID  string `json:"upload_id"`
	EntryID   string `json:"entry_id,omitempty"`
	Mainfile  string `json:"mainfile,omitempty"`
	EntryName string `json:"entry_name,omitempty"`
}

// EntryArchive 条目归档
type EntryArchive struct {
	Context  Context       `json:"-"`
	Metadata EntryMetadata `json:"metadata"`
	Data     Section       `json:"-"`
}

// newSection 按定义名称创建空节
// 入参: def 节定义名称
// 返回: Section 节, error 错误信息
func newSection(def string) (Section, error) {
	switch def {
	case defOmegaThetaXRD:
		return &OmegaThetaXRD{}, nil
	case defInstrument:
		return &OmegaThetaXRDInstrument{}, nil
	case defRawFileOmegaThetaXRD:
		return &RawFileOmegaThetaXRDData{}, nil
	}
	return nil, errors.Errorf("unknown section definition %q", def)
}
