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

// GeneralInfo 测量基本信息
// 所有字段可缺省, nil 表示文件中不存在
type GeneralInfo struct {
	Name           *string `json:"name"`
	OriginalName   *string `json:"original_name"`
	TimeStamp      *string `json:"time_stamp"`
	User           *string `json:"user"`
	Description    *string `json:"description"`
	ScanRecipeName *string `json:"scan_recipe_name"`
	XRDModeType    *string `json:"xrd_mode_type"`
	XPos           *string `json:"x_pos"`
	YPos           *string `json:"y_pos"`
	DeviceSerialNo *string `json:"device_serial_no"`
}

// ScanParameters 扫描结果参数(原始字符串)
type ScanParameters struct {
	XPos            string `json:"xpos"`
	YPos            string `json:"ypos"`
	Tilt            string `json:"tilt"`
	TiltDirection   string `json:"tilt_direction"`
	Component0      string `json:"component_0"`
	Component90     string `json:"component_90"`
	ReferenceOffset string `json:"reference_offset"`
	ReferenceAxis   string `json:"reference_axis"`
}

// ScanCurve 单条 omega 扫描曲线
type ScanCurve struct {
	Name      string    `json:"name"`
	Omega     []float64 `json:"omega"`
	Intensity []float64 `json:"intensity"`
}

// ScanCurvePair R/L 两条扫描曲线
type ScanCurvePair struct {
	R ScanCurve `json:"scan_r"`
	L ScanCurve `json:"scan_l"`
}

// Measurement 一次测量的提取结果
// 批量文件中的单点不含曲线数据
type Measurement struct {
	Info       GeneralInfo    `json:"info"`
	Parameters ScanParameters `json:"parameters"`
	Scans      *ScanCurvePair `json:"scans,omitempty"`
}

// Document 测量文档 SingleScan | BatchScan
type Document interface {
	// Header 文档级基本信息
	Header() GeneralInfo
	isDocument()
}

// SingleScan 单次测量文档
type SingleScan struct {
	Measurement
}

// BatchScan 批量(mapping)测量文档
type BatchScan struct {
	Info   GeneralInfo   `json:"info"`
	Points []Measurement `json:"points"`
}

// Header 返回单次测量的基本信息
// 返回: GeneralInfo 基本信息
func (s *SingleScan) Header() GeneralInfo {
	return s.Info
}

// Header 返回批量测量的顶层基本信息
// 返回: GeneralInfo 基本信息
func (b *BatchScan) Header() GeneralInfo {
	return b.Info
}

func (*SingleScan) isDocument() {}

func (*BatchScan) isDocument() {}

// str 取字符串指针的值
// 入参: p 指针
// 返回: string 值, 空指针返回空串
func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
