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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parameter 序列中各字段的固定位置
// 厂商文件按固定顺序输出参数, 这里不按名称查找
const (
	paramIndexXPos            = 3
	paramIndexYPos            = 4
	paramIndexTilt            = 8
	paramIndexTiltDirection   = 9
	paramIndexComponent0      = 12
	paramIndexComponent90     = 13
	paramIndexReferenceOffset = 14
	paramIndexReferenceAxis   = 15
	// minParameterCount Parameter 序列最少条目数
	minParameterCount = paramIndexReferenceAxis + 1
)

// ScanCurve 序列中各曲线的固定位置
const (
	scanCurveIndexR   = 0
	scanCurveIndexL   = 1
	minScanCurveCount = 2
)

// 文档键名
const (
	keyMeasurement      = "Measurement"
	keyMultiMeasurement = "MultiMeasurement"
	keyMeasurements     = "Measurements"
	keyInfo             = "Info"
	keyValue            = "Value"
	keyName             = "Name"
)

var (
	parameterPath = []string{"Result", "ParameterList", "Parameter"}
	scanCurvePath = []string{"Scans", "Scan", "ScanCurves", "ScanCurve"}
)

// ExtractGeneralInfo 提取基本信息
// Info 缺失时所有字段为 nil
// 入参: node 测量子树
// 返回: GeneralInfo 基本信息
func ExtractGeneralInfo(node Node) GeneralInfo {
	info := node.LookupNode(keyInfo)
	field := func(key string) *string {
		v, ok := info[key]
		if !ok {
			return nil
		}
		s, ok := textOf(v)
		if !ok {
			return nil
		}
		return &s
	}
	return GeneralInfo{
		Name:           field("Name"),
		OriginalName:   field("OriginalName"),
		TimeStamp:      field("TimeStamp"),
		User:           field("User"),
		Description:    field("Description"),
		ScanRecipeName: field("ScanRecipeName"),
		XRDModeType:    field("XRDModeType"),
		XPos:           field("XPos"),
		YPos:           field("YPos"),
		DeviceSerialNo: field("DeviceSerialNo"),
	}
}

// ExtractParameterList 提取扫描参数
// Parameter 序列不足16项时返回错误, 不做默认值兜底
// 入参: node 测量子树
// 返回: ScanParameters 扫描参数, error 错误信息
func ExtractParameterList(node Node) (ScanParameters, error) {
	params, err := lookupSequence(node, minParameterCount, parameterPath...)
	if err != nil {
		return ScanParameters{}, err
	}
	value := func(index int) (string, error) {
		entry, ok := params[index].AsNode()
		if !ok {
			return "", pathErr(ErrUnexpectedType, indexedPath(parameterPath, index)...)
		}
		v, ok := entry[keyValue]
		if !ok {
			return "", pathErr(ErrMissingKey, append(indexedPath(parameterPath, index), keyValue)...)
		}
		s, ok := textOf(v)
		if !ok {
			return "", pathErr(ErrUnexpectedType, append(indexedPath(parameterPath, index), keyValue)...)
		}
		return s, nil
	}
	var p ScanParameters
	for _, f := range []struct {
		index int
		dst   *string
	}{
		{paramIndexXPos, &p.XPos},
		{paramIndexYPos, &p.YPos},
		{paramIndexTilt, &p.Tilt},
		{paramIndexTiltDirection, &p.TiltDirection},
		{paramIndexComponent0, &p.Component0},
		{paramIndexComponent90, &p.Component90},
		{paramIndexReferenceOffset, &p.ReferenceOffset},
		{paramIndexReferenceAxis, &p.ReferenceAxis},
	} {
		s, err := value(f.index)
		if err != nil {
			return ScanParameters{}, err
		}
		*f.dst = s
	}
	return p, nil
}

// ExtractScanData 提取 R/L 扫描曲线
// 位置0为R, 位置1为L
// 入参: node 测量子树
// 返回: ScanCurvePair 曲线对, error 错误信息
func ExtractScanData(node Node) (ScanCurvePair, error) {
	curves, err := lookupSequence(node, minScanCurveCount, scanCurvePath...)
	if err != nil {
		return ScanCurvePair{}, err
	}
	r, err := extractScanCurve(curves, scanCurveIndexR)
	if err != nil {
		return ScanCurvePair{}, err
	}
	l, err := extractScanCurve(curves, scanCurveIndexL)
	if err != nil {
		return ScanCurvePair{}, err
	}
	return ScanCurvePair{R: r, L: l}, nil
}

// extractScanCurve 提取单条曲线
// 入参: curves 曲线序列, index 位置
// 返回: ScanCurve 曲线, error 错误信息
func extractScanCurve(curves []Value, index int) (ScanCurve, error) {
	path := indexedPath(scanCurvePath, index)
	entry, ok := curves[index].AsNode()
	if !ok {
		return ScanCurve{}, pathErr(ErrUnexpectedType, path...)
	}
	var curve ScanCurve
	if v, ok := entry[keyName]; ok {
		curve.Name, _ = textOf(v)
	}
	raw, ok := entry[TextKey]
	if !ok {
		return ScanCurve{}, pathErr(ErrMissingKey, append(path, TextKey)...)
	}
	text, ok := raw.AsScalar()
	if !ok {
		return ScanCurve{}, pathErr(ErrUnexpectedType, append(path, TextKey)...)
	}
	omega, intensity, err := ParseScanText(text)
	if err != nil {
		return ScanCurve{}, errors.Wrapf(err, "scan curve %d", index)
	}
	curve.Omega, curve.Intensity = omega, intensity
	return curve, nil
}

// ParseScanText 解析 "角度 强度;角度 强度;" 格式的曲线文本
// 空段(含末尾分隔符产生的空段)被跳过
// 入参: s 曲线文本
// 返回: []float64 角度, []float64 强度, error 错误信息
func ParseScanText(s string) ([]float64, []float64, error) {
	segments := strings.Split(s, ";")
	omega := make([]float64, 0, len(segments))
	intensity := make([]float64, 0, len(segments))
	for i, seg := range segments {
		fields := strings.Fields(seg)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, nil, errors.Wrapf(ErrMalformedScan, "segment %d %q", i, seg)
		}
		angle, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(ErrMalformedScan, "segment %d angle: %v", i, err)
		}
		count, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(ErrMalformedScan, "segment %d intensity: %v", i, err)
		}
		omega = append(omega, angle)
		intensity = append(intensity, count)
	}
	return omega, intensity, nil
}

// lookupSequence 查找至少含 min 项的序列
// 入参: node 起始映射, min 最少项数, path 键路径
// 返回: []Value 序列, error 错误信息
func lookupSequence(node Node, min int, path ...string) ([]Value, error) {
	v, err := node.Lookup(path...)
	if err != nil {
		return nil, err
	}
	seq, ok := v.AsSequence()
	if !ok {
		return nil, pathErr(ErrUnexpectedType, path...)
	}
	if len(seq) < min {
		return nil, pathErr(errors.Wrapf(ErrIndexOutOfRange, "need %d entries, got %d", min, len(seq)), path...)
	}
	return seq, nil
}

// indexedPath 生成带下标的路径, 用于错误描述
// 入参: path 键路径, index 下标
// 返回: []string 路径
func indexedPath(path []string, index int) []string {
	out := append([]string(nil), path...)
	out[len(out)-1] += "[" + strconv.Itoa(index) + "]"
	return out
}

// Classify 判定文档类型并提取全部记录
// Measurement 的 Info 名称可解析时为单次测量, 否则尝试 MultiMeasurement
// 入参: doc 展平文档
// 返回: Document 文档, error 错误信息
func Classify(doc Node) (Document, error) {
	doc = unwrapRoot(doc)
	if node := doc.LookupNode(keyMeasurement); ExtractGeneralInfo(node).Name != nil {
		return classifySingle(node)
	}
	if node := doc.LookupNode(keyMultiMeasurement); ExtractGeneralInfo(node).Name != nil {
		return classifyBatch(node)
	}
	return nil, ErrUnrecognizedDocument
}

// classifySingle 提取单次测量
// 入参: node Measurement 子树
// 返回: Document 文档, error 错误信息
func classifySingle(node Node) (Document, error) {
	m, err := extractMeasurement(node, true)
	if err != nil {
		return nil, errors.Wrap(err, keyMeasurement)
	}
	return &SingleScan{Measurement: m}, nil
}

// classifyBatch 提取批量测量
// 入参: node MultiMeasurement 子树
// 返回: Document 文档, error 错误信息
func classifyBatch(node Node) (Document, error) {
	v, err := node.Lookup(keyMeasurements, keyMeasurement)
	if err != nil {
		return nil, errors.Wrap(err, keyMultiMeasurement)
	}
	points, ok := v.AsSequence()
	if !ok {
		// 仅一个测量点时不会被提升为序列
		points = []Value{v}
	}
	batch := &BatchScan{
		Info:   ExtractGeneralInfo(node),
		Points: make([]Measurement, 0, len(points)),
	}
	for i, p := range points {
		pn, ok := p.AsNode()
		if !ok {
			return nil, pathErr(ErrUnexpectedType, indexedPath([]string{keyMultiMeasurement, keyMeasurements, keyMeasurement}, i)...)
		}
		m, err := extractMeasurement(pn, false)
		if err != nil {
			return nil, errors.Wrapf(err, "%s point %d", keyMultiMeasurement, i)
		}
		batch.Points = append(batch.Points, m)
	}
	return batch, nil
}

// extractMeasurement 提取单个测量子树
// 入参: node 测量子树, withScans 是否提取曲线
// 返回: Measurement 测量, error 错误信息
func extractMeasurement(node Node, withScans bool) (Measurement, error) {
	m := Measurement{Info: ExtractGeneralInfo(node)}
	params, err := ExtractParameterList(node)
	if err != nil {
		return Measurement{}, err
	}
	m.Parameters = params
	if withScans {
		scans, err := ExtractScanData(node)
		if err != nil {
			return Measurement{}, err
		}
		m.Scans = &scans
	}
	return m, nil
}

// unwrapRoot 兼容根元素本身即为测量元素, 或测量元素位于根元素之下两种布局
// 入参: doc 以根标签为唯一键的文档
// 返回: Node 含 Measurement/MultiMeasurement 键的映射
func unwrapRoot(doc Node) Node {
	if _, ok := doc[keyMeasurement]; ok {
		return doc
	}
	if _, ok := doc[keyMultiMeasurement]; ok {
		return doc
	}
	if len(doc) == 1 {
		for _, v := range doc {
			if n, ok := v.AsNode(); ok {
				return n
			}
		}
	}
	return doc
}
