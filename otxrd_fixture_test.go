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
	"fmt"
	"strings"
)

// parameterValue 默认参数值, 坐标为整数, 参考轴为文本
func parameterValue(i int) string {
	switch i {
	case paramIndexXPos, paramIndexYPos:
		return "0"
	case paramIndexReferenceAxis:
		return "[100]"
	}
	return fmt.Sprintf("%d.5", i)
}

// parameterXML 生成 count 项的 Result/ParameterList
func parameterXML(count int, values map[int]string) string {
	var b strings.Builder
	b.WriteString("<Result><ParameterList>")
	for i := 0; i < count; i++ {
		v, ok := values[i]
		if !ok {
			v = parameterValue(i)
		}
		fmt.Fprintf(&b, "<Parameter><Name>P%d</Name><Value>%s</Value></Parameter>", i, v)
	}
	b.WriteString("</ParameterList></Result>")
	return b.String()
}

// scansXML 生成 Scans/Scan/ScanCurves, curves 依次为 名称,文本
func scansXML(curves ...[2]string) string {
	var b strings.Builder
	b.WriteString("<Scans><Scan><ScanCurves>")
	for _, c := range curves {
		fmt.Fprintf(&b, `<ScanCurve Name="%s">%s</ScanCurve>`, c[0], c[1])
	}
	b.WriteString("</ScanCurves></Scan></Scans>")
	return b.String()
}

// infoXML 生成 Info
func infoXML(name, timeStamp, serial string) string {
	return fmt.Sprintf(
		"<Info><Name>%s</Name><TimeStamp>%s</TimeStamp><ScanRecipeName>recipe</ScanRecipeName><DeviceSerialNo>%s</DeviceSerialNo></Info>",
		name, timeStamp, serial,
	)
}

// singleXML 单次测量文档
func singleXML(name string, values map[int]string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		"<Measurement>" + infoXML(name, "01/02/2023 10:00:00", "SN-1") +
		parameterXML(minParameterCount, values) +
		scansXML([2]string{"R", "1.0 100;2.0 200;"}, [2]string{"L", "1.5 150;2.5 250;"}) +
		"</Measurement>"
}

// batchPoint 批量测量中的一个测量点
type batchPoint struct {
	name, serial string
	x, y         int
	tilt         string
}

// batchXML 批量测量文档
func batchXML(name string, points ...batchPoint) string {
	var b strings.Builder
	b.WriteString("<MultiMeasurement>")
	b.WriteString(infoXML(name, "12/31/2024 23:59:58", "SN-1"))
	b.WriteString("<Measurements>")
	for _, p := range points {
		values := map[int]string{
			paramIndexXPos: fmt.Sprint(p.x),
			paramIndexYPos: fmt.Sprint(p.y),
		}
		if p.tilt != "" {
			values[paramIndexTilt] = p.tilt
		}
		b.WriteString("<Measurement>")
		b.WriteString(infoXML(p.name, "12/31/2024 23:59:58", p.serial))
		b.WriteString(parameterXML(minParameterCount, values))
		b.WriteString("</Measurement>")
	}
	b.WriteString("</Measurements></MultiMeasurement>")
	return b.String()
}
