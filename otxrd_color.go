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
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ColorStop 色阶节点
type ColorStop struct {
	Pos   float64
	Color color.RGBA
}

// Colorscale 连续色阶
type Colorscale []ColorStop

// Picnic 蓝-白-红色阶
var Picnic = Colorscale{
	{0.0, parseColor("rgb(0,0,255)")},
	{0.1, parseColor("rgb(51,153,255)")},
	{0.2, parseColor("rgb(102,204,255)")},
	{0.3, parseColor("rgb(153,204,255)")},
	{0.4, parseColor("rgb(204,204,255)")},
	{0.5, parseColor("rgb(255,255,255)")},
	{0.6, parseColor("rgb(255,204,255)")},
	{0.7, parseColor("rgb(255,153,255)")},
	{0.8, parseColor("rgb(255,102,204)")},
	{0.9, parseColor("rgb(255,102,102)")},
	{1.0, parseColor("rgb(255,0,0)")},
}

// parseColor 解析颜色字符串
// 入参: val 颜色值 rgb(R,G,B) 或 R G B
// 返回: color.RGBA 颜色对象
func parseColor(val string) color.RGBA {
	val = strings.TrimSpace(val)
	val = strings.TrimSuffix(strings.TrimPrefix(val, "rgb("), ")")
	parts := strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) >= 3 {
		r, _ := strconv.Atoi(parts[0])
		g, _ := strconv.Atoi(parts[1])
		b, _ := strconv.Atoi(parts[2])
		return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
	}
	return color.RGBA{A: 255}
}

// At 按 [0,1] 位置插值取色
// 超出范围时取末端颜色
// 入参: t 位置
// 返回: color.RGBA 颜色
func (cs Colorscale) At(t float64) color.RGBA {
	for i := 1; i < len(cs); i++ {
		low, high := cs[i-1], cs[i]
		if low.Pos <= t && t <= high.Pos {
			return lerpColor(low.Color, high.Color, (t-low.Pos)/(high.Pos-low.Pos))
		}
	}
	if len(cs) > 0 && t < cs[0].Pos {
		return cs[0].Color
	}
	return cs[len(cs)-1].Color
}

// Colors 将数值归一化后映射为颜色
// 入参: values 数值
// 返回: []color.RGBA 颜色
func (cs Colorscale) Colors(values []float64) []color.RGBA {
	norm := Normalize(values)
	return lo.Map(norm, func(t float64, _ int) color.RGBA {
		return cs.At(t)
	})
}

// Normalize 按最小最大值线性归一化
// 最小值等于最大值时全部为0
// 入参: values 数值
// 返回: []float64 归一化结果
func Normalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	vmin, vmax := lo.Min(values), lo.Max(values)
	return lo.Map(values, func(v float64, _ int) float64 {
		if vmax == vmin {
			return 0
		}
		return (v - vmin) / (vmax - vmin)
	})
}

// lerpColor 线性插值两个颜色
// 入参: a 起始色, b 终止色, t 比例
// 返回: color.RGBA 颜色
func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// withAlpha 生成预乘透明度的颜色
// 入参: c 颜色, alpha 不透明度
// 返回: color.RGBA 颜色
func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}
