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
	"math"
)

// Box 矩形区域
type Box struct {
	X, Y, W, H float64
}

// MaxX 右边界
// 返回: float64 X坐标
func (b Box) MaxX() float64 {
	return b.X + b.W
}

// MaxY 上边界
// 返回: float64 Y坐标
func (b Box) MaxY() float64 {
	return b.Y + b.H
}

// Inset 向内收缩
// 入参: left 左边距, bottom 下边距, right 右边距, top 上边距
// 返回: Box 收缩后区域
func (b Box) Inset(left, bottom, right, top float64) Box {
	return Box{X: b.X + left, Y: b.Y + bottom, W: b.W - left - right, H: b.H - bottom - top}
}

// Matrix 2D仿射变换矩阵
type Matrix struct {
	a, b, c, d, e, f float64
}

// Multiply 矩阵乘法 (m * o)
// 入参: o 右侧矩阵
// 返回: Matrix 结果矩阵
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		a: m.a*o.a + m.c*o.b,
		b: m.b*o.a + m.d*o.b,
		c: m.a*o.c + m.c*o.d,
		d: m.b*o.c + m.d*o.d,
		e: m.a*o.e + m.c*o.f + m.e,
		f: m.b*o.e + m.d*o.f + m.f,
	}
}

// Transform 应用变换矩阵
// 入参: x X坐标, y Y坐标
// 返回: float64 变换后X, float64 变换后Y
func (m Matrix) Transform(x, y float64) (float64, float64) {
	nx := m.a*x + m.c*y + m.e
	ny := m.b*x + m.d*y + m.f
	return nx, ny
}

// XScale 获取X轴缩放比例
// 返回: float64 缩放比例
func (m Matrix) XScale() float64 {
	return math.Sqrt(m.a*m.a + m.b*m.b)
}

// YScale 获取Y轴缩放比例
// 返回: float64 缩放比例
func (m Matrix) YScale() float64 {
	return math.Sqrt(m.c*m.c + m.d*m.d)
}

// FitMatrix 将数据区域映射到视图区域
// equal 为真时两轴使用相同比例并居中
// 入参: data 数据区域, view 视图区域, equal 是否等比例
// 返回: Matrix 变换矩阵
func FitMatrix(data, view Box, equal bool) Matrix {
	sx, sy := 1.0, 1.0
	if data.W != 0 {
		sx = view.W / data.W
	}
	if data.H != 0 {
		sy = view.H / data.H
	}
	ox, oy := view.X, view.Y
	if equal {
		s := math.Min(sx, sy)
		ox += (view.W - data.W*s) / 2
		oy += (view.H - data.H*s) / 2
		sx, sy = s, s
	}
	scale := Matrix{a: sx, d: sy}
	toOrigin := Matrix{a: 1, d: 1, e: -data.X, f: -data.Y}
	return Matrix{a: 1, d: 1, e: ox, f: oy}.Multiply(scale).Multiply(toOrigin)
}

// DataBounds 计算点集包围盒
// 宽高为0时向两侧扩展一个单位, 避免除零
// 入参: xs X坐标, ys Y坐标
// 返回: Box 包围盒
func DataBounds(xs, ys []float64) Box {
	if len(xs) == 0 || len(ys) == 0 {
		return Box{W: 1, H: 1}
	}
	minX, maxX := xs[0], xs[0]
	for _, x := range xs[1:] {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
	}
	minY, maxY := ys[0], ys[0]
	for _, y := range ys[1:] {
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if maxX == minX {
		minX, maxX = minX-1, maxX+1
	}
	if maxY == minY {
		minY, maxY = minY-1, maxY+1
	}
	return Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// NiceTicks 生成坐标轴刻度
// 入参: lo 下限, hi 上限, n 期望刻度数
// 返回: []float64 刻度值
func NiceTicks(lo, hi float64, n int) []float64 {
	if n < 2 || hi <= lo {
		return []float64{lo}
	}
	step := niceNumber((hi - lo) / float64(n-1))
	start := math.Ceil(lo/step) * step
	var ticks []float64
	for v := start; v <= hi+step*1e-9; v += step {
		// 消除累加误差
		ticks = append(ticks, math.Round(v/step)*step)
	}
	return ticks
}

// niceNumber 取 1/2/5×10^k 形式的步长
// 入参: x 原始步长
// 返回: float64 步长
func niceNumber(x float64) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	switch {
	case f <= 1:
		nf = 1
	case f <= 2:
		nf = 2
	case f <= 5:
		nf = 5
	default:
		nf = 10
	}
	return nf * math.Pow(10, exp)
}
