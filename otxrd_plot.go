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
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// 像素到毫米 (96 DPI)
const pxToMM = 25.4 / 96

// 图表名称
const (
	FigureOmegaScans = "Omega Scans"
	FigureTable      = "Table"
	scanPlotTitle    = "Omega Theta XRD"
	traceNameR       = "Omega R"
	traceNameL       = "Omega L"
	gridBoxSize      = 3.0
	gridCircleMargin = 3.0
	colorbarSteps    = 64
)

// 输出格式
const (
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

var (
	traceColorR = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	traceColorL = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	axisColor   = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	gridColor   = color.RGBA{R: 0xe5, G: 0xe5, B: 0xe5, A: 0xff}
	headerFill  = color.RGBA{R: 0xc8, G: 0xd4, B: 0xe3, A: 0xff}
	cellFill    = color.RGBA{R: 0xeb, G: 0xf0, B: 0xf8, A: 0xff}
	circleFill  = withAlpha(color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, 0.3)
)

// TableHeader 结果表格表头
var TableHeader = []string{
	"X Pos.", "Y Pos.", "Tilt", "Tilt Direction",
	"Component 0", "Component 90", "Reference Offset", "Reference Axis",
}

// Channel 位置网格图的数据通道
type Channel struct {
	Label     string
	Index     int
	Precision int
	Value     func(ParameterList) float64
}

// GridChannels 批量测量生成的网格图
var GridChannels = []Channel{
	{Label: "tilt", Index: 1, Precision: 3, Value: func(p ParameterList) float64 { return p.Tilt }},
	{Label: "tilt direction", Index: 2, Precision: 1, Value: func(p ParameterList) float64 { return p.TiltDirection }},
	{Label: "component 0", Index: 3, Precision: 3, Value: func(p ParameterList) float64 { return p.Component0 }},
	{Label: "component 90", Index: 4, Precision: 3, Value: func(p ParameterList) float64 { return p.Component90 }},
	{Label: "reference offset", Index: 5, Precision: 3, Value: func(p ParameterList) float64 { return p.ReferenceOffset }},
}

// Title 通道标题
// 返回: string 首字母大写的标题
func (ch Channel) Title() string {
	return cases.Title(language.English).String(ch.Label)
}

// Figure 渲染完成的图表
type Figure struct {
	Label  string
	Index  int
	Canvas *canvas.Canvas
}

// Renderer 图表渲染器
type Renderer struct {
	DPI        float64
	Width      float64
	Height     float64
	fontFamily *canvas.FontFamily
	fontFiles  []string
	fontOK     bool
}

// RendererOption 渲染器配置选项
type RendererOption func(*Renderer)

// NewRenderer 创建渲染器
// 入参: opts 渲染选项
// 返回: *Renderer 渲染器实例
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		DPI:    150.0,
		Width:  716,
		Height: 400,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.initCommon()
	return r
}

// WithDPI 设置光栅输出DPI
// 入参: dpi DPI值
// 返回: RendererOption 渲染选项
func WithDPI(dpi float64) RendererOption {
	return func(r *Renderer) {
		if dpi > 0 {
			r.DPI = dpi
		}
	}
}

// WithFigureSize 设置扫描曲线图尺寸
// 入参: width 宽度(像素), height 高度(像素)
// 返回: RendererOption 渲染选项
func WithFigureSize(width, height float64) RendererOption {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.Width, r.Height = width, height
		}
	}
}

// WithFontFiles 设置优先加载的字体文件
// 入参: files 字体文件路径
// 返回: RendererOption 渲染选项
func WithFontFiles(files ...string) RendererOption {
	return func(r *Renderer) {
		r.fontFiles = append(r.fontFiles, files...)
	}
}

// initCommon 初始化公共资源
func (r *Renderer) initCommon() {
	r.fontFamily = canvas.NewFontFamily("default")
	for _, file := range r.fontFiles {
		if err := r.fontFamily.LoadFontFile(file, canvas.FontRegular); err == nil {
			r.fontOK = true
			return
		}
	}
	sysFonts := []string{
		"Arial", "Helvetica", "DejaVu Sans", "Liberation Sans",
		"Segoe UI", "Noto Sans", "Times New Roman",
	}
	for _, name := range sysFonts {
		if err := r.fontFamily.LoadSystemFont(name, canvas.FontRegular); err == nil {
			r.fontOK = true
			return
		}
	}
}

// HasFont 是否加载了可用字体
// 返回: bool 是否可绘制文本
func (r *Renderer) HasFont() bool {
	return r.fontOK
}

// drawText 绘制单行文本, 无可用字体时跳过
// 入参: ctx 画布上下文, x 锚点X, y 基线Y, sizePt 字号, col 颜色, str 文本, align 对齐方式
func (r *Renderer) drawText(ctx *canvas.Context, x, y, sizePt float64, col color.Color, str string, align canvas.TextAlign) {
	if !r.fontOK || str == "" {
		return
	}
	face := r.fontFamily.Face(sizePt, col, canvas.FontRegular, canvas.FontNormal)
	ctx.DrawText(x, y, canvas.NewTextLine(face, str, align))
}

// drawRect 绘制矩形
// 入参: ctx 画布上下文, b 区域, fill 填充色, stroke 描边色, width 线宽
func drawRect(ctx *canvas.Context, b Box, fill, stroke color.Color, width float64) {
	ctx.SetFillColor(fill)
	ctx.SetStrokeColor(stroke)
	ctx.SetStrokeWidth(width)
	ctx.DrawPath(b.X, b.Y, canvas.Rectangle(b.W, b.H))
}

// drawLine 绘制线段
// 入参: ctx 画布上下文, x0 y0 起点, x1 y1 终点, stroke 颜色, width 线宽
func drawLine(ctx *canvas.Context, x0, y0, x1, y1 float64, stroke color.Color, width float64) {
	p := &canvas.Path{}
	p.MoveTo(x0, y0)
	p.LineTo(x1, y1)
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(stroke)
	ctx.SetStrokeWidth(width)
	ctx.DrawPath(0, 0, p)
}

// drawPolyline 按变换矩阵绘制折线
// 入参: ctx 画布上下文, m 数据到画布的变换, xs ys 数据点, stroke 颜色, width 线宽
func drawPolyline(ctx *canvas.Context, m Matrix, xs, ys []float64, stroke color.Color, width float64) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return
	}
	p := &canvas.Path{}
	for i := 0; i < n; i++ {
		x, y := m.Transform(xs[i], ys[i])
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(stroke)
	ctx.SetStrokeWidth(width)
	ctx.DrawPath(0, 0, p)
}

// drawAxes 绘制坐标框, 网格线与刻度
// 入参: ctx 画布上下文, m 变换矩阵, data 数据区域, view 视图区域
func (r *Renderer) drawAxes(ctx *canvas.Context, m Matrix, data, view Box) {
	xTicks := NiceTicks(data.X, data.MaxX(), 6)
	yTicks := NiceTicks(data.Y, data.MaxY(), 5)
	for _, t := range xTicks {
		x, _ := m.Transform(t, data.Y)
		if x < view.X-1e-6 || x > view.MaxX()+1e-6 {
			continue
		}
		drawLine(ctx, x, view.Y, x, view.MaxY(), gridColor, 0.2)
		drawLine(ctx, x, view.Y, x, view.Y-1.2, axisColor, 0.3)
		r.drawText(ctx, x, view.Y-4, 7, axisColor, formatTick(t), canvas.Center)
	}
	for _, t := range yTicks {
		_, y := m.Transform(data.X, t)
		if y < view.Y-1e-6 || y > view.MaxY()+1e-6 {
			continue
		}
		drawLine(ctx, view.X, y, view.MaxX(), y, gridColor, 0.2)
		drawLine(ctx, view.X-1.2, y, view.X, y, axisColor, 0.3)
		r.drawText(ctx, view.X-1.8, y-0.9, 7, axisColor, formatTick(t), canvas.Right)
	}
	drawRect(ctx, view, canvas.Transparent, axisColor, 0.3)
}

// formatTick 格式化刻度值
// 入参: v 刻度值
// 返回: string 文本
func formatTick(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e9 {
		return fmt.Sprintf("%.0f", v)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

// RenderScanCurves 渲染 R/L 扫描曲线
// 入参: pair 扫描曲线对
// 返回: *Figure 图表
func (r *Renderer) RenderScanCurves(pair ScanCurvePair) *Figure {
	width, height := r.Width*pxToMM, r.Height*pxToMM
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	drawRect(ctx, Box{W: width, H: height}, canvas.White, canvas.Transparent, 0)
	xs := append(append([]float64{}, pair.R.Omega...), pair.L.Omega...)
	ys := append(append([]float64{}, pair.R.Intensity...), pair.L.Intensity...)
	data := DataBounds(xs, ys)
	view := Box{W: width, H: height}.Inset(22, 16, 8, 14)
	m := FitMatrix(data, view, false)
	r.drawAxes(ctx, m, data, view)
	drawPolyline(ctx, m, pair.R.Omega, pair.R.Intensity, traceColorR, 0.5)
	drawPolyline(ctx, m, pair.L.Omega, pair.L.Intensity, traceColorL, 0.5)
	// 图例位于绘图区左上角
	lx, ly := view.X+3, view.MaxY()-5
	for i, tr := range []struct {
		name string
		col  color.RGBA
	}{{traceNameR, traceColorR}, {traceNameL, traceColorL}} {
		y := ly - float64(i)*4.5
		drawLine(ctx, lx, y+1, lx+6, y+1, tr.col, 0.6)
		r.drawText(ctx, lx+8, y, 8, axisColor, tr.name, canvas.Left)
	}
	r.drawText(ctx, width/2, height-8, 11, canvas.Black, scanPlotTitle, canvas.Center)
	r.drawText(ctx, view.X+view.W/2, 4, 8, axisColor, "Omega (°)", canvas.Center)
	r.drawText(ctx, 6, view.Y+view.H/2, 8, axisColor, "Intensity", canvas.Left)
	return &Figure{Label: FigureOmegaScans, Canvas: c}
}

// TableRows 生成结果表格内容
// 入参: results 测量结果
// 返回: [][]string 行数据
func TableRows(results []ParameterList) [][]string {
	return lo.Map(results, func(p ParameterList, _ int) []string {
		return []string{
			fmt.Sprintf("%d", p.XPos),
			fmt.Sprintf("%d", p.YPos),
			fmt.Sprintf("%.3f", p.Tilt),
			fmt.Sprintf("%.1f", p.TiltDirection),
			fmt.Sprintf("%.3f", p.Component0),
			fmt.Sprintf("%.3f", p.Component90),
			fmt.Sprintf("%.3f", p.ReferenceOffset),
			p.ReferenceAxis,
		}
	})
}

// RenderTable 渲染结果表格
// 入参: results 测量结果
// 返回: *Figure 图表
func (r *Renderer) RenderTable(results []ParameterList) *Figure {
	rows := TableRows(results)
	weights := []float64{1, 1, 1, 1.5, 1.5, 1.5, 1.5, 1.5}
	total := lo.Sum(weights)
	const rowH, margin = 8.0, 4.0
	width := 1000 * pxToMM
	height := rowH*float64(len(rows)+1) + 2*margin
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	drawRect(ctx, Box{W: width, H: height}, canvas.White, canvas.Transparent, 0)
	inner := width - 2*margin
	drawRow := func(cells []string, y float64, fill color.Color) {
		x := margin
		for i, w := range weights {
			cw := inner * w / total
			drawRect(ctx, Box{X: x, Y: y, W: cw, H: rowH}, fill, canvas.White, 0.4)
			if i < len(cells) {
				r.drawText(ctx, x+cw/2, y+rowH/2-1.2, 8, canvas.Black, cells[i], canvas.Center)
			}
			x += cw
		}
	}
	y := height - margin - rowH
	drawRow(TableHeader, y, headerFill)
	for _, row := range rows {
		y -= rowH
		drawRow(row, y, cellFill)
	}
	return &Figure{Label: FigureTable, Canvas: c}
}

// RenderPositionGrid 渲染位置网格热力图
// 入参: results 测量结果, ch 数据通道
// 返回: *Figure 图表
func (r *Renderer) RenderPositionGrid(results []ParameterList, ch Channel) *Figure {
	xs := lo.Map(results, func(p ParameterList, _ int) float64 { return float64(p.XPos) })
	ys := lo.Map(results, func(p ParameterList, _ int) float64 { return float64(p.YPos) })
	values := lo.Map(results, func(p ParameterList, _ int) float64 { return ch.Value(p) })
	colors := Picnic.Colors(values)

	const width, height = 160.0, 140.0
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	drawRect(ctx, Box{W: width, H: height}, canvas.White, canvas.Transparent, 0)

	cx, cy, radius := gridCircle(xs, ys)
	extent := radius + gridBoxSize
	data := Box{X: cx - extent, Y: cy - extent, W: 2 * extent, H: 2 * extent}
	view := Box{W: width, H: height}.Inset(18, 16, 30, 14)
	m := FitMatrix(data, view, true)
	s := m.XScale()
	plot := Box{}
	plot.X, plot.Y = m.Transform(data.X, data.Y)
	plot.W, plot.H = data.W*s, data.H*m.YScale()
	r.drawAxes(ctx, m, data, plot)

	px, py := m.Transform(cx, cy)
	ctx.SetFillColor(circleFill)
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(px, py, canvas.Circle(radius*s))

	format := fmt.Sprintf("%%.%df", ch.Precision)
	half := gridBoxSize / 2
	for i := range results {
		bx, by := m.Transform(xs[i]-half, ys[i]-half)
		drawRect(ctx, Box{X: bx, Y: by, W: gridBoxSize * s, H: gridBoxSize * s}, colors[i], axisColor, 0.15)
		tx, ty := m.Transform(xs[i], ys[i])
		r.drawText(ctx, tx, ty-0.8, 5, canvas.Black, fmt.Sprintf(format, values[i]), canvas.Center)
	}
	r.drawColorbar(ctx, Box{X: plot.MaxX() + 8, Y: plot.Y, W: 4, H: plot.H}, values, format)
	title := ch.Title()
	r.drawText(ctx, width/2, height-9, 11, canvas.Black, title, canvas.Center)
	r.drawText(ctx, plot.X+plot.W/2, 4, 8, axisColor, "X Position", canvas.Center)
	r.drawText(ctx, 2, plot.Y+plot.H/2, 8, axisColor, "Y Position", canvas.Left)
	return &Figure{Label: ch.Label, Index: ch.Index, Canvas: c}
}

// RenderPositionGrids 渲染全部通道的网格图
// 入参: results 测量结果
// 返回: []*Figure 图表列表
func (r *Renderer) RenderPositionGrids(results []ParameterList) []*Figure {
	return lo.Map(GridChannels, func(ch Channel, _ int) *Figure {
		return r.RenderPositionGrid(results, ch)
	})
}

// gridCircle 计算包围圆
// 圆心为位置均值, 半径为 3 + 最大跨度/2
// 入参: xs X坐标, ys Y坐标
// 返回: float64 圆心X, float64 圆心Y, float64 半径
func gridCircle(xs, ys []float64) (float64, float64, float64) {
	if len(xs) == 0 || len(ys) == 0 {
		return 0, 0, gridCircleMargin
	}
	cx := lo.Sum(xs) / float64(len(xs))
	cy := lo.Sum(ys) / float64(len(ys))
	span := math.Max(lo.Max(xs)-lo.Min(xs), lo.Max(ys)-lo.Min(ys))
	return cx, cy, gridCircleMargin + span/2
}

// drawColorbar 绘制颜色条
// 入参: ctx 画布上下文, b 区域, values 原始值, format 数值格式
func (r *Renderer) drawColorbar(ctx *canvas.Context, b Box, values []float64, format string) {
	step := b.H / colorbarSteps
	for i := 0; i < colorbarSteps; i++ {
		t := (float64(i) + 0.5) / colorbarSteps
		drawRect(ctx, Box{X: b.X, Y: b.Y + float64(i)*step, W: b.W, H: step + 0.05}, Picnic.At(t), canvas.Transparent, 0)
	}
	drawRect(ctx, b, canvas.Transparent, axisColor, 0.2)
	if len(values) == 0 {
		return
	}
	r.drawText(ctx, b.MaxX()+1.5, b.Y, 6, axisColor, fmt.Sprintf(format, lo.Min(values)), canvas.Left)
	r.drawText(ctx, b.MaxX()+1.5, b.MaxY()-2, 6, axisColor, fmt.Sprintf(format, lo.Max(values)), canvas.Left)
}

// WriteSVG 输出SVG
// 入参: w 输出流
// 返回: error 错误信息
func (f *Figure) WriteSVG(w io.Writer) error {
	return f.Canvas.Write(w, renderers.SVG())
}

// WritePDF 输出PDF
// 入参: w 输出流
// 返回: error 错误信息
func (f *Figure) WritePDF(w io.Writer) error {
	return f.Canvas.Write(w, renderers.PDF())
}

// WritePNG 输出PNG
// 入参: w 输出流, dpi 分辨率
// 返回: error 错误信息
func (f *Figure) WritePNG(w io.Writer, dpi float64) error {
	img := rasterizer.Draw(f.Canvas, canvas.DPMM(dpi/25.4), canvas.DefaultColorSpace)
	return png.Encode(w, img)
}

// Write 按格式输出
// 入参: w 输出流, format 格式(svg/pdf/png), dpi 光栅分辨率
// 返回: error 错误信息
func (f *Figure) Write(w io.Writer, format string, dpi float64) error {
	switch strings.ToLower(format) {
	case FormatSVG:
		return f.WriteSVG(w)
	case FormatPDF:
		return f.WritePDF(w)
	case FormatPNG:
		return f.WritePNG(w, dpi)
	}
	return errors.Errorf("unsupported figure format %q", format)
}

// FileName 图表文件名
// 入参: stem 数据文件主名, format 格式
// 返回: string 文件名
func (f *Figure) FileName(stem, format string) string {
	slug := strings.ReplaceAll(strings.ToLower(f.Label), " ", "_")
	return fmt.Sprintf("%s.%s.%s", stem, slug, strings.ToLower(format))
}

// RenderEntry 渲染条目的全部图表
// 单次测量为扫描曲线与结果表格, 批量测量为各通道网格图
// 入参: e 测量条目
// 返回: []*Figure 图表列表
func (r *Renderer) RenderEntry(e *OmegaThetaXRD) []*Figure {
	if e.MeasurementType == MeasurementTypeMapping {
		return r.RenderPositionGrids(e.Results)
	}
	var figs []*Figure
	for _, p := range e.Results {
		if len(p.ScanCurves) > scanCurveIndexL {
			figs = append(figs, r.RenderScanCurves(ScanCurvePair{
				R: p.ScanCurves[scanCurveIndexR],
				L: p.ScanCurves[scanCurveIndexL],
			}))
		}
	}
	if len(e.Results) > 0 {
		figs = append(figs, r.RenderTable(e.Results))
	}
	return figs
}
