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

// Package otxrd Omega-Theta XRD 测量文件解析, 归一化与图表渲染
package otxrd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options 解析器, 归一化与宿主的公共配置
type Options struct {
	Logger   logrus.FieldLogger
	Renderer *Renderer
	Formats  []string

	fontChecked bool
}

// Option 配置选项
type Option func(*Options)

// newOptions 应用配置选项
// 入参: opts 配置选项
// 返回: *Options 配置
func newOptions(opts ...Option) *Options {
	o := &Options{
		Logger:  logrus.StandardLogger(),
		Formats: []string{FormatSVG},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// renderer 获取渲染器, 未设置时创建默认渲染器
// 渲染器没有可用字体时记录一次告警
// 返回: *Renderer 渲染器
func (o *Options) renderer() *Renderer {
	if o.Renderer == nil {
		o.Renderer = NewRenderer()
	}
	if !o.fontChecked {
		o.fontChecked = true
		if !o.Renderer.HasFont() {
			o.Logger.Warn("no usable font found, figures are rendered without text")
		}
	}
	return o.Renderer
}

// WithLogger 设置日志记录器
// 入参: logger 日志记录器
// 返回: Option 配置选项
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithRenderer 设置图表渲染器
// 入参: r 渲染器
// 返回: Option 配置选项
func WithRenderer(r *Renderer) Option {
	return func(o *Options) {
		o.Renderer = r
	}
}

// WithFigureFormats 设置图表文件格式, 为空时不输出图表文件
// 入参: formats 格式列表(svg/pdf/png)
// 返回: Option 配置选项
func WithFigureFormats(formats ...string) Option {
	return func(o *Options) {
		o.Formats = formats
	}
}

// ParseDocument 解析XML并展平为以根标签为唯一键的文档
// 入参: r XML输入流
// 返回: Node 文档, error 错误信息
func ParseDocument(r io.Reader) (Node, error) {
	root, err := DecodeRaw(r)
	if err != nil {
		return nil, err
	}
	return Node{root.Tag: NodeValue(Flatten(root))}, nil
}

// ReadDocument 解析并分类测量文档
// 入参: r XML输入流
// 返回: Document 文档, error 错误信息
func ReadDocument(r io.Reader) (Document, error) {
	doc, err := ParseDocument(r)
	if err != nil {
		return nil, err
	}
	return Classify(doc)
}

// Open 打开并分类 *.xrd 文件
// 入参: path 文件路径
// 返回: Document 文档, error 错误信息
func Open(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return ReadDocument(f)
}
