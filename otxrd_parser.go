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
	"path"
	"regexp"
	"strings"
)

// MainfilePattern 匹配 Freiberger Instruments 的 *.xrd 文件
var MainfilePattern = regexp.MustCompile(`.*\.xrd`)

// Parser *.xrd 文件解析器
type Parser struct {
	// Parameter 自定义配置参数
	Parameter int
	opts      []Option
}

// NewParser 创建解析器
// 入参: parameter 配置参数, opts 配置选项
// 返回: *Parser 解析器实例
func NewParser(parameter int, opts ...Option) *Parser {
	return &Parser{Parameter: parameter, opts: opts}
}

// Matches 判断文件名是否由本解析器处理
// 入参: name 文件名
// 返回: bool 是否匹配
func (p *Parser) Matches(name string) bool {
	return MainfilePattern.MatchString(name)
}

// Parse 为数据文件创建测量条目, 并将原始文件条目指向它
// 入参: mainfile 数据文件路径, archive 原始文件条目
// 返回: error 错误信息
func (p *Parser) Parse(mainfile string, archive *EntryArchive) error {
	o := newOptions(p.opts...)
	o.Logger.WithField("parameter", p.Parameter).Info("OmegaThetaXRDParser.parse")
	dataFile := path.Base(mainfile)
	entry := &OmegaThetaXRD{
		DataFile: dataFile,
		Name:     FileStem(dataFile),
	}
	ref, err := CreateArchive(entry, archive.Context, ArchiveFileName(dataFile))
	if err != nil {
		return err
	}
	archive.Data = &RawFileOmegaThetaXRDData{Measurement: ref}
	archive.Metadata.EntryName = dataFile + " data file"
	return nil
}

// ArchiveFileName 数据文件对应的测量条目归档文件名
// 入参: dataFile 数据文件名
// 返回: string 归档文件名
func ArchiveFileName(dataFile string) string {
	return FileStem(path.Base(dataFile)) + archiveSuffix
}

// FileStem 去掉最后一个扩展名, 其余的点号一并去除
// 入参: name 文件名
// 返回: string 主名
func FileStem(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], "")
}
