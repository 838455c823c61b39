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
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RawElement XML元素节点
// Text 仅保存首个子元素之前的字符数据(已去除首尾空白)
type RawElement struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*RawElement
}

// DecodeRaw 解析XML文档为元素树
// 带BOM的UTF-16输入先转换为UTF-8; 根元素之后的元素或文本视为错误
// 入参: r XML输入流
// 返回: *RawElement 根元素, error 错误信息
func DecodeRaw(r io.Reader) (*RawElement, error) {
	decoder := xml.NewDecoder(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	decoder.CharsetReader = charsetReader
	var root *RawElement
	var stack []*RawElement
	// 已出现子元素的节点不再接收文本
	var sealed []bool
	var text []*bytes.Buffer
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "failed to decode xml")
		}
		switch t := token.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, errors.Errorf("failed to decode xml: junk after document element <%s>", t.Name.Local)
			}
			elem := &RawElement{
				Tag:   qualifiedName(t.Name),
				Attrs: make(map[string]string, len(t.Attr)),
			}
			for _, attr := range t.Attr {
				if isNamespaceDecl(attr.Name) {
					continue
				}
				elem.Attrs[qualifiedName(attr.Name)] = attr.Value
			}
			if n := len(stack); n > 0 {
				parent := stack[n-1]
				parent.Children = append(parent.Children, elem)
				sealed[n-1] = true
			} else if root == nil {
				root = elem
			}
			stack = append(stack, elem)
			sealed = append(sealed, false)
			text = append(text, new(bytes.Buffer))
		case xml.EndElement:
			n := len(stack)
			if n == 0 {
				return nil, errors.New("failed to decode xml: unbalanced end element")
			}
			stack[n-1].Text = string(bytes.TrimSpace(text[n-1].Bytes()))
			stack, sealed, text = stack[:n-1], sealed[:n-1], text[:n-1]
		case xml.CharData:
			n := len(stack)
			if n == 0 && root != nil && len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("failed to decode xml: junk after document element")
			}
			if n > 0 && !sealed[n-1] {
				text[n-1].Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("failed to decode xml: no root element")
	}
	return root, nil
}

// charsetReader 按声明的编码转换输入流
// 入参: charset 编码名称, input 原始输入流
// 返回: io.Reader UTF-8输入流, error 错误信息
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	// UTF-16 已在读取BOM时转换
	if strings.HasPrefix(strings.ToLower(charset), "utf-16") {
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

// qualifiedName 生成带命名空间的名称 {uri}local
// 入参: name XML名称
// 返回: string 名称
func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return "{" + name.Space + "}" + name.Local
}

// isNamespaceDecl 判断是否为命名空间声明属性
// 入参: name 属性名称
// 返回: bool 是否为声明
func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}
