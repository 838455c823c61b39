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
	"encoding/json"
)

// Kind 展平值类型
type Kind int

const (
	// KindInvalid 零值
	KindInvalid Kind = iota
	// KindScalar 字符串标量(属性值或文本)
	KindScalar
	// KindNode 嵌套映射
	KindNode
	// KindSequence 重复标签提升后的有序序列
	KindSequence
)

// TextKey 元素文本内容的保留键
const TextKey = "text"

// Node 展平后的元素映射
type Node map[string]Value

// Value 展平值 Scalar | Node | Sequence
type Value struct {
	kind   Kind
	scalar string
	node   Node
	seq    []Value
}

// Scalar 构造标量值
// 入参: s 字符串
// 返回: Value 展平值
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// NodeValue 构造映射值
// 入参: n 映射
// 返回: Value 展平值
func NodeValue(n Node) Value {
	return Value{kind: KindNode, node: n}
}

// Sequence 构造序列值
// 入参: items 序列元素
// 返回: Value 展平值
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seq: items}
}

// Kind 获取值类型
// 返回: Kind 值类型
func (v Value) Kind() Kind {
	return v.kind
}

// AsScalar 收窄为标量
// 返回: string 标量, bool 是否成功
func (v Value) AsScalar() (string, bool) {
	return v.scalar, v.kind == KindScalar
}

// AsNode 收窄为映射
// 返回: Node 映射, bool 是否成功
func (v Value) AsNode() (Node, bool) {
	return v.node, v.kind == KindNode
}

// AsSequence 收窄为序列
// 返回: []Value 序列, bool 是否成功
func (v Value) AsSequence() ([]Value, bool) {
	return v.seq, v.kind == KindSequence
}

// Interface 转换为 map/slice/string 组成的普通结构
// 返回: any 普通结构
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindNode:
		return v.node.Interface()
	case KindSequence:
		items := make([]any, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Interface()
		}
		return items
	}
	return nil
}

// MarshalJSON 实现 json.Marshaler
// 返回: []byte JSON数据, error 错误信息
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Interface 转换为普通映射
// 返回: map[string]any 普通映射
func (n Node) Interface() map[string]any {
	m := make(map[string]any, len(n))
	for k, v := range n {
		m[k] = v.Interface()
	}
	return m
}

// Lookup 按键路径查找
// 中间节点必须为映射
// 入参: path 键路径
// 返回: Value 展平值, error 错误信息
func (n Node) Lookup(path ...string) (Value, error) {
	cur := n
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return Value{}, pathErr(ErrMissingKey, path[:i+1]...)
		}
		if i == len(path)-1 {
			return v, nil
		}
		next, ok := v.AsNode()
		if !ok {
			return Value{}, pathErr(ErrUnexpectedType, path[:i+1]...)
		}
		cur = next
	}
	return NodeValue(cur), nil
}

// LookupNode 按键路径查找映射, 不存在时返回空映射
// 入参: path 键路径
// 返回: Node 映射
func (n Node) LookupNode(path ...string) Node {
	v, err := n.Lookup(path...)
	if err != nil {
		return Node{}
	}
	node, ok := v.AsNode()
	if !ok {
		return Node{}
	}
	return node
}

// merge 合并子元素
// 同名键第二次出现时提升为序列
// 入参: key 键, v 展平值
func (n Node) merge(key string, v Value) {
	existing, ok := n[key]
	if !ok {
		n[key] = v
		return
	}
	if existing.kind != KindSequence {
		existing = Sequence(existing)
	}
	existing.seq = append(existing.seq, v)
	n[key] = existing
}

// Flatten 递归展平元素树
// 属性先写入, 同名子元素会覆盖或并入属性键
// 入参: e 元素
// 返回: Node 展平映射
func Flatten(e *RawElement) Node {
	parsed := make(Node, len(e.Attrs)+len(e.Children)+1)
	for k, v := range e.Attrs {
		parsed[k] = Scalar(v)
	}
	if e.Text != "" {
		parsed[TextKey] = Scalar(e.Text)
	}
	for _, child := range e.Children {
		parsed.merge(child.Tag, NodeValue(Flatten(child)))
	}
	return parsed
}

// textOf 读取字段文本
// 标量直接返回, 映射返回其 text 键
// 入参: v 展平值
// 返回: string 文本, bool 是否存在
func textOf(v Value) (string, bool) {
	switch v.kind {
	case KindScalar:
		return v.scalar, true
	case KindNode:
		if t, ok := v.node[TextKey]; ok {
			return t.AsScalar()
		}
	}
	return "", false
}
