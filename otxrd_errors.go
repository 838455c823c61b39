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

	"github.com/pkg/errors"
)

var (
	// ErrMissingKey 键路径不存在
	ErrMissingKey = errors.New("missing key")
	// ErrUnexpectedType 节点类型与期望不符
	ErrUnexpectedType = errors.New("unexpected value type")
	// ErrIndexOutOfRange 定位索引越界
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrMalformedScan 扫描曲线文本格式错误
	ErrMalformedScan = errors.New("malformed scan curve data")
	// ErrUnrecognizedDocument 既非单次测量也非批量测量
	ErrUnrecognizedDocument = errors.New("unrecognized measurement document")
	// ErrNotXRDFile 文件名不匹配 *.xrd
	ErrNotXRDFile = errors.New("not an xrd file")
)

// PathError 键路径查找失败
type PathError struct {
	Path []string
	Err  error
}

// Error 实现 error 接口
// 返回: string 错误描述
func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Path, "."), e.Err)
}

// Unwrap 返回底层错误
// 返回: error 底层错误
func (e *PathError) Unwrap() error {
	return e.Err
}

// Cause 兼容 pkg/errors 的 Cause 链
// 返回: error 底层错误
func (e *PathError) Cause() error {
	return e.Err
}

// pathErr 构造路径错误
// 入参: err 底层错误, path 键路径
// 返回: error 路径错误
func pathErr(err error, path ...string) error {
	return &PathError{Path: append([]string(nil), path...), Err: err}
}
