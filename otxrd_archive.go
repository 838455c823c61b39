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
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// entryIDLength 条目ID长度
const entryIDLength = 28

// Context 宿主平台提供的原始文件访问
type Context interface {
	// UploadID 当前上传批次ID
	UploadID() string
	// ReadOnly 是否禁止写入(客户端上下文)
	ReadOnly() bool
	// OpenRaw 打开原始文件, 调用方负责关闭
	OpenRaw(name string) (io.ReadCloser, error)
	// RawPathExists 原始文件是否存在
	RawPathExists(name string) bool
	// WriteRaw 写入原始文件
	WriteRaw(name string, data []byte) error
	// ProcessUpdatedRawFile 通知平台原始文件已更新
	ProcessUpdatedRawFile(name string) error
}

// EntryID 由上传ID和文件名生成确定性的条目ID
// 入参: uploadID 上传ID, fileName 文件名
// 返回: string 条目ID
func EntryID(uploadID, fileName string) string {
	h := sha512.New()
	h.Write([]byte(uploadID))
	h.Write([]byte(fileName))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))[:entryIDLength]
}

// Reference 生成条目引用
// 入参: uploadID 上传ID, entryID 条目ID
// 返回: string 引用路径
func Reference(uploadID, entryID string) string {
	return "../uploads/" + uploadID + "/archive/" + entryID + "#/data"
}

// CreateArchive 将节写入独立的归档文件并返回引用
// 只读上下文返回空引用; 文件已存在时不覆盖
// 入参: entity 节, ctx 上下文, fileName 归档文件名
// 返回: string 引用, error 错误信息
func CreateArchive(entity Section, ctx Context, fileName string) (string, error) {
	if ctx == nil || ctx.ReadOnly() {
		return "", nil
	}
	if !ctx.RawPathExists(fileName) {
		data, err := MarshalArchive(entity)
		if err != nil {
			return "", err
		}
		if err := ctx.WriteRaw(fileName, data); err != nil {
			return "", errors.Wrapf(err, "failed to write %s", fileName)
		}
		if err := ctx.ProcessUpdatedRawFile(fileName); err != nil {
			return "", errors.Wrapf(err, "failed to process %s", fileName)
		}
	}
	return Reference(ctx.UploadID(), EntryID(ctx.UploadID(), fileName)), nil
}

// MarshalArchive 序列化为 {"data": {...}} 格式
// 入参: entity 节
// 返回: []byte JSON数据, error 错误信息
func MarshalArchive(entity Section) ([]byte, error) {
	data, err := marshalSection(entity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"data": data})
}

// UnmarshalArchive 反序列化 {"data": {...}} 格式
// 入参: data JSON数据
// 返回: Section 节, error 错误信息
func UnmarshalArchive(data []byte) (Section, error) {
	var archive struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal archive")
	}
	var def struct {
		MDef string `json:"m_def"`
	}
	if err := json.Unmarshal(archive.Data, &def); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal archive data")
	}
	section, err := newSection(def.MDef)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(archive.Data, section); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s", def.MDef)
	}
	return section, nil
}

// marshalSection 序列化节并附加 m_def
// 入参: entity 节
// 返回: map[string]any 节数据, error 错误信息
func marshalSection(entity Section) (map[string]any, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s", entity.SectionDef())
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s", entity.SectionDef())
	}
	fields["m_def"] = entity.SectionDef()
	return fields, nil
}
