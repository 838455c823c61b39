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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// 上传目录布局
const (
	rawDir        = "raw"
	archiveDir    = "archive"
	archiveSuffix = ".archive.json"
)

// FSContext 基于文件系统的上传目录上下文
// 原始文件位于 <root>/<upload_id>/raw/, 处理结果位于 <root>/<upload_id>/archive/
type FSContext struct {
	fs        afero.Fs
	root      string
	uploadID  string
	readOnly  bool
	onUpdated func(name string) error
}

// FSContextOption 上下文配置选项
type FSContextOption func(*FSContext)

// NewFSContext 创建文件系统上下文
// 入参: fs 文件系统, root 上传根目录, uploadID 上传ID, opts 配置选项
// 返回: *FSContext 上下文实例
func NewFSContext(fs afero.Fs, root, uploadID string, opts ...FSContextOption) *FSContext {
	c := &FSContext{fs: fs, root: root, uploadID: uploadID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithReadOnly 设置为只读上下文
// 返回: FSContextOption 配置选项
func WithReadOnly() FSContextOption {
	return func(c *FSContext) {
		c.readOnly = true
	}
}

// WithUpdateHandler 设置原始文件更新回调
// 入参: fn 回调函数
// 返回: FSContextOption 配置选项
func WithUpdateHandler(fn func(name string) error) FSContextOption {
	return func(c *FSContext) {
		c.onUpdated = fn
	}
}

// UploadID 实现 Context
func (c *FSContext) UploadID() string { return c.uploadID }

// ReadOnly 实现 Context
func (c *FSContext) ReadOnly() bool { return c.readOnly }

// Fs 底层文件系统
// 返回: afero.Fs 文件系统
func (c *FSContext) Fs() afero.Fs { return c.fs }

// RawPath 原始文件的完整路径
// 入参: name 相对原始目录的文件名
// 返回: string 路径, error 错误信息
func (c *FSContext) RawPath(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("raw file %q escapes the upload", name)
	}
	return filepath.Join(c.root, c.uploadID, rawDir, clean), nil
}

// ArchivePath 处理结果的完整路径
// 入参: entryID 条目ID
// 返回: string 路径
func (c *FSContext) ArchivePath(entryID string) string {
	return filepath.Join(c.root, c.uploadID, archiveDir, entryID+".json")
}

// OpenRaw 实现 Context
func (c *FSContext) OpenRaw(name string) (io.ReadCloser, error) {
	p, err := c.RawPath(name)
	if err != nil {
		return nil, err
	}
	f, err := c.fs.Open(p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// RawPathExists 实现 Context
func (c *FSContext) RawPathExists(name string) bool {
	p, err := c.RawPath(name)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(c.fs, p)
	return err == nil && ok
}

// WriteRaw 实现 Context
func (c *FSContext) WriteRaw(name string, data []byte) error {
	if c.readOnly {
		return errors.Errorf("cannot write %s in a read-only context", name)
	}
	p, err := c.RawPath(name)
	if err != nil {
		return err
	}
	if err := c.fs.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(afero.WriteFile(c.fs, p, data, 0o644))
}

// ProcessUpdatedRawFile 实现 Context
func (c *FSContext) ProcessUpdatedRawFile(name string) error {
	if c.onUpdated == nil {
		return nil
	}
	return c.onUpdated(name)
}

// WriteArchive 写入处理结果
// 入参: entryID 条目ID, data JSON数据
// 返回: error 错误信息
func (c *FSContext) WriteArchive(entryID string, data []byte) error {
	p := c.ArchivePath(entryID)
	if err := c.fs.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(afero.WriteFile(c.fs, p, data, 0o644))
}

// ArchiveExists 处理结果是否存在
// 入参: entryID 条目ID
// 返回: bool 是否存在
func (c *FSContext) ArchiveExists(entryID string) bool {
	ok, err := afero.Exists(c.fs, c.ArchivePath(entryID))
	return err == nil && ok
}

// ReadArchive 读取处理结果
// 入参: entryID 条目ID
// 返回: []byte JSON数据, error 错误信息
func (c *FSContext) ReadArchive(entryID string) ([]byte, error) {
	data, err := afero.ReadFile(c.fs, c.ArchivePath(entryID))
	return data, errors.WithStack(err)
}

// Host 本地处理宿主
// 负责调用解析器, 响应原始文件更新并保存处理结果
type Host struct {
	ctx    *FSContext
	parser *Parser
	opts   []Option
	logger logrus.FieldLogger
}

// NewHost 创建本地处理宿主
// 入参: fs 文件系统, root 上传根目录, uploadID 上传ID, parser 解析器, opts 配置选项
// 返回: *Host 宿主实例
func NewHost(fs afero.Fs, root, uploadID string, parser *Parser, opts ...Option) *Host {
	h := &Host{parser: parser, opts: opts, logger: newOptions(opts...).Logger}
	h.ctx = NewFSContext(fs, root, uploadID, WithUpdateHandler(h.ProcessRawFile))
	return h
}

// Context 宿主上下文
// 返回: *FSContext 上下文
func (h *Host) Context() *FSContext { return h.ctx }

// ProcessMainfile 解析数据文件并保存原始文件条目
// 入参: mainfile 相对原始目录的数据文件名
// 返回: *EntryArchive 原始文件条目, error 错误信息
func (h *Host) ProcessMainfile(mainfile string) (*EntryArchive, error) {
	if !h.parser.Matches(mainfile) {
		return nil, errors.Wrap(ErrNotXRDFile, mainfile)
	}
	archive := h.newEntryArchive(mainfile)
	h.logger.WithFields(logrus.Fields{
		"mainfile": mainfile,
		"entry_id": archive.Metadata.EntryID,
	}).Debug("processing mainfile")
	if err := h.parser.Parse(mainfile, archive); err != nil {
		return nil, errors.WithMessagef(err, "failed to parse %s", mainfile)
	}
	// 上次处理失败时测量条目归档已存在但未保存结果, 需重新处理
	measurement := ArchiveFileName(mainfile)
	if !h.ctx.ArchiveExists(EntryID(h.ctx.UploadID(), measurement)) {
		if err := h.ProcessRawFile(measurement); err != nil {
			return nil, errors.WithMessagef(err, "failed to process %s", measurement)
		}
	}
	if err := h.store(archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// ProcessRawFile 处理更新的 *.archive.json 文件, 其他文件忽略
// 入参: name 相对原始目录的文件名
// 返回: error 错误信息
func (h *Host) ProcessRawFile(name string) error {
	if !strings.HasSuffix(name, archiveSuffix) {
		return nil
	}
	rc, err := h.ctx.OpenRaw(name)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", name)
	}
	section, err := UnmarshalArchive(data)
	if err != nil {
		return errors.WithMessage(err, name)
	}
	archive := h.newEntryArchive(name)
	archive.Data = section
	if entry, ok := section.(*OmegaThetaXRD); ok {
		if err := entry.Normalize(archive, h.opts...); err != nil {
			return errors.WithMessagef(err, "failed to normalize %s", name)
		}
	}
	if archive.Metadata.EntryName == "" {
		archive.Metadata.EntryName = strings.TrimSuffix(name, archiveSuffix)
	}
	return h.store(archive)
}

// LoadEntry 读取已保存的条目
// 入参: mainfile 相对原始目录的文件名
// 返回: *EntryArchive 条目, error 错误信息
func (h *Host) LoadEntry(mainfile string) (*EntryArchive, error) {
	archive := h.newEntryArchive(mainfile)
	data, err := h.ctx.ReadArchive(archive.Metadata.EntryID)
	if err != nil {
		return nil, err
	}
	var stored struct {
		Metadata EntryMetadata `json:"metadata"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal entry metadata")
	}
	section, err := UnmarshalArchive(data)
	if err != nil {
		return nil, err
	}
	archive.Metadata = stored.Metadata
	archive.Data = section
	return archive, nil
}

// newEntryArchive 创建空条目
// 入参: mainfile 文件名
// 返回: *EntryArchive 条目
func (h *Host) newEntryArchive(mainfile string) *EntryArchive {
	return &EntryArchive{
		Context: h.ctx,
		Metadata: EntryMetadata{
			UploadID: h.ctx.UploadID(),
			EntryID:  EntryID(h.ctx.UploadID(), mainfile),
			Mainfile: mainfile,
		},
	}
}

// store 保存处理结果 {"metadata": {...}, "data": {...}}
// 入参: archive 条目
// 返回: error 错误信息
func (h *Host) store(archive *EntryArchive) error {
	out := map[string]any{"metadata": archive.Metadata}
	if archive.Data != nil {
		data, err := marshalSection(archive.Data)
		if err != nil {
			return err
		}
		out["data"] = data
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal entry")
	}
	if err := h.ctx.WriteArchive(archive.Metadata.EntryID, raw); err != nil {
		return errors.WithMessagef(err, "failed to store %s", archive.Metadata.Mainfile)
	}
	h.logger.WithFields(logrus.Fields{
		"mainfile": archive.Metadata.Mainfile,
		"entry_id": archive.Metadata.EntryID,
	}).Info("stored entry")
	return nil
}

// LoadFile 在只读的内存上下文中读取并归一化单个数据文件
// 不创建仪器归档, 也不输出图表文件
// 入参: name 数据文件路径, opts 配置选项
// 返回: *OmegaThetaXRD 测量条目, error 错误信息
func LoadFile(name string, opts ...Option) (*OmegaThetaXRD, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	base := filepath.Base(name)
	mem := afero.NewMemMapFs()
	ctx := NewFSContext(mem, "/", "local", WithReadOnly())
	p, err := ctx.RawPath(base)
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(mem, p, data, 0o644); err != nil {
		return nil, errors.WithStack(err)
	}
	entry := &OmegaThetaXRD{DataFile: base, Name: FileStem(base)}
	archive := &EntryArchive{
		Context:  ctx,
		Metadata: EntryMetadata{UploadID: ctx.UploadID(), Mainfile: base},
		Data:     entry,
	}
	if err := entry.Normalize(archive, append(opts, WithFigureFormats())...); err != nil {
		return nil, err
	}
	return entry, nil
}
