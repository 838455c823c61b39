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

// Package config 命令行配置加载
package config

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "OTXRD"

// Config 全部配置
type Config struct {
	Log    LogConfig
	Upload UploadConfig
	Parser ParserConfig
	Render RenderConfig
	Export ExportConfig
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// UploadConfig 本地上传目录配置
type UploadConfig struct {
	Root string `mapstructure:"root"`
	ID   string `mapstructure:"id"`
}

// ParserConfig 解析器配置
type ParserConfig struct {
	Parameter int `mapstructure:"parameter"`
}

// RenderConfig 图表配置
type RenderConfig struct {
	DPI     float64  `mapstructure:"dpi"`
	Formats []string `mapstructure:"formats"`
	Width   float64  `mapstructure:"width"`
	Height  float64  `mapstructure:"height"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	XLSX bool `mapstructure:"xlsx"`
}

// Load 加载配置, 优先级: 环境变量 > 配置文件 > 默认值
// 入参: file 配置文件路径, 为空时仅使用环境变量与默认值
// 返回: *Config 配置, error 错误信息
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.dir", "")

	v.SetDefault("upload.root", "uploads")
	v.SetDefault("upload.id", "")

	v.SetDefault("parser.parameter", 0)

	v.SetDefault("render.dpi", 150)
	v.SetDefault("render.formats", "svg")
	v.SetDefault("render.width", 716)
	v.SetDefault("render.height", 400)

	v.SetDefault("export.xlsx", false)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", file)
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Dir:    v.GetString("log.dir"),
		},
		Upload: UploadConfig{
			Root: v.GetString("upload.root"),
			ID:   v.GetString("upload.id"),
		},
		Parser: ParserConfig{
			Parameter: v.GetInt("parser.parameter"),
		},
		Render: RenderConfig{
			DPI:     v.GetFloat64("render.dpi"),
			Formats: splitList(v.GetStringSlice("render.formats")),
			Width:   v.GetFloat64("render.width"),
			Height:  v.GetFloat64("render.height"),
		},
		Export: ExportConfig{
			XLSX: v.GetBool("export.xlsx"),
		},
	}
	if cfg.Upload.ID == "" {
		cfg.Upload.ID = uuid.NewString()
	}
	return cfg, nil
}

// splitList 展开逗号分隔的列表项
// 入参: items 原始列表
// 返回: []string 去空白后的非空项
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, strings.ToLower(s))
			}
		}
	}
	return out
}
