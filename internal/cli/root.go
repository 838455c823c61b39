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

// Package cli otxrd 命令行
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xiaoqidun/otxrd"
	"github.com/xiaoqidun/otxrd/internal/config"
	"github.com/xiaoqidun/otxrd/internal/logging"
)

// 全局参数
var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "otxrd",
	Short:         "otxrd parses Freiberger omega-theta XRD files.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return err
		}
		return logging.Init(cfg.Log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml/json/toml)")
}

// Execute 执行命令行
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRenderer 按配置创建渲染器
// 返回: *otxrd.Renderer 渲染器
func newRenderer() *otxrd.Renderer {
	r := otxrd.NewRenderer(
		otxrd.WithDPI(cfg.Render.DPI),
		otxrd.WithFigureSize(cfg.Render.Width, cfg.Render.Height),
	)
	if !r.HasFont() {
		logging.Logger().Warn("no usable font found, figures are rendered without text")
	}
	return r
}

// libOptions 按配置生成库选项
// 返回: []otxrd.Option 配置选项
func libOptions() []otxrd.Option {
	return []otxrd.Option{
		otxrd.WithLogger(logging.Logger()),
		otxrd.WithRenderer(newRenderer()),
		otxrd.WithFigureFormats(cfg.Render.Formats...),
	}
}
