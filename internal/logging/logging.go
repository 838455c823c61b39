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

// Package logging 命令行日志初始化
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xiaoqidun/otxrd/internal/config"
)

// logFileName 日志文件名
const logFileName = "otxrd.log"

// Init 初始化系统日志
// 入参: cfg 日志配置
// 返回: error 错误信息
func Init(cfg config.LogConfig) error {
	writer, err := getWriter(cfg.Dir)
	if err != nil {
		return err
	}
	Configure(logrus.StandardLogger(), cfg, writer)
	return nil
}

// Configure 按配置设置日志格式, 级别与输出
// 入参: logger 日志记录器, cfg 日志配置, writer 输出
func Configure(logger *logrus.Logger, cfg config.LogConfig, writer io.Writer) {
	logger.SetOutput(writer)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.DateTime,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
		})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

// Logger 系统日志记录器
// 返回: *logrus.Logger 日志记录器
func Logger() *logrus.Logger {
	return logrus.StandardLogger()
}

// getWriter 获取日志输出, 配置目录时同时写入文件
// 入参: dir 日志目录
// 返回: io.Writer 输出, error 错误信息
func getWriter(dir string) (io.Writer, error) {
	if dir == "" {
		return os.Stderr, nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create log dir %s", dir)
	}
	// 日志切割参数固定
	fileWriter := &lumberjack.Logger{
		Filename: filepath.Join(dir, logFileName),
		// megabytes
		MaxSize:    128,
		MaxBackups: 10,
		// days
		MaxAge:    14,
		LocalTime: true,
	}
	return io.MultiWriter(os.Stderr, fileWriter), nil
}
