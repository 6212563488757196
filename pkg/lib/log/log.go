// Package log 提供 go-ipcbus 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，按组件（component）输出结构化日志。
//
// 支持通过环境变量配置：
//   - IPCBUS_LOG_LEVEL: 日志级别，支持按组件配置
//     格式: 组件前缀=级别,组件前缀=级别,默认级别
//     示例: core/bus=debug,core/transport=warn,info
//   - IPCBUS_LOG_FORMAT: text 或 json
//
// 使用方式：
//
//	var logger = log.Logger("core/bus")
//	logger.Info("订阅已注册", "topic", topic, "id", id)
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ============================================================================
//                              级别配置
// ============================================================================

// levelConfig 组件级别配置
type levelConfig struct {
	mu         sync.RWMutex
	defaultLvl slog.Level
	components map[string]slog.Level
}

var levels = &levelConfig{
	defaultLvl: slog.LevelInfo,
	components: make(map[string]slog.Level),
}

// levelFor 返回组件的日志级别
//
// 按最长前缀匹配："core/transport" 的配置同样作用于 "core/transport/tcp"。
func (c *levelConfig) levelFor(component string) slog.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()

	best := -1
	lvl := c.defaultLvl
	for prefix, l := range c.components {
		if (component == prefix || strings.HasPrefix(component, prefix+"/")) && len(prefix) > best {
			best = len(prefix)
			lvl = l
		}
	}
	return lvl
}

// parseLevelSpec 解析级别配置字符串
// 格式: component=level,component=level,defaultLevel
func parseLevelSpec(spec string) (slog.Level, map[string]slog.Level) {
	def := slog.LevelInfo
	comps := make(map[string]slog.Level)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if k, v, ok := strings.Cut(part, "="); ok {
			if lvl, ok := ParseLevel(v); ok {
				comps[strings.TrimSpace(k)] = lvl
			}
			continue
		}
		if lvl, ok := ParseLevel(part); ok {
			def = lvl
		}
	}
	return def, comps
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetLevelSpec 以 IPCBUS_LOG_LEVEL 相同的格式设置级别
func SetLevelSpec(spec string) {
	def, comps := parseLevelSpec(spec)
	levels.mu.Lock()
	levels.defaultLvl = def
	levels.components = comps
	levels.mu.Unlock()
}

// SetComponentLevel 动态设置单个组件的日志级别
func SetComponentLevel(component string, level slog.Level) {
	levels.mu.Lock()
	levels.components[component] = level
	levels.mu.Unlock()
}

// ============================================================================
//                              输出配置
// ============================================================================

// SetDefault 设置默认 logger
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// New 创建新的文本格式 logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSON 创建 JSON 格式的 logger
func NewJSON(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetOutput 设置日志输出目标
//
// 组件级别过滤由 LazyLogger 完成，handler 本身放行 Debug 及以上。
func SetOutput(w io.Writer, json bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if json {
		slog.SetDefault(NewJSON(w, opts))
		return
	}
	slog.SetDefault(New(w, opts))
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler，
// 支持在运行时动态切换日志输出目标与组件级别。
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if level < levels.levelFor(l.component) {
		return
	}
	slog.Default().With("component", l.component).Log(ctx, level, msg, args...)
}

// Enabled 检查组件是否输出指定级别
func (l *LazyLogger) Enabled(level slog.Level) bool {
	return level >= levels.levelFor(l.component)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// InfoContext 带 context 的 Info 日志
func (l *LazyLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return slog.Default().With("component", l.component).With(args...)
}

// ============================================================================
//                              初始化
// ============================================================================

func init() {
	if spec := os.Getenv("IPCBUS_LOG_LEVEL"); spec != "" {
		SetLevelSpec(spec)
	}
	json := strings.EqualFold(os.Getenv("IPCBUS_LOG_FORMAT"), "json")
	SetOutput(os.Stderr, json)
}
