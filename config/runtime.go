package config

import (
	"errors"
	"fmt"
	"runtime"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否采集 Prometheus 指标
	Enabled bool `json:"enabled"`

	// Namespace 指标名前缀
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "ipcbus",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return errors.New("metrics namespace must not be empty")
	}
	return nil
}

// HealthConfig 健康监控配置
type HealthConfig struct {
	// Enabled 是否启用内置健康监控
	Enabled bool `json:"enabled"`

	// HistorySize 保留的最近事件数
	HistorySize int `json:"history_size"`
}

// DefaultHealthConfig 返回默认健康监控配置
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Enabled:     true,
		HistorySize: 64,
	}
}

// Validate 验证健康监控配置
func (c HealthConfig) Validate() error {
	if c.Enabled && c.HistorySize <= 0 {
		return errors.New("health history size must be positive")
	}
	return nil
}

// RealtimeConfig 实时线程配置
//
// 启用后重试与共享内存接收 goroutine 绑定 OS 线程，并设置线程名、
// SCHED_FIFO 优先级和 CPU 亲和性。需要相应的系统权限。
type RealtimeConfig struct {
	// Enabled 是否启用
	Enabled bool `json:"enabled"`

	// Priority SCHED_FIFO 优先级（1-99），0 表示不修改调度策略
	Priority int `json:"priority"`

	// CPUMask 允许运行的 CPU 编号，空表示不修改亲和性
	CPUMask []int `json:"cpu_mask,omitempty"`
}

// DefaultRealtimeConfig 返回默认实时配置
func DefaultRealtimeConfig() RealtimeConfig {
	return RealtimeConfig{
		Enabled:  false,
		Priority: 0,
	}
}

// Validate 验证实时配置
func (c RealtimeConfig) Validate() error {
	if c.Priority < 0 || c.Priority > 99 {
		return fmt.Errorf("realtime priority %d out of range [0, 99]", c.Priority)
	}
	for _, cpu := range c.CPUMask {
		if cpu < 0 || cpu >= 1024 {
			return fmt.Errorf("invalid cpu %d in cpu mask", cpu)
		}
	}
	if c.Enabled && len(c.CPUMask) > runtime.NumCPU() {
		return fmt.Errorf("cpu mask lists %d cpus, only %d available", len(c.CPUMask), runtime.NumCPU())
	}
	return nil
}
