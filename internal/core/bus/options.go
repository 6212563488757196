package bus

import (
	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-ipcbus/internal/core/metrics"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
)

// Option 总线可选项
type Option func(*Bus)

// WithClock 替换时钟，测试中用于控制重发时间
func WithClock(c clock.Clock) Option {
	return func(b *Bus) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithMetrics 记录 Prometheus 指标
func WithMetrics(m *metrics.BusMetrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// WithHealthReporter 上报传输启动失败、投递耗尽等事件
func WithHealthReporter(r pkgif.HealthReporter) Option {
	return func(b *Bus) {
		b.health = r
	}
}

// WithThreadTuner 重发 goroutine 绑定 OS 线程后用 tuner 设置线程属性
func WithThreadTuner(t pkgif.ThreadTuner) Option {
	return func(b *Bus) {
		b.tuner = t
	}
}
