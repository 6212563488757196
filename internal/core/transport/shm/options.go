package shm

import pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"

// options 传输可选项
type options struct {
	tuner pkgif.ThreadTuner
}

// Option 配置选项
type Option func(*options)

// WithThreadTuner 接收 goroutine 绑定 OS 线程后用 tuner 设置线程属性
func WithThreadTuner(t pkgif.ThreadTuner) Option {
	return func(o *options) {
		o.tuner = t
	}
}

// receiveThreadName 接收线程名
const receiveThreadName = "ipcbus-shm-rx"
