// Package rt 提供实时线程配置的默认实现
//
// Tuner 作用于调用方 goroutine 当前所在的 OS 线程，
// 调用前须执行 runtime.LockOSThread，否则配置可能落在其他 goroutine 上。
//
// 三项配置相互独立：线程名总是设置；Priority > 0 时切换到 SCHED_FIFO；
// CPUMask 非空时设置亲和性。任一项失败不影响其余项，错误合并返回。
package rt

import (
	"errors"

	"github.com/dep2p/go-ipcbus/config"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
)

var logger = log.Logger("core/rt")

// MaxThreadNameLen 线程名最大字节数（不含结尾 NUL），超出部分截断
const MaxThreadNameLen = 15

// ErrUnsupported 当前平台不支持实时线程配置
var ErrUnsupported = errors.New("realtime thread tuning not supported on this platform")

// Tuner 实时线程配置器
type Tuner struct {
	priority int
	cpus     []int
}

var _ pkgif.ThreadTuner = (*Tuner)(nil)

// NewTuner 根据配置创建 Tuner
func NewTuner(cfg config.RealtimeConfig) *Tuner {
	return &Tuner{
		priority: cfg.Priority,
		cpus:     append([]int(nil), cfg.CPUMask...),
	}
}

// truncateName 截断到内核允许的长度
func truncateName(name string) string {
	if len(name) > MaxThreadNameLen {
		return name[:MaxThreadNameLen]
	}
	return name
}
