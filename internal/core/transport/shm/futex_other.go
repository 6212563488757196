//go:build !linux

package shm

import "time"

// pollInterval 无 futex 平台上的轮询间隔
const pollInterval = 200 * time.Microsecond

// futexWait 以短暂休眠代替 futex 等待，调用方负责重新检查条件
func futexWait(_ *uint32, _ uint32, timeout time.Duration) {
	d := pollInterval
	if timeout > 0 && timeout < d {
		d = timeout
	}
	time.Sleep(d)
}

func futexWake(_ *uint32, _ int) {}
