//go:build linux

package shm

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// futex 操作码（不带 FUTEX_PRIVATE_FLAG，跨进程可见）
const (
	futexWaitOp = 0
	futexWakeOp = 1
)

// futexWait 在 *addr == val 时休眠，timeout 为 0 表示不限时
//
// 被唤醒、超时、值已变化或信号中断都直接返回，调用方负责重新检查条件。
func futexWait(addr *uint32, val uint32, timeout time.Duration) {
	var tsp unsafe.Pointer
	if timeout > 0 {
		ts := unix.NsecToTimespec(int64(timeout))
		tsp = unsafe.Pointer(&ts)
	}
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), futexWaitOp, uintptr(val),
		uintptr(tsp), 0, 0)
}

// futexWake 唤醒至多 n 个等待者
func futexWake(addr *uint32, n int) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), futexWakeOp, uintptr(n),
		0, 0, 0)
}
