//go:build unix

package tcp

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseControl 设置 SO_REUSEADDR
func reuseControl(_, _ string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			opErr = fmt.Errorf("set SO_REUSEADDR: %w", err)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}
