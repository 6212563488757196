//go:build !unix

package tcp

import "syscall"

// reuseControl 非 Unix 平台不修改套接字选项
func reuseControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
