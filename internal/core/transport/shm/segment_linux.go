//go:build linux

package shm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// shmDir POSIX 共享内存在 Linux 上的挂载点
const shmDir = "/dev/shm"

// segment 已映射的共享内存段
type segment struct {
	path string
	fd   int
	mem  []byte
}

// segmentPath 由段名得到文件路径，名称可带前导 "/"
func segmentPath(name string) string {
	return filepath.Join(shmDir, strings.TrimPrefix(name, "/"))
}

// openSegment 打开并映射共享内存段
//
// create 为 true 时创建（或复用）段并截断到 size；否则按现有文件大小映射。
func openSegment(path string, create bool, size int) (*segment, error) {
	flags := unix.O_RDWR | unix.O_CLOEXEC
	if create {
		flags |= unix.O_CREAT
	}
	fd, err := unix.Open(path, flags, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if create {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("ftruncate %s: %w", path, err)
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("fstat %s: %w", path, err)
		}
		size = int(st.Size)
		if size < HeaderSize {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("%w: %s is %d bytes", ErrLayoutMismatch, path, size)
		}
	}

	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &segment{path: path, fd: fd, mem: mem}, nil
}

// close 解除映射并关闭文件
func (s *segment) close() error {
	var err error
	if s.mem != nil {
		err = multierr.Append(err, unix.Munmap(s.mem))
		s.mem = nil
	}
	if s.fd >= 0 {
		err = multierr.Append(err, unix.Close(s.fd))
		s.fd = -1
	}
	return err
}

// unlinkSegment 删除段文件，不存在不视为错误
func unlinkSegment(path string) error {
	if err := unix.Unlink(path); err != nil && !errors.Is(err, unix.ENOENT) {
		return fmt.Errorf("unlink %s: %w", path, err)
	}
	return nil
}
