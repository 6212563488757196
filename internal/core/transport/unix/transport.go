// Package unix 提供基于 Unix 域套接字的分帧传输
//
// server 在监听前删除残留的套接字文件，停止后再次删除。
package unix

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/transport/stream"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
)

var logger = log.Logger("core/transport/unix")

// Transport Unix 域套接字传输
type Transport struct {
	*stream.Transport
	path string
}

// New 创建 Unix 域套接字传输
func New(cfg config.UnixConfig) *Transport {
	path := cfg.Path
	return &Transport{
		path: path,
		Transport: stream.New(stream.Config{
			Network:      "unix",
			Address:      path,
			Role:         cfg.Role,
			MaxClients:   cfg.MaxClients,
			DialTimeout:  cfg.DialTimeout.Duration(),
			BeforeListen: func() error { return removeSocket(path) },
			AfterStop: func() {
				if err := removeSocket(path); err != nil {
					logger.Warn("删除套接字文件失败", "path", path, "err", err)
				}
			},
		}),
	}
}

// Path 返回套接字路径
func (t *Transport) Path() string {
	return t.path
}

// removeSocket 删除套接字文件，文件不存在不视为错误
func removeSocket(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove stale socket %s: %w", path, err)
}
