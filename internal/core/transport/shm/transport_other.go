//go:build !linux

package shm

import (
	"github.com/dep2p/go-ipcbus/config"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

// Transport 非 Linux 平台的占位实现，Start 返回 ErrUnsupported
type Transport struct {
	cfg config.SHMConfig
}

var _ pkgif.Transport = (*Transport)(nil)

// New 创建共享内存传输
func New(cfg config.SHMConfig, _ ...Option) *Transport {
	return &Transport{cfg: cfg}
}

// Start 返回 ErrUnsupported
func (t *Transport) Start(pkgif.ReceiveHandler) error {
	return ErrUnsupported
}

// Stop 无操作
func (t *Transport) Stop() error {
	return nil
}

// Publish 返回 ErrTransportNotRunning
func (t *Transport) Publish([]byte) error {
	return types.ErrTransportNotRunning
}

// Capacity 返回 0
func (t *Transport) Capacity() int {
	return 0
}
