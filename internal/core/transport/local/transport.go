// Package local 实现进程内传输
//
// Publish 在调用方 goroutine 上直接调用接收回调，没有任何缓冲或后台 goroutine。
// 因为回调与发布者同步执行，上层需要在持有发送锁之外调用 Publish。
package local

import (
	"sync"

	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

// Transport 进程内传输
type Transport struct {
	mu      sync.RWMutex
	handler pkgif.ReceiveHandler
}

var _ pkgif.InlineTransport = (*Transport)(nil)

// New 创建进程内传输
func New() *Transport {
	return &Transport{}
}

// Start 注册接收回调
func (t *Transport) Start(handler pkgif.ReceiveHandler) error {
	if handler == nil {
		return types.ErrNilReceiveHandler
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handler != nil {
		return types.ErrTransportStarted
	}
	t.handler = handler
	return nil
}

// Stop 清除接收回调，幂等
func (t *Transport) Stop() error {
	t.mu.Lock()
	t.handler = nil
	t.mu.Unlock()
	return nil
}

// Publish 将帧同步交给接收回调
//
// 回调拿到的是帧的副本，调用方可在返回后复用缓冲区。
func (t *Transport) Publish(frame []byte) error {
	t.mu.RLock()
	h := t.handler
	t.mu.RUnlock()
	if h == nil {
		return types.ErrTransportNotRunning
	}
	h(append([]byte(nil), frame...))
	return nil
}

// Inline 回调在发布者 goroutine 上执行
func (t *Transport) Inline() bool {
	return true
}
