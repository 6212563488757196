//go:build linux

package shm

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-ipcbus/config"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

var logger = log.Logger("core/transport/shm")

// Transport 共享内存环形缓冲区传输
type Transport struct {
	cfg  config.SHMConfig
	opts options

	// mu 保护 seg/ring，Stop 解除映射前取写锁
	mu      sync.RWMutex
	seg     *segment
	ring    *ring
	running atomic.Bool

	wg      sync.WaitGroup
	fullLog *rate.Limiter
}

var _ pkgif.Transport = (*Transport)(nil)

// New 创建共享内存传输
func New(cfg config.SHMConfig, opts ...Option) *Transport {
	t := &Transport{
		cfg:     cfg,
		fullLog: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(&t.opts)
	}
	return t
}

// Start 打开共享内存段、占用槽位并启动接收 goroutine
//
// owner 创建并初始化段；消费者要求段已存在且布局一致。
func (t *Transport) Start(handler pkgif.ReceiveHandler) error {
	if handler == nil {
		return types.ErrNilReceiveHandler
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running.Load() {
		return types.ErrTransportStarted
	}

	capacity := ringCapacity(t.cfg.SizeBytes)
	if capacity < 2*entryAlign {
		return fmt.Errorf("shm size %d too small", t.cfg.SizeBytes)
	}

	path := segmentPath(t.cfg.Name)
	seg, err := openSegment(path, t.cfg.Owner, segmentSize(capacity))
	if err != nil {
		return err
	}

	r := newRing(seg.mem)
	if t.cfg.Owner {
		r.init(capacity, t.cfg.MaxConsumers)
	} else if err := r.validate(capacity); err != nil {
		_ = seg.close()
		return err
	}

	if err := r.attach(t.cfg.ConsumerID); err != nil {
		_ = seg.close()
		if t.cfg.Owner {
			_ = unlinkSegment(path)
		}
		return err
	}

	t.seg = seg
	t.ring = r
	t.running.Store(true)

	t.wg.Add(1)
	go t.receiveLoop(r, handler)

	logger.Info("共享内存传输已启动",
		"segment", path,
		"owner", t.cfg.Owner,
		"slot", t.cfg.ConsumerID,
		"capacity", capacity)
	return nil
}

// Stop 停用槽位、等待接收 goroutine 退出后解除映射，幂等
//
// 只有 owner 删除段文件。
func (t *Transport) Stop() error {
	if !t.running.CompareAndSwap(true, false) {
		return nil
	}

	t.mu.RLock()
	r := t.ring
	t.mu.RUnlock()
	r.detach(t.cfg.ConsumerID)

	t.wg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.seg.close()
	if t.cfg.Owner {
		err = multierr.Append(err, unlinkSegment(t.seg.path))
	}
	t.seg = nil
	t.ring = nil

	logger.Debug("共享内存传输已停止", "segment", t.cfg.Name, "slot", t.cfg.ConsumerID)
	return err
}

// Publish 写入一帧
//
// 空间不足时立即返回 ErrRingFull，不阻塞。
func (t *Transport) Publish(frame []byte) error {
	if len(frame) == 0 {
		return types.ErrEmptyFrame
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.running.Load() || t.ring == nil {
		return types.ErrTransportNotRunning
	}

	err := t.ring.write(frame)
	if errors.Is(err, ErrRingFull) && t.fullLog.Allow() {
		logger.Warn("环形缓冲区已满，帧被拒绝", "segment", t.cfg.Name, "size", len(frame))
	}
	return err
}

// Capacity 返回数据区容量，未启动时为 0
func (t *Transport) Capacity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ring == nil {
		return 0
	}
	return int(t.ring.capacity())
}

func (t *Transport) receiveLoop(r *ring, handler pkgif.ReceiveHandler) {
	defer t.wg.Done()

	if t.opts.tuner != nil {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := t.opts.tuner.TuneThread(receiveThreadName); err != nil {
			logger.Debug("设置接收线程属性失败", "err", err)
		}
	}

	for t.running.Load() {
		frame, err := r.read(t.cfg.ConsumerID, t.running.Load)
		if err != nil {
			if errors.Is(err, errCorrupt) {
				logger.Warn("读到非法条目，跳到最新位置", "slot", t.cfg.ConsumerID, "err", err)
			}
			continue
		}
		handler(frame)
	}
}
