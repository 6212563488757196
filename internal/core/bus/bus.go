package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/metrics"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

var logger = log.Logger("core/bus")

// healthComponent 健康事件的组件名
const healthComponent = "bus"

// ============================================================================
//                              Bus 结构
// ============================================================================

// Bus 发布/订阅总线
type Bus struct {
	codec     pkgif.Codec
	transport pkgif.Transport
	inline    bool

	retryCount    int
	retryInterval time.Duration

	clock   clock.Clock
	metrics *metrics.BusMetrics
	health  pkgif.HealthReporter
	tuner   pkgif.ThreadTuner

	// sendMu 出站锁，保证编码与发送的顺序
	sendMu sync.Mutex

	// 订阅表，与 pendMu 从不同时持有
	subMu     sync.RWMutex
	topics    map[string][]*subscription
	byID      map[uint64]string
	nextSubID uint64

	// 待确认表
	pendMu  sync.Mutex
	pending map[uint64]*pendingDelivery

	nextSeq atomic.Uint64

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	started   atomic.Bool
	running   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

// New 创建总线
//
// 编解码器与传输层在总线生命周期内不可更换。
func New(codec pkgif.Codec, transport pkgif.Transport, cfg config.BusConfig, opts ...Option) (*Bus, error) {
	if codec == nil {
		return nil, ErrNilCodec
	}
	if transport == nil {
		return nil, ErrNilTransport
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bus config: %w", err)
	}

	b := &Bus{
		codec:         codec,
		transport:     transport,
		retryCount:    cfg.RetryCount,
		retryInterval: cfg.RetryInterval.Duration(),
		clock:         clock.New(),
		topics:        make(map[string][]*subscription),
		byID:          make(map[uint64]string),
		pending:       make(map[uint64]*pendingDelivery),
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	if it, ok := transport.(pkgif.InlineTransport); ok && it.Inline() {
		b.inline = true
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 以总线的入站回调启动传输层，成功后启动重发 goroutine
//
// 传输层启动失败时返回错误并上报 HealthFault，总线保持可用，
// 之后的 Publish 返回 ErrNotRunning。
func (b *Bus) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := b.transport.Start(b.onFrame); err != nil {
		logger.Error("传输层启动失败", "error", err)
		b.report(types.HealthFault, fmt.Sprintf("transport start failed: %v", err))
		return fmt.Errorf("start transport: %w", err)
	}
	b.running.Store(true)

	b.wg.Add(1)
	go b.retryLoop()

	logger.Info("总线已启动",
		"codec", b.codec.Name(),
		"inline", b.inline,
		"retryCount", b.retryCount,
		"retryInterval", b.retryInterval)
	b.report(types.HealthOK, "started")
	return nil
}

// Close 停止重发 goroutine 和传输层，清空订阅与待确认表
//
// 幂等。不能在订阅回调中调用：传输层停止时会等待回调所在的 goroutine。
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.running.Store(false)
		close(b.done)
		b.wg.Wait()

		err = b.transport.Stop()

		b.subMu.Lock()
		b.topics = make(map[string][]*subscription)
		b.byID = make(map[uint64]string)
		b.subMu.Unlock()

		b.pendMu.Lock()
		dropped := len(b.pending)
		b.pending = make(map[uint64]*pendingDelivery)
		b.pendMu.Unlock()

		b.metrics.SetSubscriptions(0)
		b.metrics.SetPending(0)

		if err != nil {
			logger.Warn("停止传输层失败", "error", err)
		}
		logger.Info("总线已关闭", "droppedPending", dropped)
	})
	return err
}

// ============================================================================
//                              发布
// ============================================================================

// Publish 发布消息
//
// 时间戳和序列号为零时由总线填充。至少一次的非确认消息在发送前登记为待确认；
// 编码失败时撤销登记并返回 ErrEncode；发送失败时保留登记，由重发覆盖。
func (b *Bus) Publish(msg types.Message) error {
	if msg.Topic == "" {
		return ErrEmptyTopic
	}
	if !msg.QoS.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, msg.QoS)
	}
	if b.closed.Load() {
		return ErrClosed
	}
	if !b.running.Load() {
		return ErrNotRunning
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = b.clock.Now()
	}
	if msg.Sequence == 0 {
		msg.Sequence = b.nextSeq.Add(1)
	}

	reliable := msg.Reliable()
	if reliable {
		b.track(msg)
	}

	err := b.send(&msg)
	if err == nil {
		b.metrics.IncPublished(msg.QoS)
		return nil
	}

	var encodeErr *encodeError
	if errors.As(err, &encodeErr) {
		if reliable {
			b.untrack(msg.Sequence)
		}
		return err
	}

	b.metrics.IncSendFailure()
	if reliable {
		logger.Debug("发送失败，等待重发", "topic", msg.Topic, "seq", msg.Sequence, "error", err)
	}
	return fmt.Errorf("publish %s#%d: %w", msg.Topic, msg.Sequence, err)
}

// send 编码并交给传输层
func (b *Bus) send(msg *types.Message) error {
	if b.inline {
		b.sendMu.Lock()
		frame, err := b.encode(msg)
		b.sendMu.Unlock()
		if err != nil {
			return err
		}
		return b.transport.Publish(frame)
	}

	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	frame, err := b.encode(msg)
	if err != nil {
		return err
	}
	return b.transport.Publish(frame)
}

func (b *Bus) encode(msg *types.Message) ([]byte, error) {
	frame, err := b.codec.Encode(msg)
	if err != nil {
		b.metrics.IncCodecError(metrics.OpEncode)
		logger.Debug("编码失败", "topic", msg.Topic, "seq", msg.Sequence, "error", err)
		return nil, &encodeError{err: err}
	}
	return frame, nil
}

// sendAck 回送确认帧
func (b *Bus) sendAck(seq uint64) {
	ack := types.NewAck(seq)
	ack.Timestamp = b.clock.Now()
	if err := b.send(&ack); err != nil {
		b.metrics.IncSendFailure()
		logger.Debug("发送确认失败", "ackFor", seq, "error", err)
		return
	}
	b.metrics.IncAckSent()
}

// ============================================================================
//                              接收
// ============================================================================

// onFrame 传输层入站回调
func (b *Bus) onFrame(frame []byte) {
	msg, err := b.codec.Decode(frame)
	if err != nil {
		b.metrics.IncCodecError(metrics.OpDecode)
		logger.Debug("丢弃无法解码的帧", "size", len(frame), "error", err)
		return
	}

	if msg.IsAck {
		b.metrics.IncAckReceived()
		b.handleAck(msg.AckFor)
		return
	}

	b.metrics.IncReceived(msg.QoS)

	// 确认先于回调发出，与回调是否成功无关
	if msg.QoS == types.QoSAtLeastOnce && msg.Sequence != 0 {
		b.sendAck(msg.Sequence)
	}

	b.dispatch(*msg)
}

// ============================================================================
//                              诊断
// ============================================================================

// SubscriberCount 返回精确匹配 topic 的订阅数
func (b *Bus) SubscriberCount(topic string) int {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	return len(b.topics[topic])
}

// PendingCount 返回待确认的消息数
func (b *Bus) PendingCount() int {
	b.pendMu.Lock()
	defer b.pendMu.Unlock()
	return len(b.pending)
}

// CodecName 返回编解码器名称
func (b *Bus) CodecName() string {
	return b.codec.Name()
}

// Running 传输层是否已成功启动且总线未关闭
func (b *Bus) Running() bool {
	return b.running.Load()
}

func (b *Bus) report(state types.HealthState, detail string) {
	if b.health == nil {
		return
	}
	b.health.Report(types.HealthEvent{
		Component: healthComponent,
		State:     state,
		Detail:    detail,
		Timestamp: b.clock.Now(),
	})
}
