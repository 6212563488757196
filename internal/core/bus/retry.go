package bus

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

// retryThreadName 重发线程名
const retryThreadName = "ipcbus-retry"

// pendingDelivery 待确认的至少一次消息
type pendingDelivery struct {
	msg         types.Message
	retriesLeft int
	nextDue     time.Time
}

// track 登记待确认项并唤醒重发 goroutine
func (b *Bus) track(msg types.Message) {
	b.pendMu.Lock()
	b.pending[msg.Sequence] = &pendingDelivery{
		msg:         msg.Clone(),
		retriesLeft: b.retryCount,
		nextDue:     b.clock.Now().Add(b.retryInterval),
	}
	n := len(b.pending)
	b.pendMu.Unlock()

	b.metrics.SetPending(n)
	b.notify()
}

// untrack 撤销登记
func (b *Bus) untrack(seq uint64) {
	b.pendMu.Lock()
	delete(b.pending, seq)
	n := len(b.pending)
	b.pendMu.Unlock()

	b.metrics.SetPending(n)
}

// handleAck 清除被确认的待确认项，重复或过期的确认无操作
func (b *Bus) handleAck(seq uint64) {
	b.pendMu.Lock()
	_, ok := b.pending[seq]
	delete(b.pending, seq)
	n := len(b.pending)
	b.pendMu.Unlock()

	if ok {
		b.metrics.SetPending(n)
		logger.Debug("收到确认", "seq", seq)
	}
}

func (b *Bus) notify() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// nextDue 返回最早的到期时间
func (b *Bus) nextDue() (time.Time, bool) {
	b.pendMu.Lock()
	defer b.pendMu.Unlock()

	var (
		earliest time.Time
		found    bool
	)
	for _, p := range b.pending {
		if !found || p.nextDue.Before(earliest) {
			earliest = p.nextDue
			found = true
		}
	}
	return earliest, found
}

// retryLoop 重发 goroutine
func (b *Bus) retryLoop() {
	defer b.wg.Done()

	if b.tuner != nil {
		// 不解锁：goroutine 退出时线程随之销毁，调整过的线程不回到调度池
		runtime.LockOSThread()
		if err := b.tuner.TuneThread(retryThreadName); err != nil {
			logger.Warn("重发线程配置失败", "error", err)
		}
	}

	for {
		var wait <-chan time.Time
		var stop func() bool

		if due, ok := b.nextDue(); ok {
			d := due.Sub(b.clock.Now())
			if d <= 0 {
				b.processDue()
				continue
			}
			timer := b.clock.Timer(d)
			wait, stop = timer.C, timer.Stop
		}

		select {
		case <-b.done:
			if stop != nil {
				stop()
			}
			return
		case <-b.wake:
			if stop != nil {
				stop()
			}
		case <-wait:
			b.processDue()
		}
	}
}

// processDue 重发到期项，丢弃预算耗尽的项
func (b *Bus) processDue() {
	now := b.clock.Now()

	var (
		due       []uint64
		exhausted []types.Message
	)
	b.pendMu.Lock()
	for seq, p := range b.pending {
		if p.nextDue.After(now) {
			continue
		}
		if p.retriesLeft <= 0 {
			delete(b.pending, seq)
			exhausted = append(exhausted, p.msg)
			continue
		}
		due = append(due, seq)
	}
	b.pendMu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })

	for _, seq := range due {
		// 释放锁期间可能已被确认，重新查找
		b.pendMu.Lock()
		p, ok := b.pending[seq]
		if !ok {
			b.pendMu.Unlock()
			continue
		}
		p.retriesLeft--
		p.nextDue = b.clock.Now().Add(b.retryInterval)
		msg := p.msg
		b.pendMu.Unlock()

		b.metrics.IncRetry()
		if err := b.send(&msg); err != nil {
			b.metrics.IncSendFailure()
			logger.Debug("重发失败", "topic", msg.Topic, "seq", seq, "error", err)
		}
	}

	for _, msg := range exhausted {
		b.metrics.IncExhausted()
		logger.Debug("重发次数耗尽，丢弃消息", "topic", msg.Topic, "seq", msg.Sequence)
		b.report(types.HealthDegraded, fmt.Sprintf("delivery exhausted: topic=%s seq=%d", msg.Topic, msg.Sequence))
	}

	b.metrics.SetPending(b.PendingCount())
}
