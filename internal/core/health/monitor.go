package health

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

var logger = log.Logger("core/health")

// maxComponents 跟踪状态的组件数上限，超出时淘汰最久未上报的组件
const maxComponents = 256

// ============================================================================
// Monitor 实现
// ============================================================================

// Monitor 健康监控
type Monitor struct {
	mu      sync.Mutex
	states  *lru.Cache[string, types.HealthState]
	history []types.HealthEvent
	limit   int
	sinks   []*Subscription
	closed  bool

	dropCount atomic.Int64
	now       func() time.Time
}

var _ pkgif.HealthReporter = (*Monitor)(nil)

// NewMonitor 创建健康监控，historySize 为保留的最近事件数
func NewMonitor(historySize int) *Monitor {
	if historySize <= 0 {
		historySize = 1
	}
	states, _ := lru.New[string, types.HealthState](maxComponents)
	return &Monitor{
		states:  states,
		history: make([]types.HealthEvent, 0, historySize),
		limit:   historySize,
		now:     time.Now,
	}
}

// Report 上报事件
//
// 时间戳为零时填入当前时间。关闭后的上报被忽略。
func (m *Monitor) Report(ev types.HealthEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.states.Add(ev.Component, ev.State)
	if len(m.history) == m.limit {
		copy(m.history, m.history[1:])
		m.history = m.history[:m.limit-1]
	}
	m.history = append(m.history, ev)

	if ev.State != types.HealthOK {
		logger.Debug("组件健康状态变化", "component", ev.Component, "state", ev.State.String(), "detail", ev.Detail)
	}

	for _, sub := range m.sinks {
		select {
		case sub.out <- ev:
		default:
			dropped := m.dropCount.Add(1)
			// 每丢弃 100 个事件警告一次，避免日志泛滥
			if dropped%100 == 1 {
				logger.Warn("健康事件订阅者过慢", "dropped", dropped)
			}
		}
	}
}

// RecentEvents 返回最近至多 max 个事件，按上报顺序
func (m *Monitor) RecentEvents(max int) []types.HealthEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	if max <= 0 || len(m.history) == 0 {
		return nil
	}
	start := 0
	if len(m.history) > max {
		start = len(m.history) - max
	}
	out := make([]types.HealthEvent, len(m.history)-start)
	copy(out, m.history[start:])
	return out
}

// CurrentState 返回组件最近一次上报的状态，从未上报的组件视为 HealthOK
func (m *Monitor) CurrentState(component string) types.HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.states.Peek(component); ok {
		return s
	}
	return types.HealthOK
}

// Overall 返回所有组件中最差的状态
func (m *Monitor) Overall() types.HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()

	worst := types.HealthOK
	for _, c := range m.states.Keys() {
		if s, ok := m.states.Peek(c); ok && s > worst {
			worst = s
		}
	}
	return worst
}

// Dropped 返回因订阅者过慢而丢弃的事件数
func (m *Monitor) Dropped() int64 {
	return m.dropCount.Load()
}

// Subscribe 订阅后续事件，buffer 为通道缓冲大小
func (m *Monitor) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &Subscription{
		monitor: m,
		out:     make(chan types.HealthEvent, buffer),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(sub.out)
		sub.closed = true
		return sub
	}
	m.sinks = append(m.sinks, sub)
	return sub
}

// Close 关闭监控并关闭所有订阅通道，幂等
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for _, sub := range m.sinks {
		sub.closed = true
		close(sub.out)
	}
	m.sinks = nil
	return nil
}

func (m *Monitor) removeSub(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.closed {
		return
	}
	for i, s := range m.sinks {
		if s == sub {
			m.sinks = append(m.sinks[:i], m.sinks[i+1:]...)
			break
		}
	}
	sub.closed = true
	close(sub.out)
}

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 健康事件订阅
type Subscription struct {
	monitor *Monitor
	out     chan types.HealthEvent
	closed  bool // 由 monitor.mu 保护
}

// Out 返回事件通道，取消订阅或监控关闭后通道被关闭
func (s *Subscription) Out() <-chan types.HealthEvent {
	return s.out
}

// Close 取消订阅，可多次调用
func (s *Subscription) Close() error {
	s.monitor.removeSub(s)
	return nil
}
