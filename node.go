package ipcbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/bus"
	"github.com/dep2p/go-ipcbus/internal/core/health"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
)

var logger = log.Logger("ipcbus")

// 生命周期超时
const (
	startTimeout = 15 * time.Second
	stopTimeout  = 10 * time.Second
)

// Node 总线节点
//
// Node 是门面，聚合 Fx 组装的编解码器、传输层、总线与运维组件。
// 一个 Node 对应一个 Bus 实例，序列号在 Node 内唯一。
//
// 使用示例：
//
//	node, err := ipcbus.New(ipcbus.WithPreset("loopback"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
type Node struct {
	mu    sync.Mutex
	id    string
	state NodeState

	config *config.Config
	app    *fx.App

	// 由 Fx 注入
	bus      *bus.Bus
	registry *prometheus.Registry
	monitor  *health.Monitor
}

// New 创建节点（未启动）
func New(opts ...Option) (*Node, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	node := &Node{
		id:     uuid.NewString(),
		state:  StateIdle,
		config: o.config,
	}

	app, err := buildFxApp(o.config, o.fxOptions, node)
	if err != nil {
		return nil, err
	}
	node.app = app

	logger.Debug("节点已创建", "id", node.id, "transport", o.config.Transport.Kind, "codec", o.config.Codec.Kind)
	return node, nil
}

// Start 创建并启动节点
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := node.Start(ctx); err != nil {
		return nil, err
	}
	return node, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动节点
//
// 启动失败时已启动的组件被回滚，节点进入关闭状态。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateClosed:
		return ErrNodeClosed
	case StateRunning, StateStarting:
		return ErrAlreadyStarted
	}

	n.state = StateStarting
	logger.Info("正在启动节点", "id", n.id)

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := n.app.Start(startCtx); err != nil {
		n.state = StateClosed
		logger.Error("节点启动失败", "id", n.id, "error", err)
		return fmt.Errorf("start node: %w", err)
	}

	n.state = StateRunning
	logger.Info("节点启动成功", "id", n.id, "transport", n.config.Transport.Kind)
	return nil
}

// Close 关闭节点并释放所有资源，幂等
//
// 关闭后不可重新启动。
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	prev := n.state
	if prev == StateClosed {
		return nil
	}
	n.state = StateClosed

	if prev == StateIdle {
		return nil
	}

	logger.Info("正在关闭节点", "id", n.id)
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := n.app.Stop(ctx); err != nil {
		logger.Error("关闭节点失败", "id", n.id, "error", err)
		return fmt.Errorf("stop node: %w", err)
	}
	logger.Info("节点已关闭", "id", n.id)
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              发布订阅
// ════════════════════════════════════════════════════════════════════════════

func (n *Node) runningBus() (*bus.Bus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateRunning:
		return n.bus, nil
	case StateClosed:
		return nil, ErrNodeClosed
	default:
		return nil, ErrNotStarted
	}
}

// Publish 发布消息
func (n *Node) Publish(msg Message) error {
	b, err := n.runningBus()
	if err != nil {
		return err
	}
	return b.Publish(msg)
}

// PublishBytes 以指定 QoS 发布负载
func (n *Node) PublishBytes(topic string, payload []byte, qos QoS) error {
	return n.Publish(Message{Topic: topic, Payload: payload, QoS: qos})
}

// Subscribe 订阅主题（精确匹配）
//
// 启动前即可订阅，节点启动后开始接收。
func (n *Node) Subscribe(topic string, handler Handler) (uint64, error) {
	n.mu.Lock()
	closed := n.state == StateClosed
	b := n.bus
	n.mu.Unlock()

	if closed {
		return 0, ErrNodeClosed
	}
	if b == nil {
		return 0, ErrNotStarted
	}
	return b.Subscribe(topic, handler)
}

// Unsubscribe 取消订阅，未知 ID 忽略
func (n *Node) Unsubscribe(id uint64) {
	n.mu.Lock()
	b := n.bus
	n.mu.Unlock()

	if b != nil {
		b.Unsubscribe(id)
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              诊断
// ════════════════════════════════════════════════════════════════════════════

// ID 返回节点实例 ID（进程内唯一，用于日志关联）
func (n *Node) ID() string {
	return n.id
}

// State 返回节点状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Config 返回节点配置的副本
func (n *Node) Config() *config.Config {
	return n.config.Clone()
}

// SubscriberCount 返回精确匹配 topic 的订阅数
func (n *Node) SubscriberCount(topic string) int {
	if n.bus == nil {
		return 0
	}
	return n.bus.SubscriberCount(topic)
}

// PendingCount 返回待确认的消息数
func (n *Node) PendingCount() int {
	if n.bus == nil {
		return 0
	}
	return n.bus.PendingCount()
}

// Registry 返回指标 registry，可交给 promhttp 暴露
func (n *Node) Registry() *prometheus.Registry {
	return n.registry
}

// Health 返回健康监控，未启用时为 nil
func (n *Node) Health() *health.Monitor {
	return n.monitor
}

// IsClosed 判断错误是否由节点关闭引起
func IsClosed(err error) bool {
	return errors.Is(err, ErrNodeClosed) || errors.Is(err, bus.ErrClosed)
}
