package bus

import (
	"runtime/debug"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

// Handler 订阅回调
//
// 在传输层的接收 goroutine 上调用（local 传输为发布方 goroutine），
// 同一消息的 Payload 被该主题的所有回调共享，回调不应修改。
type Handler func(msg types.Message)

// subscription 订阅项
type subscription struct {
	id      uint64
	topic   string
	handler Handler
}

// Subscribe 订阅主题（精确匹配），返回订阅 ID
//
// 主题为空或回调为空时返回 (0, ErrInvalidSubscription)。
func (b *Bus) Subscribe(topic string, handler Handler) (uint64, error) {
	if topic == "" || handler == nil {
		return 0, ErrInvalidSubscription
	}
	if b.closed.Load() {
		return 0, ErrClosed
	}

	b.subMu.Lock()
	b.nextSubID++
	sub := &subscription{
		id:      b.nextSubID,
		topic:   topic,
		handler: handler,
	}
	b.topics[topic] = append(b.topics[topic], sub)
	b.byID[sub.id] = topic
	total := len(b.byID)
	b.subMu.Unlock()

	b.metrics.SetSubscriptions(total)
	logger.Debug("订阅已注册", "topic", topic, "id", sub.id)
	return sub.id, nil
}

// Unsubscribe 取消订阅，未知 ID 忽略
func (b *Bus) Unsubscribe(id uint64) {
	b.subMu.Lock()
	topic, ok := b.byID[id]
	if !ok {
		b.subMu.Unlock()
		return
	}
	delete(b.byID, id)

	subs := b.topics[topic]
	for i, s := range subs {
		if s.id == id {
			// 复制而非原地删除，dispatch 持有的快照不受影响
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			subs = next
			break
		}
	}
	if len(subs) == 0 {
		delete(b.topics, topic)
	} else {
		b.topics[topic] = subs
	}
	total := len(b.byID)
	b.subMu.Unlock()

	b.metrics.SetSubscriptions(total)
	logger.Debug("订阅已取消", "topic", topic, "id", id)
}

// dispatch 在订阅读锁内取快照，锁外按订阅顺序调用回调
func (b *Bus) dispatch(msg types.Message) {
	b.subMu.RLock()
	subs := b.topics[msg.Topic]
	b.subMu.RUnlock()

	for _, sub := range subs {
		b.invoke(sub, msg)
	}
}

func (b *Bus) invoke(sub *subscription, msg types.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.IncHandlerPanic()
			logger.Error("订阅回调 panic",
				"topic", sub.topic,
				"id", sub.id,
				"seq", msg.Sequence,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	sub.handler(msg)
}
