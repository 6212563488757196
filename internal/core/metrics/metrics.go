package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

// 编解码操作标签
const (
	OpEncode = "encode"
	OpDecode = "decode"
)

// BusMetrics 投递总线指标
type BusMetrics struct {
	Published     *prometheus.CounterVec
	Received      *prometheus.CounterVec
	Retries       prometheus.Counter
	Exhausted     prometheus.Counter
	AcksSent      prometheus.Counter
	AcksReceived  prometheus.Counter
	CodecErrors   *prometheus.CounterVec
	SendFailures  prometheus.Counter
	HandlerPanics prometheus.Counter
	Pending       prometheus.Gauge
	Subscriptions prometheus.Gauge
}

// NewBusMetrics 创建总线指标
func NewBusMetrics(namespace string) *BusMetrics {
	return &BusMetrics{
		Published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "published_total",
				Help:      "Messages handed to the transport, retries excluded",
			},
			[]string{"qos"},
		),
		Received: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "received_total",
				Help:      "Decoded non-ack messages received from the transport",
			},
			[]string{"qos"},
		),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "retries_total",
			Help:      "Resends of unacknowledged at-least-once messages",
		}),
		Exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "retries_exhausted_total",
			Help:      "At-least-once messages dropped after the retry budget ran out",
		}),
		AcksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "acks_sent_total",
			Help:      "Acknowledgements sent for received at-least-once messages",
		}),
		AcksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "acks_received_total",
			Help:      "Acknowledgements received",
		}),
		CodecErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "errors_total",
				Help:      "Encode or decode failures",
			},
			[]string{"op"},
		),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "send_failures_total",
			Help:      "Frames the transport failed to send",
		}),
		HandlerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "handler_panics_total",
			Help:      "Subscriber handlers that panicked",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "pending_deliveries",
			Help:      "At-least-once messages awaiting acknowledgement",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "subscriptions",
			Help:      "Active subscriptions",
		}),
	}
}

// Collectors 返回全部 collector
func (m *BusMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Published, m.Received, m.Retries, m.Exhausted,
		m.AcksSent, m.AcksReceived, m.CodecErrors, m.SendFailures,
		m.HandlerPanics, m.Pending, m.Subscriptions,
	}
}

// Register 注册到 registerer，返回全部注册错误
func (m *BusMetrics) Register(reg prometheus.Registerer) error {
	var err error
	for _, c := range m.Collectors() {
		err = multierr.Append(err, reg.Register(c))
	}
	return err
}

// Unregister 从 registerer 注销
func (m *BusMetrics) Unregister(reg prometheus.Registerer) {
	for _, c := range m.Collectors() {
		reg.Unregister(c)
	}
}

// ============================================================================
//                              记录方法（nil 安全）
// ============================================================================

// IncPublished 记录一次发布
func (m *BusMetrics) IncPublished(qos types.QoS) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(qos.String()).Inc()
}

// IncReceived 记录一次接收
func (m *BusMetrics) IncReceived(qos types.QoS) {
	if m == nil {
		return
	}
	m.Received.WithLabelValues(qos.String()).Inc()
}

// IncRetry 记录一次重发
func (m *BusMetrics) IncRetry() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}

// IncExhausted 记录一次重试耗尽
func (m *BusMetrics) IncExhausted() {
	if m == nil {
		return
	}
	m.Exhausted.Inc()
}

// IncAckSent 记录发送一个 ACK
func (m *BusMetrics) IncAckSent() {
	if m == nil {
		return
	}
	m.AcksSent.Inc()
}

// IncAckReceived 记录收到一个 ACK
func (m *BusMetrics) IncAckReceived() {
	if m == nil {
		return
	}
	m.AcksReceived.Inc()
}

// IncCodecError 记录编解码失败
func (m *BusMetrics) IncCodecError(op string) {
	if m == nil {
		return
	}
	m.CodecErrors.WithLabelValues(op).Inc()
}

// IncSendFailure 记录传输发送失败
func (m *BusMetrics) IncSendFailure() {
	if m == nil {
		return
	}
	m.SendFailures.Inc()
}

// IncHandlerPanic 记录处理函数 panic
func (m *BusMetrics) IncHandlerPanic() {
	if m == nil {
		return
	}
	m.HandlerPanics.Inc()
}

// SetPending 设置待确认消息数
func (m *BusMetrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.Pending.Set(float64(n))
}

// SetSubscriptions 设置订阅数
func (m *BusMetrics) SetSubscriptions(n int) {
	if m == nil {
		return
	}
	m.Subscriptions.Set(float64(n))
}
