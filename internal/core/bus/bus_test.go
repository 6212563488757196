package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/codec/binary"
	"github.com/dep2p/go-ipcbus/internal/core/metrics"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/interfaces/mocks"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// mockEnv 记录发出的帧并持有入站回调的模拟传输
type mockEnv struct {
	ctrl      *gomock.Controller
	transport *mocks.MockTransport

	mu      sync.Mutex
	frames  [][]byte
	handler pkgif.ReceiveHandler
}

func newMockEnv(t *testing.T) *mockEnv {
	ctrl := gomock.NewController(t)
	env := &mockEnv{
		ctrl:      ctrl,
		transport: mocks.NewMockTransport(ctrl),
	}
	env.transport.EXPECT().Start(gomock.Any()).DoAndReturn(func(h pkgif.ReceiveHandler) error {
		env.mu.Lock()
		env.handler = h
		env.mu.Unlock()
		return nil
	}).AnyTimes()
	env.transport.EXPECT().Publish(gomock.Any()).DoAndReturn(func(frame []byte) error {
		env.mu.Lock()
		env.frames = append(env.frames, append([]byte(nil), frame...))
		env.mu.Unlock()
		return nil
	}).AnyTimes()
	env.transport.EXPECT().Stop().Return(nil).Times(1)
	return env
}

func (e *mockEnv) frameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

func (e *mockEnv) decoded(t *testing.T) []*types.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*types.Message, 0, len(e.frames))
	for _, f := range e.frames {
		msg, err := binary.New().Decode(f)
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

func (e *mockEnv) deliver(frame []byte) {
	e.mu.Lock()
	h := e.handler
	e.mu.Unlock()
	h(frame)
}

func encodeFrame(t *testing.T, msg types.Message) []byte {
	frame, err := binary.New().Encode(&msg)
	require.NoError(t, err)
	return frame
}

func retryConfig(count int, interval time.Duration) config.BusConfig {
	return config.BusConfig{RetryCount: count, RetryInterval: config.Duration(interval)}
}

// eventLog 记录健康事件
type eventLog struct {
	mu     sync.Mutex
	events []types.HealthEvent
}

func (l *eventLog) reporter(ctrl *gomock.Controller) *mocks.MockHealthReporter {
	r := mocks.NewMockHealthReporter(ctrl)
	r.EXPECT().Report(gomock.Any()).Do(func(ev types.HealthEvent) {
		l.mu.Lock()
		l.events = append(l.events, ev)
		l.mu.Unlock()
	}).AnyTimes()
	return r
}

func (l *eventLog) has(state types.HealthState) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range l.events {
		if ev.Component == healthComponent && ev.State == state {
			return true
		}
	}
	return false
}

// ============================================================================
//                              构造与生命周期
// ============================================================================

// TestNew_NilArgs 测试空参数
func TestNew_NilArgs(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := New(nil, mocks.NewMockTransport(ctrl), config.DefaultBusConfig())
	assert.ErrorIs(t, err, ErrNilCodec)

	_, err = New(binary.New(), nil, config.DefaultBusConfig())
	assert.ErrorIs(t, err, ErrNilTransport)

	_, err = New(binary.New(), mocks.NewMockTransport(ctrl), retryConfig(-1, time.Millisecond))
	assert.Error(t, err)
}

// TestBus_StartTwice 测试重复启动
func TestBus_StartTwice(t *testing.T) {
	env := newMockEnv(t)
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig())
	require.NoError(t, err)

	require.NoError(t, b.Start(context.Background()))
	assert.ErrorIs(t, b.Start(context.Background()), ErrAlreadyStarted)
	assert.True(t, b.Running())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "Close 幂等")
	assert.False(t, b.Running())
	assert.ErrorIs(t, b.Start(context.Background()), ErrClosed)
}

// TestBus_StartCanceled 测试已取消的 context
func TestBus_StartCanceled(t *testing.T) {
	env := newMockEnv(t)
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig())
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Start(ctx), context.Canceled)
}

// TestBus_StartFailure 测试传输层启动失败
func TestBus_StartFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	errBind := errors.New("address in use")
	tr.EXPECT().Start(gomock.Any()).Return(errBind)
	tr.EXPECT().Stop().Return(nil)

	var log eventLog
	b, err := New(binary.New(), tr, config.DefaultBusConfig(), WithHealthReporter(log.reporter(ctrl)))
	require.NoError(t, err)

	err = b.Start(context.Background())
	assert.ErrorIs(t, err, errBind)
	assert.True(t, log.has(types.HealthFault))
	assert.False(t, b.Running())

	assert.ErrorIs(t, b.Publish(types.Message{Topic: "a"}), ErrNotRunning)

	id, err := b.Subscribe("a", func(types.Message) {})
	require.NoError(t, err, "总线保持可用")
	assert.NotZero(t, id)

	require.NoError(t, b.Close())
}

// TestBus_PublishBeforeStart 测试启动前发布
func TestBus_PublishBeforeStart(t *testing.T) {
	env := newMockEnv(t)
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig())
	require.NoError(t, err)
	defer b.Close()

	assert.ErrorIs(t, b.Publish(types.Message{Topic: "a"}), ErrNotRunning)
	assert.Zero(t, env.frameCount())
}

// TestBus_PublishValidation 测试发布参数校验
func TestBus_PublishValidation(t *testing.T) {
	env := newMockEnv(t)
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig())
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	assert.ErrorIs(t, b.Publish(types.Message{}), ErrEmptyTopic)
	assert.ErrorIs(t, b.Publish(types.Message{Topic: "a", QoS: types.QoS(9)}), ErrInvalidQoS)
	assert.Zero(t, env.frameCount())
	assert.Zero(t, b.PendingCount())
}

// ============================================================================
//                              重发与确认
// ============================================================================

// TestBus_RetryExhaustion 测试重发 2 次后丢弃：传输层恰好收到 3 次
func TestBus_RetryExhaustion(t *testing.T) {
	env := newMockEnv(t)
	mock := clock.NewMock()
	m := metrics.NewBusMetrics("test")
	var log eventLog

	b, err := New(binary.New(), env.transport, retryConfig(2, 50*time.Millisecond),
		WithClock(mock), WithMetrics(m), WithHealthReporter(log.reporter(env.ctrl)))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	require.NoError(t, b.Publish(types.Message{Topic: "a", Payload: []byte{1}, QoS: types.QoSAtLeastOnce}))
	assert.Equal(t, 1, b.PendingCount())
	assert.Equal(t, 1, env.frameCount())

	require.Eventually(t, func() bool {
		mock.Add(50 * time.Millisecond)
		return env.frameCount() == 3 && b.PendingCount() == 0
	}, 2*time.Second, 5*time.Millisecond)

	for i := 0; i < 5; i++ {
		mock.Add(100 * time.Millisecond)
	}
	assert.Equal(t, 3, env.frameCount(), "耗尽后不再重发")

	for _, msg := range env.decoded(t) {
		assert.Equal(t, uint64(1), msg.Sequence)
		assert.Equal(t, []byte{1}, msg.Payload)
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Exhausted) == 1 && log.has(types.HealthDegraded)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Retries))
}

// TestBus_AckStopsRetry 测试确认后不再重发
func TestBus_AckStopsRetry(t *testing.T) {
	env := newMockEnv(t)
	mock := clock.NewMock()
	m := metrics.NewBusMetrics("test")

	b, err := New(binary.New(), env.transport, retryConfig(3, 50*time.Millisecond), WithClock(mock), WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	require.NoError(t, b.Publish(types.Message{Topic: "a", QoS: types.QoSAtLeastOnce}))
	seq := env.decoded(t)[0].Sequence

	env.deliver(encodeFrame(t, types.NewAck(seq)))
	assert.Zero(t, b.PendingCount())

	// 重复确认无操作
	env.deliver(encodeFrame(t, types.NewAck(seq)))
	env.deliver(encodeFrame(t, types.NewAck(seq+100)))

	for i := 0; i < 10; i++ {
		mock.Add(50 * time.Millisecond)
	}
	assert.Equal(t, 1, env.frameCount())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AcksReceived))
	assert.Zero(t, testutil.ToFloat64(m.Retries))
}

// TestBus_AckAfterRetry 测试重发一次后确认
func TestBus_AckAfterRetry(t *testing.T) {
	env := newMockEnv(t)
	mock := clock.NewMock()

	b, err := New(binary.New(), env.transport, retryConfig(5, 50*time.Millisecond), WithClock(mock))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	require.NoError(t, b.Publish(types.Message{Topic: "a", QoS: types.QoSAtLeastOnce}))

	require.Eventually(t, func() bool {
		mock.Add(50 * time.Millisecond)
		return env.frameCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	env.deliver(encodeFrame(t, types.NewAck(1)))
	sent := env.frameCount()

	for i := 0; i < 10; i++ {
		mock.Add(50 * time.Millisecond)
	}
	assert.Equal(t, sent, env.frameCount())
	assert.Zero(t, b.PendingCount())
}

// TestBus_BestEffortNotTracked 测试尽力投递不登记
func TestBus_BestEffortNotTracked(t *testing.T) {
	env := newMockEnv(t)
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig())
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	require.NoError(t, b.Publish(types.Message{Topic: "a"}))
	require.NoError(t, b.Publish(types.NewAck(5)))
	assert.Zero(t, b.PendingCount(), "确认消息本身不会被重发")
	assert.Equal(t, 2, env.frameCount())
}

// TestBus_InboundAckBeforeHandler 测试确认先于回调发出
func TestBus_InboundAckBeforeHandler(t *testing.T) {
	env := newMockEnv(t)
	m := metrics.NewBusMetrics("test")
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig(), WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	var (
		calls      int
		ackBefore  bool
		gotPayload []byte
	)
	_, err = b.Subscribe("cmd", func(msg types.Message) {
		calls++
		gotPayload = msg.Payload
		sent := env.decoded(t)
		ackBefore = len(sent) == 1 && sent[0].IsAck && sent[0].AckFor == 7
	})
	require.NoError(t, err)

	env.deliver(encodeFrame(t, types.Message{Topic: "cmd", Payload: []byte("go"), Sequence: 7, QoS: types.QoSAtLeastOnce}))

	assert.Equal(t, 1, calls)
	assert.True(t, ackBefore)
	assert.Equal(t, []byte("go"), gotPayload)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcksSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Received.WithLabelValues("at-least-once")))
}

// TestBus_InboundNoAck 测试尽力投递与零序列号不回送确认
func TestBus_InboundNoAck(t *testing.T) {
	env := newMockEnv(t)
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig())
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	var calls int
	_, err = b.Subscribe("s", func(types.Message) { calls++ })
	require.NoError(t, err)

	env.deliver(encodeFrame(t, types.Message{Topic: "s", Sequence: 3}))
	env.deliver(encodeFrame(t, types.Message{Topic: "s", QoS: types.QoSAtLeastOnce}))

	assert.Equal(t, 2, calls)
	assert.Zero(t, env.frameCount())
}

// TestBus_DecodeErrorDropped 测试无法解码的帧被丢弃
func TestBus_DecodeErrorDropped(t *testing.T) {
	env := newMockEnv(t)
	m := metrics.NewBusMetrics("test")
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig(), WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	var calls int
	_, err = b.Subscribe("s", func(types.Message) { calls++ })
	require.NoError(t, err)

	assert.NotPanics(t, func() { env.deliver([]byte{0x00, 0x05, 's'}) })
	assert.Zero(t, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodecErrors.WithLabelValues(metrics.OpDecode)))
}

// ============================================================================
//                              失败路径
// ============================================================================

// TestBus_EncodeFailure 测试编码失败撤销待确认项且不发送
func TestBus_EncodeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	codec := mocks.NewMockCodec(ctrl)
	tr := mocks.NewMockTransport(ctrl)

	errTooBig := errors.New("payload too large")
	codec.EXPECT().Name().Return("mock").AnyTimes()
	codec.EXPECT().Encode(gomock.Any()).Return(nil, errTooBig)
	tr.EXPECT().Start(gomock.Any()).Return(nil)
	tr.EXPECT().Publish(gomock.Any()).Times(0)
	tr.EXPECT().Stop().Return(nil)

	m := metrics.NewBusMetrics("test")
	b, err := New(codec, tr, config.DefaultBusConfig(), WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	err = b.Publish(types.Message{Topic: "a", QoS: types.QoSAtLeastOnce})
	assert.ErrorIs(t, err, ErrEncode)
	assert.ErrorIs(t, err, errTooBig)
	assert.Zero(t, b.PendingCount(), "编码失败的消息不重发")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodecErrors.WithLabelValues(metrics.OpEncode)))
}

// TestBus_SendFailureKeepsPending 测试发送失败保留待确认项
func TestBus_SendFailureKeepsPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	errDown := errors.New("link down")
	tr.EXPECT().Start(gomock.Any()).Return(nil)
	tr.EXPECT().Publish(gomock.Any()).Return(errDown).AnyTimes()
	tr.EXPECT().Stop().Return(nil)

	m := metrics.NewBusMetrics("test")
	b, err := New(binary.New(), tr, config.DefaultBusConfig(), WithClock(clock.NewMock()), WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	err = b.Publish(types.Message{Topic: "a", QoS: types.QoSAtLeastOnce})
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, ErrEncode)
	assert.Equal(t, 1, b.PendingCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendFailures))

	err = b.Publish(types.Message{Topic: "a"})
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 1, b.PendingCount())
}

// TestBus_CloseClearsState 测试关闭后清空订阅和待确认项
func TestBus_CloseClearsState(t *testing.T) {
	env := newMockEnv(t)
	b, err := New(binary.New(), env.transport, config.DefaultBusConfig(), WithClock(clock.NewMock()))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))

	_, err = b.Subscribe("a", func(types.Message) {})
	require.NoError(t, err)
	require.NoError(t, b.Publish(types.Message{Topic: "a", QoS: types.QoSAtLeastOnce}))

	require.NoError(t, b.Close())
	assert.Zero(t, b.SubscriberCount("a"))
	assert.Zero(t, b.PendingCount())

	assert.ErrorIs(t, b.Publish(types.Message{Topic: "a"}), ErrClosed)
	_, err = b.Subscribe("a", func(types.Message) {})
	assert.ErrorIs(t, err, ErrClosed)
}
