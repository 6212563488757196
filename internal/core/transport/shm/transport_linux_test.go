//go:build linux

package shm

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

type recorder struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *recorder) handle(f []byte) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *recorder) get() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames...)
}

func testConfig(name string, owner bool, slot int) config.SHMConfig {
	cfg := config.DefaultTransportConfig().SHM
	cfg.Name = name
	cfg.SizeBytes = 4096
	cfg.Owner = owner
	cfg.ConsumerID = slot
	cfg.MaxConsumers = 4
	return cfg
}

func uniqueName() string {
	return "ipcbus-test-" + uuid.NewString()
}

// TestTransport_OwnerAndConsumer 测试两个参与者都收到广播（包括 owner 自己）
func TestTransport_OwnerAndConsumer(t *testing.T) {
	name := uniqueName()
	var ownerRx, consRx recorder

	owner := New(testConfig(name, true, 0))
	require.NoError(t, owner.Start(ownerRx.handle))
	defer owner.Stop()

	cons := New(testConfig(name, false, 1))
	require.NoError(t, cons.Start(consRx.handle))
	defer cons.Stop()

	assert.Equal(t, 4096, owner.Capacity())

	payload := bytes.Repeat([]byte{7}, 100)
	require.NoError(t, owner.Publish(payload))

	require.Eventually(t, func() bool { return len(ownerRx.get()) == 1 && len(consRx.get()) == 1 },
		2*time.Second, 5*time.Millisecond)
	assert.Equal(t, payload, consRx.get()[0])
	assert.Equal(t, payload, ownerRx.get()[0])
}

// TestTransport_ConsumerRejoinIsLossy 测试消费者离开期间的帧不会补发
func TestTransport_ConsumerRejoinIsLossy(t *testing.T) {
	name := uniqueName()
	var ownerRx recorder

	owner := New(testConfig(name, true, 0))
	require.NoError(t, owner.Start(ownerRx.handle))
	defer owner.Stop()

	var first recorder
	cons := New(testConfig(name, false, 1))
	require.NoError(t, cons.Start(first.handle))
	require.NoError(t, owner.Publish([]byte("one")))
	require.Eventually(t, func() bool { return len(first.get()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, cons.Stop())

	require.NoError(t, owner.Publish([]byte("two")))

	var second recorder
	again := New(testConfig(name, false, 1))
	require.NoError(t, again.Start(second.handle))
	defer again.Stop()
	require.NoError(t, owner.Publish([]byte("three")))

	require.Eventually(t, func() bool { return len(second.get()) == 1 && len(ownerRx.get()) == 3 },
		2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []byte("three"), second.get()[0])
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two"), []byte("three")}, ownerRx.get())
}

// TestTransport_ConsumerWithoutOwner 测试段不存在时消费者启动失败
func TestTransport_ConsumerWithoutOwner(t *testing.T) {
	cons := New(testConfig(uniqueName(), false, 1))
	assert.Error(t, cons.Start(func([]byte) {}))
	assert.ErrorIs(t, cons.Publish([]byte("x")), types.ErrTransportNotRunning)
}

// TestTransport_CapacityMismatch 测试消费者期望的容量与段不一致
func TestTransport_CapacityMismatch(t *testing.T) {
	name := uniqueName()
	owner := New(testConfig(name, true, 0))
	require.NoError(t, owner.Start(func([]byte) {}))
	defer owner.Stop()

	cfg := testConfig(name, false, 1)
	cfg.SizeBytes = 8192
	assert.ErrorIs(t, New(cfg).Start(func([]byte) {}), ErrLayoutMismatch)
}

// TestTransport_OwnerUnlinksOnStop 测试 owner 停止后删除段文件
func TestTransport_OwnerUnlinksOnStop(t *testing.T) {
	name := uniqueName()
	owner := New(testConfig(name, true, 0))
	require.NoError(t, owner.Start(func([]byte) {}))

	_, err := os.Stat(segmentPath(name))
	require.NoError(t, err)

	require.NoError(t, owner.Stop())
	require.NoError(t, owner.Stop())
	_, err = os.Stat(segmentPath(name))
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, owner.Publish([]byte("x")), types.ErrTransportNotRunning)
}

// TestTransport_RingFull 测试慢消费者导致写入被拒绝
func TestTransport_RingFull(t *testing.T) {
	name := uniqueName()
	block := make(chan struct{})

	owner := New(testConfig(name, true, 0))
	require.NoError(t, owner.Start(func([]byte) { <-block }))
	defer owner.Stop()
	// 先放行阻塞的回调，Stop 才能等到接收 goroutine 退出
	defer close(block)

	frame := bytes.Repeat([]byte{1}, 1000)
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = owner.Publish(frame)
	}
	assert.ErrorIs(t, err, ErrRingFull)
}

func TestTransport_Errors(t *testing.T) {
	tr := New(testConfig(uniqueName(), true, 0))
	assert.ErrorIs(t, tr.Start(nil), types.ErrNilReceiveHandler)
	assert.ErrorIs(t, tr.Publish(nil), types.ErrEmptyFrame)

	require.NoError(t, tr.Start(func([]byte) {}))
	defer tr.Stop()
	assert.ErrorIs(t, tr.Start(func([]byte) {}), types.ErrTransportStarted)
}
