package tcp

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

func serverConfig(port int) config.TCPConfig {
	cfg := config.DefaultTransportConfig().TCP
	cfg.Role = types.RoleServer
	cfg.Port = port
	return cfg
}

// TestTransport_Loopback 测试 TCP server/client 收发
func TestTransport_Loopback(t *testing.T) {
	var got atomic.Int32
	srv := New(serverConfig(0))
	require.NoError(t, srv.Start(func([]byte) { got.Add(1) }))
	defer srv.Stop()

	port := srv.Port()
	require.NotZero(t, port)

	ccfg := config.DefaultTransportConfig().TCP
	ccfg.Port = port
	cli := New(ccfg)
	require.NoError(t, cli.Start(func([]byte) {}))
	defer cli.Stop()

	require.NoError(t, cli.Publish([]byte("frame")))
	require.Eventually(t, func() bool { return got.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}

// TestTransport_RebindSamePort 测试停止后立即在同一端口重新监听
func TestTransport_RebindSamePort(t *testing.T) {
	srv := New(serverConfig(0))
	require.NoError(t, srv.Start(func([]byte) {}))
	port := srv.Port()

	ccfg := config.DefaultTransportConfig().TCP
	ccfg.Port = port
	cli := New(ccfg)
	require.NoError(t, cli.Start(func([]byte) {}))
	require.NoError(t, cli.Publish([]byte("x")))

	require.NoError(t, srv.Stop())
	require.NoError(t, cli.Stop())
	assert.Zero(t, srv.Port())

	again := New(serverConfig(port))
	require.NoError(t, again.Start(func([]byte) {}))
	assert.Equal(t, port, again.Port())
	require.NoError(t, again.Stop())
}
