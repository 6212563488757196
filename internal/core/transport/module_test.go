package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/transport/local"
	"github.com/dep2p/go-ipcbus/internal/core/transport/shm"
	"github.com/dep2p/go-ipcbus/internal/core/transport/tcp"
	unixsock "github.com/dep2p/go-ipcbus/internal/core/transport/unix"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

// TestNew 测试按类型创建传输
func TestNew(t *testing.T) {
	cfg := config.DefaultTransportConfig()

	tests := []struct {
		kind types.TransportKind
		want any
	}{
		{types.TransportLocal, &local.Transport{}},
		{types.TransportTCP, &tcp.Transport{}},
		{types.TransportUnix, &unixsock.Transport{}},
		{types.TransportSHM, &shm.Transport{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cfg.Kind = tt.kind
			tr, err := New(cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, tr)
		})
	}

	cfg.Kind = "udp"
	_, err := New(cfg)
	assert.ErrorIs(t, err, types.ErrUnknownTransport)
}

// TestModule 测试 Fx 模块提供默认的 local 传输
func TestModule(t *testing.T) {
	var tr pkgif.Transport
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&tr),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, inline := tr.(pkgif.InlineTransport)
	assert.True(t, inline)
}

func TestErrorAliases(t *testing.T) {
	assert.ErrorIs(t, local.New().Publish([]byte("x")), ErrNotRunning)
}
