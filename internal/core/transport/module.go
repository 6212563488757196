package transport

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/transport/local"
	"github.com/dep2p/go-ipcbus/internal/core/transport/shm"
	"github.com/dep2p/go-ipcbus/internal/core/transport/tcp"
	unixsock "github.com/dep2p/go-ipcbus/internal/core/transport/unix"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

var logger = log.Logger("core/transport")

// options 构造选项
type options struct {
	tuner pkgif.ThreadTuner
}

// Option 构造选项
type Option func(*options)

// WithThreadTuner 为拥有后台接收线程的传输设置线程属性
func WithThreadTuner(t pkgif.ThreadTuner) Option {
	return func(o *options) {
		o.tuner = t
	}
}

// New 按配置创建传输
//
// 传输只被创建，尚未启动；由 Bus.Start 注册回调并启动。
func New(cfg config.TransportConfig, opts ...Option) (pkgif.Transport, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Kind {
	case types.TransportLocal:
		return local.New(), nil
	case types.TransportTCP:
		return tcp.New(cfg.TCP), nil
	case types.TransportUnix:
		return unixsock.New(cfg.Unix), nil
	case types.TransportSHM:
		var shmOpts []shm.Option
		if o.tuner != nil {
			shmOpts = append(shmOpts, shm.WithThreadTuner(o.tuner))
		}
		return shm.New(cfg.SHM, shmOpts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownTransport, cfg.Kind)
	}
}

// ============================================================================
// Fx 模块
// ============================================================================

// Params 传输层依赖参数
type Params struct {
	fx.In

	Config *config.Config
	Tuner  pkgif.ThreadTuner `optional:"true"`
}

// Result 传输层输出结果
type Result struct {
	fx.Out

	Transport pkgif.Transport
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideTransport),
	)
}

// ProvideTransport 根据配置提供传输
func ProvideTransport(p Params) (Result, error) {
	var opts []Option
	if p.Tuner != nil {
		opts = append(opts, WithThreadTuner(p.Tuner))
	}
	t, err := New(p.Config.Transport, opts...)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("传输已选定", "kind", p.Config.Transport.Kind)
	return Result{Transport: t}, nil
}
