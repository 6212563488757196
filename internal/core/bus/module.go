package bus

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/metrics"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
)

// Params 总线依赖参数
type Params struct {
	fx.In

	Config    *config.Config
	Codec     pkgif.Codec
	Transport pkgif.Transport
	Metrics   *metrics.BusMetrics  `optional:"true"`
	Health    pkgif.HealthReporter `optional:"true"`
	Tuner     pkgif.ThreadTuner    `optional:"true"`
}

// Result 总线输出结果
type Result struct {
	fx.Out

	Bus *Bus
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("bus",
		fx.Provide(ProvideBus),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideBus 创建总线
func ProvideBus(p Params) (Result, error) {
	opts := []Option{WithMetrics(p.Metrics)}
	if p.Health != nil {
		opts = append(opts, WithHealthReporter(p.Health))
	}
	if p.Tuner != nil {
		opts = append(opts, WithThreadTuner(p.Tuner))
	}

	b, err := New(p.Codec, p.Transport, p.Config.Bus, opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Bus: b}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC  fx.Lifecycle
	Bus *Bus
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Bus.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Bus.Close()
		},
	})
}
