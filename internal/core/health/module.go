package health

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
)

// Params 健康监控依赖参数
type Params struct {
	fx.In

	Config *config.Config
}

// Result 健康监控输出结果
//
// 未启用时两者均为 nil。
type Result struct {
	fx.Out

	Monitor  *Monitor
	Reporter pkgif.HealthReporter
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(ProvideMonitor),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideMonitor 按配置提供健康监控
func ProvideMonitor(p Params) Result {
	if !p.Config.Health.Enabled {
		return Result{}
	}
	m := NewMonitor(p.Config.Health.HistorySize)
	return Result{Monitor: m, Reporter: m}
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Monitor *Monitor `optional:"true"`
}

// registerLifecycle 停止时关闭所有订阅
func registerLifecycle(input lifecycleInput) {
	if input.Monitor == nil {
		return
	}
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Monitor.Close()
		},
	})
}
