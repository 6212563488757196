package rt

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
)

// Params Tuner 依赖参数
type Params struct {
	fx.In

	Config *config.Config
}

// Result Tuner 输出结果
type Result struct {
	fx.Out

	// Tuner 未启用实时配置时为 nil
	Tuner pkgif.ThreadTuner
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("rt",
		fx.Provide(ProvideTuner),
	)
}

// ProvideTuner 按配置提供 ThreadTuner
func ProvideTuner(p Params) Result {
	if !p.Config.Realtime.Enabled {
		return Result{}
	}
	logger.Info("启用实时线程配置", "priority", p.Config.Realtime.Priority, "cpus", p.Config.Realtime.CPUMask)
	return Result{Tuner: NewTuner(p.Config.Realtime)}
}
