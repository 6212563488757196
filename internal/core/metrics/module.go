package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
)

// Params 指标模块依赖参数
type Params struct {
	fx.In

	Config *config.Config
}

// Result 指标模块输出结果
//
// 未启用时 Metrics 为 nil，Registry 仍然可用（为空）。
type Result struct {
	fx.Out

	Metrics  *BusMetrics
	Registry *prometheus.Registry
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}

// ProvideMetrics 创建私有 registry 并注册总线指标
func ProvideMetrics(p Params) (Result, error) {
	reg := prometheus.NewRegistry()
	if !p.Config.Metrics.Enabled {
		return Result{Registry: reg}, nil
	}
	m := NewBusMetrics(p.Config.Metrics.Namespace)
	if err := m.Register(reg); err != nil {
		return Result{}, err
	}
	return Result{Metrics: m, Registry: reg}, nil
}
