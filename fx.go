package ipcbus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/bus"
	"github.com/dep2p/go-ipcbus/internal/core/codec"
	"github.com/dep2p/go-ipcbus/internal/core/health"
	"github.com/dep2p/go-ipcbus/internal/core/metrics"
	"github.com/dep2p/go-ipcbus/internal/core/rt"
	"github.com/dep2p/go-ipcbus/internal/core/transport"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
)

var fxLogger = log.Logger("ipcbus/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入
//  2. 运维组件：Metrics → Health → RT
//  3. Codec → Transport → Bus
//  4. 用户扩展 Fx 选项
//  5. Node 组件注入
func buildFxApp(cfg *config.Config, userOpts []fx.Option, node *Node) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),

		// ════════════════════════════════════════════════════════════════════
		// 2. 运维组件（内部按配置决定是否提供实例）
		// ════════════════════════════════════════════════════════════════════
		metrics.Module(),
		health.Module(),
		rt.Module(),

		// ════════════════════════════════════════════════════════════════════
		// 3. 核心组件
		// ════════════════════════════════════════════════════════════════════
		codec.Module(),
		transport.Module(),
		bus.Module(),
	}

	fxLogger.Debug("组装模块",
		"codec", cfg.Codec.Kind,
		"transport", cfg.Transport.Kind,
		"metrics", cfg.Metrics.Enabled,
		"health", cfg.Health.Enabled,
		"realtime", cfg.Realtime.Enabled)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(userOpts) > 0 {
		modules = append(modules, userOpts...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. Node 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Invoke(injectNodeComponents(node)),

		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return app, nil
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入辅助函数
// ════════════════════════════════════════════════════════════════════════════

// nodeInjectParams Node 组件注入参数
type nodeInjectParams struct {
	fx.In

	Bus      *bus.Bus
	Registry *prometheus.Registry
	Monitor  *health.Monitor `optional:"true"`
}

// injectNodeComponents 将 Fx 创建的组件注入 Node
func injectNodeComponents(node *Node) func(nodeInjectParams) {
	return func(p nodeInjectParams) {
		node.bus = p.Bus
		node.registry = p.Registry
		node.monitor = p.Monitor
	}
}
