// Package config 提供 go-ipcbus 的统一配置
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义：
//   - Bus: 可靠投递参数（重试次数、重试间隔）
//   - Codec: 线路编解码器选择
//   - Transport: 传输层选择及各传输参数
//   - Metrics / Health / Realtime: 可选的运行时能力
//
// 编解码器与传输类型在构造时选定，之后不可更改。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Transport.Kind = types.TransportTCP
//	cfg.Transport.TCP.Role = types.RoleServer
//
//	// 应用预设
//	config.ApplyPreset(cfg, "reliable")
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// Config go-ipcbus 完整配置
type Config struct {
	// Bus 投递总线配置
	Bus BusConfig `json:"bus"`

	// Codec 编解码器配置
	Codec CodecConfig `json:"codec"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Health 健康监控配置
	Health HealthConfig `json:"health"`

	// Realtime 实时线程配置
	Realtime RealtimeConfig `json:"realtime"`
}

// NewConfig 创建默认配置
//
// 默认使用 binary 编解码器与 local 传输，适用于单进程内的测试与嵌入。
func NewConfig() *Config {
	return &Config{
		Bus:       DefaultBusConfig(),
		Codec:     DefaultCodecConfig(),
		Transport: DefaultTransportConfig(),
		Metrics:   DefaultMetricsConfig(),
		Health:    DefaultHealthConfig(),
		Realtime:  DefaultRealtimeConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Bus.Validate(); err != nil {
		return err
	}
	if err := c.Codec.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Health.Validate(); err != nil {
		return err
	}
	if err := c.Realtime.Validate(); err != nil {
		return err
	}
	return nil
}
