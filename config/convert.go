package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "bus": {"retry_count": 5, "retry_interval": "20ms"},
//	  "codec": {"kind": "protobuf"},
//	  "transport": {"kind": "unix", "unix": {"role": "server", "path": "/tmp/bus.sock"}}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从文件加载并验证配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.Realtime.CPUMask != nil {
		out.Realtime.CPUMask = append([]int(nil), c.Realtime.CPUMask...)
	}
	return &out
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "loopback": 进程内 local 传输，关闭重试，用于测试
//   - "reliable": 更多重试、更长间隔，适合 TCP/Unix 跨进程链路
//   - "besteffort": 关闭重试与健康历史，追求最低开销
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "loopback":
		cfg.Transport.Kind = types.TransportLocal
		cfg.Bus.RetryCount = 0
	case "reliable":
		cfg.Bus.RetryCount = 8
		cfg.Bus.RetryInterval = Duration(100 * time.Millisecond)
		cfg.Health.Enabled = true
	case "besteffort":
		cfg.Bus.RetryCount = 0
		cfg.Health.Enabled = false
	case "":
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}
