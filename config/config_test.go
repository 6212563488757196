package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Bus.RetryCount)
	assert.Equal(t, 50*time.Millisecond, cfg.Bus.RetryInterval.Duration())
	assert.Equal(t, types.CodecBinary, cfg.Codec.Kind)
	assert.Equal(t, types.TransportLocal, cfg.Transport.Kind)
	assert.Equal(t, 5500, cfg.Transport.TCP.Port)
	assert.Equal(t, 1<<20, cfg.Transport.SHM.SizeBytes)

	t.Log("✅ NewConfig 测试通过")
}

// TestFromJSON 测试从 JSON 加载
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"bus": {"retry_count": 5, "retry_interval": "20ms"},
		"codec": {"kind": "protobuf"},
		"transport": {"kind": "unix", "unix": {"role": "server", "path": "/tmp/x.sock"}}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Bus.RetryCount)
	assert.Equal(t, 20*time.Millisecond, cfg.Bus.RetryInterval.Duration())
	assert.Equal(t, types.CodecProtobuf, cfg.Codec.Kind)
	assert.Equal(t, types.TransportUnix, cfg.Transport.Kind)
	assert.Equal(t, types.RoleServer, cfg.Transport.Unix.Role)
	assert.Equal(t, "/tmp/x.sock", cfg.Transport.Unix.Path)
	// 未出现的字段保留默认值
	assert.Equal(t, 8, cfg.Transport.Unix.MaxClients)
}

// TestFromJSON_Invalid 测试非法 JSON
func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"bus": {"retry_interval": "soon"}}`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{"bus": {"retry_interval": "-5ms"}}`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{`))
	assert.Error(t, err)
}

// TestLoadFile 测试从文件加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"codec": {"kind": "protobuf"}}`), 0o600))
	cfg, err := LoadFile(good)
	require.NoError(t, err)
	assert.Equal(t, types.CodecProtobuf, cfg.Codec.Kind)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"transport": {"kind": "carrier-pigeon"}}`), 0o600))
	_, err = LoadFile(bad)
	assert.ErrorIs(t, err, types.ErrUnknownTransport)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

// TestConfig_Validate 测试各子配置校验
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative retry", func(c *Config) { c.Bus.RetryCount = -1 }},
		{"zero interval", func(c *Config) { c.Bus.RetryInterval = 0 }},
		{"unknown codec", func(c *Config) { c.Codec.Kind = "xml" }},
		{"negative compress threshold", func(c *Config) { c.Codec.CompressThreshold = -1 }},
		{"unknown transport", func(c *Config) { c.Transport.Kind = "udp" }},
		{"tcp bad role", func(c *Config) {
			c.Transport.Kind = types.TransportTCP
			c.Transport.TCP.Role = "peer"
		}},
		{"tcp client without port", func(c *Config) {
			c.Transport.Kind = types.TransportTCP
			c.Transport.TCP.Port = 0
		}},
		{"tcp port range", func(c *Config) {
			c.Transport.Kind = types.TransportTCP
			c.Transport.TCP.Port = 70000
		}},
		{"unix empty path", func(c *Config) {
			c.Transport.Kind = types.TransportUnix
			c.Transport.Unix.Path = ""
		}},
		{"shm nested name", func(c *Config) {
			c.Transport.Kind = types.TransportSHM
			c.Transport.SHM.Name = "a/b"
		}},
		{"shm too many consumers", func(c *Config) {
			c.Transport.Kind = types.TransportSHM
			c.Transport.SHM.MaxConsumers = MaxShmConsumers + 1
		}},
		{"shm owner slot out of range", func(c *Config) {
			c.Transport.Kind = types.TransportSHM
			c.Transport.SHM.Owner = true
			c.Transport.SHM.ConsumerID = 4
		}},
		{"metrics namespace", func(c *Config) { c.Metrics.Namespace = "" }},
		{"health history", func(c *Config) { c.Health.HistorySize = 0 }},
		{"realtime priority", func(c *Config) { c.Realtime.Priority = 120 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestTransportConfig_IgnoresUnselected 测试未选中的传输子配置不参与校验
func TestTransportConfig_IgnoresUnselected(t *testing.T) {
	cfg := NewConfig()
	cfg.Transport.TCP.Host = ""
	cfg.Transport.SHM.Name = ""
	assert.NoError(t, cfg.Validate())
}

// TestApplyPreset 测试预设
func TestApplyPreset(t *testing.T) {
	cfg := NewConfig()
	cfg.Transport.Kind = types.TransportTCP
	require.NoError(t, ApplyPreset(cfg, "loopback"))
	assert.Equal(t, types.TransportLocal, cfg.Transport.Kind)
	assert.Zero(t, cfg.Bus.RetryCount)

	cfg = NewConfig()
	require.NoError(t, ApplyPreset(cfg, "reliable"))
	assert.Equal(t, 8, cfg.Bus.RetryCount)
	assert.NoError(t, cfg.Validate())

	cfg = NewConfig()
	require.NoError(t, ApplyPreset(cfg, "besteffort"))
	assert.Zero(t, cfg.Bus.RetryCount)
	assert.False(t, cfg.Health.Enabled)

	assert.NoError(t, ApplyPreset(cfg, ""))
	assert.Error(t, ApplyPreset(cfg, "turbo"))
	assert.Error(t, ApplyPreset(nil, "reliable"))
}

// TestConfig_JSONRoundTrip 测试序列化后可重新加载
func TestConfig_JSONRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Realtime.CPUMask = []int{0}
	data, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"retry_interval": "50ms"`)

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

// TestConfig_Clone 测试深拷贝
func TestConfig_Clone(t *testing.T) {
	cfg := NewConfig()
	cfg.Realtime.CPUMask = []int{1, 2}

	cp := cfg.Clone()
	cp.Realtime.CPUMask[0] = 7
	cp.Bus.RetryCount = 9

	assert.Equal(t, 1, cfg.Realtime.CPUMask[0])
	assert.Equal(t, 3, cfg.Bus.RetryCount)
}
