package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pbnjay/memory"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

const (
	// MaxShmConsumers 共享内存段支持的最大消费者槽位数
	MaxShmConsumers = 8

	// MinShmSizeBytes 共享内存数据区最小字节数
	MinShmSizeBytes = 64
)

// TransportConfig 传输层配置
//
// Kind 选定唯一生效的传输，其余子配置被忽略。
type TransportConfig struct {
	// Kind 传输类型：local | tcp | unix | shm
	Kind types.TransportKind `json:"kind"`

	// TCP TCP 传输配置
	TCP TCPConfig `json:"tcp"`

	// Unix Unix 域套接字配置
	Unix UnixConfig `json:"unix"`

	// SHM 共享内存环形缓冲区配置
	SHM SHMConfig `json:"shm"`
}

// TCPConfig TCP 传输配置
type TCPConfig struct {
	// Role server 监听并广播，client 单连接
	Role types.Role `json:"role"`

	// Host 监听或连接的主机
	Host string `json:"host"`

	// Port 端口，server 为 0 时使用临时端口
	Port int `json:"port"`

	// MaxClients server 同时接受的最大连接数
	MaxClients int `json:"max_clients"`

	// DialTimeout client 连接超时
	DialTimeout Duration `json:"dial_timeout"`
}

// UnixConfig Unix 域套接字配置
type UnixConfig struct {
	Role        types.Role `json:"role"`
	Path        string     `json:"path"`
	MaxClients  int        `json:"max_clients"`
	DialTimeout Duration   `json:"dial_timeout"`
}

// SHMConfig 共享内存配置
type SHMConfig struct {
	// Name 共享内存段名称（不含目录，可带前导 "/"）
	Name string `json:"name"`

	// SizeBytes 环形数据区大小（不含头部，向下取整到 8 字节）
	SizeBytes int `json:"size_bytes"`

	// Owner 是否负责创建、初始化与最终删除该段
	Owner bool `json:"owner"`

	// ConsumerID 本参与者占用的消费者槽位
	ConsumerID int `json:"consumer_id"`

	// MaxConsumers 段内消费者槽位数（仅 owner 初始化时使用）
	MaxConsumers int `json:"max_consumers"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Kind: types.TransportLocal,
		TCP: TCPConfig{
			Role:        types.RoleClient,
			Host:        "127.0.0.1",
			Port:        5500,
			MaxClients:  8,
			DialTimeout: Duration(5 * time.Second),
		},
		Unix: UnixConfig{
			Role:        types.RoleClient,
			Path:        "/tmp/ipcbus.sock",
			MaxClients:  8,
			DialTimeout: Duration(5 * time.Second),
		},
		SHM: SHMConfig{
			Name:         "ipcbus_shm",
			SizeBytes:    1 << 20,
			Owner:        false,
			ConsumerID:   0,
			MaxConsumers: 4,
		},
	}
}

// Validate 验证传输配置
//
// 仅校验 Kind 选中的子配置。
func (c TransportConfig) Validate() error {
	if _, err := types.ParseTransportKind(string(c.Kind)); err != nil {
		return err
	}

	switch c.Kind {
	case types.TransportTCP:
		return c.TCP.Validate()
	case types.TransportUnix:
		return c.Unix.Validate()
	case types.TransportSHM:
		return c.SHM.Validate()
	}
	return nil
}

// Validate 验证 TCP 配置
func (c TCPConfig) Validate() error {
	if !c.Role.Valid() {
		return fmt.Errorf("invalid tcp role %q", c.Role)
	}
	if c.Host == "" {
		return errors.New("tcp host must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("tcp port %d out of range", c.Port)
	}
	if c.Role == types.RoleClient && c.Port == 0 {
		return errors.New("tcp client requires a port")
	}
	if c.Role == types.RoleServer && c.MaxClients <= 0 {
		return errors.New("tcp max clients must be positive")
	}
	if c.DialTimeout < 0 {
		return errors.New("tcp dial timeout must not be negative")
	}
	return nil
}

// Validate 验证 Unix 配置
func (c UnixConfig) Validate() error {
	if !c.Role.Valid() {
		return fmt.Errorf("invalid unix role %q", c.Role)
	}
	if c.Path == "" {
		return errors.New("unix socket path must not be empty")
	}
	if c.Role == types.RoleServer && c.MaxClients <= 0 {
		return errors.New("unix max clients must be positive")
	}
	if c.DialTimeout < 0 {
		return errors.New("unix dial timeout must not be negative")
	}
	return nil
}

// Validate 验证共享内存配置
func (c SHMConfig) Validate() error {
	name := strings.TrimPrefix(c.Name, "/")
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid shm name %q", c.Name)
	}
	if c.SizeBytes < MinShmSizeBytes {
		return fmt.Errorf("shm size must be at least %d bytes", MinShmSizeBytes)
	}
	if total := memory.TotalMemory(); total > 0 && uint64(c.SizeBytes) > total {
		return fmt.Errorf("shm size %d exceeds physical memory %d", c.SizeBytes, total)
	}
	if c.MaxConsumers <= 0 || c.MaxConsumers > MaxShmConsumers {
		return fmt.Errorf("shm max consumers must be in [1, %d]", MaxShmConsumers)
	}
	if c.ConsumerID < 0 || c.ConsumerID >= MaxShmConsumers {
		return fmt.Errorf("shm consumer id %d out of range", c.ConsumerID)
	}
	if c.Owner && c.ConsumerID >= c.MaxConsumers {
		return fmt.Errorf("shm consumer id %d exceeds max consumers %d", c.ConsumerID, c.MaxConsumers)
	}
	return nil
}
