package ipcbus

import (
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// 用户扩展的 Fx 选项
	fxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{
		config: config.NewConfig(),
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              整体配置
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置，覆盖之前的选项
//
// 配置被复制，调用方之后的修改不影响节点。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidOption)
		}
		o.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置，覆盖之前的选项
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithPreset 应用预设：loopback、reliable、besteffort
func WithPreset(name string) Option {
	return func(o *options) error {
		return config.ApplyPreset(o.config, name)
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              编解码与投递
// ════════════════════════════════════════════════════════════════════════════

// WithCodec 选择编解码器
func WithCodec(kind CodecKind) Option {
	return func(o *options) error {
		if !kind.Valid() {
			return fmt.Errorf("%w: codec %q", ErrInvalidOption, kind)
		}
		o.config.Codec.Kind = kind
		return nil
	}
}

// WithCompression 启用 zstd 帧压缩，threshold 为 0 时使用默认阈值
func WithCompression(threshold int) Option {
	return func(o *options) error {
		if threshold < 0 {
			return fmt.Errorf("%w: compress threshold %d", ErrInvalidOption, threshold)
		}
		o.config.Codec.Compress = true
		o.config.Codec.CompressThreshold = threshold
		return nil
	}
}

// WithRetry 设置至少一次投递的重发次数与间隔
func WithRetry(count int, interval time.Duration) Option {
	return func(o *options) error {
		if count < 0 {
			return fmt.Errorf("%w: negative retry count %d", ErrInvalidOption, count)
		}
		if count > 0 && interval <= 0 {
			return fmt.Errorf("%w: retry interval must be positive", ErrInvalidOption)
		}
		o.config.Bus.RetryCount = count
		o.config.Bus.RetryInterval = config.Duration(interval)
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              传输层
// ════════════════════════════════════════════════════════════════════════════

// WithTransport 选择传输类型
func WithTransport(kind TransportKind) Option {
	return func(o *options) error {
		if !kind.Valid() {
			return fmt.Errorf("%w: transport %q", ErrInvalidOption, kind)
		}
		o.config.Transport.Kind = kind
		return nil
	}
}

// WithTCP 选择 TCP 传输并设置角色与地址
//
// port 为 0 时服务端监听临时端口。
func WithTCP(role Role, host string, port int) Option {
	return func(o *options) error {
		if !role.Valid() {
			return fmt.Errorf("%w: role %q", ErrInvalidOption, role)
		}
		o.config.Transport.Kind = TransportTCP
		o.config.Transport.TCP.Role = role
		o.config.Transport.TCP.Host = host
		o.config.Transport.TCP.Port = port
		return nil
	}
}

// WithUnix 选择 Unix 域套接字传输并设置角色与路径
func WithUnix(role Role, path string) Option {
	return func(o *options) error {
		if !role.Valid() {
			return fmt.Errorf("%w: role %q", ErrInvalidOption, role)
		}
		o.config.Transport.Kind = TransportUnix
		o.config.Transport.Unix.Role = role
		o.config.Transport.Unix.Path = path
		return nil
	}
}

// WithMaxClients 设置 TCP/Unix 服务端的最大并发连接数
func WithMaxClients(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("%w: max clients must be positive", ErrInvalidOption)
		}
		o.config.Transport.TCP.MaxClients = n
		o.config.Transport.Unix.MaxClients = n
		return nil
	}
}

// WithSHM 选择共享内存传输
//
// owner 为 true 的进程创建并初始化共享段；所有参与者（包括 owner）
// 通过 consumerID 占用一个消费者槽位。
func WithSHM(name string, sizeBytes int, owner bool, consumerID int) Option {
	return func(o *options) error {
		o.config.Transport.Kind = TransportSHM
		o.config.Transport.SHM.Name = name
		o.config.Transport.SHM.SizeBytes = sizeBytes
		o.config.Transport.SHM.Owner = owner
		o.config.Transport.SHM.ConsumerID = consumerID
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              运维
// ════════════════════════════════════════════════════════════════════════════

// WithMetrics 启用或关闭 Prometheus 指标
func WithMetrics(enable bool) Option {
	return func(o *options) error {
		o.config.Metrics.Enabled = enable
		return nil
	}
}

// WithHealth 启用或关闭内置健康监控
func WithHealth(enable bool) Option {
	return func(o *options) error {
		o.config.Health.Enabled = enable
		return nil
	}
}

// WithRealtime 启用实时线程配置
//
// priority 为 SCHED_FIFO 优先级（0 表示不修改调度策略），cpus 为允许运行的 CPU。
func WithRealtime(priority int, cpus ...int) Option {
	return func(o *options) error {
		o.config.Realtime.Enabled = true
		o.config.Realtime.Priority = priority
		o.config.Realtime.CPUMask = append([]int(nil), cpus...)
		return nil
	}
}

// WithFxOptions 追加 Fx 选项，用于注入自定义组件或替换默认实现
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
