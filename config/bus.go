package config

import (
	"errors"
	"time"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

// BusConfig 投递总线配置
type BusConfig struct {
	// RetryCount 至少一次消息在首次发送之后的最大重发次数
	RetryCount int `json:"retry_count"`

	// RetryInterval 两次发送之间的间隔
	RetryInterval Duration `json:"retry_interval"`
}

// DefaultBusConfig 返回默认总线配置
func DefaultBusConfig() BusConfig {
	return BusConfig{
		RetryCount:    3,
		RetryInterval: Duration(50 * time.Millisecond),
	}
}

// Validate 验证总线配置
func (c BusConfig) Validate() error {
	if c.RetryCount < 0 {
		return errors.New("bus retry count must not be negative")
	}
	if c.RetryCount > 0 && c.RetryInterval <= 0 {
		return errors.New("bus retry interval must be positive when retries are enabled")
	}
	return nil
}

// CodecConfig 编解码器配置
type CodecConfig struct {
	// Kind 编解码器类型：binary | protobuf
	Kind types.CodecKind `json:"kind"`

	// Compress 启用 zstd 帧压缩，两端必须一致
	Compress bool `json:"compress"`

	// CompressThreshold 压缩阈值（字节），0 表示使用默认值
	CompressThreshold int `json:"compress_threshold"`
}

// DefaultCodecConfig 返回默认编解码器配置
func DefaultCodecConfig() CodecConfig {
	return CodecConfig{Kind: types.CodecBinary}
}

// Validate 验证编解码器配置
func (c CodecConfig) Validate() error {
	if _, err := types.ParseCodecKind(string(c.Kind)); err != nil {
		return err
	}
	if c.CompressThreshold < 0 {
		return errors.New("codec compress threshold must not be negative")
	}
	return nil
}
