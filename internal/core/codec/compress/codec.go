// Package compress 为编解码器增加可选的 zstd 帧压缩
//
// 压缩在内层编解码器的输出上进行，帧格式：
//
//	[1B 标志][数据]
//
// 标志 0x00 表示数据未压缩，0x01 表示数据为 zstd 压缩后的内层帧。
// 小于阈值或压缩后不更小的帧原样发送。两端必须使用相同的配置。
package compress

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

const (
	flagRaw  byte = 0x00
	flagZstd byte = 0x01

	// DefaultThreshold 默认压缩阈值（字节）
	DefaultThreshold = 1024

	// maxDecodedSize 解压后的最大帧长度
	maxDecodedSize = 8 << 20
)

var (
	// ErrMalformed 帧为空或压缩数据损坏
	ErrMalformed = errors.New("compress: malformed frame")

	// ErrUnknownFlag 未知的压缩标志
	ErrUnknownFlag = errors.New("compress: unknown flag")
)

// Codec zstd 压缩包装
//
// zstd.Encoder.EncodeAll 与 zstd.Decoder.DecodeAll 可并发调用。
type Codec struct {
	inner     pkgif.Codec
	threshold int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

var _ pkgif.Codec = (*Codec)(nil)

// New 包装 inner，threshold <= 0 时使用 DefaultThreshold
func New(inner pkgif.Codec, threshold int) (*Codec, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Codec{
		inner:     inner,
		threshold: threshold,
		enc:       enc,
		dec:       dec,
	}, nil
}

// Name 返回编解码器名称
func (c *Codec) Name() string {
	return c.inner.Name() + "+zstd"
}

// Encode 内层编码后按阈值压缩
func (c *Codec) Encode(msg *types.Message) ([]byte, error) {
	data, err := c.inner.Encode(msg)
	if err != nil {
		return nil, err
	}

	if len(data) >= c.threshold {
		out := c.enc.EncodeAll(data, append(make([]byte, 0, len(data)/2+1), flagZstd))
		if len(out) < len(data)+1 {
			return out, nil
		}
	}

	out := make([]byte, 1+len(data))
	out[0] = flagRaw
	copy(out[1:], data)
	return out, nil
}

// Decode 按标志解压后交给内层解码
func (c *Codec) Decode(data []byte) (*types.Message, error) {
	if len(data) == 0 {
		return nil, ErrMalformed
	}

	switch data[0] {
	case flagRaw:
		return c.inner.Decode(data[1:])
	case flagZstd:
		raw, err := c.dec.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return c.inner.Decode(raw)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownFlag, data[0])
	}
}

// Close 释放 zstd 资源
func (c *Codec) Close() error {
	c.enc.Close()
	c.dec.Close()
	return nil
}
