// Package codec 按配置选择线路编解码器
//
// 支持的实现：
//   - binary: 固定布局大端编码
//   - protobuf: protobuf wire format 编码（携带发送方时间戳）
//
// 两者均可叠加 zstd 帧压缩（compress 子包）。
package codec

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/codec/binary"
	"github.com/dep2p/go-ipcbus/internal/core/codec/compress"
	"github.com/dep2p/go-ipcbus/internal/core/codec/protobuf"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

var logger = log.Logger("core/codec")

// New 创建指定类型的编解码器
func New(kind types.CodecKind) (pkgif.Codec, error) {
	switch kind {
	case types.CodecBinary:
		return binary.New(), nil
	case types.CodecProtobuf:
		return protobuf.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownCodec, kind)
	}
}

// FromConfig 按配置创建编解码器，Compress 为 true 时包装 zstd 压缩
func FromConfig(cfg config.CodecConfig) (pkgif.Codec, error) {
	c, err := New(cfg.Kind)
	if err != nil {
		return nil, err
	}
	if !cfg.Compress {
		return c, nil
	}
	return compress.New(c, cfg.CompressThreshold)
}

// ============================================================================
// Fx 模块
// ============================================================================

// Params 编解码器依赖参数
type Params struct {
	fx.In

	Config *config.Config
}

// Result 编解码器输出结果
type Result struct {
	fx.Out

	Codec pkgif.Codec
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("codec",
		fx.Provide(ProvideCodec),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideCodec 根据配置提供编解码器
func ProvideCodec(p Params) (Result, error) {
	c, err := FromConfig(p.Config.Codec)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("编解码器已选定", "codec", c.Name())
	return Result{Codec: c}, nil
}

// registerLifecycle 停止时释放编解码器持有的资源
func registerLifecycle(lc fx.Lifecycle, c pkgif.Codec) {
	closer, ok := c.(io.Closer)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closer.Close()
		},
	})
}
