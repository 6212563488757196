package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ipcbus/config"
	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

func TestNew(t *testing.T) {
	c, err := New(types.CodecBinary)
	require.NoError(t, err)
	assert.Equal(t, "binary", c.Name())

	c, err = New(types.CodecProtobuf)
	require.NoError(t, err)
	assert.Equal(t, "protobuf", c.Name())

	_, err = New("json")
	assert.ErrorIs(t, err, types.ErrUnknownCodec)
}

// TestFromConfig_Compress 测试压缩包装
func TestFromConfig_Compress(t *testing.T) {
	c, err := FromConfig(config.CodecConfig{Kind: types.CodecProtobuf, Compress: true, CompressThreshold: 64})
	require.NoError(t, err)
	assert.Equal(t, "protobuf+zstd", c.Name())

	frame, err := c.Encode(&types.Message{Topic: "t", Payload: make([]byte, 512)})
	require.NoError(t, err)
	got, err := c.Decode(frame)
	require.NoError(t, err)
	assert.Len(t, got.Payload, 512)

	c, err = FromConfig(config.CodecConfig{Kind: types.CodecBinary})
	require.NoError(t, err)
	assert.Equal(t, "binary", c.Name())

	_, err = FromConfig(config.CodecConfig{Kind: "xml", Compress: true})
	assert.ErrorIs(t, err, types.ErrUnknownCodec)
}

// TestModule 测试 Fx 模块按配置提供编解码器
func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Codec.Kind = types.CodecProtobuf

	var c pkgif.Codec
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&c),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, c)
	assert.Equal(t, "protobuf", c.Name())
}

// TestModule_UnknownKind 测试未知类型导致构建失败
func TestModule_UnknownKind(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Codec.Kind = "yaml"

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		Module(),
		fx.Invoke(func(pkgif.Codec) {}),
	)
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), types.ErrUnknownCodec.Error())
}
