package interfaces

//go:generate mockgen -source=codec.go -destination=mocks/codec.go -package=mocks

import "github.com/dep2p/go-ipcbus/pkg/types"

// Codec 线路编解码器
//
// 在 Bus 构造时选定，生命周期内不可更换。
type Codec interface {
	// Name 返回编解码器名称
	Name() string

	// Encode 将消息编码为字节序列
	//
	// 超出主题或负载长度限制时返回错误，不返回部分结果。
	Encode(msg *types.Message) ([]byte, error)

	// Decode 将字节序列解码为消息，并打上本地接收时间戳
	Decode(data []byte) (*types.Message, error)
}
