package types

import "fmt"

// ============================================================================
//                              TransportKind - 传输类型
// ============================================================================

// TransportKind 传输层实现类型（封闭集合）
type TransportKind string

const (
	// TransportLocal 进程内直接调用
	TransportLocal TransportKind = "local"
	// TransportTCP TCP 套接字
	TransportTCP TransportKind = "tcp"
	// TransportUnix Unix 域套接字
	TransportUnix TransportKind = "unix"
	// TransportSHM 共享内存环形缓冲区
	TransportSHM TransportKind = "shm"
)

// Valid 检查传输类型是否受支持
func (k TransportKind) Valid() bool {
	switch k {
	case TransportLocal, TransportTCP, TransportUnix, TransportSHM:
		return true
	default:
		return false
	}
}

// ParseTransportKind 解析传输类型
func ParseTransportKind(s string) (TransportKind, error) {
	k := TransportKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransport, s)
	}
	return k, nil
}

// ============================================================================
//                              CodecKind - 编解码器类型
// ============================================================================

// CodecKind 编解码器类型（封闭集合）
type CodecKind string

const (
	// CodecBinary 固定布局二进制编码
	CodecBinary CodecKind = "binary"
	// CodecProtobuf protobuf wire format 编码
	CodecProtobuf CodecKind = "protobuf"
)

// Valid 检查编解码器类型是否受支持
func (k CodecKind) Valid() bool {
	return k == CodecBinary || k == CodecProtobuf
}

// ParseCodecKind 解析编解码器类型
func ParseCodecKind(s string) (CodecKind, error) {
	k := CodecKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
	return k, nil
}

// ============================================================================
//                              Role - 套接字角色
// ============================================================================

// Role TCP/Unix 传输的连接角色
type Role string

const (
	// RoleServer 监听并接受连接，发布时广播给所有对端
	RoleServer Role = "server"
	// RoleClient 单一持久连接
	RoleClient Role = "client"
)

// Valid 检查角色是否有效
func (r Role) Valid() bool {
	return r == RoleServer || r == RoleClient
}
