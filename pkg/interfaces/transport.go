package interfaces

//go:generate mockgen -source=transport.go -destination=mocks/transport.go -package=mocks

// ReceiveHandler 入站帧回调
//
// 由传输层内部 goroutine 调用（local 传输除外），
// 回调不能假设独占调用。
type ReceiveHandler func(frame []byte)

// Transport 字节帧传输层
type Transport interface {
	// Start 开始异步投递入站帧
	//
	// 资源获取失败时返回错误，传输层保持非运行状态。
	Start(handler ReceiveHandler) error

	// Stop 停止所有内部 goroutine 并释放所有系统资源
	//
	// 幂等，可在任意阶段调用。
	Stop() error

	// Publish 发送一帧
	Publish(frame []byte) error
}

// InlineTransport 在 Publish 调用方 goroutine 上同步回调的传输层
//
// Bus 对这类传输不在出站锁内调用 Publish，
// 否则回调路径上的 ACK 或重入发布会死锁。
type InlineTransport interface {
	Transport

	// Inline 返回 true 表示接收回调在 Publish 中同步执行
	Inline() bool
}
