// Package transport 实现传输层抽象
//
// Transport 只负责在参与者之间搬运不透明的字节帧，不理解消息内容。
// Bus 通过 Start 注册接收回调，通过 Publish 发送已编码的帧。
//
// # 支持的传输
//
//   - local: 进程内直接回调，Publish 在调用方 goroutine 上同步投递
//   - tcp: 4 字节长度前缀帧；server 广播给全部连接，client 单连接
//   - unix: 与 tcp 相同的分帧与角色，基于 Unix 域套接字
//   - shm: 共享内存环形缓冲区，多消费者广播
//
// # 语义约定
//
//   - 接收回调每帧恰好调用一次，帧内容在回调返回后不再被传输层修改
//   - 回调可能在传输层自有的 goroutine 上并发执行（shm 除外，单 goroutine）
//   - Stop 幂等，返回后不再有新的回调
//   - 未启动时 Publish 返回 ErrNotRunning
//
// # 使用示例
//
//	t, err := transport.New(cfg.Transport)
//	if err != nil {
//	    return err
//	}
//	if err := t.Start(func(frame []byte) { ... }); err != nil {
//	    return err
//	}
//	defer t.Stop()
//	t.Publish(frame)
package transport
