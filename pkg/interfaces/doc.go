// Package interfaces 定义 go-ipcbus 的公共接口
//
// 一个接口文件对应 internal/core 下的一个实现目录：
//   - codec.go     - 线路编解码器（internal/core/codec）
//   - transport.go - 字节帧传输层（internal/core/transport）
//   - health.go    - 健康事件上报（internal/core/health，可选协作者）
//   - rt.go        - 实时线程配置（internal/core/rt，可选协作者）
package interfaces
