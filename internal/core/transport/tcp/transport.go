// Package tcp 提供基于 TCP 的分帧传输
//
// 分帧、角色与广播语义由 stream 包实现，本包负责地址与套接字选项。
// server 监听套接字设置 SO_REUSEADDR，重启时可立即复用端口。
package tcp

import (
	"net"
	"strconv"

	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/internal/core/transport/stream"
)

// Transport TCP 传输
type Transport struct {
	*stream.Transport
}

// New 创建 TCP 传输
func New(cfg config.TCPConfig) *Transport {
	return &Transport{
		Transport: stream.New(stream.Config{
			Network:      "tcp",
			Address:      net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Role:         cfg.Role,
			MaxClients:   cfg.MaxClients,
			DialTimeout:  cfg.DialTimeout.Duration(),
			ListenConfig: net.ListenConfig{Control: reuseControl},
		}),
	}
}

// Port 返回 server 实际监听的端口，未监听时返回 0
func (t *Transport) Port() int {
	if a, ok := t.Addr().(*net.TCPAddr); ok && a != nil {
		return a.Port
	}
	return 0
}
