// Package stream 实现基于字节流连接的分帧传输
//
// TCP 与 Unix 域套接字传输共用本包：帧格式为 4 字节大端长度前缀加内容。
//
// 角色：
//   - server: 监听并接受至多 MaxClients 个连接，每个连接一个接收 goroutine；
//     Publish 广播给当前所有连接，单个连接失败不影响其余连接
//   - client: 单一持久连接，一个接收 goroutine，断开后不重连
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	tec "github.com/jbenet/go-temp-err-catcher"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

var logger = log.Logger("core/transport/stream")

// ErrNotConnected client 连接已断开
var ErrNotConnected = errors.New("not connected")

// Config 流传输配置
type Config struct {
	// Network "tcp" 或 "unix"
	Network string

	// Address 监听或连接地址
	Address string

	// Role 连接角色
	Role types.Role

	// MaxClients server 同时接受的最大连接数
	MaxClients int

	// DialTimeout client 连接超时，0 表示不限
	DialTimeout time.Duration

	// ListenConfig server 监听参数（可设置 Control 修改套接字选项）
	ListenConfig net.ListenConfig

	// BeforeListen server 监听前的准备（如清理残留的套接字文件）
	BeforeListen func() error

	// AfterStop server 停止后的清理
	AfterStop func()
}

// ============================================================================
//                              Transport
// ============================================================================

// Transport 分帧流传输
type Transport struct {
	cfg Config

	mu       sync.Mutex
	running  bool
	done     chan struct{}
	handler  pkgif.ReceiveHandler
	listener net.Listener
	conns    map[*peer]struct{}
	client   *peer

	wg        sync.WaitGroup
	acceptLog *rate.Limiter
}

var _ pkgif.Transport = (*Transport)(nil)

// peer 单个连接，写操作串行化以保证帧不交错
type peer struct {
	conn net.Conn
	wmu  sync.Mutex
}

func (p *peer) write(buf []byte) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	_, err := p.conn.Write(buf)
	return err
}

// New 创建流传输
func New(cfg Config) *Transport {
	return &Transport{
		cfg:       cfg,
		conns:     make(map[*peer]struct{}),
		acceptLog: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Start 启动传输
//
// server 监听失败、client 连接失败时返回错误，传输保持未启动状态。
func (t *Transport) Start(handler pkgif.ReceiveHandler) error {
	if handler == nil {
		return types.ErrNilReceiveHandler
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return types.ErrTransportStarted
	}

	switch t.cfg.Role {
	case types.RoleServer:
		if err := t.listenLocked(); err != nil {
			return err
		}
	case types.RoleClient:
		if err := t.dialLocked(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid role %q", t.cfg.Role)
	}

	t.handler = handler
	t.running = true
	t.done = make(chan struct{})

	if t.listener != nil {
		t.wg.Add(1)
		go t.acceptLoop(t.listener, t.done)
	} else {
		t.wg.Add(1)
		go t.receiveLoop(t.client, t.done)
	}
	return nil
}

func (t *Transport) listenLocked() error {
	if t.cfg.BeforeListen != nil {
		if err := t.cfg.BeforeListen(); err != nil {
			return err
		}
	}
	ln, err := t.cfg.ListenConfig.Listen(context.Background(), t.cfg.Network, t.cfg.Address)
	if err != nil {
		return fmt.Errorf("监听 %s %s 失败: %w", t.cfg.Network, t.cfg.Address, err)
	}
	t.listener = ln
	logger.Info("流传输开始监听", "network", t.cfg.Network, "addr", ln.Addr().String())
	return nil
}

func (t *Transport) dialLocked() error {
	d := net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.Dial(t.cfg.Network, t.cfg.Address)
	if err != nil {
		return fmt.Errorf("连接 %s %s 失败: %w", t.cfg.Network, t.cfg.Address, err)
	}
	t.client = &peer{conn: conn}
	logger.Info("流传输已连接", "network", t.cfg.Network, "addr", t.cfg.Address)
	return nil
}

// Stop 停止传输，幂等
//
// 关闭监听器与所有连接，等待全部 goroutine 退出后返回。
func (t *Transport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	close(t.done)

	ln := t.listener
	t.listener = nil
	peers := make([]*peer, 0, len(t.conns)+1)
	for p := range t.conns {
		peers = append(peers, p)
	}
	if t.client != nil {
		peers = append(peers, t.client)
	}
	t.conns = make(map[*peer]struct{})
	t.client = nil
	t.mu.Unlock()

	var err error
	if ln != nil {
		err = multierr.Append(err, ignoreClosed(ln.Close()))
	}
	for _, p := range peers {
		err = multierr.Append(err, ignoreClosed(p.conn.Close()))
	}

	t.wg.Wait()

	if ln != nil && t.cfg.AfterStop != nil {
		t.cfg.AfterStop()
	}
	logger.Debug("流传输已停止", "network", t.cfg.Network, "addr", t.cfg.Address)
	return err
}

// Publish 发送一帧
//
// server 广播给所有连接，没有连接时返回 nil；写失败的连接被关闭，
// 错误聚合后返回。client 写入唯一连接。
func (t *Transport) Publish(frame []byte) error {
	if len(frame) == 0 {
		return types.ErrEmptyFrame
	}
	if len(frame) > MaxFrameSize {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(frame))
	}

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return types.ErrTransportNotRunning
	}
	var targets []*peer
	if t.cfg.Role == types.RoleServer {
		targets = make([]*peer, 0, len(t.conns))
		for p := range t.conns {
			targets = append(targets, p)
		}
	} else if t.client != nil {
		targets = []*peer{t.client}
	}
	isClient := t.cfg.Role == types.RoleClient
	t.mu.Unlock()

	if isClient && len(targets) == 0 {
		return ErrNotConnected
	}

	buf := appendFrame(make([]byte, 0, frameHeaderSize+len(frame)), frame)

	var errs error
	for _, p := range targets {
		if err := p.write(buf); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write %s: %w", remoteAddr(p.conn), err))
			_ = p.conn.Close()
		}
	}
	return errs
}

// Addr 返回监听地址（server）或本端地址（client），未启动时为 nil
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr()
	}
	if t.client != nil {
		return t.client.conn.LocalAddr()
	}
	return nil
}

// PeerCount 返回当前连接数
func (t *Transport) PeerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return 1
	}
	return len(t.conns)
}

// ============================================================================
//                              后台 goroutine
// ============================================================================

func (t *Transport) acceptLoop(ln net.Listener, done chan struct{}) {
	defer t.wg.Done()

	var catcher tec.TempErrCatcher
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			if t.acceptLog.Allow() {
				logger.Warn("接受连接失败", "addr", ln.Addr().String(), "err", err)
			}
			// 临时错误退避后重试，其余错误结束监听
			if catcher.IsTemporary(err) {
				continue
			}
			return
		}
		catcher.Reset()

		t.mu.Lock()
		if !t.running {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		if len(t.conns) >= t.cfg.MaxClients {
			t.mu.Unlock()
			logger.Warn("连接数已达上限，拒绝连接", "max", t.cfg.MaxClients, "remote", remoteAddr(conn))
			_ = conn.Close()
			continue
		}
		p := &peer{conn: conn}
		t.conns[p] = struct{}{}
		t.wg.Add(1)
		t.mu.Unlock()

		logger.Debug("接受新连接", "remote", remoteAddr(conn))
		go t.receiveLoop(p, done)
	}
}

func (t *Transport) receiveLoop(p *peer, done chan struct{}) {
	defer t.wg.Done()
	defer t.dropPeer(p)

	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()

	r := bufio.NewReader(p.conn)
	for {
		frame, err := readFrame(r)
		if err != nil {
			select {
			case <-done:
			default:
				logger.Debug("连接接收结束", "remote", remoteAddr(p.conn), "err", err)
			}
			return
		}
		handler(frame)
	}
}

// dropPeer 关闭并移除连接
func (t *Transport) dropPeer(p *peer) {
	_ = p.conn.Close()
	t.mu.Lock()
	delete(t.conns, p)
	if t.client == p {
		t.client = nil
	}
	t.mu.Unlock()
}

// ============================================================================
//                              辅助函数
// ============================================================================

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func remoteAddr(c net.Conn) string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
