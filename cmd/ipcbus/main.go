// Package main 提供 ipcbus 命令行入口
//
// 运行一个总线节点：订阅若干主题并打印收到的消息，可选地周期性发布，
// 并通过 HTTP 暴露 Prometheus 指标。
//
// 示例：
//
//	# 终端 1：Unix 服务端，订阅 cmd
//	ipcbus -transport unix -role server -path /tmp/robot.sock -subscribe cmd
//
//	# 终端 2：客户端，至少一次发布 10 条
//	ipcbus -transport unix -role client -path /tmp/robot.sock -publish cmd -payload stop -qos 1 -count 10
//
//	# 共享内存：owner 占用槽位 0，另一个进程占用槽位 1
//	ipcbus -transport shm -shm-owner -shm-consumer 0 -subscribe imu
//	ipcbus -transport shm -shm-consumer 1 -publish imu -count 100 -interval 10ms
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-ipcbus"
	"github.com/dep2p/go-ipcbus/config"
	"github.com/dep2p/go-ipcbus/pkg/lib/log"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

var logger = log.Logger("ipcbus/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数覆盖配置文件中的同名项；未显式给出的参数不覆盖。
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 配置
	// ─────────────────────────────────────────────────────────────────────
	configFile = flag.String("config", "", "配置文件路径（JSON）")
	preset     = flag.String("preset", "", "预设配置 (loopback/reliable/besteffort)")
	transport  = flag.String("transport", "", "传输类型 (local/tcp/unix/shm)")
	codecKind  = flag.String("codec", "", "编解码器 (binary/protobuf)")
	retries    = flag.Int("retries", -1, "至少一次投递的重发次数（-1 = 使用配置）")
	compressOn = flag.Bool("compress", false, "启用 zstd 帧压缩（两端须一致）")

	// ─────────────────────────────────────────────────────────────────────
	// 传输参数
	// ─────────────────────────────────────────────────────────────────────
	role        = flag.String("role", "", "TCP/Unix 角色 (server/client)")
	host        = flag.String("host", "", "TCP 主机")
	port        = flag.Int("port", -1, "TCP 端口（-1 = 使用配置）")
	sockPath    = flag.String("path", "", "Unix 套接字路径")
	shmName     = flag.String("shm-name", "", "共享内存段名称")
	shmSize     = flag.Int("shm-size", 0, "共享内存数据区大小（字节）")
	shmOwner    = flag.Bool("shm-owner", false, "创建并初始化共享内存段")
	shmConsumer = flag.Int("shm-consumer", -1, "共享内存消费者槽位（-1 = 使用配置）")

	// ─────────────────────────────────────────────────────────────────────
	// 收发
	// ─────────────────────────────────────────────────────────────────────
	subscribe = flag.String("subscribe", "", "订阅的主题，逗号分隔")
	publish   = flag.String("publish", "", "发布的主题")
	payload   = flag.String("payload", "ping", "发布的负载")
	qos       = flag.Int("qos", 0, "QoS (0 = 尽力投递, 1 = 至少一次)")
	count     = flag.Int("count", 1, "发布次数（0 = 持续发布直到退出）")
	interval  = flag.Duration("interval", time.Second, "发布间隔")

	// ─────────────────────────────────────────────────────────────────────
	// 运维
	// ─────────────────────────────────────────────────────────────────────
	metricsAddr = flag.String("metrics-addr", "", "Prometheus 指标监听地址，如 :9090")
	rtPriority  = flag.Int("rt-priority", 0, "后台线程 SCHED_FIFO 优先级（0 = 不启用）")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(ipcbus.VersionInfo())
		return nil
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := ipcbus.New(ipcbus.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("创建节点失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	for _, topic := range splitTopics(*subscribe) {
		if _, err := node.Subscribe(topic, printMessage); err != nil {
			return fmt.Errorf("订阅 %s 失败: %w", topic, err)
		}
	}

	logger.Info("启动 ipcbus 节点", "version", ipcbus.Version, "transport", cfg.Transport.Kind, "codec", cfg.Codec.Kind)
	if err := node.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	fmt.Printf("📦 %s  id=%s  transport=%s  codec=%s\n", ipcbus.VersionInfo(), node.ID(), cfg.Transport.Kind, cfg.Codec.Kind)

	g, ctx := errgroup.WithContext(ctx)

	if *publish != "" {
		g.Go(func() error {
			return publishLoop(ctx, node)
		})
	}

	if *metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, node)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("\n正在关闭节点...")
	return nil
}

// buildConfig 合并配置文件、预设与命令行参数
func buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyPreset(cfg, *preset); err != nil {
		return nil, err
	}

	if *transport != "" {
		kind, err := types.ParseTransportKind(*transport)
		if err != nil {
			return nil, err
		}
		cfg.Transport.Kind = kind
	}
	if *codecKind != "" {
		kind, err := types.ParseCodecKind(*codecKind)
		if err != nil {
			return nil, err
		}
		cfg.Codec.Kind = kind
	}
	if *retries >= 0 {
		cfg.Bus.RetryCount = *retries
	}
	if *compressOn {
		cfg.Codec.Compress = true
	}

	if *role != "" {
		r := types.Role(*role)
		if !r.Valid() {
			return nil, fmt.Errorf("invalid role %q", *role)
		}
		cfg.Transport.TCP.Role = r
		cfg.Transport.Unix.Role = r
	}
	if *host != "" {
		cfg.Transport.TCP.Host = *host
	}
	if *port >= 0 {
		cfg.Transport.TCP.Port = *port
	}
	if *sockPath != "" {
		cfg.Transport.Unix.Path = *sockPath
	}
	if *shmName != "" {
		cfg.Transport.SHM.Name = *shmName
	}
	if *shmSize > 0 {
		cfg.Transport.SHM.SizeBytes = *shmSize
	}
	if *shmOwner {
		cfg.Transport.SHM.Owner = true
	}
	if *shmConsumer >= 0 {
		cfg.Transport.SHM.ConsumerID = *shmConsumer
	}

	if *rtPriority > 0 {
		cfg.Realtime.Enabled = true
		cfg.Realtime.Priority = *rtPriority
	}
	if *metricsAddr == "" && *configFile == "" {
		cfg.Metrics.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// publishLoop 按间隔发布，count 为 0 时持续到退出
func publishLoop(ctx context.Context, node *ipcbus.Node) error {
	q := types.QoS(*qos)
	if !q.Valid() {
		return fmt.Errorf("invalid qos %d", *qos)
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for sent := 0; *count == 0 || sent < *count; sent++ {
		if err := node.PublishBytes(*publish, []byte(*payload), q); err != nil {
			// 发送失败不退出：至少一次消息已登记，由重发覆盖
			logger.Warn("发布失败", "topic", *publish, "error", err)
		} else {
			fmt.Printf("→ %s  %q\n", *publish, *payload)
		}

		if *count != 0 && sent+1 == *count {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// serveMetrics 暴露 /metrics，ctx 结束时关闭
func serveMetrics(ctx context.Context, node *ipcbus.Node) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(node.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              *metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("指标服务已启动", "addr", *metricsAddr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func printMessage(msg ipcbus.Message) {
	fmt.Printf("← %s  seq=%d  qos=%s  %q\n", msg.Topic, msg.Sequence, msg.QoS, msg.Payload)
}

func splitTopics(s string) []string {
	var topics []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
