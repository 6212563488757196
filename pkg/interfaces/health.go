package interfaces

//go:generate mockgen -source=health.go -destination=mocks/health.go -package=mocks

import "github.com/dep2p/go-ipcbus/pkg/types"

// HealthReporter 健康事件接收端
//
// 仅用于运维可见性，总线的正确性不依赖它。
type HealthReporter interface {
	Report(event types.HealthEvent)
}
