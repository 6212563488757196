package types

import "time"

// HealthState 组件健康状态
type HealthState int

const (
	// HealthOK 正常
	HealthOK HealthState = iota
	// HealthDegraded 降级（功能可用但有丢失或重试）
	HealthDegraded
	// HealthFault 故障
	HealthFault
)

// String 返回健康状态的字符串表示
func (s HealthState) String() string {
	switch s {
	case HealthOK:
		return "ok"
	case HealthDegraded:
		return "degraded"
	case HealthFault:
		return "fault"
	default:
		return "unknown"
	}
}

// HealthEvent 健康事件
type HealthEvent struct {
	Component string
	State     HealthState
	Detail    string
	Timestamp time.Time
}
