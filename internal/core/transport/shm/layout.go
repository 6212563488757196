// Package shm 实现共享内存环形缓冲区传输
//
// 一个 owner 创建并初始化共享内存段，其余参与者按槽位号附着为消费者。
// owner 自身也占用一个槽位，因此会收到自己发布的帧。
//
// 段布局（小端，仅使用整数偏移，不含任何指针）：
//
//	0    magic        u32
//	4    version      u32
//	8    mutex        u32   futex 互斥锁：0 空闲，1 已锁，2 已锁且有等待者
//	12   notEmpty     u32   条件变量序号
//	16   notFull      u32   条件变量序号
//	20   maxConsumers u32
//	24   capacity     u64   数据区大小
//	32   head         u64   写偏移
//	40   tails[8]     u64   每个槽位的读偏移
//	104  active[8]    u32   槽位是否活跃
//	192  data[capacity]
//
// 每个条目为 [4B 长度][payload]，占用 align8(4+长度) 字节；长度字段保存
// payload 的真实长度。写者可用空间为 capacity - 已用(最慢活跃槽位) - 1。
package shm

import "errors"

const (
	// MaxConsumers 最大消费者槽位数
	MaxConsumers = 8

	// HeaderSize 头部大小，数据区从此偏移开始
	HeaderSize = 192

	segmentMagic   uint32 = 0x49504342 // "IPCB"
	segmentVersion uint32 = 1

	entryHeaderSize = 4
	entryAlign      = 8
)

// 头部字段偏移
const (
	offMagic        = 0
	offVersion      = 4
	offMutex        = 8
	offNotEmpty     = 12
	offNotFull      = 16
	offMaxConsumers = 20
	offCapacity     = 24
	offHead         = 32
	offTails        = 40
	offActive       = offTails + 8*MaxConsumers
)

var (
	// ErrRingFull 可用空间不足，写入被拒绝
	ErrRingFull = errors.New("ring buffer full")

	// ErrFrameTooLarge 帧大于整个环
	ErrFrameTooLarge = errors.New("frame larger than ring capacity")

	// ErrBadSlot 槽位号超出范围
	ErrBadSlot = errors.New("consumer slot out of range")

	// ErrLayoutMismatch 已存在的段与本端期望的布局不一致
	ErrLayoutMismatch = errors.New("shared memory layout mismatch")

	// ErrUnsupported 当前平台不支持共享内存传输
	ErrUnsupported = errors.New("shared memory transport not supported on this platform")

	// errStopped 读取因停止而返回
	errStopped = errors.New("reader stopped")

	// errCorrupt 读到非法长度前缀
	errCorrupt = errors.New("corrupt entry")
)

// align8 向上取整到 8 字节
func align8(n uint64) uint64 {
	return (n + entryAlign - 1) &^ (entryAlign - 1)
}

// reservation 条目在环中占用的字节数
func reservation(payloadLen int) uint64 {
	return align8(uint64(entryHeaderSize + payloadLen))
}

// ringCapacity 由配置大小得到数据区容量（向下取整到 8 字节）
func ringCapacity(sizeBytes int) uint64 {
	return uint64(sizeBytes) &^ (entryAlign - 1)
}

// segmentSize 段总大小
func segmentSize(capacity uint64) int {
	return HeaderSize + int(capacity)
}
