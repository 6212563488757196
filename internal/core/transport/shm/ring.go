package shm

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"
	"time"
	"unsafe"
)

// waitSlice 条件变量单次等待上限，醒来后重新检查运行与槽位状态
const waitSlice = 50 * time.Millisecond

// ring 映射在共享内存上的环形缓冲区
//
// 头部字段全部通过原子操作访问；复合操作由头部的 futex 互斥锁保护。
type ring struct {
	mem []byte
}

func newRing(mem []byte) *ring {
	return &ring{mem: mem}
}

func (r *ring) u32(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&r.mem[off]))
}

func (r *ring) u64(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&r.mem[off]))
}

func (r *ring) capacity() uint64     { return atomic.LoadUint64(r.u64(offCapacity)) }
func (r *ring) head() uint64         { return atomic.LoadUint64(r.u64(offHead)) }
func (r *ring) maxConsumers() int    { return int(atomic.LoadUint32(r.u32(offMaxConsumers))) }
func (r *ring) tail(slot int) uint64 { return atomic.LoadUint64(r.u64(offTails + 8*slot)) }
func (r *ring) active(slot int) bool { return atomic.LoadUint32(r.u32(offActive+4*slot)) != 0 }

func (r *ring) setTail(slot int, v uint64) { atomic.StoreUint64(r.u64(offTails+8*slot), v) }

func (r *ring) setActive(slot int, on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(r.u32(offActive+4*slot), v)
}

func (r *ring) data() []byte {
	return r.mem[HeaderSize : HeaderSize+int(r.capacity())]
}

// ============================================================================
//                              初始化与校验
// ============================================================================

// init 由 owner 调用，重置整个头部
//
// magic 最后写入，消费者以此判断段已初始化。
func (r *ring) init(capacity uint64, maxConsumers int) {
	atomic.StoreUint32(r.u32(offMagic), 0)
	for i := offVersion; i < HeaderSize; i++ {
		r.mem[i] = 0
	}
	if maxConsumers > MaxConsumers {
		maxConsumers = MaxConsumers
	}
	atomic.StoreUint32(r.u32(offVersion), segmentVersion)
	atomic.StoreUint32(r.u32(offMaxConsumers), uint32(maxConsumers))
	atomic.StoreUint64(r.u64(offCapacity), capacity)
	atomic.StoreUint64(r.u64(offHead), 0)
	atomic.StoreUint32(r.u32(offMagic), segmentMagic)
}

// validate 检查已有段的布局
//
// expectCapacity 为 0 时只检查容量与段大小是否相容。
func (r *ring) validate(expectCapacity uint64) error {
	if len(r.mem) < HeaderSize {
		return fmt.Errorf("%w: segment of %d bytes", ErrLayoutMismatch, len(r.mem))
	}
	if m := atomic.LoadUint32(r.u32(offMagic)); m != segmentMagic {
		return fmt.Errorf("%w: magic %#x", ErrLayoutMismatch, m)
	}
	if v := atomic.LoadUint32(r.u32(offVersion)); v != segmentVersion {
		return fmt.Errorf("%w: version %d", ErrLayoutMismatch, v)
	}
	c := r.capacity()
	if c == 0 || c%entryAlign != 0 || uint64(len(r.mem)) < HeaderSize+c {
		return fmt.Errorf("%w: capacity %d in %d byte segment", ErrLayoutMismatch, c, len(r.mem))
	}
	if expectCapacity != 0 && c != expectCapacity {
		return fmt.Errorf("%w: capacity %d, expected %d", ErrLayoutMismatch, c, expectCapacity)
	}
	if n := r.maxConsumers(); n <= 0 || n > MaxConsumers {
		return fmt.Errorf("%w: max consumers %d", ErrLayoutMismatch, n)
	}
	return nil
}

// ============================================================================
//                              进程间互斥锁与条件变量
// ============================================================================

func (r *ring) lock() {
	w := r.u32(offMutex)
	if atomic.CompareAndSwapUint32(w, 0, 1) {
		return
	}
	for atomic.SwapUint32(w, 2) != 0 {
		futexWait(w, 2, 0)
	}
}

func (r *ring) unlock() {
	w := r.u32(offMutex)
	if atomic.AddUint32(w, ^uint32(0)) != 0 {
		atomic.StoreUint32(w, 0)
		futexWake(w, 1)
	}
}

// wait 在条件变量上等待，最长 timeout；调用前后都持有锁
func (r *ring) wait(cond int, timeout time.Duration) {
	seq := r.u32(cond)
	v := atomic.LoadUint32(seq)
	r.unlock()
	futexWait(seq, v, timeout)
	r.lock()
}

// broadcast 唤醒条件变量上的所有等待者
func (r *ring) broadcast(cond int) {
	seq := r.u32(cond)
	atomic.AddUint32(seq, 1)
	futexWake(seq, math.MaxInt32)
}

// ============================================================================
//                              槽位
// ============================================================================

// attach 激活槽位，读偏移从当前 head 开始
func (r *ring) attach(slot int) error {
	r.lock()
	defer r.unlock()
	if slot < 0 || slot >= r.maxConsumers() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrBadSlot, slot, r.maxConsumers())
	}
	r.setTail(slot, r.head())
	r.setActive(slot, true)
	return nil
}

// detach 停用槽位，读偏移重置到 head，并唤醒所有等待者
func (r *ring) detach(slot int) {
	r.lock()
	if slot >= 0 && slot < r.maxConsumers() {
		r.setActive(slot, false)
		r.setTail(slot, r.head())
	}
	r.broadcast(offNotEmpty)
	r.broadcast(offNotFull)
	r.unlock()
}

// ============================================================================
//                              读写
// ============================================================================

// used 返回 tail 到 head 之间的字节数，调用方持有锁
func (r *ring) used(tail uint64) uint64 {
	c := r.capacity()
	return (r.head() + c - tail) % c
}

// minTail 返回最慢活跃槽位的读偏移，没有活跃槽位时返回 head
func (r *ring) minTail() uint64 {
	head := r.head()
	best, found := head, false
	for i := 0; i < r.maxConsumers(); i++ {
		if !r.active(i) {
			continue
		}
		t := r.tail(i)
		if !found || r.used(t) > r.used(best) {
			best, found = t, true
		}
	}
	return best
}

// free 返回写者可用空间，调用方持有锁
func (r *ring) free() uint64 {
	return r.capacity() - r.used(r.minTail()) - 1
}

// write 写入一帧，空间不足时立即返回 ErrRingFull
func (r *ring) write(frame []byte) error {
	need := reservation(len(frame))
	if need >= r.capacity() {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}

	r.lock()
	defer r.unlock()

	if need > r.free() {
		return ErrRingFull
	}

	head := r.head()
	var hdr [entryHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(frame)))
	r.copyIn(head, hdr[:])
	r.copyIn((head+entryHeaderSize)%r.capacity(), frame)
	atomic.StoreUint64(r.u64(offHead), (head+need)%r.capacity())

	r.broadcast(offNotEmpty)
	return nil
}

// read 读取槽位的下一帧
//
// 数据不足时在 notEmpty 上等待；每次醒来重新检查 running 与槽位状态。
// 长度前缀非法时把该槽位的读偏移重置到 head 并返回 errCorrupt。
func (r *ring) read(slot int, running func() bool) ([]byte, error) {
	r.lock()
	defer r.unlock()

	var tail, avail uint64
	for {
		if !running() {
			return nil, errStopped
		}
		if r.active(slot) {
			tail = r.tail(slot)
			avail = r.used(tail)
			if avail >= entryHeaderSize {
				break
			}
		}
		r.wait(offNotEmpty, waitSlice)
	}

	var hdr [entryHeaderSize]byte
	r.copyOut(tail, hdr[:])
	n := binary.LittleEndian.Uint32(hdr[:])
	need := reservation(int(n))
	if n == 0 || need > avail {
		r.setTail(slot, r.head())
		return nil, fmt.Errorf("%w: length %d with %d bytes available", errCorrupt, n, avail)
	}

	frame := make([]byte, n)
	r.copyOut((tail+entryHeaderSize)%r.capacity(), frame)
	r.setTail(slot, (tail+need)%r.capacity())

	r.broadcast(offNotFull)
	return frame, nil
}

// copyIn 从偏移 off 开始写入，必要时回绕
func (r *ring) copyIn(off uint64, src []byte) {
	d := r.data()
	n := copy(d[off:], src)
	copy(d, src[n:])
}

// copyOut 从偏移 off 开始读出，必要时回绕
func (r *ring) copyOut(off uint64, dst []byte) {
	d := r.data()
	n := copy(dst, d[off:])
	copy(dst[n:], d)
}
