package interfaces

// ThreadTuner 实时线程配置能力
//
// 调用方须先执行 runtime.LockOSThread，使配置作用于当前 goroutine 独占的系统线程。
type ThreadTuner interface {
	TuneThread(name string) error
}
