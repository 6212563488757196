//go:build linux

package rt

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// TuneThread 配置当前 OS 线程
func (t *Tuner) TuneThread(name string) error {
	var errs error

	if err := setThreadName(name); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("set thread name %q: %w", name, err))
	}

	if t.priority > 0 {
		attr := &unix.SchedAttr{
			Policy:   unix.SCHED_FIFO,
			Priority: uint32(t.priority),
		}
		if err := unix.SchedSetAttr(0, attr, 0); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("set SCHED_FIFO priority %d: %w", t.priority, err))
		}
	}

	if len(t.cpus) > 0 {
		var set unix.CPUSet
		set.Zero()
		for _, cpu := range t.cpus {
			set.Set(cpu)
		}
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("set cpu affinity %v: %w", t.cpus, err))
		}
	}

	if errs == nil {
		logger.Debug("线程已配置", "name", name, "priority", t.priority, "cpus", t.cpus, "tid", unix.Gettid())
	}
	return errs
}

func setThreadName(name string) error {
	buf := make([]byte, MaxThreadNameLen+1)
	copy(buf, truncateName(name))
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}

// ThreadName 返回当前 OS 线程的名称
func ThreadName() (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/self/task/%d/comm", unix.Gettid()))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// Affinity 返回当前 OS 线程允许运行的 CPU 编号
func Affinity() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	var cpus []int
	for cpu := 0; cpu < len(set)*64; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
