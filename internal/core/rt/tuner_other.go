//go:build !linux

package rt

// TuneThread 非 Linux 平台不支持
func (t *Tuner) TuneThread(name string) error {
	return ErrUnsupported
}

// ThreadName 非 Linux 平台不支持
func ThreadName() (string, error) {
	return "", ErrUnsupported
}

// Affinity 非 Linux 平台不支持
func Affinity() ([]int, error) {
	return nil, ErrUnsupported
}
