package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize 单帧最大字节数（8 MiB）
const MaxFrameSize = 8 * 1024 * 1024

// frameHeaderSize 长度前缀字节数
const frameHeaderSize = 4

var (
	// ErrFrameTooLarge 帧超出长度限制
	ErrFrameTooLarge = errors.New("frame exceeds max frame size")

	// ErrZeroLengthFrame 收到长度为 0 的帧
	ErrZeroLengthFrame = errors.New("zero length frame")
)

// appendFrame 生成 [4B 大端长度][payload]
func appendFrame(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// readFrame 读取一帧
//
// 长度为 0 或超过 MaxFrameSize 视为连接错误。
func readFrame(r io.Reader) ([]byte, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n == 0 {
		return nil, ErrZeroLengthFrame
	}
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
