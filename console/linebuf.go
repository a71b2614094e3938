package console

import (
	"bytes"
	"sync"
)

// LineBuffered holds output until a newline or a full buffer, then hands
// it to the underlying device in one write.
type LineBuffered struct {
	dev Device
	buf []byte
	mu  sync.Mutex
}

var _ Device = (*LineBuffered)(nil)

// NewLineBuffered wraps dev with a buffer of size bytes.
func NewLineBuffered(dev Device, size int) *LineBuffered {
	if size <= 0 {
		size = 1
	}
	return &LineBuffered{dev: dev, buf: make([]byte, 0, size)}
}

// Write buffers p and flushes each completed line or full buffer.
// The count is the number of bytes accepted before a device error.
func (l *LineBuffered) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	written := 0
	for len(p) > 0 {
		room := cap(l.buf) - len(l.buf)
		chunk := p
		if len(chunk) > room {
			chunk = chunk[:room]
		}
		if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
			chunk = chunk[:i+1]
		}
		l.buf = append(l.buf, chunk...)
		p = p[len(chunk):]

		if len(l.buf) == cap(l.buf) || l.buf[len(l.buf)-1] == '\n' {
			if err := l.flush(); err != nil {
				return written, err
			}
		}
		written += len(chunk)
	}
	return written, nil
}

// Flush writes any buffered output.
func (l *LineBuffered) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flush()
}

func (l *LineBuffered) flush() error {
	if len(l.buf) == 0 {
		return nil
	}
	_, err := l.dev.Write(l.buf)
	l.buf = l.buf[:0]
	return err
}

// Buffered returns the number of bytes waiting for a flush.
func (l *LineBuffered) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buf)
}

// ReadByte flushes pending output, so a prompt without a newline is
// visible, then reads from the underlying device.
func (l *LineBuffered) ReadByte() (byte, error) {
	if err := l.Flush(); err != nil {
		return 0, err
	}
	return l.dev.ReadByte()
}

// Configured reports the underlying device state.
func (l *LineBuffered) Configured() bool {
	return l.dev.Configured()
}
