package shim

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	rerrors "github.com/wippyai/retarget/errors"
)

// TempName returns the temporary file name for slot.
func TempName(slot int) string {
	return fmt.Sprintf("tem%03d", slot)
}

// halt parks the caller forever. When no other goroutine is alive the
// Go runtime aborts with a deadlock error instead of parking.
var halt = func() {
	select {}
}

// Exit terminates the program with code. It does not return: if the
// exit handler comes back, the caller is parked.
func (s *Shim) Exit(code int) {
	s.exit(code)
	Logger().Error("exit handler returned", zap.Int("code", code))
	halt()
}

// PutChar writes c to the console. It does nothing when the build has
// no console.
func (s *Shim) PutChar(c byte) {
	if s.chars == nil || !s.chars.Configured() {
		return
	}
	if _, err := s.chars.Write([]byte{c}); err != nil {
		Logger().Debug("putchar failed", zap.Error(err))
	}
}

// GetChar reads one byte from console input. Like stdin reads it needs
// a console input device in the build.
func (s *Shim) GetChar() (byte, error) {
	if s.input == nil {
		return 0, rerrors.Unsupported(rerrors.PhaseConsole, "no console input in this build")
	}
	if !s.input.Configured() {
		Logger().Warn("console read before the console is initialized")
		return 0, rerrors.NotReady(rerrors.PhaseConsole, StdinName)
	}
	c, err := s.input.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, rerrors.Wrap(rerrors.PhaseConsole, rerrors.KindDelegate, err, "getchar")
	}
	return c, nil
}
