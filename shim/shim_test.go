package shim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/retarget/console"
	rerrors "github.com/wippyai/retarget/errors"
	"github.com/wippyai/retarget/fsys"
	"github.com/wippyai/retarget/fsys/memfs"
	"github.com/wippyai/retarget/profile"
)

// fakeFS records every call and serves canned results.
type fakeFS struct {
	calls   []string
	openFD  int
	openErr error
	readN   int
	readErr error
	writeN  int
	seekPos int64
	size    int64
	err     error
	flag    fsys.Flag
}

func (f *fakeFS) Open(_ context.Context, path string, flag fsys.Flag) (int, error) {
	f.calls = append(f.calls, "open "+path)
	f.flag = flag
	return f.openFD, f.openErr
}

func (f *fakeFS) Read(_ context.Context, fd int, p []byte) (int, error) {
	f.calls = append(f.calls, "read")
	return f.readN, f.readErr
}

func (f *fakeFS) Write(_ context.Context, fd int, p []byte) (int, error) {
	f.calls = append(f.calls, "write")
	return f.writeN, f.err
}

func (f *fakeFS) Seek(_ context.Context, fd int, offset int64) (int64, error) {
	f.calls = append(f.calls, "seek")
	return f.seekPos, f.err
}

func (f *fakeFS) Close(_ context.Context, fd int) error {
	f.calls = append(f.calls, "close")
	return f.err
}

func (f *fakeFS) Stat(_ context.Context, fd int) (fsys.Stat, error) {
	f.calls = append(f.calls, "stat")
	return fsys.Stat{Size: f.size, ModTime: time.Unix(0, 0)}, f.err
}

func (f *fakeFS) Unlink(_ context.Context, path string) error {
	f.calls = append(f.calls, "unlink "+path)
	return f.err
}

var allFeatures = profile.Features{Filesystem: true, Console: true, Device: true, POSIX: true}

func TestIsTTY(t *testing.T) {
	s := New(Config{})
	for h := Handle(-3); h < 8; h++ {
		want := h == 0 || h == 1 || h == 2
		if got := s.IsTTY(h); got != want {
			t.Errorf("IsTTY(%d) = %v, want %v", h, got, want)
		}
	}
}

func TestOpen_ConsoleNames(t *testing.T) {
	fs := &fakeFS{}
	s := New(Config{Features: allFeatures, FS: fs})
	ctx := context.Background()

	modes := []OpenMode{OpenRead, OpenWrite, OpenAppend, OpenPlus, OpenWrite | OpenPlus | OpenBinary}
	want := map[string]Handle{StdinName: Stdin, StdoutName: Stdout, StderrName: Stderr}
	for name, h := range want {
		for _, m := range modes {
			got, err := s.Open(ctx, name, m)
			if err != nil || got != h {
				t.Errorf("Open(%q, %v) = %d, %v; want %d", name, m, got, err, h)
			}
		}
	}
	if len(fs.calls) != 0 {
		t.Errorf("console names reached the filesystem: %v", fs.calls)
	}
}

func TestOpenMode_Flags(t *testing.T) {
	tests := []struct {
		mode OpenMode
		want fsys.Flag
	}{
		{OpenRead, fsys.O_RDONLY},
		{OpenRead | OpenBinary, fsys.O_RDONLY},
		{OpenWrite, fsys.O_WRONLY | fsys.O_TRUNC | fsys.O_CREAT},
		{OpenAppend, fsys.O_WRONLY | fsys.O_APPEND | fsys.O_CREAT},
		{OpenPlus, fsys.O_RDWR},
		{OpenPlus | OpenWrite, fsys.O_RDWR | fsys.O_TRUNC | fsys.O_CREAT},
		{OpenPlus | OpenAppend, fsys.O_RDWR | fsys.O_APPEND | fsys.O_CREAT},
		{OpenWrite | OpenAppend, fsys.O_WRONLY | fsys.O_TRUNC | fsys.O_CREAT},
	}
	for _, tt := range tests {
		if got := tt.mode.Flags(); got != tt.want {
			t.Errorf("%v.Flags() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want OpenMode
	}{
		{"r", OpenRead},
		{"rb", OpenRead | OpenBinary},
		{"w", OpenWrite},
		{"a+", OpenAppend | OpenPlus},
		{"r+b", OpenRead | OpenPlus | OpenBinary},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"", "x", "rw", "r+z"} {
		if _, err := ParseMode(bad); !errors.Is(err, rerrors.ErrInvalidInput) {
			t.Errorf("ParseMode(%q) err = %v", bad, err)
		}
	}
	if s := (OpenAppend | OpenPlus | OpenBinary).String(); s != "ab+" {
		t.Errorf("String = %q", s)
	}
}

func TestOpen_Filesystem(t *testing.T) {
	ctx := context.Background()

	fs := &fakeFS{openFD: 5}
	s := New(Config{Features: allFeatures, FS: fs})
	h, err := s.Open(ctx, "/data.txt", OpenWrite)
	if err != nil || h != 5 {
		t.Fatalf("Open = %d, %v", h, err)
	}
	if fs.flag != fsys.O_WRONLY|fsys.O_TRUNC|fsys.O_CREAT {
		t.Errorf("flag = %v", fs.flag)
	}

	fs.openFD, fs.openErr = -1, errors.New("enoent")
	if _, err := s.Open(ctx, "/missing", OpenRead); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("delegate failure err = %v", err)
	}

	fs.openFD, fs.openErr = 1, nil
	if _, err := s.Open(ctx, "/clash", OpenRead); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("console-range descriptor err = %v", err)
	}

	fs.openFD = -2
	if _, err := s.Open(ctx, "/neg", OpenRead); err == nil {
		t.Error("negative descriptor should fail")
	}

	nofs := New(Config{Features: profile.Features{Console: true, Device: true}, FS: fs})
	if _, err := nofs.Open(ctx, "/x", OpenRead); !errors.Is(err, rerrors.ErrNoFilesystem) {
		t.Errorf("no filesystem err = %v", err)
	}
}

func TestRead_File(t *testing.T) {
	ctx := context.Background()
	fs := &fakeFS{readN: 3}
	s := New(Config{Features: allFeatures, FS: fs})

	n, err := s.Read(ctx, 4, make([]byte, 8))
	if n != 3 || err != nil {
		t.Errorf("Read = %d, %v", n, err)
	}

	fs.readErr = io.EOF
	n, err = s.Read(ctx, 4, make([]byte, 8))
	if n != 3 || err != io.EOF {
		t.Errorf("Read at EOF = %d, %v", n, err)
	}

	fs.readErr = errors.New("io")
	if _, err := s.Read(ctx, 4, make([]byte, 8)); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("Read error = %v", err)
	}

	if _, err := s.Read(ctx, -1, nil); !errors.Is(err, rerrors.ErrInvalidHandle) {
		t.Errorf("negative handle = %v", err)
	}
	for _, h := range []Handle{Stdout, Stderr} {
		if _, err := s.Read(ctx, h, make([]byte, 1)); !errors.Is(err, rerrors.ErrWrongDirection) {
			t.Errorf("Read(%v) = %v", h, err)
		}
	}

	nofs := New(Config{FS: fs})
	if _, err := nofs.Read(ctx, 4, make([]byte, 1)); !errors.Is(err, rerrors.ErrNoFilesystem) {
		t.Errorf("no filesystem = %v", err)
	}
}

func TestRead_Stdin(t *testing.T) {
	ctx := context.Background()
	con := console.NewStream(strings.NewReader("ab\ncd"), nil)
	s := New(Config{Features: allFeatures, Console: con})

	buf := make([]byte, 8)
	n, err := s.Read(ctx, Stdin, buf)
	if err != nil || string(buf[:n]) != "ab\n" {
		t.Fatalf("first line = %q, %v", buf[:n], err)
	}
	n, err = s.Read(ctx, Stdin, buf[:1])
	if err != nil || string(buf[:n]) != "c" {
		t.Fatalf("full buffer = %q, %v", buf[:n], err)
	}
	n, err = s.Read(ctx, Stdin, buf)
	if err != nil || string(buf[:n]) != "d" {
		t.Fatalf("short input = %q, %v", buf[:n], err)
	}
	if n, err := s.Read(ctx, Stdin, buf); n != 0 || err != io.EOF {
		t.Errorf("drained = %d, %v", n, err)
	}

	con.SetConfigured(false)
	if _, err := s.Read(ctx, Stdin, buf); !errors.Is(err, ErrConsoleNotReady) {
		t.Errorf("not ready = %v", err)
	}

	// Console without the POSIX layer has no stdin.
	raw := New(Config{Features: profile.Features{Console: true, Device: true}, Console: con})
	if _, err := raw.Read(ctx, Stdin, buf); !errors.Is(err, rerrors.ErrUnsupported) {
		t.Errorf("no stdin = %v", err)
	}
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	fs := &fakeFS{writeN: 2}
	s := New(Config{Features: allFeatures, Console: console.NewStream(nil, &out), FS: fs})

	if n, err := s.Write(ctx, Stderr, []byte("err")); n != 3 || err != nil {
		t.Errorf("Write(stderr) = %d, %v", n, err)
	}
	if out.String() != "err" {
		t.Errorf("console = %q", out.String())
	}

	if _, err := s.Write(ctx, Stdin, []byte("x")); !errors.Is(err, rerrors.ErrWrongDirection) {
		t.Errorf("Write(stdin) = %v", err)
	}
	if n, err := s.Write(ctx, Stdin, nil); n != 0 || err != nil {
		t.Errorf("empty Write(stdin) = %d, %v", n, err)
	}

	if n, err := s.Write(ctx, 3, []byte("abcd")); n != 2 || err != nil {
		t.Errorf("partial file write = %d, %v", n, err)
	}
	fs.err = errors.New("full")
	if _, err := s.Write(ctx, 3, []byte("a")); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("file write error = %v", err)
	}
	if _, err := s.Write(ctx, -7, []byte("a")); !errors.Is(err, rerrors.ErrInvalidHandle) {
		t.Errorf("negative handle = %v", err)
	}
}

func TestWrite_NoConsole(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	con := console.NewStream(nil, &out)

	// Console without a device layer, and no console collaborator at all.
	builds := []*Shim{
		New(Config{Features: profile.Features{Console: true}, Console: con}),
		New(Config{Features: allFeatures}),
	}
	for i, s := range builds {
		if n, err := s.Write(ctx, Stdout, []byte("lost")); n != 4 || err != nil {
			t.Errorf("build %d: Write = %d, %v", i, n, err)
		}
	}

	con.SetConfigured(false)
	s := New(Config{Features: allFeatures, Console: con})
	if n, err := s.Write(ctx, Stdout, []byte("early")); n != 5 || err != nil {
		t.Errorf("unconfigured Write = %d, %v", n, err)
	}
	if out.Len() != 0 {
		t.Errorf("discarded output reached the device: %q", out.String())
	}
}

func TestSeekAndLen(t *testing.T) {
	ctx := context.Background()
	fs := &fakeFS{seekPos: 42, size: 100}
	s := New(Config{Features: allFeatures, FS: fs})

	for _, h := range []Handle{Stdin, Stdout, Stderr, -1} {
		if _, err := s.Seek(ctx, h, 0); !errors.Is(err, rerrors.ErrInvalidHandle) {
			t.Errorf("Seek(%d) = %v", h, err)
		}
		if _, err := s.Len(ctx, h); !errors.Is(err, rerrors.ErrInvalidHandle) {
			t.Errorf("Len(%d) = %v", h, err)
		}
	}
	if len(fs.calls) != 0 {
		t.Errorf("console handles reached the filesystem: %v", fs.calls)
	}

	if pos, err := s.Seek(ctx, 3, 42); pos != 42 || err != nil {
		t.Errorf("Seek = %d, %v", pos, err)
	}
	if size, err := s.Len(ctx, 3); size != 100 || err != nil {
		t.Errorf("Len = %d, %v", size, err)
	}

	fs.err = errors.New("bad fd")
	if _, err := s.Seek(ctx, 3, 0); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("Seek error = %v", err)
	}
	if _, err := s.Len(ctx, 3); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("Len error = %v", err)
	}

	nofs := New(Config{})
	if _, err := nofs.Seek(ctx, 3, 0); !errors.Is(err, rerrors.ErrNoFilesystem) {
		t.Errorf("Seek without filesystem = %v", err)
	}
	if _, err := nofs.Len(ctx, 3); !errors.Is(err, rerrors.ErrNoFilesystem) {
		t.Errorf("Len without filesystem = %v", err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	fs := &fakeFS{}
	s := New(Config{Features: allFeatures, FS: fs})

	for _, h := range []Handle{Stdin, Stdout, Stderr} {
		if err := s.Close(ctx, h); err != nil {
			t.Errorf("Close(%d) = %v", h, err)
		}
	}
	if len(fs.calls) != 0 {
		t.Errorf("console close reached the filesystem: %v", fs.calls)
	}

	if err := s.Close(ctx, 3); err != nil {
		t.Errorf("Close(3) = %v", err)
	}
	fs.err = errors.New("ebadf")
	if err := s.Close(ctx, 3); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("Close error = %v", err)
	}
	fs.calls = nil
	if err := s.Close(ctx, -1); err != nil {
		t.Errorf("Close(-1) = %v", err)
	}
	if len(fs.calls) != 0 {
		t.Errorf("negative close reached the filesystem: %v", fs.calls)
	}

	if err := New(Config{}).Close(ctx, 9); err != nil {
		t.Errorf("Close without filesystem = %v", err)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	fs := &fakeFS{}
	s := New(Config{Features: allFeatures, FS: fs})

	if err := s.Remove(ctx, "/a"); err != nil {
		t.Fatal(err)
	}
	if fs.calls[0] != "unlink /a" {
		t.Errorf("calls = %v", fs.calls)
	}
	fs.err = errors.New("enoent")
	if err := s.Remove(ctx, "/a"); !errors.Is(err, rerrors.ErrDelegate) {
		t.Errorf("Remove error = %v", err)
	}
	if err := New(Config{}).Remove(ctx, "/a"); !errors.Is(err, rerrors.ErrNoFilesystem) {
		t.Errorf("Remove without filesystem = %v", err)
	}
}

func TestTempName(t *testing.T) {
	tests := []struct {
		slot int
		want string
	}{
		{0, "tem000"},
		{7, "tem007"},
		{42, "tem042"},
		{1234, "tem1234"},
		{-1, "tem-01"},
	}
	for _, tt := range tests {
		if got := TempName(tt.slot); got != tt.want {
			t.Errorf("TempName(%d) = %q, want %q", tt.slot, got, tt.want)
		}
	}
}

func TestExit(t *testing.T) {
	var got []int
	s := New(Config{Exit: func(code int) { got = append(got, code) }})

	halted := false
	prev := halt
	halt = func() { halted = true }
	defer func() { halt = prev }()

	s.Exit(3)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("exit handler calls = %v", got)
	}
	if !halted {
		t.Error("returning exit handler should halt")
	}
}

func TestCharPrimitives(t *testing.T) {
	var out bytes.Buffer
	con := console.NewStream(strings.NewReader("q"), &out)
	s := New(Config{Features: profile.Features{Console: true, POSIX: true}, Console: con})

	s.PutChar('A')
	s.PutChar('\n')
	if out.String() != "A\n" {
		t.Errorf("PutChar output = %q", out.String())
	}
	c, err := s.GetChar()
	if err != nil || c != 'q' {
		t.Errorf("GetChar = %q, %v", c, err)
	}
	if _, err := s.GetChar(); err != io.EOF {
		t.Errorf("GetChar at end = %v", err)
	}

	con.SetConfigured(false)
	s.PutChar('x')
	if out.String() != "A\n" {
		t.Error("PutChar wrote to an unconfigured console")
	}
	if _, err := s.GetChar(); !errors.Is(err, ErrConsoleNotReady) {
		t.Errorf("GetChar unconfigured = %v", err)
	}

	none := New(Config{Console: con})
	none.PutChar('x')
	if _, err := none.GetChar(); !errors.Is(err, rerrors.ErrUnsupported) {
		t.Errorf("GetChar without console = %v", err)
	}
}

func TestGetChar_NeedsConsoleInput(t *testing.T) {
	var out bytes.Buffer
	con := console.NewStream(strings.NewReader("z"), &out)
	s := New(Config{Features: profile.Features{Console: true, Device: true}, Console: con})

	s.PutChar('A')
	if out.String() != "A" {
		t.Errorf("PutChar output = %q", out.String())
	}
	if _, err := s.GetChar(); !errors.Is(err, rerrors.ErrUnsupported) {
		t.Errorf("GetChar without console input = %v", err)
	}
	if _, err := s.Read(context.Background(), Stdin, make([]byte, 4)); !errors.Is(err, rerrors.ErrUnsupported) {
		t.Errorf("Read(stdin) without console input = %v", err)
	}
}

func TestStdoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	s := New(Config{
		Features: allFeatures,
		Console:  console.NewStream(nil, &out),
		FS:       fsys.New(memfs.New(), fsys.Options{}),
	})

	h, err := s.Open(ctx, StdoutName, OpenWrite)
	if err != nil || h != Stdout {
		t.Fatalf("Open = %d, %v", h, err)
	}
	if n, err := s.Write(ctx, h, []byte("hi")); n != 2 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if out.String() != "hi" {
		t.Errorf("console = %q", out.String())
	}
	if err := s.Close(ctx, h); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Features: allFeatures, FS: fsys.New(memfs.New(), fsys.Options{})})

	h, err := s.Open(ctx, "/log.txt", OpenWrite)
	if err != nil {
		t.Fatal(err)
	}
	if h < 3 {
		t.Fatalf("file handle %d collides with the console", h)
	}
	s.Write(ctx, h, []byte("hello world"))
	if size, _ := s.Len(ctx, h); size != 11 {
		t.Errorf("Len = %d", size)
	}
	s.Close(ctx, h)

	h, err = s.Open(ctx, "/log.txt", OpenRead)
	if err != nil {
		t.Fatal(err)
	}
	if pos, err := s.Seek(ctx, h, 6); pos != 6 || err != nil {
		t.Fatalf("Seek = %d, %v", pos, err)
	}
	buf := make([]byte, 8)
	n, err := s.Read(ctx, h, buf)
	if string(buf[:n]) != "world" || err != io.EOF {
		t.Errorf("Read = %q, %v", buf[:n], err)
	}
	s.Close(ctx, h)

	if err := s.Remove(ctx, "/log.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open(ctx, "/log.txt", OpenRead); err == nil {
		t.Error("removed file should not open")
	}
}
