package memfs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"

	rerrors "github.com/wippyai/retarget/errors"
	"github.com/wippyai/retarget/fsys"
)

func TestOpenFile_Flags(t *testing.T) {
	ctx := context.Background()
	m := New()

	if _, err := m.OpenFile(ctx, "/missing.txt", fsys.O_RDONLY); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("open missing without O_CREAT: got %v, want ErrNotExist", err)
	}

	f, err := m.OpenFile(ctx, "/log.txt", fsys.O_WRONLY|fsys.O_CREAT|fsys.O_TRUNC)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("read on write-only: got %v, want ErrPermission", err)
	}
	f.Close()

	f, _ = m.OpenFile(ctx, "log.txt", fsys.O_WRONLY|fsys.O_APPEND|fsys.O_CREAT)
	f.Write([]byte(" world"))
	f.Close()

	data, err := m.ReadFile("/log.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Fatalf("content = %q, want 'hello world'", data)
	}

	f, _ = m.OpenFile(ctx, "/log.txt", fsys.O_WRONLY|fsys.O_TRUNC)
	f.Close()
	data, _ = m.ReadFile("/log.txt")
	if len(data) != 0 {
		t.Fatalf("O_TRUNC left %q", data)
	}
}

func TestFile_ReadSeekStat(t *testing.T) {
	ctx := context.Background()
	m := New()
	m.WriteFile("/data.bin", []byte("0123456789"))

	f, err := m.OpenFile(ctx, "/data.bin", fsys.O_RDWR)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	if err != nil || n != 4 || string(buf) != "0123" {
		t.Fatalf("Read = %d %q %v", n, buf[:n], err)
	}

	pos, err := f.Seek(8, io.SeekStart)
	if err != nil || pos != 8 {
		t.Fatalf("Seek = %d %v", pos, err)
	}
	n, _ = f.Read(buf)
	if n != 2 || string(buf[:n]) != "89" {
		t.Fatalf("Read after seek = %q", buf[:n])
	}
	if _, err := f.Read(buf); err != io.EOF {
		t.Fatalf("Read at end = %v, want io.EOF", err)
	}

	if _, err := f.Seek(-1, io.SeekStart); err == nil {
		t.Fatal("negative seek should fail")
	}

	f.Seek(12, io.SeekStart)
	f.Write([]byte("X"))
	st, _ := f.Stat()
	if st.Size != 13 || st.Name != "data.bin" {
		t.Fatalf("Stat = %+v, want size 13 name data.bin", st)
	}
	data, _ := m.ReadFile("/data.bin")
	if string(data) != "0123456789\x00\x00X" {
		t.Fatalf("sparse write = %q", data)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	m := New()
	m.WriteFile("/a", []byte("a"))

	if err := m.Remove(ctx, "/a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(ctx, "/a"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("second remove = %v, want ErrNotExist", err)
	}
	if _, err := m.OpenFile(ctx, "/", fsys.O_RDONLY); err == nil {
		t.Fatal("opening the root should fail")
	}
}

func TestClosedFile(t *testing.T) {
	m := New()
	f, _ := m.OpenFile(context.Background(), "/c", fsys.O_RDWR|fsys.O_CREAT)
	f.Close()

	if _, err := f.Write([]byte("x")); !errors.Is(err, fs.ErrClosed) {
		t.Fatalf("write after close = %v", err)
	}
	if err := f.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Fatalf("double close = %v", err)
	}
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, rerrors.ErrClosed) {
		t.Fatalf("read after close = %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); !errors.Is(err, rerrors.ErrClosed) {
		t.Fatalf("seek after close = %v", err)
	}
}

func TestSharedHandle(t *testing.T) {
	m := New()
	m.WriteFile("/shared", bytes.Repeat([]byte{'x'}, 1000))
	f, err := m.OpenFile(context.Background(), "/shared", fsys.O_RDONLY)
	if err != nil {
		t.Fatal(err)
	}

	var (
		wg    sync.WaitGroup
		total atomic.Int64
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 3)
			for {
				n, err := f.Read(buf)
				total.Add(int64(n))
				if err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	if total.Load() != 1000 {
		t.Errorf("readers consumed %d bytes, want 1000", total.Load())
	}
}
