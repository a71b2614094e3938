package dirfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/retarget/fsys"
)

func TestDirFS_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	f, err := d.OpenFile(ctx, "/boot.log", fsys.O_WRONLY|fsys.O_CREAT|fsys.O_TRUNC)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("boot ok\n")); err != nil {
		t.Fatal(err)
	}
	st, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if st.Size != 8 || st.Name != "boot.log" {
		t.Fatalf("Stat = %+v", st)
	}
	f.Close()

	got, err := os.ReadFile(filepath.Join(dir, "boot.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "boot ok\n" {
		t.Fatalf("host file = %q", got)
	}

	f, err = d.OpenFile(ctx, "boot.log", fsys.O_RDONLY)
	if err != nil {
		t.Fatal(err)
	}
	f.Seek(5, io.SeekStart)
	buf := make([]byte, 8)
	n, _ := f.Read(buf)
	if string(buf[:n]) != "ok\n" {
		t.Fatalf("Read after seek = %q", buf[:n])
	}
	f.Close()

	if err := d.Remove(ctx, "/boot.log"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "boot.log")); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
}

func TestDirFS_Confined(t *testing.T) {
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if _, err := d.OpenFile(context.Background(), "../escape.txt", fsys.O_WRONLY|fsys.O_CREAT); err == nil {
		t.Fatal("opening outside the root should fail")
	}
}

func TestDirFS_MissingRoot(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Open of a missing directory should fail")
	}
}
