package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteStringWithDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "nested", "aspects.tsv")
	if err := WriteStringWithDirs(path, "Body\tDeg\n", 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "Body\tDeg\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestReadMemoryUsage(t *testing.T) {
	t.Parallel()

	mem := ReadMemoryUsage()
	if mem.SysMB < mem.HeapMB {
		t.Fatalf("system memory %dMB below heap %dMB", mem.SysMB, mem.HeapMB)
	}
}
