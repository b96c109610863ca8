package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestReadAllMissingFile(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "snapshot.json"))

	blobs, err := b.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(blobs) != 0 {
		t.Errorf("expected empty snapshot for missing file, got %d blobs", len(blobs))
	}
}

func TestWriteAllRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	b := New(path)
	ctx := context.Background()

	in := [][]byte{
		[]byte(`{"key":"a","food_name":"apple"}`),
		[]byte(`{"key":"b","food_name":"banana"}`),
	}
	if err := b.WriteAll(ctx, in); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	out, err := b.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 blobs, got %d", len(out))
	}
	if string(out[0]) != string(in[0]) || string(out[1]) != string(in[1]) {
		t.Errorf("round trip mismatch: got %q / %q", out[0], out[1])
	}
}

func TestWriteAllEmptyClearsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	b := New(path)
	ctx := context.Background()

	if err := b.WriteAll(ctx, [][]byte{[]byte(`{"key":"a"}`)}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if err := b.WriteAll(ctx, nil); err != nil {
		t.Fatalf("WriteAll empty failed: %v", err)
	}

	out, err := b.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty snapshot, got %d blobs", len(out))
	}
}

func TestWriteAllReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	b := New(path)
	ctx := context.Background()

	if err := b.WriteAll(ctx, [][]byte{[]byte(`{"key":"a"}`)}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if err := b.WriteAll(ctx, [][]byte{[]byte(`{"key":"b"}`)}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file in %s, found %d entries", dir, len(entries))
	}
}

func TestReadAllCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	b := New(path)
	if _, err := b.ReadAll(context.Background()); err == nil {
		t.Error("expected error for corrupt snapshot file")
	}
}
