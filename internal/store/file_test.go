package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawnchairsociety/worldgen/internal/field"
)

func testField(t *testing.T) *field.ScalarField {
	t.Helper()
	f, err := field.FromRows([][]float64{
		{0, 0.25, -1.5},
		{2, 1e-9, 42},
	})
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	return f
}

func assertSameField(t *testing.T, got, want *field.ScalarField) {
	t.Helper()
	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("shape = %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	for i := range want.Data {
		if got.Data[i] != want.Data[i] {
			t.Errorf("Data[%d] = %v, want %v", i, got.Data[i], want.Data[i])
		}
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	key := Key{Stage: "elevation", Fingerprint: strings.Repeat("ab", 32)}
	want := testField(t)

	if err := s.Save(ctx, key, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	assertSameField(t, got, want)

	if _, err := os.Stat(filepath.Join(s.Dir(), "elevation-"+key.Fingerprint+".field")); err != nil {
		t.Errorf("artifact file missing: %v", err)
	}
}

func TestFileStore_SharedFingerprintPrefix(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	prefix := strings.Repeat("0", 16)
	a := Key{Stage: "biomes", Fingerprint: prefix + strings.Repeat("a", 48)}
	b := Key{Stage: "biomes", Fingerprint: prefix + strings.Repeat("b", 48)}

	if err := s.Save(ctx, a, testField(t)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Load(ctx, b); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(other fingerprint, same prefix) error = %v, want ErrNotFound", err)
	}

	other, err := field.FromRows([][]float64{{9, 8, 7}})
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	if err := s.Save(ctx, b, other); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx, a)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	assertSameField(t, got, testField(t))

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List() returned %d entries, want 2", len(entries))
	}
}

func TestFileStore_RejectsPathLikeKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	for _, key := range []Key{
		{Stage: "", Fingerprint: "ab"},
		{Stage: "biomes", Fingerprint: ""},
		{Stage: "../biomes", Fingerprint: "ab"},
		{Stage: "biomes", Fingerprint: "a/b"},
	} {
		if err := s.Save(ctx, key, testField(t)); err == nil {
			t.Errorf("Save(%+v) succeeded, want error", key)
		}
		if _, err := s.Load(ctx, key); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%+v) error = %v, want invalid key", key, err)
		}
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	_, err = s.Load(context.Background(), Key{Stage: "moisture", Fingerprint: "ff"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	key := Key{Stage: "wind", Fingerprint: "01"}

	if err := s.Save(ctx, key, field.New(2, 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	want := testField(t)
	if err := s.Save(ctx, key, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	assertSameField(t, got, want)

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}
	if entries[0].Width != 3 || entries[0].Height != 2 {
		t.Errorf("entry shape = %dx%d, want 3x2", entries[0].Width, entries[0].Height)
	}
}

func TestFileStore_ListSorted(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	for _, k := range []Key{
		{Stage: "wind", Fingerprint: "02"},
		{Stage: "coastline", Fingerprint: "02"},
		{Stage: "coastline", Fingerprint: "01"},
	} {
		if err := s.Save(ctx, k, testField(t)); err != nil {
			t.Fatalf("Save(%v) error = %v", k, err)
		}
	}

	// A fresh store over the same directory sees the manifest.
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	entries, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"coastline-01", "coastline-02", "wind-02"}
	if len(entries) != len(want) {
		t.Fatalf("List() returned %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Key.String() != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, e.Key.String(), want[i])
		}
		if e.CreatedAt.IsZero() {
			t.Errorf("entries[%d] has no creation time", i)
		}
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := s.Save(context.Background(), Key{Stage: "biomes", Fingerprint: "aa"}, testField(t)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	names, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, n := range names {
		if strings.HasSuffix(n.Name(), ".tmp") {
			t.Errorf("temporary file %s left behind", n.Name())
		}
	}
}

func TestFileStore_RejectsEmptyField(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := s.Save(context.Background(), Key{Stage: "x", Fingerprint: "y"}, field.New(0, 0)); err == nil {
		t.Error("Save() of an empty field should fail")
	}
}

func TestFileStore_CorruptArtifact(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	key := Key{Stage: "coastline", Fingerprint: "cc"}
	path, err := s.path(key)
	if err != nil {
		t.Fatalf("path() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("not a matrix"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = s.Load(context.Background(), key)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want a decode error", err)
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, Key{Stage: "a", Fingerprint: "b"}, testField(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
}

func TestWriteFileAtomic_FailedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.png")
	boom := errors.New("boom")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFileAtomic() error = %v, want %v", err, boom)
	}
	names, _ := os.ReadDir(dir)
	if len(names) != 0 {
		t.Errorf("directory holds %d entries after a failed write, want 0", len(names))
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Key{Stage: "moisture", Fingerprint: "0123456789abcdef0123"}, "moisture-0123456789abcdef"},
		{Key{Stage: "wind", Fingerprint: "ab"}, "wind-ab"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
