package source

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jacoelho/mdq/internal/field"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func collect(t *testing.T, c Container, logger *slog.Logger) []field.Field {
	t.Helper()

	var out []field.Field
	for record := range Iterate(context.Background(), c, logger) {
		out = append(out, record)
	}
	return out
}

func TestOpenLine(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "meta", "10.json"), `[{"params": {"v": 10}}]`)
	writeFile(t, filepath.Join(root, "meta", "2.yaml"), "params:\n  v: 2\n")
	writeFile(t, filepath.Join(root, "meta", "0.yml"), "- params: {v: 0}\n")
	writeFile(t, filepath.Join(root, "meta", "notes.txt"), "ignored")

	c, err := Open(root, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := c.(*Line); !ok {
		t.Fatalf("Open() = %T, want *Line", c)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	var versions []any
	for _, record := range collect(t, c, nil) {
		versions = append(versions, record.Get("params.v", field.Null).Interface())
	}
	if want := []any{int64(0), int64(2), int64(10)}; !reflect.DeepEqual(versions, want) {
		t.Fatalf("versions = %v, want %v", versions, want)
	}
}

func TestDecodeMetaKeepsKeyOrder(t *testing.T) {
	t.Parallel()

	meta, err := DecodeMeta(strings.NewReader(`{"zeta": 1, "alpha": {"m": 1, "b": 2}}`))
	if err != nil {
		t.Fatalf("DecodeMeta() error = %v", err)
	}

	record := field.MustFromAny(meta)
	if got := record.Keys(); !reflect.DeepEqual(got, []string{"zeta", "alpha"}) {
		t.Fatalf("Keys() = %v", got)
	}
	if got := record.Attr("alpha").Keys(); !reflect.DeepEqual(got, []string{"m", "b"}) {
		t.Fatalf("nested Keys() = %v", got)
	}
}

func TestDecodeMetaErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "[]", "{broken"} {
		if _, err := DecodeMeta(strings.NewReader(input)); err == nil {
			t.Errorf("DecodeMeta(%q) expected error", input)
		}
	}
}

func TestIterateRepoContinuesOnErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "meta", "0.json"), `{"params": {"id": "a0"}}`)
	writeFile(t, filepath.Join(root, "a", "meta", "1.json"), `{"params": {"id": `)
	writeFile(t, filepath.Join(root, "a", "meta", "2.json"), `{"params": {"id": "a2"}}`)
	writeFile(t, filepath.Join(root, "b", "meta", "0.yaml"), "params:\n  id: b0\n")
	writeFile(t, filepath.Join(root, "not-a-line", "readme.md"), "x")

	c, err := Open(root, TypeRepo)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 lines", c.Len())
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var ids []any
	for _, record := range collect(t, c, logger) {
		ids = append(ids, record.Get("params.id", field.Null).Interface())
	}
	if want := []any{"a0", nil, "a2", "b0"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	if !strings.Contains(buf.String(), "failed to read meta") {
		t.Fatalf("expected a warning for the corrupted entry, got %q", buf.String())
	}
}

func TestRepoMeta(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "line", "meta", "0.json"), `{}`)
	writeFile(t, filepath.Join(root, "line", "meta", "1.json"), `{}`)

	repo, err := OpenRepo(root)
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}

	meta, err := repo.Meta(0)
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	want := map[string]any{"name": "line", "path": filepath.Join(root, "line"), "len": 2}
	if !reflect.DeepEqual(meta, want) {
		t.Fatalf("Meta() = %v, want %v", meta, want)
	}
}

func TestIterateStopsEarly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"0.json", "1.json", "2.json"} {
		writeFile(t, filepath.Join(root, "meta", name), `{"a": 1}`)
	}

	c, err := OpenLine(root)
	if err != nil {
		t.Fatalf("OpenLine() error = %v", err)
	}

	seen := 0
	for range Iterate(context.Background(), c, nil) {
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("seen = %d, want 1", seen)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	if _, err := Open(root, "workspace"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("Open(workspace) error = %v, want ErrUnknownType", err)
	}
	if _, err := Open(root, ""); !errors.Is(err, ErrNotContainer) {
		t.Fatalf("Open(empty dir) error = %v, want ErrNotContainer", err)
	}
	if _, err := Open(filepath.Join(root, "missing"), TypeLine); !errors.Is(err, ErrNotContainer) {
		t.Fatalf("Open(missing line) error = %v, want ErrNotContainer", err)
	}
}
