package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	ErrUnknownType  = errors.New("unknown container type")
	ErrNotContainer = errors.New("not a container")
)

const (
	TypeLine = "line"
	TypeRepo = "repo"

	metaDir = "meta"
)

var metaExtensions = []string{".json", ".yaml", ".yml"}

// Container is an indexed collection of metadata entries.
type Container interface {
	Len() int
	Meta(index int) (any, error)
}

// Composite is a container of containers, such as a repo of lines.
type Composite interface {
	Container
	Child(index int) (Container, error)
}

// Open resolves root into a container of the declared type. An empty type
// detects a line by its meta directory and falls back to a repo.
func Open(root string, typ string) (Container, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case TypeLine:
		return OpenLine(root)
	case TypeRepo:
		return OpenRepo(root)
	case "":
		if isDir(filepath.Join(root, metaDir)) {
			return OpenLine(root)
		}
		return OpenRepo(root)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s)", ErrUnknownType, typ, TypeLine, TypeRepo)
	}
}

// Line is a directory holding one metadata file per version under meta/.
type Line struct {
	root  string
	files []string
}

func OpenLine(root string) (*Line, error) {
	dir := filepath.Join(root, metaDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: line %s: %w", ErrNotContainer, root, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(metaExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		files = append(files, entry.Name())
	}
	slices.SortFunc(files, compareVersionNames)

	paths := make([]string, 0, len(files))
	for _, name := range files {
		paths = append(paths, filepath.Join(dir, name))
	}

	return &Line{root: root, files: paths}, nil
}

func (l *Line) Root() string {
	return l.root
}

func (l *Line) Len() int {
	return len(l.files)
}

func (l *Line) Meta(index int) (any, error) {
	if index < 0 || index >= len(l.files) {
		return nil, fmt.Errorf("meta index %d out of range [0, %d)", index, len(l.files))
	}

	file, err := os.Open(l.files[index])
	if err != nil {
		return nil, fmt.Errorf("failed to open meta %s: %w", l.files[index], err)
	}
	defer file.Close()

	meta, err := DecodeMeta(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode meta %s: %w", l.files[index], err)
	}
	return meta, nil
}

// Repo is a directory whose subdirectories are lines.
type Repo struct {
	root  string
	lines []string
}

func OpenRepo(root string) (*Repo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: repo %s: %w", ErrNotContainer, root, err)
	}

	var lines []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if isDir(filepath.Join(root, entry.Name(), metaDir)) {
			lines = append(lines, entry.Name())
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s has neither a %s directory nor lines", ErrNotContainer, root, metaDir)
	}
	slices.Sort(lines)

	return &Repo{root: root, lines: lines}, nil
}

func (r *Repo) Root() string {
	return r.root
}

func (r *Repo) Len() int {
	return len(r.lines)
}

// Meta describes the line at index.
func (r *Repo) Meta(index int) (any, error) {
	child, err := r.Child(index)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name": r.lines[index],
		"path": filepath.Join(r.root, r.lines[index]),
		"len":  child.Len(),
	}, nil
}

func (r *Repo) Child(index int) (Container, error) {
	if index < 0 || index >= len(r.lines) {
		return nil, fmt.Errorf("line index %d out of range [0, %d)", index, len(r.lines))
	}
	return OpenLine(filepath.Join(r.root, r.lines[index]))
}

// DecodeMeta reads one JSON or YAML metadata document, keeping map key order.
// A document holding a list yields its first element.
func DecodeMeta(r io.Reader) (any, error) {
	var meta any
	if err := yaml.NewDecoder(r, yaml.UseOrderedMap()).Decode(&meta); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}

	if list, ok := meta.([]any); ok {
		if len(list) == 0 {
			return nil, errors.New("empty meta list")
		}
		return list[0], nil
	}
	return meta, nil
}

// compareVersionNames orders numeric stems numerically before any other name.
func compareVersionNames(a, b string) int {
	aNumber, aErr := strconv.Atoi(strings.TrimSuffix(a, filepath.Ext(a)))
	bNumber, bErr := strconv.Atoi(strings.TrimSuffix(b, filepath.Ext(b)))

	switch {
	case aErr == nil && bErr == nil:
		if aNumber != bNumber {
			if aNumber < bNumber {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
