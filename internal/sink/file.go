package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSink writes reports below a local directory. Container IDs are
// slash-separated paths relative to that directory.
type FileSink struct {
	root string
}

func NewFileSink(root string) *FileSink {
	return &FileSink{root: root}
}

func (f *FileSink) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.root == "" {
		return fmt.Errorf("output directory is not set")
	}
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	probe, err := os.CreateTemp(f.root, ".write-check-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", f.root, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func (f *FileSink) CreateContainer(ctx context.Context, parentID, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	id := path.Join(parentID, name)
	dir, err := f.resolve(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", id, err)
	}
	return id, nil
}

// WriteDocument writes through a temp file and rename so readers never see
// a partial document.
func (f *FileSink) WriteDocument(ctx context.Context, containerID, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	dir, err := f.resolve(containerID)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path.Join(containerID, name), nil
}

func (f *FileSink) resolve(id string) (string, error) {
	if strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: container %q", ErrInvalidName, id)
	}
	return filepath.Join(f.root, filepath.FromSlash(path.Clean("/"+id))), nil
}
