package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/justapithecus/monochrome/message"
)

// MissingFileError lists paths that do not exist. Nothing is sent when
// any path is missing.
type MissingFileError struct {
	Paths []string
}

func (e *MissingFileError) Error() string {
	if len(e.Paths) == 1 {
		return fmt.Sprintf("file does not exist: %s", e.Paths[0])
	}
	return fmt.Sprintf("files do not exist: %s", strings.Join(e.Paths, ", "))
}

func (e *MissingFileError) Unwrap() error {
	return os.ErrNotExist
}

// ShowFile asks the viewer to open one file.
func (c *Client) ShowFile(ctx context.Context, path string) error {
	return c.ShowFiles(ctx, []string{path})
}

// ShowFiles asks the viewer to open files. Paths are made absolute and
// must all exist.
func (c *Client) ShowFiles(ctx context.Context, paths []string) (err error) {
	ctx, op := c.begin(ctx, "show_files", attribute.Int("monochrome.files", len(paths)))
	defer func() { err = op.end(err) }()

	abs, err := absoluteExisting(paths)
	if err != nil {
		return op.reject(err)
	}
	return op.sendOne(ctx, &message.FilePaths{Paths: abs})
}

// absoluteExisting makes paths absolute and checks that each one exists.
func absoluteExisting(paths []string) ([]string, error) {
	abs := make([]string, 0, len(paths))
	var missing []string
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		if _, err := os.Stat(a); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				missing = append(missing, p)
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		abs = append(abs, a)
	}
	if len(missing) > 0 {
		return nil, &MissingFileError{Paths: missing}
	}
	return abs, nil
}
