package loader

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"
)

func loadFromFS(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("schema loader: fs path is required")
	}
	if files == nil {
		return nil, errors.New("schema loader: fs is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// fs.FS paths are slash separated and unrooted.
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	return fs.ReadFile(files, clean)
}
