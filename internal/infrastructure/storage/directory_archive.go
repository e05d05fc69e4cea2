package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dukaandost/backend/internal/domain/report"
)

var _ report.ChartArchive = (*DirectoryArchive)(nil)

// DirectoryArchive copies charts into a local directory. It is used when
// no object store is configured.
type DirectoryArchive struct {
	Dir string
}

// NewDirectoryArchive creates a DirectoryArchive rooted at dir
func NewDirectoryArchive(dir string) *DirectoryArchive {
	return &DirectoryArchive{Dir: dir}
}

// Archive copies the chart and returns the path of the copy
func (a *DirectoryArchive) Archive(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", errors.New("chart path is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open chart: %w", err)
	}
	defer src.Close()

	target := filepath.Join(a.Dir, filepath.Base(localPath))
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create archived chart: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to copy chart: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close archived chart: %w", err)
	}
	return target, nil
}
