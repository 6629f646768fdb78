package filestore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sentrytypes/sentrytypes/fsutil"
)

// Local stores files in a directory of the local file system.
type Local struct {
	basePath string
}

var _ Interface = (*Local)(nil)

// NewLocal returns a store rooted at basePath, creating the directory if
// needed.
func NewLocal(basePath string) (*Local, error) {
	if !filepath.IsAbs(basePath) {
		return nil, errors.New("base path must be absolute")
	}
	if err := fsutil.DirWritable(basePath); err != nil {
		return nil, err
	}
	return &Local{basePath: basePath}, nil
}

func (l *Local) abs(relPath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(relPath))
}

func fileInfo(relPath string, fi fs.FileInfo) *File {
	return &File{
		Modified: fi.ModTime(),
		Path:     relPath,
		Size:     fi.Size(),
	}
}

func (l *Local) Delete(_ context.Context, relPath string) error {
	err := os.Remove(l.abs(relPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) Get(_ context.Context, relPath string) (*File, io.ReadCloser, error) {
	f, err := os.Open(l.abs(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err == nil && fi.IsDir() {
		err = ErrNotFound
	}
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return fileInfo(relPath, fi), f, nil
}

func (l *Local) Head(_ context.Context, relPath string) (*File, error) {
	fi, err := os.Stat(l.abs(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, ErrNotFound
	}
	return fileInfo(relPath, fi), nil
}

func (l *Local) List(ctx context.Context, relPath string, recursive bool) (<-chan *File, <-chan error) {
	files := make(chan *File, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(files)

		root := l.abs(relPath)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				if !recursive && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			select {
			case files <- fileInfo(filepath.ToSlash(rel), fi):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

func (l *Local) Put(_ context.Context, relPath string, r io.Reader) (*File, error) {
	absPath := l.abs(relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, err
	}

	// Write to a temporary file and rename it so that readers never see a
	// partial file.
	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".put-*")
	if err != nil {
		return nil, err
	}
	cleanup := func(err error) (*File, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if r != nil {
		if _, err = io.Copy(tmp, r); err != nil {
			return cleanup(err)
		}
	}
	if err = tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err = os.Rename(tmp.Name(), absPath); err != nil {
		return cleanup(err)
	}
	fi, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	return fileInfo(relPath, fi), nil
}

func (l *Local) Type() string {
	return "local"
}
