package chrome

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// overlayFS opens a name from the first layer that has it.
type overlayFS struct {
	layers []fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	var firstErr error
	for _, l := range o.layers {
		f, err := l.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil || !errors.Is(err, fs.ErrNotExist) {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}

// osDirFS is os.DirFS rooted at dir/prefix; a missing directory behaves as empty.
func osDirFS(dir, prefix string) fs.FS {
	root := filepath.Join(dir, prefix)
	if _, err := os.Stat(root); err != nil {
		return emptyFS{}
	}
	return os.DirFS(root)
}

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
