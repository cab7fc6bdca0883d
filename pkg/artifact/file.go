package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
)

type fileStore struct {
	dir string
}

// NewFileStore stores artifacts as files under dir.
func NewFileStore(dir string) Store {
	return &fileStore{dir: dir}
}

func (fs *fileStore) Save(ctx context.Context, name string, m fl.BestModel) error {
	path, err := fs.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return WriteFile(path, m)
}

func (fs *fileStore) Load(ctx context.Context, name string) (fl.BestModel, error) {
	path, err := fs.path(name)
	if err != nil {
		return fl.BestModel{}, err
	}
	if err := ctx.Err(); err != nil {
		return fl.BestModel{}, err
	}

	return ReadFile(path)
}

func (fs *fileStore) path(name string) (string, error) {
	if name == "" {
		return "", errors.ErrEmptyKey
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid artifact name: %s", name)
	}

	return filepath.Join(fs.dir, name+Extension), nil
}
