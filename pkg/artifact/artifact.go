// Package artifact persists the best-model slot.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/fxamacker/cbor/v2"
	"github.com/golang/snappy"
)

// Extension is appended to artifact names by the file and S3 stores.
const Extension = ".cbor.sz"

// Store holds named model artifacts. Save replaces an artifact atomically:
// a concurrent Load sees either the previous or the new artifact, never a
// partial one. Load returns errors.ErrNotFound for a missing artifact.
type Store interface {
	Save(ctx context.Context, name string, m fl.BestModel) error
	Load(ctx context.Context, name string) (fl.BestModel, error)
}

var encMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}

	return em
}()

// Encode serializes m as snappy-compressed CBOR.
func Encode(m fl.BestModel) ([]byte, error) {
	raw, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}

	return snappy.Encode(nil, raw), nil
}

func Decode(data []byte) (fl.BestModel, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return fl.BestModel{}, fmt.Errorf("%w: %w", errors.ErrInvalidData, err)
	}

	var m fl.BestModel
	if err := cbor.NewDecoder(bytes.NewReader(raw)).Decode(&m); err != nil {
		return fl.BestModel{}, fmt.Errorf("%w: %w", errors.ErrInvalidData, err)
	}
	if err := m.Parameters.Validate(); err != nil {
		return fl.BestModel{}, fmt.Errorf("%w: %w", errors.ErrInvalidData, err)
	}

	return m, nil
}

// ReadFile loads a single artifact from path, as used for the initial model.
func ReadFile(path string) (fl.BestModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fl.BestModel{}, fmt.Errorf("%w: %s", errors.ErrNotFound, path)
		}

		return fl.BestModel{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Decode(data)
}

// WriteFile atomically writes m to path.
func WriteFile(path string, m fl.BestModel) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	return WriteAtomic(path, data)
}

// WriteAtomic replaces path with data through a synced temp file in the same
// directory, so readers see either the old or the new content.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
