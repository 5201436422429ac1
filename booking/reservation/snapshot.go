package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

// Snapshotter persists the whole reservation collection. Save is all-or-nothing.
type Snapshotter interface {
	Load(ctx context.Context) ([]Reservation, error)
	Save(ctx context.Context, items []Reservation) error
}

// FileSnapshotter stores the collection as a JSON array. Writes go to a temp file
// in the same directory and are renamed over the target.
type FileSnapshotter struct {
	path string
}

var (
	_ Snapshotter = (*FileSnapshotter)(nil)
	_ Quarantiner = (*FileSnapshotter)(nil)
)

func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{path: path}
}

func (f *FileSnapshotter) Path() string {
	return f.path
}

// Load returns an empty collection when the file does not exist yet.
func (f *FileSnapshotter) Load(ctx context.Context) ([]Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Reservation{}, nil
		}
		return nil, errs.Mark(errs.Wrapf(err, "read reservations %s", f.path), contractx.ErrPersistence)
	}

	var items []Reservation
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "decode reservations %s", f.path), contractx.ErrPersistence)
	}
	if items == nil {
		items = []Reservation{}
	}
	return items, nil
}

// Quarantine renames the current file to <path>.corrupt-<UTC timestamp> and
// returns the new name. A missing file is not an error.
func (f *FileSnapshotter) Quarantine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	moved := fmt.Sprintf("%s.corrupt-%s", f.path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	if err := os.Rename(f.path, moved); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return moved, nil
}

func (f *FileSnapshotter) Save(ctx context.Context, items []Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []Reservation{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errs.Mark(errs.Wrap(err, "encode reservations"), contractx.ErrPersistence)
	}

	if err := writeAtomic(f.path, data); err != nil {
		return errs.Mark(errs.Wrapf(err, "write reservations %s", f.path), contractx.ErrPersistence)
	}
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
