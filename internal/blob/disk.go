package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleantrashrooms/upload_lite/internal/models"
)

// DiskStore хранит файлы в одном каталоге локального диска.
type DiskStore struct {
	root string
}

var _ Store = (*DiskStore)(nil)

// NewDisk создаёт каталог (рекурсивно, если его нет) и возвращает хранилище поверх него.
func NewDisk(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("upload dir is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStore{root: root}, nil
}

// Root возвращает каталог хранения.
func (d *DiskStore) Root() string {
	return d.root
}

// Create открывает файл с O_EXCL: занятое имя не перезаписывается.
func (d *DiskStore) Create(ctx context.Context, name string, r io.Reader, _ int64, _ string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p := filepath.Join(d.root, name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%s: %w", name, models.ErrExists)
		}
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return 0, fmt.Errorf("close %s: %w", name, err)
	}

	return n, nil
}

// Open отдаёт *os.File в Body, поэтому он реализует io.ReadSeeker.
func (d *DiskStore) Open(_ context.Context, name string) (*Object, error) {
	if !ValidName(name) {
		return nil, models.ErrNotFound
	}

	f, err := os.Open(filepath.Join(d.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, models.ErrNotFound
	}

	return &Object{
		Body:        f,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: contentTypeByName(name),
	}, nil
}

func (d *DiskStore) Remove(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Usage проходит по каталогу и суммирует размеры файлов.
func (d *DiskStore) Usage(ctx context.Context) (Usage, error) {
	var u Usage
	err := filepath.WalkDir(d.root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}

		info, err := e.Info()
		if err != nil {
			return err
		}
		u.Files++
		u.TotalBytes += info.Size()

		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Usage{}, err
	}

	return u, nil
}
