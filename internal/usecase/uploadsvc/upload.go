package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/cleantrashrooms/upload_lite/internal/models"
)

// Upload сохраняет все части запроса параллельно и возвращает их URL по именам полей.
// Пустой запрос в мягком режиме даёт путь с пустым именем файла ("/uploads/").
func (s *Files) Upload(ctx context.Context, parts []Part) (models.UploadResult, error) {
	if len(parts) == 0 {
		if s.RejectMissingFile {
			return models.UploadResult{}, models.ErrMissingFile
		}
		s.Logger.Warn(ctx, "upload request without file parts")
		return models.UploadResult{
			Paths: map[string]string{models.FieldFile: s.URL("")},
		}, nil
	}

	uploads := make([]models.Upload, len(parts))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, part := range parts {
		i, part := i, part
		eg.Go(func() error {
			u, err := s.storePart(egCtx, part)
			if err != nil {
				return fmt.Errorf("store %s: %w", part.Field, err)
			}
			uploads[i] = u
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return models.UploadResult{}, err
	}

	res := models.UploadResult{
		Paths:   make(map[string]string, len(uploads)),
		Uploads: uploads,
	}
	for _, u := range uploads {
		res.Paths[u.Field] = u.URL
	}

	return res, nil
}

// storePart пишет байты под уникальным именем и фиксирует запись в MetaStorage.
func (s *Files) storePart(ctx context.Context, p Part) (models.Upload, error) {
	now := s.Now()
	ts := now.UnixMilli()

	var (
		name    string
		written int64
		err     error
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name = StoredName(ts+int64(attempt), p.Filename)
		written, err = s.Blobs.Create(ctx, name, p.Body, p.Size, p.ContentType)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrExists) {
			return models.Upload{}, err
		}
		if seeker, ok := p.Body.(io.Seeker); ok {
			if _, serr := seeker.Seek(0, io.SeekStart); serr != nil {
				return models.Upload{}, fmt.Errorf("rewind %s: %w", p.Filename, serr)
			}
		}
	}
	if err != nil {
		return models.Upload{}, fmt.Errorf("no free name for %q after %d attempts: %w", p.Filename, maxNameAttempts, err)
	}

	u := models.Upload{
		ID:           s.NewID(),
		Field:        p.Field,
		OriginalName: p.Filename,
		StoredName:   name,
		URL:          s.URL(name),
		Size:         written,
		ContentType:  p.ContentType,
		CreatedAt:    now.UTC(),
	}
	if err := s.MetaStorage.Save(ctx, u); err != nil {
		// без записи в журнале файл не нужен
		if rerr := s.Blobs.Remove(context.WithoutCancel(ctx), name); rerr != nil {
			s.Logger.Error(ctx, "remove orphaned file", "stored", name, "err", rerr)
		}
		return models.Upload{}, fmt.Errorf("save meta: %w", err)
	}

	s.Logger.Info(ctx, "saved file",
		"field", p.Field,
		"original", p.Filename,
		"stored", name,
		"size", written,
	)

	return u, nil
}
