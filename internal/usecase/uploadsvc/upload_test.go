package uploadsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleantrashrooms/upload_lite/internal/blob"
	"github.com/cleantrashrooms/upload_lite/internal/logging"
	"github.com/cleantrashrooms/upload_lite/internal/models"
	meta "github.com/cleantrashrooms/upload_lite/internal/repo"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, strict bool) (*Files, *blob.DiskStore, *meta.MemoryStore) {
	t.Helper()
	disk, err := blob.NewDisk(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	metaStore := meta.NewMemoryStore()

	var seq atomic.Int64
	svc := New(Deps{
		Blobs:             disk,
		MetaStorage:       metaStore,
		URLPrefix:         "/uploads/",
		RejectMissingFile: strict,
		Now:               func() time.Time { return fixedNow },
		NewID:             func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	})
	return svc, disk, metaStore
}

func part(field, name string, data []byte) Part {
	return Part{
		Field:       field,
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}
}

func TestUpload_TwoFields(t *testing.T) {
	svc, disk, store := newTestService(t, false)
	ctx := context.Background()
	before := bytes.Repeat([]byte{1}, 10)
	after := bytes.Repeat([]byte{2}, 20)

	res, err := svc.Upload(ctx, []Part{
		part(models.FieldBeforePhoto, "img1.jpg", before),
		part(models.FieldAfterPhoto, "img2.jpg", after),
	})
	require.NoError(t, err)

	ms := fixedNow.UnixMilli()
	require.Equal(t, fmt.Sprintf("/uploads/%d-img1.jpg", ms), res.Paths[models.FieldBeforePhoto])
	require.Equal(t, fmt.Sprintf("/uploads/%d-img2.jpg", ms), res.Paths[models.FieldAfterPhoto])
	require.Len(t, res.Uploads, 2)

	got, err := os.ReadFile(filepath.Join(disk.Root(), fmt.Sprintf("%d-img1.jpg", ms)))
	require.NoError(t, err)
	require.Equal(t, before, got)

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestUpload_SameNameGetsDistinctStoredNames(t *testing.T) {
	svc, disk, _ := newTestService(t, false)
	ctx := context.Background()

	first, err := svc.Upload(ctx, []Part{part(models.FieldFile, "report.png", []byte("first"))})
	require.NoError(t, err)
	second, err := svc.Upload(ctx, []Part{part(models.FieldFile, "report.png", []byte("second"))})
	require.NoError(t, err)

	p1 := first.Paths[models.FieldFile]
	p2 := second.Paths[models.FieldFile]
	require.NotEqual(t, p1, p2)
	require.Equal(t, fmt.Sprintf("/uploads/%d-report.png", fixedNow.UnixMilli()+1), p2)

	for path, want := range map[string]string{p1: "first", p2: "second"} {
		b, err := os.ReadFile(filepath.Join(disk.Root(), filepath.Base(path)))
		require.NoError(t, err)
		require.Equal(t, want, string(b))
	}
}

func TestUpload_SameNameWithinOneRequest(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	res, err := svc.Upload(context.Background(), []Part{
		part(models.FieldBeforePhoto, "photo.jpg", []byte("b")),
		part(models.FieldAfterPhoto, "photo.jpg", []byte("a")),
	})
	require.NoError(t, err)
	require.NotEqual(t, res.Paths[models.FieldBeforePhoto], res.Paths[models.FieldAfterPhoto])
}

func TestUpload_NoPartsLenient(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	res, err := svc.Upload(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{models.FieldFile: "/uploads/"}, res.Paths)
	require.Empty(t, res.Uploads)
}

func TestUpload_NoPartsStrict(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	_, err := svc.Upload(context.Background(), nil)
	require.ErrorIs(t, err, models.ErrMissingFile)
}

func TestUpload_PathInNameStaysInsideDir(t *testing.T) {
	svc, disk, _ := newTestService(t, false)

	res, err := svc.Upload(context.Background(), []Part{part(models.FieldFile, `..\..\etc/passwd`, []byte("x"))})
	require.NoError(t, err)

	stored := fmt.Sprintf("%d-passwd", fixedNow.UnixMilli())
	require.Equal(t, "/uploads/"+stored, res.Paths[models.FieldFile])
	_, err = os.Stat(filepath.Join(disk.Root(), stored))
	require.NoError(t, err)
}

type failingMeta struct {
	*meta.MemoryStore
}

func (failingMeta) Save(context.Context, models.Upload) error {
	return errors.New("db down")
}

func TestUpload_MetaFailure(t *testing.T) {
	svc, disk, _ := newTestService(t, false)
	svc.MetaStorage = failingMeta{meta.NewMemoryStore()}

	_, err := svc.Upload(context.Background(), []Part{part(models.FieldFile, "a.jpg", []byte("x"))})
	require.Error(t, err)
	require.Contains(t, err.Error(), "db down")

	// файл без записи в журнале не остаётся на диске
	entries, err := os.ReadDir(disk.Root())
	require.NoError(t, err)
	require.Empty(t, entries)
}

// failSecondMeta отказывает в сохранении записи для поля afterPhoto.
type failSecondMeta struct {
	*meta.MemoryStore
}

func (f failSecondMeta) Save(ctx context.Context, u models.Upload) error {
	if u.Field == models.FieldAfterPhoto {
		return errors.New("db down")
	}
	return f.MemoryStore.Save(ctx, u)
}

func TestUpload_PartialFailureKeepsOnlyRecordedFiles(t *testing.T) {
	svc, disk, _ := newTestService(t, false)
	store := meta.NewMemoryStore()
	svc.MetaStorage = failSecondMeta{store}

	_, err := svc.Upload(context.Background(), []Part{
		part(models.FieldBeforePhoto, "before.jpg", []byte("1")),
		part(models.FieldAfterPhoto, "after.jpg", []byte("2")),
	})
	require.Error(t, err)

	entries, err := os.ReadDir(disk.Root())
	require.NoError(t, err)
	records, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, len(records))
	for _, r := range records {
		_, err := os.Stat(filepath.Join(disk.Root(), r.StoredName))
		require.NoError(t, err)
	}
}

// alwaysTaken отвечает ErrExists на любую запись.
type alwaysTaken struct {
	blob.Store
	calls int
}

func (a *alwaysTaken) Create(_ context.Context, _ string, r io.Reader, _ int64, _ string) (int64, error) {
	a.calls++
	_, _ = io.Copy(io.Discard, r)
	return 0, models.ErrExists
}

func TestUpload_GivesUpAfterMaxAttempts(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	taken := &alwaysTaken{}
	svc.Blobs = taken

	_, err := svc.Upload(context.Background(), []Part{part(models.FieldFile, "a.jpg", []byte("x"))})
	require.ErrorIs(t, err, models.ErrExists)
	require.Equal(t, maxNameAttempts, taken.calls)
}

func TestFiles_ReadSide(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()

	res, err := svc.Upload(ctx, []Part{part(models.FieldFile, "a.jpg", []byte("abc"))})
	require.NoError(t, err)
	u := res.Uploads[0]

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u, got)

	obj, err := svc.Open(ctx, u.StoredName)
	require.NoError(t, err)
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.NoError(t, obj.Body.Close())
	require.Equal(t, "abc", string(b))

	usage, err := svc.Usage(ctx)
	require.NoError(t, err)
	require.Equal(t, blob.Usage{Files: 1, TotalBytes: 3}, usage)
}

func TestUpload_LogsSavedFile(t *testing.T) {
	disk, err := blob.NewDisk(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	var buf bytes.Buffer
	svc := New(Deps{
		Blobs:       disk,
		MetaStorage: meta.NewMemoryStore(),
		Logger:      logging.New(&buf, "info"),
		Now:         func() time.Time { return fixedNow },
	})

	_, err = svc.Upload(context.Background(), []Part{part(models.FieldFile, "report.png", []byte("png"))})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "saved file", line["msg"])
	require.Equal(t, "report.png", line["original"])
	require.Equal(t, fmt.Sprintf("%d-report.png", fixedNow.UnixMilli()), line["stored"])
	require.Equal(t, models.FieldFile, line["field"])
	require.EqualValues(t, 3, line["size"])
}
