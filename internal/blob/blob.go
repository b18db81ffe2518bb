// Package blob хранит байты загруженных файлов: плоский каталог на диске или бакет S3.
// Имя объекта всегда одно звено пути; создание эксклюзивное, повторная запись под тем же
// именем возвращает models.ErrExists.
package blob

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/cleantrashrooms/upload_lite/internal/models"
)

// Object описывает открытый на чтение сохранённый файл. Body закрывает вызывающий.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Usage содержит агрегированную статистику хранилища для /health.
type Usage struct {
	Files      int64 `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
}

// Store описывает бэкенд хранения байтов.
type Store interface {
	// Create пишет r под именем name; size < 0, если размер неизвестен.
	Create(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error)
	Open(ctx context.Context, name string) (*Object, error)
	// Remove удаляет объект; отсутствующий объект ошибкой не считается.
	Remove(ctx context.Context, name string) error
	Usage(ctx context.Context) (Usage, error)
}

// ValidName сообщает, является ли name допустимым плоским именем объекта.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return path.Base(name) == name
}

func checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid object name %q: %w", name, models.ErrBadRequest)
	}
	return nil
}

// contentTypeByName определяет MIME-тип по расширению; пустая строка, если неизвестен.
func contentTypeByName(name string) string {
	return mime.TypeByExtension(path.Ext(name))
}
