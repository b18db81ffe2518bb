package models

import (
	"time"

	"github.com/cleantrashrooms/upload_lite/pkg/uploadproto"
)

// Имена multipart-полей, которые понимает эндпоинт загрузки.
const (
	FieldBeforePhoto = uploadproto.FieldBeforePhoto
	FieldAfterPhoto  = uploadproto.FieldAfterPhoto
	FieldFile        = uploadproto.FieldFile
)

// Upload описывает один сохранённый файл. Запись создаётся один раз и больше не меняется.
type Upload struct {
	ID           string    `json:"id"`
	Field        string    `json:"field"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UploadResult возвращается сервисом после обработки одного запроса.
type UploadResult struct {
	// Paths: поле формы -> URL сохранённого файла.
	Paths   map[string]string
	Uploads []Upload
}
