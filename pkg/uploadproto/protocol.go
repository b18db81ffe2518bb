// Package uploadproto описывает HTTP-протокол сервиса загрузки фотографий.
package uploadproto

// Пути и поля REST-протокола.
const (
	UploadPath    = "/api/upload"
	UploadsPath   = "/api/uploads"
	HealthPath    = "/health"
	DefaultPrefix = "/uploads"

	FieldBeforePhoto = "beforePhoto"
	FieldAfterPhoto  = "afterPhoto"
	FieldFile        = "file"

	// KeyPath: ключ ответа для поля FieldFile.
	KeyPath = "path"
)

// UploadResponse: тело ответа POST /api/upload. Ключи отсутствующих частей опускаются.
type UploadResponse struct {
	BeforePhoto string `json:"beforePhoto,omitempty"`
	AfterPhoto  string `json:"afterPhoto,omitempty"`
	Path        string `json:"path,omitempty"`
}
