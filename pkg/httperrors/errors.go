package httperrors

import (
	"errors"
	"net/http"

	"github.com/cleantrashrooms/upload_lite/internal/models"
)

// Status сопоставляет доменную ошибку HTTP-статусу.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrMissingFile),
		errors.Is(err, models.ErrTooManyFiles),
		errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Write отдаёт ошибку клиенту. Текст внутренних ошибок не раскрывается.
func Write(w http.ResponseWriter, err error) {
	code := Status(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	http.Error(w, msg, code)
}
