package resthttp

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/cleantrashrooms/upload_lite/internal/models"
	"github.com/cleantrashrooms/upload_lite/internal/usecase/uploadsvc"
	"github.com/cleantrashrooms/upload_lite/pkg/httperrors"
	"github.com/cleantrashrooms/upload_lite/pkg/uploadproto"
)

// uploadFields: распознаваемые поля формы, не более одного файла в каждом.
var uploadFields = []string{models.FieldBeforePhoto, models.FieldAfterPhoto, models.FieldFile}

// postUpload разбирает multipart-тело и делегирует сохранение сервису файлов.
func (s *Server) postUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.Cfg.MaxMemoryBytes()); err != nil {
		httperrors.Write(w, fmt.Errorf("parse multipart: %v: %w", err, models.ErrBadRequest))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	parts, closeParts, err := collectParts(r.MultipartForm)
	defer closeParts()
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	res, err := s.Files.Upload(r.Context(), parts)
	if err != nil {
		s.Logger.Error(r.Context(), "upload failed", "err", err)
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.UploadResponse{
		BeforePhoto: res.Paths[models.FieldBeforePhoto],
		AfterPhoto:  res.Paths[models.FieldAfterPhoto],
		Path:        res.Paths[models.FieldFile],
	})
}

// collectParts открывает файлы распознаваемых полей; файлы прочих полей игнорируются.
// Возвращённую функцию закрытия нужно вызвать в любом случае.
func collectParts(form *multipart.Form) ([]uploadsvc.Part, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	var parts []uploadsvc.Part
	for _, field := range uploadFields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		if len(headers) > 1 {
			return nil, closeAll, fmt.Errorf("field %s: %w", field, models.ErrTooManyFiles)
		}

		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open part %s: %w", field, err)
		}
		opened = append(opened, f)

		parts = append(parts, uploadsvc.Part{
			Field:       field,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	return parts, closeAll, nil
}
