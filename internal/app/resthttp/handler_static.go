package resthttp

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cleantrashrooms/upload_lite/pkg/httperrors"
)

// getStatic отдаёт сохранённый файл по /uploads/<storedName>.
// Имя берётся из уже декодированного r.URL.Path; вложенные пути дают 404.
func (s *Server) getStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, s.Cfg.URLPrefix+"/")

	obj, err := s.Files.Open(r.Context(), name)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}

	// Диск отдаёт *os.File: ServeContent сам разберётся с Range и If-Modified-Since.
	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, obj.ModTime, rs)
		return
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		s.Logger.Warn(r.Context(), "stream file failed", "name", name, "err", err)
	}
}
