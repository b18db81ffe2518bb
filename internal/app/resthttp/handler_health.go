package resthttp

import (
	"net/http"
)

// healthStats: payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	Files      int64 `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
}

// health возвращает агрегированную статистику по хранилищу файлов.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	usage, err := s.Files.Usage(r.Context())
	if err != nil {
		s.Logger.Error(r.Context(), "usage failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, healthStats{OK: false})
		return
	}

	writeJSON(w, http.StatusOK, healthStats{
		OK:         true,
		Files:      usage.Files,
		TotalBytes: usage.TotalBytes,
	})
}
