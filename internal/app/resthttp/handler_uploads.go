package resthttp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cleantrashrooms/upload_lite/internal/models"
	"github.com/cleantrashrooms/upload_lite/pkg/httperrors"
)

// listUploads отдаёт журнал загрузок, новые первыми; ?limit= ограничивает выдачу.
func (s *Server) listUploads(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httperrors.Write(w, fmt.Errorf("invalid limit %q: %w", v, models.ErrBadRequest))
			return
		}
		limit = n
	}

	list, err := s.Files.List(r.Context(), limit)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if list == nil {
		list = []models.Upload{}
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getUpload(w http.ResponseWriter, r *http.Request) {
	u, err := s.Files.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}
