package resthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cleantrashrooms/upload_lite/internal/blob"
	"github.com/cleantrashrooms/upload_lite/internal/config"
	"github.com/cleantrashrooms/upload_lite/internal/logging"
	meta "github.com/cleantrashrooms/upload_lite/internal/repo"
	"github.com/cleantrashrooms/upload_lite/internal/usecase/uploadsvc"
	"github.com/cleantrashrooms/upload_lite/pkg/uploadproto"
)

type Server struct {
	Files  uploadsvc.Service
	Cfg    *config.Config
	Logger logging.Logger

	closer io.Closer
}

// NewServer собирает хранилища по конфигурации и возвращает готовый роутер.
func NewServer(ctx context.Context, cfg *config.Config, log logging.Logger) (http.Handler, *Server, error) {
	files, closer, err := buildFileService(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	srv := &Server{
		Files:  files,
		Cfg:    cfg,
		Logger: log,
		closer: closer,
	}

	return srv.routes(), srv, nil
}

// New оборачивает готовый сервис; используется в тестах с подменёнными зависимостями.
func New(files uploadsvc.Service, cfg *config.Config, log logging.Logger) http.Handler {
	srv := &Server{Files: files, Cfg: cfg, Logger: log}
	return srv.routes()
}

// Close освобождает хранилище метаданных.
func (s *Server) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Server) routes() http.Handler {
	rtr := chi.NewRouter()
	rtr.Use(middleware.RequestID)
	rtr.Use(middleware.RealIP)
	rtr.Use(requestLogger(s.Logger))
	rtr.Use(middleware.Recoverer)
	rtr.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	rtr.Post(uploadproto.UploadPath, s.postUpload)
	rtr.Get(uploadproto.UploadsPath, s.listUploads)
	rtr.Get(uploadproto.UploadsPath+"/{id}", s.getUpload)

	rtr.Get(s.Cfg.URLPrefix+"/*", s.getStatic)
	rtr.Head(s.Cfg.URLPrefix+"/*", s.getStatic)

	rtr.Get(uploadproto.HealthPath, s.health)
	rtr.Get("/admin/config", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, s.Cfg) })

	return rtr
}

func buildFileService(ctx context.Context, cfg *config.Config, log logging.Logger) (*uploadsvc.Files, io.Closer, error) {
	var blobs blob.Store
	switch cfg.StorageBackend {
	case config.BackendS3:
		cli, err := blob.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		blobs = blob.NewS3(cli, cfg.S3.Bucket, cfg.S3.Prefix)
	default:
		disk, err := blob.NewDisk(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		blobs = disk
	}

	var repo interface {
		uploadsvc.MetaStorage
		io.Closer
	}
	if dsn := strings.TrimSpace(cfg.MetaDSN); dsn == "" || strings.HasPrefix(dsn, "memory://") {
		repo = meta.NewMemoryStore()
	} else {
		pg, err := meta.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open meta store: %w", err)
		}
		repo = pg
	}

	files := uploadsvc.New(uploadsvc.Deps{
		Blobs:             blobs,
		MetaStorage:       repo,
		Logger:            log,
		URLPrefix:         cfg.URLPrefix,
		RejectMissingFile: cfg.RejectMissingFile,
	})

	return files, repo, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
