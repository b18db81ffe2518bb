package uploadsvc

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/cleantrashrooms/upload_lite/internal/blob"
	"github.com/cleantrashrooms/upload_lite/internal/logging"
	"github.com/cleantrashrooms/upload_lite/internal/models"
)

type (
	// MetaStorage хранилище записей о загрузках
	MetaStorage interface {
		Get(ctx context.Context, id string) (models.Upload, error)
		Save(ctx context.Context, u models.Upload) error
		List(ctx context.Context, limit int) ([]models.Upload, error)
	}

	// Service объединяет операции по приёму и выдаче файлов.
	Service interface {
		Upload(ctx context.Context, parts []Part) (models.UploadResult, error)
		Open(ctx context.Context, name string) (*blob.Object, error)
		Get(ctx context.Context, id string) (models.Upload, error)
		List(ctx context.Context, limit int) ([]models.Upload, error)
		Usage(ctx context.Context) (blob.Usage, error)
	}
)

// Part описывает один файл из multipart-запроса. Если Body реализует io.Seeker,
// при повторной попытке записи он перематывается в начало.
type Part struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Deps struct {
	Blobs       blob.Store
	MetaStorage MetaStorage
	Logger      logging.Logger
	// URLPrefix: путь, под которым HTTP-слой отдаёт файлы, например "/uploads".
	URLPrefix string
	// RejectMissingFile включает строгий режим: запрос без файлов → models.ErrMissingFile.
	RejectMissingFile bool
	Now               func() time.Time
	NewID             func() string
}

type Files struct {
	Deps
}

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps) *Files {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = newID
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	deps.URLPrefix = "/" + strings.Trim(deps.URLPrefix, "/")

	return &Files{Deps: deps}
}

var _ Service = (*Files)(nil)

// URL возвращает публичный путь сохранённого файла: префикс + "/" + имя.
func (s *Files) URL(storedName string) string {
	return s.URLPrefix + "/" + storedName
}

func (s *Files) Open(ctx context.Context, name string) (*blob.Object, error) {
	return s.Blobs.Open(ctx, name)
}

func (s *Files) Get(ctx context.Context, id string) (models.Upload, error) {
	return s.MetaStorage.Get(ctx, id)
}

func (s *Files) List(ctx context.Context, limit int) ([]models.Upload, error) {
	return s.MetaStorage.List(ctx, limit)
}

func (s *Files) Usage(ctx context.Context) (blob.Usage, error) {
	return s.Blobs.Usage(ctx)
}
