// Package uploadclient — HTTP-клиент сервиса загрузки фотографий для техников и тестов.
package uploadclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/cleantrashrooms/upload_lite/pkg/uploadproto"
)

var ErrNotFound = errors.New("not found")

// FilePart: файл, отправляемый в поле Field. Size < 0, если размер неизвестен (только для прогресса).
type FilePart struct {
	Field    string
	Filename string
	Reader   io.Reader
	Size     int64
}

type Client interface {
	// Upload отправляет части одним multipart-запросом на POST /api/upload.
	Upload(ctx context.Context, baseURL string, parts []FilePart) (uploadproto.UploadResponse, error)
	// Fetch скачивает файл по пути из ответа Upload, например "/uploads/1700000000000-a.jpg".
	Fetch(ctx context.Context, baseURL, path string) (io.ReadCloser, error)
}

type Option func(*httpClient)

// WithHTTPClient подменяет *http.Client (таймауты, транспорт).
func WithHTTPClient(c *http.Client) Option {
	return func(h *httpClient) { h.c = c }
}

// WithProgress включает ASCII-прогресс в w (обычно os.Stdout).
func WithProgress(w io.Writer) Option {
	return func(h *httpClient) { h.progress = w }
}

type httpClient struct {
	c        *http.Client
	progress io.Writer
}

// New создаёт HTTP-клиент; по умолчанию без прогресс-бара.
func New(opts ...Option) Client {
	h := &httpClient{c: &http.Client{}}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Upload стримит multipart-тело через pipe, не буферизуя файлы в памяти.
func (h *httpClient) Upload(ctx context.Context, baseURL string, parts []FilePart) (uploadproto.UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		_ = pw.CloseWithError(h.writeParts(mw, parts))
	}()

	u := strings.TrimRight(baseURL, "/") + uploadproto.UploadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return uploadproto.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return uploadproto.UploadResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return uploadproto.UploadResponse{}, fmt.Errorf("upload failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out uploadproto.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return uploadproto.UploadResponse{}, fmt.Errorf("decode upload response: %w", err)
	}

	return out, nil
}

func (h *httpClient) writeParts(mw *multipart.Writer, parts []FilePart) error {
	for _, p := range parts {
		fw, err := createFilePart(mw, p.Field, p.Filename)
		if err != nil {
			return err
		}

		bar := newProgressBar(h.progress, fmt.Sprintf("Uploading %s (%s)", p.Filename, p.Field), p.Size)
		bar.Start()
		var w io.Writer = fw
		if bar != nil {
			w = io.MultiWriter(fw, bar)
		}
		_, err = io.Copy(w, p.Reader)
		bar.Done(err)
		if err != nil {
			return err
		}
	}

	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createFilePart работает как multipart.Writer.CreateFormFile, но Content-Type берётся по расширению.
func createFilePart(mw *multipart.Writer, field, filename string) (io.Writer, error) {
	ct := mime.TypeByExtension(filepath.Ext(filename))
	if ct == "" {
		ct = "application/octet-stream"
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	hdr.Set("Content-Type", ct)

	return mw.CreatePart(hdr)
}

// Fetch скачивает сохранённый файл и возвращает поток с телом.
func (h *httpClient) Fetch(ctx context.Context, baseURL, path string) (io.ReadCloser, error) {
	u := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %w", path, ErrNotFound)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s failed: %s", path, resp.Status)
	}

	bar := newProgressBar(h.progress, "Downloading "+path, resp.ContentLength)
	bar.Start()

	return trackBody(resp.Body, bar), nil
}
