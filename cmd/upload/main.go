package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cleantrashrooms/upload_lite/pkg/uploadclient"
	"github.com/cleantrashrooms/upload_lite/pkg/uploadproto"
)

// Консольный клиент: отправляет фото "до/после" и/или файлы (каждый своим запросом), печатает JSON-ответы.
//
//	upload -server http://localhost:3001 -before before.jpg -after after.jpg
//	upload -server http://localhost:3001 report.pdf invoice.pdf
//	upload -server http://localhost:3001 -get /uploads/1700000000000-report.pdf -o report.pdf
func main() {
	server := flag.String("server", "http://localhost:3001", "base URL of the upload service")
	before := flag.String("before", "", "photo taken before cleaning (beforePhoto)")
	after := flag.String("after", "", "photo taken after cleaning (afterPhoto)")
	get := flag.String("get", "", "download a stored file by its path instead of uploading")
	out := flag.String("o", "", "output file for -get (default: stdout)")
	quiet := flag.Bool("q", false, "do not print progress")
	timeout := flag.Duration("timeout", 5*time.Minute, "request timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var opts []uploadclient.Option
	if !*quiet {
		opts = append(opts, uploadclient.WithProgress(os.Stderr))
	}
	cli := uploadclient.New(opts...)

	if *get != "" {
		if err := download(ctx, cli, *server, *get, *out); err != nil {
			log.Fatal(err)
		}
		return
	}

	resps, err := uploadAll(ctx, cli, *server, *before, *after, flag.Args())
	if errors.Is(err, errNothingToUpload) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, resp := range resps {
		if err := enc.Encode(resp); err != nil {
			log.Fatal(err)
		}
	}
}

var errNothingToUpload = errors.New("nothing to upload")

// uploadAll отправляет -before/-after одним запросом, а каждый позиционный файл отдельным:
// сервер принимает не больше одного файла в поле.
func uploadAll(ctx context.Context, cli uploadclient.Client, server, before, after string, files []string) ([]uploadproto.UploadResponse, error) {
	var batches [][]fieldFile
	var photos []fieldFile
	if before != "" {
		photos = append(photos, fieldFile{uploadproto.FieldBeforePhoto, before})
	}
	if after != "" {
		photos = append(photos, fieldFile{uploadproto.FieldAfterPhoto, after})
	}
	if len(photos) > 0 {
		batches = append(batches, photos)
	}
	for _, path := range files {
		batches = append(batches, []fieldFile{{uploadproto.FieldFile, path}})
	}
	if len(batches) == 0 {
		return nil, errNothingToUpload
	}

	out := make([]uploadproto.UploadResponse, 0, len(batches))
	for _, batch := range batches {
		resp, err := uploadBatch(ctx, cli, server, batch)
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}

	return out, nil
}

type fieldFile struct {
	field, path string
}

func uploadBatch(ctx context.Context, cli uploadclient.Client, server string, batch []fieldFile) (uploadproto.UploadResponse, error) {
	parts := make([]uploadclient.FilePart, 0, len(batch))
	for _, ff := range batch {
		f, err := os.Open(ff.path)
		if err != nil {
			return uploadproto.UploadResponse{}, err
		}
		defer f.Close()

		size := int64(-1)
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}
		parts = append(parts, uploadclient.FilePart{
			Field:    ff.field,
			Filename: filepath.Base(ff.path),
			Reader:   f,
			Size:     size,
		})
	}

	return cli.Upload(ctx, server, parts)
}

func download(ctx context.Context, cli uploadclient.Client, server, path, out string) error {
	rc, err := cli.Fetch(ctx, server, path)
	if err != nil {
		return err
	}
	defer rc.Close()

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("download %s: %w", path, err)
	}

	return nil
}
