package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleantrashrooms/upload_lite/internal/app/resthttp"
	"github.com/cleantrashrooms/upload_lite/internal/config"
	"github.com/cleantrashrooms/upload_lite/internal/logging"
)

const shutdownTimeout = 15 * time.Second

// main поднимает сервис загрузки фотографий и корректно завершает его по сигналу.
func main() {
	if err := run(); err != nil {
		log.Printf("REST: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, srv, err := resthttp.NewServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error(context.Background(), "close meta store", "error", err)
		}
	}()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(ctx, "server is running",
		"addr", ln.Addr().String(),
		"backend", cfg.StorageBackend,
		"upload_dir", cfg.UploadDir,
	)

	return serve(ctx, server, ln, logger)
}

// serve обслуживает ln до отмены ctx и возвращается только после того, как Shutdown
// дождался завершения текущих запросов (или истёк shutdownTimeout).
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
