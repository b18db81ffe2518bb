// Package logging задаёт минимальный интерфейс структурного логирования сервиса.
package logging

import "context"

// Logger — контекстный структурный логгер; args интерпретируются как пары ключ/значение:
//
//	log.Info(ctx, "saved file", "original", name, "stored", stored)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With возвращает дочерний логгер, всегда добавляющий указанные пары.
	With(args ...any) Logger
}
