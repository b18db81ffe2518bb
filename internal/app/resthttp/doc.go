// Package resthttp реализует REST API сервиса загрузки фотографий поверх chi:
//   - POST /api/upload — multipart с частями beforePhoto/afterPhoto (по одной) или file;
//     отвечает {"beforePhoto": "...", "afterPhoto": "..."} или {"path": "..."}.
//   - GET|HEAD /uploads/{name} — отдаёт сохранённый файл, Content-Type по расширению.
//   - GET /api/uploads, GET /api/uploads/{id} — журнал загрузок.
//   - GET /health — число файлов и суммарный объём хранилища.
//   - GET /admin/config — текущая конфигурация без DSN и ключей S3.
//
// Эндпоинт загрузки не проверяет тип, размер и содержимое файлов и принимает запросы без
// аутентификации. /admin/config тоже открыт всем и раскрывает пути, бакет и origins.
// Перед выставлением наружу это нужно закрыть (лимит тела, whitelist расширений,
// авторизация техников, /admin только из внутренней сети).
package resthttp
