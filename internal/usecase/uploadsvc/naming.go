package uploadsvc

import (
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxNameAttempts ограничивает число сдвигов метки времени при коллизии имён.
const maxNameAttempts = 64

const fallbackName = "file"

// BaseName оставляет от клиентского имени только последнее звено пути.
func BaseName(original string) string {
	n := strings.ReplaceAll(original, "\x00", "")
	n = strings.ReplaceAll(n, `\`, "/")
	n = path.Base(n)
	switch n {
	case "", ".", "..", "/":
		return fallbackName
	}
	return n
}

// StoredName строит имя вида "<unix-millis>-<base name>".
func StoredName(unixMilli int64, original string) string {
	return strconv.FormatInt(unixMilli, 10) + "-" + BaseName(original)
}

func newID() string {
	return uuid.NewString()
}
