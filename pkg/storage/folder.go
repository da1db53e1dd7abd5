package storage

import (
	"os"
	"path/filepath"
	"strings"

	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
)

// reservedChars are replaced with '_' when deriving a folder name from a
// search query. Queries differing only by reserved characters collide on
// the same folder; that is accepted behavior.
const reservedChars = `<>:"/\|?*`

// SanitizeQuery derives a filesystem-safe folder name from a raw search
// string.
func SanitizeQuery(query string) string {
	sanitized := strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) {
			return '_'
		}
		return r
	}, query)
	return strings.TrimSpace(sanitized)
}

// ResolveQueryFolder creates (if needed) and returns the per-query folder
// under baseDir. Repeated calls with the same query return the same path.
func ResolveQueryFolder(baseDir, query string) (string, error) {
	dir := filepath.Join(baseDir, SanitizeQuery(query))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.Wrap(errs.ErrorTypeStorage, "failed to create query folder", err)
	}
	return dir, nil
}
