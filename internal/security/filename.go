package security

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFileName reduces an uploaded file name to a safe base name that can
// be echoed back in a Content-Disposition header.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	name = strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '/' || r == ';':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)

	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "attachment"
	}
	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:255-len(ext)] + ext
	}
	return name
}
