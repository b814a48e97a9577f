package lookup

import (
	"path/filepath"
	"strings"
)

const asinLength = 10

// ExtractASIN finds an Audible ASIN embedded in a file name. Recognized forms
// are a "B0XXXXXXXX_" prefix, a bracketed "[B0XXXXXXXX]" anywhere in the stem
// and a "-B0XXXXXXXX" suffix, checked in that order.
func ExtractASIN(filename string) (string, bool) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if len(stem) > asinLength && stem[asinLength] == '_' && validASIN(stem[:asinLength]) {
		return stem[:asinLength], true
	}

	for rest := stem; ; {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			break
		}
		rest = rest[open+1:]
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		if candidate := rest[:end]; validASIN(candidate) {
			return candidate, true
		}
	}

	if idx := strings.LastIndexByte(stem, '-'); idx >= 0 {
		if candidate := stem[idx+1:]; validASIN(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func validASIN(s string) bool {
	if len(s) != asinLength || !strings.HasPrefix(s, "B0") {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
