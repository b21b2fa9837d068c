package postsign

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidKeyPrefix validates a prefix that generated object keys are placed under.
// It checks that the prefix:
//   - is empty, or relative (does not start with "/")
//   - does not contain ".." or "//"
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments
//   - does not contain control characters, DEL (0x7f), or whitespace
//
// A trailing "/" is allowed, so "uploads/" places keys in a pseudo-directory.
func IsValidKeyPrefix(p string) bool {
	if p == "" {
		return true
	}

	if p[0] == '/' || p == "." {
		return false
	}

	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.HasPrefix(p, "./") || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
