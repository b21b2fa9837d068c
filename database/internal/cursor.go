// Package internal holds helpers shared by the ledger backends.
package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cursor marks the last slip of a page. Listing resumes strictly after
// (CreatedAt, Key).
type Cursor struct {
	CreatedAt time.Time
	Key       string
}

// EncodeCursor renders an opaque, URL-safe page token.
func EncodeCursor(createdAt time.Time, key string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + key
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. The empty string is the
// zero cursor, meaning "first page".
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}

	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	ts, key, ok := strings.Cut(string(raw), "|")
	if !ok {
		return Cursor{}, errors.New("decode cursor: invalid format")
	}

	if key == "" {
		return Cursor{}, errors.New("decode cursor: empty key")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	return Cursor{CreatedAt: createdAt, Key: key}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLikePattern escapes LIKE wildcards so a prefix matches literally
// under ESCAPE '\'.
func EscapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}
