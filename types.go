package postsign

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Credentials is a resolved AWS key pair. It is never persisted and never logged;
// both String and LogValue redact the secret parts.
type Credentials struct {
	AccessKeyID  string
	SecretKey    string
	SessionToken string
}

// String returns a redacted form safe for logs and error messages.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{AccessKeyID: %s, SecretKey: [REDACTED]}", c.AccessKeyID)
}

// LogValue implements slog.LogValuer.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("access_key_id", c.AccessKeyID),
		slog.Bool("session", c.SessionToken != ""),
	)
}

// UploadConfig holds the constraints every issued upload is signed with.
type UploadConfig struct {
	Bucket            string `mapstructure:"bucket" validate:"required"`
	ExpirationSeconds int    `mapstructure:"expiration_seconds" validate:"gt=0"`
	ContentLengthMin  int64  `mapstructure:"content_length_min" validate:"min=0"`
	ContentLengthMax  int64  `mapstructure:"content_length_max" validate:"min=0,gtefield=ContentLengthMin"`
}

// Validate checks the upload constraints. All failures wrap ErrConfiguration.
func (c UploadConfig) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("validate upload config: %w: bucket cannot be empty", ErrConfiguration)
	}

	if c.ExpirationSeconds <= 0 {
		return fmt.Errorf("validate upload config: %w: expiration seconds must be positive, got %d", ErrConfiguration, c.ExpirationSeconds)
	}

	if err := validateLengthRange(c.ContentLengthMin, c.ContentLengthMax); err != nil {
		return fmt.Errorf("validate upload config: %w", err)
	}

	return nil
}

// Expiration returns the configured lifetime of a presigned post.
func (c UploadConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationSeconds) * time.Second
}

func validateLengthRange(minLen, maxLen int64) error {
	if minLen < 0 || maxLen < 0 {
		return fmt.Errorf("%w: content length bounds must be non-negative, got [%d, %d]", ErrConfiguration, minLen, maxLen)
	}
	if minLen > maxLen {
		return fmt.Errorf("%w: content length min %d exceeds max %d", ErrConfiguration, minLen, maxLen)
	}
	return nil
}

// Field is a single POST form field. Each field is also an exact-match policy condition.
type Field struct {
	Name  string
	Value string
}

// FieldList is an ordered set of form fields with unique names.
// The zero value is ready to use.
type FieldList struct {
	fields []Field
}

// Add appends a field. Empty or duplicate names are rejected with ErrInternal,
// since every field name is chosen by this package rather than by callers.
func (l *FieldList) Add(name, value string) error {
	if name == "" {
		return fmt.Errorf("add field: %w: empty field name", ErrInternal)
	}
	for _, f := range l.fields {
		if f.Name == name {
			return fmt.Errorf("add field: %w: duplicate field %q", ErrInternal, name)
		}
	}
	l.fields = append(l.fields, Field{Name: name, Value: value})
	return nil
}

// Fields returns a copy of the fields in insertion order.
func (l *FieldList) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Len returns the number of fields.
func (l *FieldList) Len() int {
	return len(l.fields)
}

// Map converts the list plus extra into a name to value map.
// Any name collision is an internal invariant violation.
func (l *FieldList) Map(extra ...Field) (map[string]string, error) {
	m := make(map[string]string, len(l.fields)+len(extra))
	for _, f := range append(l.Fields(), extra...) {
		if _, dup := m[f.Name]; dup {
			return nil, fmt.Errorf("field map: %w: duplicate field %q", ErrInternal, f.Name)
		}
		m[f.Name] = f.Value
	}
	return m, nil
}

// PresignedPost is the URL and form fields a client submits, together with the
// file part, as a multipart POST. It is immutable once built.
type PresignedPost struct {
	url       string
	fields    map[string]string
	expiresAt time.Time
}

// URL returns the form target.
func (p PresignedPost) URL() string {
	return p.url
}

// Fields returns a copy of the form fields.
func (p PresignedPost) Fields() map[string]string {
	return maps.Clone(p.fields)
}

// Field returns a single form field value, or "" if absent.
func (p PresignedPost) Field(name string) string {
	return p.fields[name]
}

// ExpiresAt returns the policy expiration. It is not part of the serialized form.
func (p PresignedPost) ExpiresAt() time.Time {
	return p.expiresAt
}

type presignedPostDoc struct {
	URL    string            `json:"url" yaml:"url"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// MarshalJSON encodes the post as {"url": ..., "fields": {...}}.
func (p PresignedPost) MarshalJSON() ([]byte, error) {
	return json.Marshal(presignedPostDoc{URL: p.url, Fields: p.fields})
}

// MarshalYAML implements yaml.Marshaler with the same shape as MarshalJSON.
func (p PresignedPost) MarshalYAML() (any, error) {
	return presignedPostDoc{URL: p.url, Fields: p.fields}, nil
}

// Slip is the ledger record of one issued presigned post.
type Slip struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Bucket    string    `json:"bucket"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type ListQuery struct {
	KeyPrefix string
	Limit     int
	Cursor    string
}

type SlipList struct {
	Items      []Slip `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
