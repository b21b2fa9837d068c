package postsign

import (
	"fmt"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
	ExpirationFormat   = "2006-01-02T15:04:05.000Z"
	ServiceS3          = "s3"

	scopeTerminator = "aws4_request"
)

// Scope binds a signing key to a date, region and service.
type Scope struct {
	DateStamp string
	Region    string
	Service   string
}

// NewScope builds the S3 credential scope for the given instant, always in UTC.
// An empty region is a configuration error.
func NewScope(t time.Time, region string) (Scope, error) {
	if strings.TrimSpace(region) == "" {
		return Scope{}, fmt.Errorf("new scope: %w: region cannot be empty", ErrConfiguration)
	}

	return Scope{
		DateStamp: t.UTC().Format(DateFormat),
		Region:    region,
		Service:   ServiceS3,
	}, nil
}

// String returns "{date}/{region}/{service}/aws4_request".
func (s Scope) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", s.DateStamp, s.Region, s.Service, scopeTerminator)
}

// Credential returns the X-Amz-Credential value for accessKeyID under this scope.
func (s Scope) Credential(accessKeyID string) string {
	return accessKeyID + "/" + s.String()
}
