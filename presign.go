package postsign

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Form field names of a presigned POST.
const (
	FieldBucket        = "bucket"
	FieldKey           = "key"
	FieldAlgorithm     = "X-Amz-Algorithm"
	FieldCredential    = "X-Amz-Credential"
	FieldDate          = "X-Amz-Date"
	FieldSecurityToken = "X-Amz-Security-Token"
	FieldPolicy        = "Policy"
	FieldSignature     = "X-Amz-Signature"
)

// CredentialsProvider resolves the key pair used for signing. Implementations may
// block or perform network calls and own any caching or retry policy.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// RegionProvider resolves the region the signing scope is bound to.
type RegionProvider interface {
	Region(ctx context.Context) (string, error)
}

// PresignerOption configures a Presigner.
type PresignerOption func(*Presigner)

// WithClock overrides the signing clock. Used to pin the signing instant in tests.
func WithClock(now func() time.Time) PresignerOption {
	return func(p *Presigner) {
		if now != nil {
			p.now = now
		}
	}
}

// WithEndpoint overrides the form target, e.g. for S3-compatible stores.
// An empty endpoint keeps the virtual-hosted AWS default.
func WithEndpoint(endpoint string) PresignerOption {
	return func(p *Presigner) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithSessionToken makes Presign emit X-Amz-Security-Token (as a field and a
// condition) when the resolved credentials carry a session token. Off by default.
func WithSessionToken(include bool) PresignerOption {
	return func(p *Presigner) {
		p.includeSessionToken = include
	}
}

// Presigner builds presigned POSTs for a single bucket. It holds only immutable
// configuration and is safe for concurrent use.
type Presigner struct {
	cfg                 UploadConfig
	creds               CredentialsProvider
	region              string
	endpoint            string
	includeSessionToken bool
	now                 func() time.Time
}

// NewPresigner validates cfg and resolves the region eagerly, so that a missing
// region fails at startup rather than on the first request.
func NewPresigner(ctx context.Context, cfg UploadConfig, creds CredentialsProvider, regions RegionProvider, opts ...PresignerOption) (*Presigner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new presigner: %w", err)
	}

	if creds == nil {
		return nil, fmt.Errorf("new presigner: %w: credentials provider is required", ErrConfiguration)
	}

	if regions == nil {
		return nil, fmt.Errorf("new presigner: %w: region provider is required", ErrConfiguration)
	}

	region, err := regions.Region(ctx)
	if err != nil {
		return nil, fmt.Errorf("new presigner: resolve region: %w: %w", ErrConfiguration, err)
	}

	if strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("new presigner: %w: region is empty", ErrConfiguration)
	}

	p := &Presigner{
		cfg:      cfg,
		creds:    creds,
		region:   region,
		endpoint: EndpointURL(cfg.Bucket),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// EndpointURL returns the virtual-hosted-style S3 endpoint for bucket.
func EndpointURL(bucket string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/", bucket)
}

// Bucket returns the bucket every post targets.
func (p *Presigner) Bucket() string {
	return p.cfg.Bucket
}

// Region returns the region resolved at construction.
func (p *Presigner) Region() string {
	return p.region
}

// Presign builds the presigned POST for key.
//
// The key is used verbatim; callers that accept keys from untrusted input are
// responsible for constraining them. The form carries, in order, bucket, key,
// X-Amz-Algorithm, X-Amz-Credential and X-Amz-Date, each repeated as an exact-match
// policy condition after the content-length-range condition, plus Policy and
// X-Amz-Signature.
//
// Error types returned:
//   - ErrInvalidInput: empty key
//   - ErrCredentialsUnavailable: the provider failed or returned an incomplete pair
//   - ErrInternal: a field collision or policy serialization failure
func (p *Presigner) Presign(ctx context.Context, key string) (PresignedPost, error) {
	if err := ctx.Err(); err != nil {
		return PresignedPost{}, fmt.Errorf("presign: %w", err)
	}

	if key == "" {
		return PresignedPost{}, fmt.Errorf("presign: %w: key cannot be empty", ErrInvalidInput)
	}

	creds, err := p.creds.Credentials(ctx)
	if err != nil {
		return PresignedPost{}, fmt.Errorf("presign: %w: %w", ErrCredentialsUnavailable, err)
	}

	if creds.AccessKeyID == "" || creds.SecretKey == "" {
		return PresignedPost{}, fmt.Errorf("presign: %w: incomplete key pair", ErrCredentialsUnavailable)
	}

	signingInstant := p.now().UTC()

	scope, err := NewScope(signingInstant, p.region)
	if err != nil {
		return PresignedPost{}, fmt.Errorf("presign: %w", err)
	}

	var fields FieldList
	required := []Field{
		{Name: FieldBucket, Value: p.cfg.Bucket},
		{Name: FieldKey, Value: key},
		{Name: FieldAlgorithm, Value: SignatureAlgorithm},
		{Name: FieldCredential, Value: scope.Credential(creds.AccessKeyID)},
		{Name: FieldDate, Value: signingInstant.Format(DateTimeFormat)},
	}
	if p.includeSessionToken && creds.SessionToken != "" {
		required = append(required, Field{Name: FieldSecurityToken, Value: creds.SessionToken})
	}
	for _, f := range required {
		if err := fields.Add(f.Name, f.Value); err != nil {
			return PresignedPost{}, fmt.Errorf("presign: %w", err)
		}
	}

	expiresAt := signingInstant.Add(p.cfg.Expiration())

	policy, err := NewPolicy(expiresAt, fields.Fields(), p.cfg.ContentLengthMin, p.cfg.ContentLengthMax)
	if err != nil {
		return PresignedPost{}, fmt.Errorf("presign: %w", err)
	}

	encoded, err := policy.Encode()
	if err != nil {
		return PresignedPost{}, fmt.Errorf("presign: %w", err)
	}

	signingKey := DeriveSigningKey(creds.SecretKey, scope)
	signature := SignPolicy(signingKey, encoded.Base64)

	out, err := fields.Map(
		Field{Name: FieldPolicy, Value: encoded.Base64},
		Field{Name: FieldSignature, Value: signature},
	)
	if err != nil {
		return PresignedPost{}, fmt.Errorf("presign: %w", err)
	}

	return PresignedPost{
		url:       p.endpoint,
		fields:    out,
		expiresAt: expiresAt,
	}, nil
}
