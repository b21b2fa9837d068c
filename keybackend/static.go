// Package keybackend provides the credential and region providers the presigner
// signs with: a static key pair, a JSON credentials file, or the AWS default chain.
package keybackend

import (
	"context"
	"fmt"

	"github.com/sagarc03/postsign"
)

// StaticProvider returns the same key pair on every call.
// Suitable for tests and for configuration file-based credentials.
type StaticProvider struct {
	creds postsign.Credentials
}

// NewStaticProvider creates a provider for a fixed key pair.
func NewStaticProvider(accessKeyID, secretKey, sessionToken string) *StaticProvider {
	return &StaticProvider{creds: postsign.Credentials{
		AccessKeyID:  accessKeyID,
		SecretKey:    secretKey,
		SessionToken: sessionToken,
	}}
}

// Credentials returns the configured key pair, or ErrCredentialsUnavailable if
// either half is missing.
func (p *StaticProvider) Credentials(_ context.Context) (postsign.Credentials, error) {
	if p.creds.AccessKeyID == "" || p.creds.SecretKey == "" {
		return postsign.Credentials{}, fmt.Errorf("static credentials: %w: access key id and secret are required", postsign.ErrCredentialsUnavailable)
	}
	return p.creds, nil
}

// StaticRegion is a RegionProvider for a fixed region.
type StaticRegion string

// Region returns the region, or ErrConfiguration when it is empty.
func (r StaticRegion) Region(_ context.Context) (string, error) {
	if r == "" {
		return "", fmt.Errorf("static region: %w: region is not set", postsign.ErrConfiguration)
	}
	return string(r), nil
}
