package keybackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/postsign"
)

// AWSProvider adapts an SDK credentials provider to postsign.CredentialsProvider.
// Retrieval goes through aws.CredentialsCache, so refreshable credentials (SSO,
// instance roles, assumed roles) are fetched once and renewed shortly before expiry.
type AWSProvider struct {
	cache *aws.CredentialsCache
}

// NewAWSProvider wraps p in a credentials cache.
func NewAWSProvider(p aws.CredentialsProvider) *AWSProvider {
	if cache, ok := p.(*aws.CredentialsCache); ok {
		return &AWSProvider{cache: cache}
	}
	return &AWSProvider{cache: aws.NewCredentialsCache(p)}
}

// Credentials resolves the current key pair. Every failure wraps
// postsign.ErrCredentialsUnavailable.
func (p *AWSProvider) Credentials(ctx context.Context) (postsign.Credentials, error) {
	v, err := p.cache.Retrieve(ctx)
	if err != nil {
		return postsign.Credentials{}, fmt.Errorf("aws credentials: %w: %s", postsign.ErrCredentialsUnavailable, describe(err))
	}

	if !v.HasKeys() {
		return postsign.Credentials{}, fmt.Errorf("aws credentials: %w: provider %q returned no keys", postsign.ErrCredentialsUnavailable, v.Source)
	}

	slog.Debug("resolved aws credentials", "source", v.Source, "can_expire", v.CanExpire)

	return postsign.Credentials{
		AccessKeyID:  v.AccessKeyID,
		SecretKey:    v.SecretAccessKey,
		SessionToken: v.SessionToken,
	}, nil
}

func describe(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}
