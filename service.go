package postsign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SlipRepo defines the interface for the ledger of issued presigned posts.
// Implementations must be safe for concurrent use.
type SlipRepo interface {
	// Record stores a newly issued slip.
	//
	// Returns:
	//   - error: ErrInvalidInput if a slip with the same key exists, or other database errors
	Record(ctx context.Context, slip Slip) error

	// Get retrieves a slip by ID.
	//
	// Returns:
	//   - error: ErrNotFound if the slip doesn't exist, or other database errors
	Get(ctx context.Context, id uuid.UUID) (Slip, error)

	// List retrieves a page of slips ordered by creation time, optionally filtered
	// by key prefix.
	List(ctx context.Context, q ListQuery) (SlipList, error)

	// DeleteExpired removes up to limit slips whose expiration is before the given
	// instant and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// PostSigner produces presigned posts for one bucket. *Presigner implements it.
type PostSigner interface {
	Presign(ctx context.Context, key string) (PresignedPost, error)
	Bucket() string
}

// ServiceConfig holds configuration options for SlipService.
type ServiceConfig struct {
	KeyPrefix string
	Now       func() time.Time
}

// IssuedSlip pairs a presigned post with its ledger record.
type IssuedSlip struct {
	Slip Slip
	Post PresignedPost
}

// SlipService issues presigned posts under server-generated keys and records each
// one in the ledger.
type SlipService struct {
	signer    PostSigner
	repo      SlipRepo
	keyPrefix string
	now       func() time.Time
}

func NewSlipService(signer PostSigner, repo SlipRepo, cfg ServiceConfig) (*SlipService, error) {
	if signer == nil {
		return nil, fmt.Errorf("new slip service: %w: signer is required", ErrConfiguration)
	}
	if repo == nil {
		return nil, fmt.Errorf("new slip service: %w: repo is required", ErrConfiguration)
	}
	if !IsValidKeyPrefix(cfg.KeyPrefix) {
		return nil, fmt.Errorf("new slip service: %w: invalid key prefix %q", ErrConfiguration, cfg.KeyPrefix)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &SlipService{
		signer:    signer,
		repo:      repo,
		keyPrefix: cfg.KeyPrefix,
		now:       now,
	}, nil
}

// Issue generates a fresh object key ({prefix}{uuid}), presigns it and records the slip.
// Nothing is returned to the caller if recording fails.
func (s *SlipService) Issue(ctx context.Context) (IssuedSlip, error) {
	if err := ctx.Err(); err != nil {
		return IssuedSlip{}, fmt.Errorf("issue slip: %w", err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return IssuedSlip{}, fmt.Errorf("issue slip: %w: generate id: %w", ErrInternal, err)
	}
	key := s.keyPrefix + id.String()

	post, err := s.signer.Presign(ctx, key)
	if err != nil {
		return IssuedSlip{}, fmt.Errorf("issue slip: %w", err)
	}

	slip := Slip{
		ID:        id,
		Key:       key,
		Bucket:    s.signer.Bucket(),
		ExpiresAt: post.ExpiresAt(),
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Record(ctx, slip); err != nil {
		return IssuedSlip{}, fmt.Errorf("issue slip: %w", err)
	}

	slog.Debug("issued upload slip", "id", slip.ID, "key", slip.Key, "expires_at", slip.ExpiresAt)

	return IssuedSlip{Slip: slip, Post: post}, nil
}

// Get returns a recorded slip.
func (s *SlipService) Get(ctx context.Context, id uuid.UUID) (Slip, error) {
	slip, err := s.repo.Get(ctx, id)
	if err != nil {
		return Slip{}, fmt.Errorf("get slip: %w", err)
	}
	return slip, nil
}

// List returns a page of recorded slips.
func (s *SlipService) List(ctx context.Context, q ListQuery) (SlipList, error) {
	if q.Limit <= 0 {
		return SlipList{}, fmt.Errorf("list slips: %w: limit must be positive", ErrInvalidInput)
	}

	result, err := s.repo.List(ctx, q)
	if err != nil {
		return SlipList{}, fmt.Errorf("list slips: %w", err)
	}
	return result, nil
}

// Purge deletes slips that expired before the given instant. See PurgeExpired.
func (s *SlipService) Purge(ctx context.Context, before time.Time, batch int) (int, error) {
	return PurgeExpired(ctx, s.repo, before, batch)
}

// PurgeExpired deletes slips that expired before the given instant, batch at a
// time, until a short batch signals there is nothing left. Returns the total removed.
func PurgeExpired(ctx context.Context, repo SlipRepo, before time.Time, batch int) (int, error) {
	if batch <= 0 {
		return 0, fmt.Errorf("purge slips: %w: batch must be positive", ErrInvalidInput)
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("purge slips: %w", err)
		}

		n, err := repo.DeleteExpired(ctx, before, batch)
		if err != nil {
			return total, fmt.Errorf("purge slips: %w", err)
		}

		total += n
		if n < batch {
			slog.Debug("purged expired slips", "before", before, "removed", total)
			return total, nil
		}
	}
}
