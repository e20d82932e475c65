package service

import (
	"context"
	"errors"
	"time"

	"github.com/zhejian/shortcodes/internal/model"
	"github.com/zhejian/shortcodes/internal/repository"
)

// Resolver is the read path. It never mutates records: an expired link stays
// stored and keeps reporting ErrExpired.
type Resolver struct {
	repo        repository.ShortLinkRepository
	credentials *CredentialManager
	metrics     *serviceMetrics
	now         func() time.Time
}

// Resolve maps a short code and optional password to its destination.
func (r *Resolver) Resolve(ctx context.Context, req *model.ResolveRequest) (resp *model.DestinationResponse, err error) {
	defer func() { r.metrics.recordOperation(ctx, "resolve", err) }()

	// No stored link can carry an empty or unstorable code
	if req.ShortCode == "" || !storableCode(req.ShortCode) {
		return nil, ErrNotFound
	}

	// 1. Fetch the record by exact code
	link, err := r.repo.GetByCode(ctx, req.ShortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get", err)
	}

	// 2. Check expiration
	if link.IsExpiredAt(r.now()) {
		return nil, ErrExpired
	}

	// 3. Check credentials
	if link.IsProtected() {
		if req.Password == nil {
			return nil, ErrUnauthorized
		}
		ok, err := r.credentials.Verify(ctx, *req.Password, *link.PasswordHash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnauthorized
		}
	}

	return &model.DestinationResponse{Destination: link.Destination}, nil
}
