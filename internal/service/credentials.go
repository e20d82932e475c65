package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// CredentialManager hashes and verifies link passwords with bcrypt.
// At most concurrency computations run at once; callers beyond that wait
// for a slot or give up when their context ends.
type CredentialManager struct {
	cost    int
	slots   *semaphore.Weighted
	metrics *serviceMetrics
}

func NewCredentialManager(cost, concurrency int, metrics *serviceMetrics) *CredentialManager {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CredentialManager{
		cost:    cost,
		slots:   semaphore.NewWeighted(int64(concurrency)),
		metrics: metrics,
	}
}

// Hash returns a salted bcrypt hash; hashing the same input twice yields different values.
func (m *CredentialManager) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", invalid(FieldPassword, ErrPasswordTooLong)
	}

	if err := m.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer m.slots.Release(1)

	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), m.cost)
	m.metrics.recordCredential(ctx, "hash", time.Since(start))
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether plaintext matches hash.
func (m *CredentialManager) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if len(plaintext) > maxPasswordBytes {
		return false, nil
	}

	if err := m.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer m.slots.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	m.metrics.recordCredential(ctx, "verify", time.Since(start))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
