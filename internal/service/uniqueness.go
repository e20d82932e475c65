package service

import (
	"context"

	"github.com/zhejian/shortcodes/internal/repository"
)

// UniquenessChecker answers whether a short code is already in use.
// Expired records keep their code: the namespace is never recycled.
// The answer is advisory; the store's key constraint has the final word.
type UniquenessChecker struct {
	repo repository.ShortLinkRepository
}

func NewUniquenessChecker(repo repository.ShortLinkRepository) *UniquenessChecker {
	return &UniquenessChecker{repo: repo}
}

func (c *UniquenessChecker) IsTaken(ctx context.Context, code string) (bool, error) {
	taken, err := c.repo.Exists(ctx, code)
	if err != nil {
		return false, storeErr("exists", err)
	}
	return taken, nil
}
