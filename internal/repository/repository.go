package repository

import (
	"context"
	"errors"

	"github.com/zhejian/shortcodes/internal/model"
	"go.opentelemetry.io/otel"
)

var (
	ErrNotFound     = errors.New("short code not found")
	ErrCodeConflict = errors.New("short code already exists")
)

var tracer = otel.Tracer("github.com/zhejian/shortcodes/internal/repository")

// ShortLinkRepository is the durable store consumed by the service layer.
// Implementations must make Create atomic per short code and return
// ErrCodeConflict instead of overwriting an existing record.
type ShortLinkRepository interface {
	GetByCode(ctx context.Context, code string) (*model.ShortLink, error)
	Exists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, link *model.ShortLink) error
}
