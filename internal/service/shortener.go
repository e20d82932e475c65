package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zhejian/shortcodes/internal/events"
	"github.com/zhejian/shortcodes/internal/model"
	"github.com/zhejian/shortcodes/internal/repository"
)

// Shortener is the write path: it validates a request, settles on a short
// code, hashes the password and persists the record exactly once.
type Shortener struct {
	repo        repository.ShortLinkRepository
	validator   *Validator
	checker     *UniquenessChecker
	generator   CodeGenerator
	credentials *CredentialManager
	publisher   events.Publisher
	metrics     *serviceMetrics
	logger      *slog.Logger
	maxAttempts int
	baseURL     string
}

// Shorten creates a new short link.
func (s *Shortener) Shorten(ctx context.Context, req *model.ShortenRequest) (resp *model.ShortenResponse, err error) {
	defer func() { s.metrics.recordOperation(ctx, "shorten", err) }()

	// 1. Validate destination
	destination, err := s.validator.ValidateDestination(req.Destination)
	if err != nil {
		return nil, err
	}

	expiresAt, err := ParseExpiration(req.ExpirationDate)
	if err != nil {
		return nil, err
	}

	link := &model.ShortLink{
		Destination:    destination,
		ExpirationDate: expiresAt,
	}

	// 2. Resolve the short code
	custom := req.CustomShortCode != ""
	attempts := 0
	if custom {
		if err := s.validator.ValidateCustomCode(ctx, req.CustomShortCode); err != nil {
			return nil, err
		}
		link.ShortCode = req.CustomShortCode
	} else {
		if link.ShortCode, err = s.allocateCode(ctx, &attempts); err != nil {
			return nil, err
		}
	}

	// 3. Apply credentials
	if req.Password != "" {
		hash, err := s.credentials.Hash(ctx, req.Password)
		if err != nil {
			return nil, err
		}
		link.PasswordHash = &hash
	}

	// 4. Persist; the store's key constraint settles races the pre-check missed
	for {
		err := s.repo.Create(ctx, link)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrCodeConflict) {
			return nil, storeErr("create", err)
		}
		if custom {
			return nil, ErrConflict
		}

		s.logger.DebugContext(ctx, "generated short code lost insert race, retrying",
			slog.String("code", link.ShortCode),
			slog.Int("attempts", attempts))

		if link.ShortCode, err = s.allocateCode(ctx, &attempts); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "short code created",
		slog.String("code", link.ShortCode),
		slog.Bool("custom", custom),
		slog.Bool("protected", link.IsProtected()),
		slog.Bool("expires", link.ExpirationDate != nil))

	s.publishCreated(ctx, link)

	resp = &model.ShortenResponse{
		ShortCode: link.ShortCode,
		ShortURL:  s.baseURL + "/s/" + link.ShortCode,
	}
	if link.ExpirationDate != nil {
		resp.ExpirationDate = link.ExpirationDate.Format(time.RFC3339)
	}

	return resp, nil
}

// allocateCode generates candidates until one is unused, sharing the attempt
// budget across calls for the same request.
func (s *Shortener) allocateCode(ctx context.Context, attempts *int) (string, error) {
	for *attempts < s.maxAttempts {
		*attempts++

		candidate := s.generator.Generate()
		taken, err := s.checker.IsTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	s.logger.WarnContext(ctx, "short code generation exhausted",
		slog.Int("attempts", *attempts))
	return "", ErrExhaustedKeyspace
}

// publishCreated never fails the request: the record is already durable.
func (s *Shortener) publishCreated(ctx context.Context, link *model.ShortLink) {
	event := events.ShortCodeCreated{
		ShortCode:      link.ShortCode,
		Destination:    link.Destination,
		Protected:      link.IsProtected(),
		ExpirationDate: link.ExpirationDate,
		CreatedAt:      link.CreatedAt,
	}

	if err := s.publisher.PublishCreated(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish short code event",
			slog.String("code", link.ShortCode),
			slog.String("error", err.Error()))
	}
}
