package service

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/zhejian/shortcodes/internal/events"
	"github.com/zhejian/shortcodes/internal/model"
	"github.com/zhejian/shortcodes/internal/repository"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/crypto/bcrypt"
)

// Options holds the short code policy.
type Options struct {
	BaseURL             string // Base URL for generating short links
	CodeLength          int
	MaxAttempts         int
	MaxCustomCodeLength int
	BcryptCost          int
	HashConcurrency     int
}

// DefaultOptions returns the default policy: 6 character codes, 20 attempts,
// custom codes up to 255 characters.
func DefaultOptions() Options {
	return Options{
		BaseURL:             "http://localhost:3001",
		CodeLength:          6,
		MaxAttempts:         20,
		MaxCustomCodeLength: 255,
		BcryptCost:          bcrypt.DefaultCost,
		HashConcurrency:     runtime.GOMAXPROCS(0),
	}
}

// LinkServiceInterface defines the contract for the write and read paths
type LinkServiceInterface interface {
	Shorten(ctx context.Context, req *model.ShortenRequest) (*model.ShortenResponse, error)
	Resolve(ctx context.Context, req *model.ResolveRequest) (*model.DestinationResponse, error)
}

// Option customizes collaborators of a LinkService.
type Option func(*settings)

type settings struct {
	publisher     events.Publisher
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	generator     CodeGenerator
	now           func() time.Time
}

func WithPublisher(p events.Publisher) Option { return func(s *settings) { s.publisher = p } }

func WithLogger(l *slog.Logger) Option { return func(s *settings) { s.logger = l } }

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *settings) { s.meterProvider = mp }
}

func WithCodeGenerator(g CodeGenerator) Option { return func(s *settings) { s.generator = g } }

func WithClock(now func() time.Time) Option { return func(s *settings) { s.now = now } }

// LinkService composes the Shortener and the Resolver over one repository.
// It holds no mutable state of its own and is safe for concurrent use.
type LinkService struct {
	shortener *Shortener
	resolver  *Resolver
}

// NewLinkService wires the service components
func NewLinkService(repo repository.ShortLinkRepository, opts Options, options ...Option) (*LinkService, error) {
	if opts.MaxAttempts < 1 {
		return nil, errors.New("max attempts must be at least 1")
	}
	if opts.MaxCustomCodeLength < 1 {
		return nil, errors.New("max custom code length must be at least 1")
	}

	s := settings{
		publisher:     events.NoopPublisher{},
		logger:        slog.Default(),
		meterProvider: noop.NewMeterProvider(),
		now:           time.Now,
	}
	for _, o := range options {
		o(&s)
	}

	metrics, err := newServiceMetrics(s.meterProvider)
	if err != nil {
		return nil, err
	}

	generator := s.generator
	if generator == nil {
		g, err := NewRandomCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}
		generator = g
	}

	checker := NewUniquenessChecker(repo)
	credentials := NewCredentialManager(opts.BcryptCost, opts.HashConcurrency, metrics)

	return &LinkService{
		shortener: &Shortener{
			repo:        repo,
			validator:   NewValidator(checker, opts.MaxCustomCodeLength),
			checker:     checker,
			generator:   generator,
			credentials: credentials,
			publisher:   s.publisher,
			metrics:     metrics,
			logger:      s.logger,
			maxAttempts: opts.MaxAttempts,
			baseURL:     opts.BaseURL,
		},
		resolver: &Resolver{
			repo:        repo,
			credentials: credentials,
			metrics:     metrics,
			now:         s.now,
		},
	}, nil
}

func (s *LinkService) Shorten(ctx context.Context, req *model.ShortenRequest) (*model.ShortenResponse, error) {
	return s.shortener.Shorten(ctx, req)
}

func (s *LinkService) Resolve(ctx context.Context, req *model.ResolveRequest) (*model.DestinationResponse, error) {
	return s.resolver.Resolve(ctx, req)
}

// Ensure LinkService implements LinkServiceInterface at compile time
var _ LinkServiceInterface = (*LinkService)(nil)
