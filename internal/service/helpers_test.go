package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zhejian/shortcodes/internal/events"
	"github.com/zhejian/shortcodes/internal/model"
	"github.com/zhejian/shortcodes/internal/repository"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/crypto/bcrypt"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.BaseURL = "http://short.test"
	opts.BcryptCost = bcrypt.MinCost
	return opts
}

func newTestService(t *testing.T, repo repository.ShortLinkRepository, options ...Option) *LinkService {
	t.Helper()
	svc, err := NewLinkService(repo, testOptions(), options...)
	require.NoError(t, err)
	return svc
}

func newTestMetrics(t *testing.T) *serviceMetrics {
	t.Helper()
	m, err := newServiceMetrics(noop.NewMeterProvider())
	require.NoError(t, err)
	return m
}

func ptr[T any](v T) *T { return &v }

// sequenceGenerator replays a fixed list of codes, repeating the last one.
type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *sequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}
	g.calls++
	return g.codes[i]
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ShortCodeCreated
	err    error
}

func (p *recordingPublisher) PublishCreated(_ context.Context, e events.ShortCodeCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// blindRepository hides existing records from Exists, simulating a concurrent
// creator that won the race between the uniqueness check and the insert.
type blindRepository struct {
	repository.ShortLinkRepository
}

func (blindRepository) Exists(context.Context, string) (bool, error) { return false, nil }

var errStoreDown = errors.New("connection refused")

// failingRepository fails every call.
type failingRepository struct{}

func (failingRepository) GetByCode(context.Context, string) (*model.ShortLink, error) {
	return nil, errStoreDown
}

func (failingRepository) Exists(context.Context, string) (bool, error) { return false, errStoreDown }

func (failingRepository) Create(context.Context, *model.ShortLink) error { return errStoreDown }

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }
