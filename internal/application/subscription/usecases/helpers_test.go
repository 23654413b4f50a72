package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/infrastructure/migration"
	"github.com/tillpoint/tillpoint/internal/infrastructure/repository"
	"github.com/tillpoint/tillpoint/internal/shared/db"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	subRepo     subscription.SubscriptionRepository
	tenantRepo  tenant.Repository
	txManager   *db.TransactionManager
	publisher   *recordingPublisher
	checkpoints *memoryCheckpointStore
	observer    *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(migration.Models()...))

	log := logger.NewNopLogger()
	return &fixture{
		db:          database,
		subRepo:     repository.NewSubscriptionRepository(database, log),
		tenantRepo:  repository.NewTenantRepository(database, log),
		txManager:   db.NewTransactionManager(database),
		publisher:   &recordingPublisher{},
		checkpoints: &memoryCheckpointStore{},
		observer:    &recordingObserver{},
	}
}

func (f *fixture) sweeper(opts usecases.SweepOptions) *usecases.ReconcileSubscriptionsUseCase {
	return f.sweeperWith(f.subRepo, f.tenantRepo, opts)
}

func (f *fixture) sweeperWith(subRepo subscription.SubscriptionRepository, tenantRepo tenant.Repository, opts usecases.SweepOptions) *usecases.ReconcileSubscriptionsUseCase {
	return usecases.NewReconcileSubscriptionsUseCase(
		subRepo,
		tenantRepo,
		f.txManager,
		subscription.DefaultLifecyclePolicy(),
		f.publisher,
		f.checkpoints,
		f.observer,
		opts,
		logger.NewNopLogger(),
	)
}

// seed creates a tenant whose mirror already matches its new subscription.
func (f *fixture) seed(t *testing.T, tenantID string, cycle vo.BillingCycle, status vo.SubscriptionStatus, start, end time.Time) *subscription.Subscription {
	t.Helper()
	ctx := context.Background()

	sub, err := subscription.NewSubscription(tenantID, "pro", cycle, status, start, end, "29.00", start)
	require.NoError(t, err)
	require.NoError(t, f.subRepo.Create(ctx, sub))

	tn, err := tenant.NewTenant(tenantID, "Shop "+tenantID, start)
	require.NoError(t, err)
	tn.SyncSubscriptionStatus(status, start)
	require.NoError(t, f.tenantRepo.Create(ctx, tn))
	return sub
}

func (f *fixture) subscription(t *testing.T, id uint) *subscription.Subscription {
	t.Helper()
	sub, err := f.subRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func (f *fixture) tenant(t *testing.T, id string) *tenant.Tenant {
	t.Helper()
	tn, err := f.tenantRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, tn)
	return tn
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*subscription.StatusChangedEvent
	err    error
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, event *subscription.StatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []*subscription.StatusChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*subscription.StatusChangedEvent(nil), p.events...)
}

type memoryCheckpointStore struct {
	mu      sync.Mutex
	current *usecases.SweepCheckpoint
	saved   []usecases.SweepCheckpoint
	cleared int
}

func (s *memoryCheckpointStore) Load(context.Context) (*usecases.SweepCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, nil
	}
	cp := *s.current
	return &cp, nil
}

func (s *memoryCheckpointStore) Save(_ context.Context, cp usecases.SweepCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &cp
	s.saved = append(s.saved, cp)
	return nil
}

func (s *memoryCheckpointStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.cleared++
	return nil
}

type recordingObserver struct {
	mu        sync.Mutex
	completed []*usecases.SweepSummary
	failed    []error
}

func (o *recordingObserver) SweepCompleted(summary *usecases.SweepSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, summary)
}

func (o *recordingObserver) SweepFailed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, err)
}

var errInjected = errors.New("injected failure")

// failingTenantRepo rejects updates for the listed tenants.
type failingTenantRepo struct {
	tenant.Repository
	failFor map[string]bool
}

func (r *failingTenantRepo) Update(ctx context.Context, t *tenant.Tenant) error {
	if r.failFor[t.ID()] {
		return errInjected
	}
	return r.Repository.Update(ctx, t)
}

// brokenListingRepo fails every page listing.
type brokenListingRepo struct {
	subscription.SubscriptionRepository
}

func (r *brokenListingRepo) ListNonTerminal(context.Context, uint, int) ([]*subscription.Subscription, error) {
	return nil, errInjected
}

// stubSweepLock hands out a single lease and counts releases.
type stubSweepLock struct {
	mu       sync.Mutex
	held     bool
	err      error
	released int
}

func (l *stubSweepLock) TryAcquire(context.Context) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.released++
	}, true, nil
}

// gatedCheckpointStore parks Load until release is closed.
type gatedCheckpointStore struct {
	memoryCheckpointStore
	loading chan struct{}
	release chan struct{}
}

func (s *gatedCheckpointStore) Load(ctx context.Context) (*usecases.SweepCheckpoint, error) {
	close(s.loading)
	<-s.release
	return s.memoryCheckpointStore.Load(ctx)
}
