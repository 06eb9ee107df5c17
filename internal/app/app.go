package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/swag-kart/internal/domain/cart"
	"github.com/xenking/swag-kart/internal/domain/catalog"
	"github.com/xenking/swag-kart/internal/domain/quote"
	"github.com/xenking/swag-kart/internal/storage/catalogfile"
	"github.com/xenking/swag-kart/internal/storage/file"
	"github.com/xenking/swag-kart/internal/storage/memory"
	"github.com/xenking/swag-kart/internal/storage/postgres"
	"github.com/xenking/swag-kart/pkg/health"
)

const instrumentationName = "github.com/xenking/swag-kart/internal/app"

// Option overrides a dependency of App.
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	storage        cart.Storage
	catalog        *catalog.Catalog
	now            func() time.Time
}

// WithTracerProvider sets the tracer provider. Defaults to the otel global.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the otel global.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithStorage replaces the configured storage backend.
func WithStorage(s cart.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithCatalog replaces the configured catalog files.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithClock sets the clock used for quote dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// App owns the session and everything it depends on.
type App struct {
	Session *Session
	Health  *health.Health

	lg      *zap.Logger
	closers []func()
}

// Open creates all dependencies, restores the saved cart, and starts
// background work. It is the single wiring point for the application; Close
// releases everything Open acquired.
func Open(ctx context.Context, lg *zap.Logger, cfg *Config, opts ...Option) (_ *App, rerr error) {
	o := options{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx = zctx.Base(ctx, lg)
	a := &App{lg: lg}
	defer func() {
		if rerr != nil {
			a.runClosers()
		}
	}()

	lg.Info("Initializing",
		zap.String("slot", cfg.Slot),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("catalog_files", len(cfg.Catalog.Files)),
	)

	cat := o.catalog
	if cat == nil {
		var err error
		if cat, err = catalogfile.Open(ctx, cfg.Catalog.Files...); err != nil {
			return nil, errors.Wrap(err, "load catalog")
		}
	}

	storage := o.storage
	if storage == nil {
		var err error
		if storage, err = a.openStorage(ctx, cfg, o); err != nil {
			return nil, errors.Wrap(err, "open storage")
		}
	}

	session, err := newSession(ctx, sessionParams{
		Logger:  lg.Named("session"),
		Slot:    cfg.Slot,
		Catalog: cat,
		Storage: storage,
		QuoteOpts: quote.DocumentOptions{
			Issuer:   cfg.Quote.Issuer,
			Phone:    cfg.Quote.Phone,
			ValidFor: cfg.Quote.ValidFor,
			Now:      o.now,
		},
		Timeout: cfg.Autosave.Timeout,
		Tracer:  o.tracerProvider.Tracer(instrumentationName),
		Meter:   o.meterProvider.Meter(instrumentationName),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	a.Session = session

	// Health checks.
	h := health.New()
	if p, ok := storage.(health.Pinger); ok {
		h.AddReadinessCheck("storage", cfg.Autosave.Timeout, health.PingCheck(p))
	}
	h.AddReadinessCheck("autosave", time.Second, health.ErrorCheck(session.saver.LastError))
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(cfg.Health.MaxGoroutines))
	h.Start(context.WithoutCancel(ctx), cfg.Health.Interval)
	h.SetReady(true)
	a.Health = h

	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg *Config, o options) (cart.Storage, error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverFile:
		return file.New(cfg.Storage.Dir), nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		a.closers = append(a.closers, pool.Close)

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewCartRepository(pool, postgres.WithTracerProvider(o.tracerProvider)), nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close stops health checks, flushes the pending save, and releases storage.
// The returned error reports a failed final save.
func (a *App) Close() error {
	if a.Health != nil {
		a.Health.SetReady(false)
	}

	var err error
	if a.Session != nil {
		err = a.Session.Close()
		if err != nil {
			a.lg.Error("Final save failed", zap.Error(err))
		}
	}

	if a.Health != nil {
		a.Health.Stop()
	}
	a.runClosers()
	a.lg.Info("Closed")
	return err
}

func (a *App) runClosers() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
