// Package postgres implements cart storage backed by PostgreSQL.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/swag-kart/internal/domain/cart"
)

var _ cart.Storage = (*CartRepository)(nil)

const (
	loadCartSQL = `SELECT lines::text FROM cart_slots WHERE slot = $1`

	saveCartSQL = `INSERT INTO cart_slots (slot, lines, total_items, total_price, updated_at)
VALUES ($1, $2::jsonb, $3, $4, now())
ON CONFLICT (slot) DO UPDATE SET
    lines = EXCLUDED.lines,
    total_items = EXCLUDED.total_items,
    total_price = EXCLUDED.total_price,
    updated_at = EXCLUDED.updated_at`
)

// Option configures a CartRepository.
type Option func(*CartRepository)

// WithTracerProvider sets the provider used for repository spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *CartRepository) {
		if tp != nil {
			r.tracer = tp.Tracer("github.com/xenking/swag-kart/internal/storage/postgres")
		}
	}
}

// CartRepository implements cart.Storage backed by PostgreSQL. Lines are kept
// as JSONB in the same wire format the other backends use; totals are stored
// alongside for reporting.
type CartRepository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool, opts ...Option) *CartRepository {
	r := &CartRepository{pool: pool}
	WithTracerProvider(otel.GetTracerProvider())(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the lines saved under slot, or cart.ErrNoSavedCart.
func (r *CartRepository) Load(ctx context.Context, slot string) (_ []cart.LineItem, rerr error) {
	ctx, span := r.tracer.Start(ctx, "cart.Load", trace.WithAttributes(attribute.String("cart.slot", slot)))
	defer func() { endSpan(span, rerr) }()

	var raw string
	if err := r.pool.QueryRow(ctx, loadCartSQL, slot).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoSavedCart
		}
		return nil, errors.Wrapf(err, "load cart slot %q", slot)
	}

	return cart.DecodeLines([]byte(raw))
}

// Save upserts lines into slot.
func (r *CartRepository) Save(ctx context.Context, slot string, lines []cart.LineItem) (rerr error) {
	ctx, span := r.tracer.Start(ctx, "cart.Save", trace.WithAttributes(
		attribute.String("cart.slot", slot),
		attribute.Int("cart.lines", len(lines)),
	))
	defer func() { endSpan(span, rerr) }()

	s := cart.NewState(lines)
	if _, err := r.pool.Exec(ctx, saveCartSQL, slot, string(cart.EncodeLines(lines)), s.TotalItems, s.TotalPrice); err != nil {
		return errors.Wrapf(err, "save cart slot %q", slot)
	}
	return nil
}

// Ping checks database connectivity.
func (r *CartRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, cart.ErrNoSavedCart) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
