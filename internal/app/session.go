package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/swag-kart/internal/domain/cart"
	"github.com/xenking/swag-kart/internal/domain/catalog"
	"github.com/xenking/swag-kart/internal/domain/quote"
)

// ErrItemUnavailable is returned when adding an item that is inactive or out
// of stock.
var ErrItemUnavailable = errors.New("item is not available")

// InvalidVariantError indicates a color or size the item does not offer.
type InvalidVariantError struct {
	ItemID int
	Kind   string
	Value  string
}

func (e *InvalidVariantError) Error() string {
	return fmt.Sprintf("item %d has no %s %q", e.ItemID, e.Kind, e.Value)
}

// AddRequest describes an item to add to the cart.
type AddRequest struct {
	ItemID   int
	Quantity int
	Color    string
	Size     string
}

// Session is the entry point for a single cart: it validates requests against
// the catalog, applies them to the store, and keeps the saved copy current.
type Session struct {
	lg        *zap.Logger
	slot      string
	catalog   *catalog.Catalog
	store     *cart.Store
	storage   cart.Storage
	saver     *autosaver
	quoteOpts quote.DocumentOptions
	tracer    trace.Tracer
	commands  metric.Int64Counter

	mu       sync.Mutex
	warnings []string
}

type sessionParams struct {
	Logger    *zap.Logger
	Slot      string
	Catalog   *catalog.Catalog
	Storage   cart.Storage
	QuoteOpts quote.DocumentOptions
	Timeout   time.Duration
	Tracer    trace.Tracer
	Meter     metric.Meter
}

func newSession(ctx context.Context, p sessionParams) (*Session, error) {
	commands, err := p.Meter.Int64Counter("cart.commands",
		metric.WithDescription("Cart commands applied"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create commands counter")
	}
	failures, err := p.Meter.Int64Counter("cart.autosave.failures",
		metric.WithDescription("Failed background cart saves"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create autosave failures counter")
	}

	s := &Session{
		lg:        p.Logger,
		slot:      p.Slot,
		catalog:   p.Catalog,
		store:     cart.NewStore(),
		storage:   p.Storage,
		quoteOpts: p.QuoteOpts,
		tracer:    p.Tracer,
		commands:  commands,
	}

	s.restore(ctx)

	s.saver = newAutosaver(ctx, p.Logger, p.Storage, p.Slot, p.Timeout, failures)
	s.store.Subscribe(s.onCommand)
	return s, nil
}

// restore loads the saved cart. Anything that prevents a clean load leaves
// the cart empty and records a warning.
func (s *Session) restore(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "cart.Restore", trace.WithAttributes(attribute.String("cart.slot", s.slot)))
	defer span.End()

	lines, err := s.storage.Load(ctx, s.slot)
	if err == nil {
		err = cart.ValidateLines(lines)
	}
	switch {
	case err == nil:
		st := s.store.LoadFrom(lines)
		s.lg.Info("Cart restored",
			zap.String("slot", s.slot),
			zap.Int("lines", len(st.Lines)),
			zap.Int("total_items", st.TotalItems),
		)
	case errors.Is(err, cart.ErrNoSavedCart):
		s.lg.Debug("No saved cart", zap.String("slot", s.slot))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.lg.Warn("Discarding saved cart", zap.String("slot", s.slot), zap.Error(err))
		s.addWarning(fmt.Sprintf("saved cart could not be restored: %v", err))
	}
}

func (s *Session) onCommand(cmd cart.Command, next cart.State) {
	s.commands.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", cmd.Name())))
	s.saver.Enqueue(next.Lines)
}

func (s *Session) addWarning(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.warnings = append(s.warnings, msg)
}

// Warnings returns problems met while restoring the cart.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.warnings)
}

// Add validates req against the catalog and adds the item to the cart.
func (s *Session) Add(ctx context.Context, req AddRequest) (cart.State, error) {
	item, err := s.catalog.Get(req.ItemID)
	if err != nil {
		return cart.State{}, err
	}
	if !item.Available() {
		return cart.State{}, errors.Wrapf(ErrItemUnavailable, "item %d", item.ID)
	}
	if req.Quantity <= 0 {
		return cart.State{}, &cart.InvalidQuantityError{ItemID: item.ID, Quantity: req.Quantity}
	}
	if !item.HasColor(req.Color) {
		return cart.State{}, &InvalidVariantError{ItemID: item.ID, Kind: "color", Value: req.Color}
	}
	if !item.HasSize(req.Size) {
		return cart.State{}, &InvalidVariantError{ItemID: item.ID, Kind: "size", Value: req.Size}
	}

	st, err := s.store.AddItem(item, req.Quantity, req.Color, req.Size)
	if err != nil {
		return cart.State{}, err
	}
	s.lg.Debug("Item added",
		zap.Int("item_id", item.ID),
		zap.Int("quantity", req.Quantity),
		zap.Int("total_items", st.TotalItems),
	)
	return st, nil
}

// UpdateQuantity sets the quantity of every line for itemID. A quantity of
// zero or less removes them.
func (s *Session) UpdateQuantity(_ context.Context, itemID, quantity int) cart.State {
	return s.store.UpdateQuantity(itemID, quantity)
}

// Remove drops every line for itemID.
func (s *Session) Remove(_ context.Context, itemID int) cart.State {
	return s.store.RemoveItem(itemID)
}

// Clear empties the cart.
func (s *Session) Clear(context.Context) cart.State {
	return s.store.Clear()
}

// Cart returns the current cart.
func (s *Session) Cart() cart.State {
	return s.store.Snapshot()
}

// Quote prices the current cart.
func (s *Session) Quote() quote.Breakdown {
	return quote.Calculate(s.store.Snapshot())
}

// Catalog returns the catalog the session validates against.
func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

// ExportQuote renders a quote for company from the current cart into w.
func (s *Session) ExportQuote(ctx context.Context, company quote.Company, w io.Writer) (_ *quote.Document, rerr error) {
	_, span := s.tracer.Start(ctx, "quote.Export")
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	doc, err := quote.NewDocument(s.store.Snapshot(), company, s.quoteOpts)
	if err != nil {
		return nil, err
	}
	if _, err := doc.WriteTo(w); err != nil {
		return nil, errors.Wrap(err, "write quote")
	}

	s.lg.Info("Quote exported",
		zap.String("reference", doc.Reference),
		zap.String("company", doc.Company.Name),
		zap.Int("total_items", doc.Breakdown.TotalItems),
		zap.String("final_total", doc.Breakdown.FinalTotal.StringFixed(0)),
	)
	return doc, nil
}

// Close flushes the pending save.
func (s *Session) Close() error {
	s.saver.Close()
	if err := s.saver.LastError(); err != nil {
		return errors.Wrap(err, "final save")
	}
	return nil
}
