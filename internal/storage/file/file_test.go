package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/swag-kart/internal/domain/cart"
	"github.com/xenking/swag-kart/internal/domain/catalog"
)

func testLines() []cart.LineItem {
	return []cart.LineItem{
		{
			Item:      catalog.Item{ID: 1, Name: "Pen", SKU: "PEN", BasePrice: decimal.NewFromInt(5), Status: catalog.StatusActive},
			Quantity:  3,
			UnitPrice: decimal.NewFromInt(5),
			LineTotal: decimal.NewFromInt(15),
		},
		{
			Item:      catalog.Item{ID: 2, Name: "Cap", SKU: "CAP", BasePrice: decimal.NewFromInt(40), Status: catalog.StatusActive},
			Quantity:  1,
			Color:     "navy",
			UnitPrice: decimal.NewFromInt(40),
			LineTotal: decimal.NewFromInt(40),
		},
	}
}

func TestStorage_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "carts")
	s := New(dir)

	require.NoError(t, s.Save(ctx, "swag-cart", testLines()))

	got, err := s.Load(ctx, "swag-cart")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cap", got[1].Name)
	assert.Equal(t, "navy", got[1].Color)

	// Overwrite leaves no temp files behind.
	require.NoError(t, s.Save(ctx, "swag-cart", testLines()[:1]))
	got, err = s.Load(ctx, "swag-cart")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "swag-cart.json", entries[0].Name())
}

func TestStorage_LoadMissing(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Load(context.Background(), "swag-cart")
	require.ErrorIs(t, err, cart.ErrNoSavedCart)
}

func TestStorage_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swag-cart.json"), []byte("[{]"), 0o600))

	_, err := New(dir).Load(context.Background(), "swag-cart")

	var cErr *cart.CorruptCartError
	require.ErrorAs(t, err, &cErr)
}

func TestStorage_InvalidSlot(t *testing.T) {
	s := New(t.TempDir())

	for _, slot := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := s.Path(slot)
		assert.Error(t, err, slot)
		assert.Error(t, s.Save(context.Background(), slot, nil), slot)
	}
}

func TestStorage_Ping(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, New(filepath.Join(dir, "carts")).Ping(context.Background()))

	notDir := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o600))
	assert.Error(t, New(notDir).Ping(context.Background()))
}
