// Package catalogfile loads catalog items from JSON files.
//
// Each file holds a JSON array of items. Files ending in ".gz" are
// decompressed on the fly.
package catalogfile

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/swag-kart/internal/domain/catalog"
)

type priceBreakJSON struct {
	MinQty int             `json:"minQty"`
	Price  decimal.Decimal `json:"price"`
}

type itemJSON struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	SKU         string           `json:"sku"`
	Category    string           `json:"category"`
	Supplier    string           `json:"supplier"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	BasePrice   decimal.Decimal  `json:"basePrice"`
	Stock       int              `json:"stock"`
	Status      string           `json:"status"`
	PriceBreaks []priceBreakJSON `json:"priceBreaks"`
	Colors      []string         `json:"colors"`
	Sizes       []string         `json:"sizes"`
	Features    []string         `json:"features"`
}

func (j itemJSON) toItem() catalog.Item {
	item := catalog.Item{
		ID:          j.ID,
		Name:        j.Name,
		SKU:         j.SKU,
		Category:    j.Category,
		Supplier:    j.Supplier,
		Description: j.Description,
		Image:       j.Image,
		BasePrice:   j.BasePrice,
		Stock:       j.Stock,
		Status:      catalog.Status(j.Status),
		Colors:      j.Colors,
		Sizes:       j.Sizes,
		Features:    j.Features,
	}
	if item.Status == "" {
		item.Status = catalog.StatusActive
	}
	for _, pb := range j.PriceBreaks {
		item.PriceBreaks = append(item.PriceBreaks, catalog.PriceBreak{MinQty: pb.MinQty, Price: pb.Price})
	}
	return item
}

// Load reads items from paths concurrently and returns them in path order.
func Load(ctx context.Context, paths ...string) ([]catalog.Item, error) {
	lg := zctx.From(ctx)
	perFile := make([][]catalog.Item, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items, err := ReadFile(path)
			if err != nil {
				return err
			}
			lg.Debug("Loaded catalog file", zap.String("path", path), zap.Int("items", len(items)))
			perFile[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []catalog.Item
	for _, chunk := range perFile {
		items = append(items, chunk...)
	}
	lg.Info("Catalog loaded", zap.Int("files", len(paths)), zap.Int("items", len(items)))
	return items, nil
}

// Open loads paths and builds a catalog from them.
func Open(ctx context.Context, paths ...string) (*catalog.Catalog, error) {
	items, err := Load(ctx, paths...)
	if err != nil {
		return nil, err
	}
	c, err := catalog.New(items)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog")
	}
	return c, nil
}

// ReadFile parses a single catalog file.
func ReadFile(path string) ([]catalog.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "gzip %s", path)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	items, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return items, nil
}

// Decode parses a JSON array of items from r.
func Decode(r io.Reader) ([]catalog.Item, error) {
	var raw []itemJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode items")
	}

	items := make([]catalog.Item, 0, len(raw))
	for _, j := range raw {
		items = append(items, j.toItem())
	}
	return items, nil
}
