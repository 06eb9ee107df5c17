package cart

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/swag-kart/internal/domain/catalog"
)

// EncodeLines serializes lines as a JSON array of flat line records, the
// format the storefront keeps in its storage slot.
func EncodeLines(lines []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		encodeLine(&e, l)
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeLine(e *jx.Encoder, l LineItem) {
	e.ObjStart()

	e.FieldStart("id")
	e.Int(l.ID)
	e.FieldStart("name")
	e.Str(l.Name)
	e.FieldStart("sku")
	e.Str(l.SKU)
	e.FieldStart("category")
	e.Str(l.Category)
	if l.Supplier != "" {
		e.FieldStart("supplier")
		e.Str(l.Supplier)
	}
	if l.Description != "" {
		e.FieldStart("description")
		e.Str(l.Description)
	}
	if l.Image != "" {
		e.FieldStart("image")
		e.Str(l.Image)
	}
	e.FieldStart("basePrice")
	encodeDecimal(e, l.BasePrice)
	e.FieldStart("stock")
	e.Int(l.Stock)
	e.FieldStart("status")
	e.Str(string(l.Status))

	if len(l.PriceBreaks) > 0 {
		e.FieldStart("priceBreaks")
		e.ArrStart()
		for _, b := range l.PriceBreaks {
			e.ObjStart()
			e.FieldStart("minQty")
			e.Int(b.MinQty)
			e.FieldStart("price")
			encodeDecimal(e, b.Price)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	encodeStrings(e, "colors", l.Colors)
	encodeStrings(e, "sizes", l.Sizes)
	encodeStrings(e, "features", l.Features)

	e.FieldStart("quantity")
	e.Int(l.Quantity)
	if l.Color != "" {
		e.FieldStart("selectedColor")
		e.Str(l.Color)
	}
	if l.Size != "" {
		e.FieldStart("selectedSize")
		e.Str(l.Size)
	}
	e.FieldStart("unitPrice")
	encodeDecimal(e, l.UnitPrice)
	e.FieldStart("totalPrice")
	encodeDecimal(e, l.LineTotal)

	e.ObjEnd()
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeStrings(e *jx.Encoder, field string, vs []string) {
	if len(vs) == 0 {
		return
	}
	e.FieldStart(field)
	e.ArrStart()
	for _, v := range vs {
		e.Str(v)
	}
	e.ArrEnd()
}

// DecodeLines parses the output of EncodeLines. Unknown fields are skipped and
// null optional fields are accepted. Anything but whitespace after the array is
// rejected. Any syntax or type error is reported as
// *CorruptCartError; semantic checks are left to ValidateLines.
func DecodeLines(data []byte) ([]LineItem, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, &CorruptCartError{Line: -1, Reason: "expected JSON array"}
	}

	var lines []LineItem
	if err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return &CorruptCartError{Line: len(lines), Err: err}
		}
		lines = append(lines, l)
		return nil
	}); err != nil {
		var cErr *CorruptCartError
		if errors.As(err, &cErr) {
			return nil, cErr
		}
		return nil, &CorruptCartError{Line: -1, Err: err}
	}
	if err := d.Skip(); !errors.Is(err, io.EOF) {
		return nil, &CorruptCartError{Line: -1, Reason: "trailing data after array"}
	}

	return lines, nil
}

func decodeLine(d *jx.Decoder) (LineItem, error) {
	var l LineItem
	if d.Next() != jx.Object {
		return l, errors.New("expected JSON object")
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}

		var err error
		switch key {
		case "id":
			l.ID, err = d.Int()
		case "name":
			l.Name, err = d.Str()
		case "sku":
			l.SKU, err = d.Str()
		case "category":
			l.Category, err = d.Str()
		case "supplier":
			l.Supplier, err = d.Str()
		case "description":
			l.Description, err = d.Str()
		case "image":
			l.Image, err = d.Str()
		case "basePrice":
			l.BasePrice, err = decodeDecimal(d)
		case "stock":
			l.Stock, err = d.Int()
		case "status":
			var s string
			s, err = d.Str()
			l.Status = catalog.Status(s)
		case "priceBreaks":
			l.PriceBreaks, err = decodePriceBreaks(d)
		case "colors":
			l.Colors, err = decodeStrings(d)
		case "sizes":
			l.Sizes, err = decodeStrings(d)
		case "features":
			l.Features, err = decodeStrings(d)
		case "quantity":
			l.Quantity, err = d.Int()
		case "selectedColor":
			l.Color, err = d.Str()
		case "selectedSize":
			l.Size, err = d.Str()
		case "unitPrice":
			l.UnitPrice, err = decodeDecimal(d)
		case "totalPrice":
			l.LineTotal, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	return l, err
}

func decodePriceBreaks(d *jx.Decoder) ([]catalog.PriceBreak, error) {
	var out []catalog.PriceBreak
	err := d.Arr(func(d *jx.Decoder) error {
		var b catalog.PriceBreak
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "minQty":
				b.MinQty, err = d.Int()
			case "price":
				b.Price, err = decodeDecimal(d)
			default:
				return d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for decimal", d.Next())
	}
}
