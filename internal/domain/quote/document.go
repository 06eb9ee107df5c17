package quote

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/swag-kart/internal/domain/cart"
)

// ErrEmptyCart is returned when a quote is requested for an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

const dateLayout = "2006-01-02"

// DocumentOptions describes the issuer side of a quote document.
type DocumentOptions struct {
	Issuer   string
	Phone    string
	Currency string
	ValidFor time.Duration
	Terms    []string
	Now      func() time.Time
}

// DefaultTerms are printed at the end of every quote.
var DefaultTerms = []string{
	"Prices include VAT",
	"Production time: 7-10 business days",
	"Free shipping on orders over $50.000 CLP",
	"30-day warranty",
	"Embroidery or engraving included where the product allows it",
}

func (o DocumentOptions) withDefaults() DocumentOptions {
	if o.Issuer == "" {
		o.Issuer = "SWAG Chile"
	}
	if o.Currency == "" {
		o.Currency = "CLP"
	}
	if o.ValidFor <= 0 {
		o.ValidFor = 30 * 24 * time.Hour
	}
	if o.Terms == nil {
		o.Terms = DefaultTerms
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Document is a quote ready to be exported as plain text. Every figure it
// prints comes from Lines or Breakdown.
type Document struct {
	Reference  string
	IssuedAt   time.Time
	ValidUntil time.Time
	Company    Company
	Lines      []cart.LineItem
	Breakdown  Breakdown

	opts DocumentOptions
}

// NewDocument prices s and prepares a quote for company. It fails with
// ErrEmptyCart for an empty cart and *InvalidCompanyError when required
// company fields are missing.
func NewDocument(s cart.State, company Company, opts DocumentOptions) (*Document, error) {
	if s.Empty() {
		return nil, ErrEmptyCart
	}
	if err := company.Validate(); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	now := opts.Now()

	return &Document{
		Reference:  uuid.NewString(),
		IssuedAt:   now,
		ValidUntil: now.Add(opts.ValidFor),
		Company:    company,
		Lines:      s.Clone().Lines,
		Breakdown:  Calculate(s),
		opts:       opts,
	}, nil
}

// FileName returns the suggested download name for the document.
func (d *Document) FileName() string {
	return fmt.Sprintf("quote-%s-%s.txt", slug(d.Company.Name), d.IssuedAt.Format(dateLayout))
}

// MailtoURL returns a mailto link addressed to the company with the document
// as the message body.
func (d *Document) MailtoURL() string {
	subject := fmt.Sprintf("%s quote - %s", d.opts.Issuer, d.Company.Name)
	return "mailto:" + d.Company.Email +
		"?subject=" + uriComponent(subject) +
		"&body=" + uriComponent(d.String())
}

// String renders the document.
func (d *Document) String() string {
	var sb strings.Builder
	d.render(&sb)
	return sb.String()
}

// WriteTo renders the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	if err != nil {
		return int64(n), errors.Wrap(err, "write quote")
	}
	return int64(n), nil
}

func (d *Document) render(sb *strings.Builder) {
	b := d.Breakdown
	money := func(v decimal.Decimal) string { return formatMoney(v, d.opts.Currency) }
	days := int(d.opts.ValidFor.Hours() / 24)

	fmt.Fprintf(sb, "%s QUOTE\n", strings.ToUpper(d.opts.Issuer))
	fmt.Fprintf(sb, "Reference: %s\n", d.Reference)
	fmt.Fprintf(sb, "Date: %s\n", d.IssuedAt.Format(dateLayout))
	fmt.Fprintf(sb, "Valid for %d days (until %s)\n\n", days, d.ValidUntil.Format(dateLayout))

	sb.WriteString("COMPANY DETAILS:\n")
	fmt.Fprintf(sb, "Company: %s\n", d.Company.Name)
	fmt.Fprintf(sb, "Tax ID: %s\n", d.Company.TaxID)
	fmt.Fprintf(sb, "Contact: %s\n", d.Company.Contact)
	fmt.Fprintf(sb, "Email: %s\n", d.Company.Email)
	fmt.Fprintf(sb, "Phone: %s\n", d.Company.Phone)
	fmt.Fprintf(sb, "Address: %s\n\n", d.Company.Address)

	sb.WriteString("PRODUCTS:\n")
	for _, l := range d.Lines {
		fmt.Fprintf(sb, "- %s (%s)\n", l.Name, l.SKU)
		fmt.Fprintf(sb, "    Quantity: %d units\n", l.Quantity)
		fmt.Fprintf(sb, "    Unit price: %s\n", money(l.UnitPrice))
		fmt.Fprintf(sb, "    Total: %s\n", money(l.LineTotal))
		if l.Color != "" {
			fmt.Fprintf(sb, "    Color: %s\n", l.Color)
		}
		if l.Size != "" {
			fmt.Fprintf(sb, "    Size: %s\n", l.Size)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("FINANCIAL SUMMARY:\n")
	fmt.Fprintf(sb, "Total products: %d units\n", b.TotalItems)
	fmt.Fprintf(sb, "Subtotal: %s\n", money(b.Subtotal))
	fmt.Fprintf(sb, "Volume discount: %s (%s%%)\n", money(b.TotalDiscount), b.DiscountPercentage.StringFixed(1))
	if b.AdditionalDiscount.IsPositive() {
		fmt.Fprintf(sb, "Additional quantity discount (%s%%): %s\n", b.AdditionalRate.String(), money(b.AdditionalDiscount))
	}
	fmt.Fprintf(sb, "\nFINAL TOTAL: %s\n", money(b.FinalTotal))

	if len(d.opts.Terms) > 0 {
		sb.WriteString("\nTERMS:\n")
		for _, t := range d.opts.Terms {
			fmt.Fprintf(sb, "- %s\n", t)
		}
	}
	if d.opts.Phone != "" {
		fmt.Fprintf(sb, "\nTo place the order, reply to this quote or call us at %s\n", d.opts.Phone)
	}
}

// formatMoney renders v rounded to whole units with dot thousands separators,
// e.g. "$1.234.567 CLP".
func formatMoney(v decimal.Decimal, currency string) string {
	digits := v.Abs().Round(0).StringFixed(0)

	var sb strings.Builder
	if v.Round(0).IsNegative() {
		sb.WriteByte('-')
	}
	sb.WriteByte('$')
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(r)
	}
	if currency != "" {
		sb.WriteByte(' ')
		sb.WriteString(currency)
	}
	return sb.String()
}

// slug lowercases s and joins its words with dashes.
func slug(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '/' || r == '\\'
	})
	if len(fields) == 0 {
		return "company"
	}
	return strings.Join(fields, "-")
}

func uriComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
