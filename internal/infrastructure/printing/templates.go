package printing

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/partner"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	documentTemplate = "document.html"
	emailTemplate    = "email.html"
)

var _ notification.Renderer = (*DocumentTemplates)(nil)

// DocumentTemplates renders documents and their mails from the embedded
// templates. Amounts are minor units and are printed with two decimals,
// grouped for the configured locale.
type DocumentTemplates struct {
	tmpl     *template.Template
	company  string
	currency string
	locale   language.Tag
	printer  *message.Printer
	caser    cases.Caser
}

// DocumentTemplatesOption configures DocumentTemplates
type DocumentTemplatesOption func(*DocumentTemplates)

// WithCompanyName sets the sender name printed on documents and mails
func WithCompanyName(name string) DocumentTemplatesOption {
	return func(t *DocumentTemplates) {
		t.company = name
	}
}

// WithCurrencySymbol sets the symbol printed before amounts
func WithCurrencySymbol(symbol string) DocumentTemplatesOption {
	return func(t *DocumentTemplates) {
		t.currency = symbol
	}
}

// WithLocale sets the locale used for digit grouping
func WithLocale(tag language.Tag) DocumentTemplatesOption {
	return func(t *DocumentTemplates) {
		t.locale = tag
	}
}

// NewDocumentTemplates parses the embedded templates
func NewDocumentTemplates(opts ...DocumentTemplatesOption) (*DocumentTemplates, error) {
	t := &DocumentTemplates{
		company:  "Invoicing",
		currency: "₹",
		locale:   language.MustParse("en-IN"),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.printer = message.NewPrinter(t.locale)
	t.caser = cases.Title(t.locale)

	tmpl, err := template.New("documents").Funcs(template.FuncMap{
		"money":      t.formatMoney,
		"formatDate": formatDate,
		"title":      t.titleCase,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"inc":        func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "failed to parse templates", err)
	}
	t.tmpl = tmpl
	return t, nil
}

type templateData struct {
	Company   string
	Doc       notification.Document
	Customer  *partner.Customer
	ShowCodes bool
}

// RenderDocument renders the printable document
func (t *DocumentTemplates) RenderDocument(_ context.Context, doc notification.Document, customer *partner.Customer) ([]byte, error) {
	return t.execute(documentTemplate, doc, customer)
}

// RenderEmail renders the mail body that carries the document
func (t *DocumentTemplates) RenderEmail(_ context.Context, doc notification.Document, customer *partner.Customer) ([]byte, error) {
	return t.execute(emailTemplate, doc, customer)
}

func (t *DocumentTemplates) execute(name string, doc notification.Document, customer *partner.Customer) ([]byte, error) {
	if customer == nil {
		customer = &partner.Customer{}
	}
	data := templateData{
		Company:  t.company,
		Doc:      doc,
		Customer: customer,
	}
	for _, l := range doc.Lines {
		if l.HSNOrSACCode != "" {
			data.ShowCodes = true
			break
		}
	}

	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "failed to execute "+name, err)
	}
	return buf.Bytes(), nil
}

// formatMoney prints minor units, e.g. 123450 -> "₹1,234.50"
func (t *DocumentTemplates) formatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return sign + t.currency + t.printer.Sprintf("%d", minor/100) + t.printer.Sprintf(".%02d", minor%100)
}

func (t *DocumentTemplates) titleCase(s string) string {
	return t.caser.String(strings.ReplaceAll(s, "_", " "))
}

func formatDate(v any) string {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format("02 Jan 2006")
	case *time.Time:
		if d == nil || d.IsZero() {
			return ""
		}
		return d.Format("02 Jan 2006")
	}
	return ""
}
