package pdf

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"devisportal/internal/pkg/money"
)

// ErrRenderer marks failures of the remote renderer.
var ErrRenderer = errors.New("pdf renderer unavailable")

var (
	TVARate      = decimal.RequireFromString("0.13")
	TimbreFiscal = decimal.RequireFromString("0.600")
)

type Company struct {
	Name    string
	Address string
}

type Line struct {
	Designation  string
	PrixUnitaire decimal.Decimal
	Quantite     int
	Total        decimal.Decimal
}

// Invoice is everything printed on a facture.
type Invoice struct {
	Number     string
	Date       time.Time
	ClientName string
	Status     string
	Lines      []Line
	TotalHT    decimal.Decimal
}

type Totals struct {
	HT     decimal.Decimal
	TVA    decimal.Decimal
	Timbre decimal.Decimal
	TTC    decimal.Decimal
}

// ComputeTotals applies 13% TVA and the fixed stamp duty to ht.
func ComputeTotals(ht decimal.Decimal) Totals {
	tva := ht.Mul(TVARate).Round(3)
	return Totals{
		HT:     ht,
		TVA:    tva,
		Timbre: TimbreFiscal,
		TTC:    ht.Add(tva).Add(TimbreFiscal),
	}
}

var invoiceTmpl = template.Must(template.New("facture").Funcs(template.FuncMap{
	"dt":   money.Format,
	"date": func(t time.Time) string { return t.Format("02/01/2006") },
}).Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Facture {{.Invoice.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; margin: 40px; }
.company { color: #c00; font-size: 18px; font-weight: bold; }
header { display: flex; justify-content: space-between; }
table { width: 100%; border-collapse: collapse; margin-top: 30px; }
th { background: #888; color: #fff; padding: 8px; }
td { text-align: center; padding: 6px; border-bottom: 1px solid #ddd; }
.totals { margin-top: 20px; text-align: right; }
.ttc { font-size: 14px; font-weight: bold; }
</style>
</head>
<body>
<header>
  <div>
    <div class="company">{{.Company.Name}}</div>
    <div>{{.Company.Address}}</div>
  </div>
  <div>
    <div>{{.Invoice.ClientName}}</div>
  </div>
</header>
<p>Date: {{date .Invoice.Date}}</p>
<h2>Facture: {{.Invoice.Number}}</h2>
<table>
  <tr><th>Désignation</th><th>Prix unitaire</th><th>Quantité</th><th>Total</th></tr>
  {{- range .Invoice.Lines}}
  <tr><td>{{.Designation}}</td><td>{{dt .PrixUnitaire}}</td><td>{{.Quantite}}</td><td>{{dt .Total}}</td></tr>
  {{- end}}
</table>
<div class="totals">
  <div>Total HT: {{dt .Totals.HT}}</div>
  <div>TVA 13%: {{dt .Totals.TVA}}</div>
  <div>Timbre: {{dt .Totals.Timbre}}</div>
  <div class="ttc">Total TTC: {{dt .Totals.TTC}}</div>
</div>
</body>
</html>
`))

// HTMLRenderer turns HTML into PDF bytes. *Client implements it.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

type InvoiceRenderer struct {
	html    HTMLRenderer
	company Company
}

func NewInvoiceRenderer(html HTMLRenderer, company Company) *InvoiceRenderer {
	return &InvoiceRenderer{html: html, company: company}
}

// HTML renders the invoice document without converting it.
func (r *InvoiceRenderer) HTML(inv Invoice) (string, error) {
	var buf bytes.Buffer
	err := invoiceTmpl.Execute(&buf, struct {
		Company Company
		Invoice Invoice
		Totals  Totals
	}{r.company, inv, ComputeTotals(inv.TotalHT)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *InvoiceRenderer) Render(ctx context.Context, inv Invoice) ([]byte, error) {
	html, err := r.HTML(inv)
	if err != nil {
		return nil, err
	}
	return r.html.RenderHTML(ctx, html)
}
