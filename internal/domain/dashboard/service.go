// Package dashboard serves the admin overview: counters, the monthly paid chart
// and the searchable list of paid factures.
package dashboard

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"devisportal/internal/domain/devis"
	"devisportal/internal/domain/facture"
	"devisportal/internal/pkg/actor"
)

type statsReader interface {
	CountClients(ctx context.Context) (int64, error)
	CountDevisByStatus(ctx context.Context, status string) (int64, error)
	CountFacturesByStatus(ctx context.Context, status string) (int64, error)
	PaidRows(ctx context.Context) ([]PaidRow, error)
}

// FactureLister is the facture query the paid-clients view reuses.
type FactureLister interface {
	List(ctx context.Context, a actor.Actor, status facture.Status) ([]facture.Facture, error)
}

type MonthTotal struct {
	Month string          `json:"month"` // YYYY-MM
	Total decimal.Decimal `json:"total"`
}

type Stats struct {
	Clients        int64           `json:"clients"`
	PendingDevis   int64           `json:"pending_devis"`
	UnpaidFactures int64           `json:"unpaid_factures"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	MonthlyPaid    []MonthTotal    `json:"monthly_paid"`
}

type Service struct {
	stats    statsReader
	factures FactureLister
}

func NewService(stats statsReader, factures FactureLister) *Service {
	return &Service{stats: stats, factures: factures}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	var err error
	if out.Clients, err = s.stats.CountClients(ctx); err != nil {
		return nil, err
	}
	if out.PendingDevis, err = s.stats.CountDevisByStatus(ctx, string(devis.StatusPending)); err != nil {
		return nil, err
	}
	if out.UnpaidFactures, err = s.stats.CountFacturesByStatus(ctx, string(facture.StatusUnpaid)); err != nil {
		return nil, err
	}

	rows, err := s.stats.PaidRows(ctx)
	if err != nil {
		return nil, err
	}
	out.TotalPaid, out.MonthlyPaid = monthly(rows)
	return &out, nil
}

// monthly sums paid amounts per calendar month of payment, oldest first.
// Rows paid before paid_at was tracked fall back to their creation date.
func monthly(rows []PaidRow) (decimal.Decimal, []MonthTotal) {
	total := decimal.Zero
	byMonth := make(map[string]decimal.Decimal)
	for _, r := range rows {
		when := r.CreatedAt
		if r.PaidAt != nil {
			when = *r.PaidAt
		}
		key := when.UTC().Format("2006-01")
		byMonth[key] = byMonth[key].Add(r.Amount)
		total = total.Add(r.Amount)
	}

	out := make([]MonthTotal, 0, len(byMonth))
	for m, t := range byMonth {
		out = append(out, MonthTotal{Month: m, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return total, out
}

// PaidClients lists paid factures whose client name, invoice number or amount
// contains search (case-insensitive).
func (s *Service) PaidClients(ctx context.Context, a actor.Actor, search string) ([]facture.Facture, error) {
	list, err := s.factures.List(ctx, a, facture.StatusPaid)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return list, nil
	}
	out := make([]facture.Facture, 0, len(list))
	for _, f := range list {
		if matches(f, q) {
			out = append(out, f)
		}
	}
	return out, nil
}

func matches(f facture.Facture, q string) bool {
	if f.Client != nil && strings.Contains(strings.ToLower(f.Client.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(f.InvoiceNumber), q) {
		return true
	}
	return strings.Contains(f.Amount.String(), q) || strings.Contains(f.Amount.StringFixed(3), q)
}
