package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"devisportal/internal/domain/facture"
)

// ListFactures returns the caller's factures. The status filter is applied by
// the server; an empty status lists everything.
func (c *Client) ListFactures(ctx context.Context, status facture.Status) ([]facture.Facture, error) {
	if status != "" && !status.Valid() {
		return nil, &FieldError{Field: "status", Reason: "must be paid, unpaid or overdue"}
	}
	cl := call{method: http.MethodGet, path: "/factures/", protected: true}
	if status != "" {
		cl.query = url.Values{"status": {string(status)}}
	}
	var out []facture.Facture
	err := c.doJSON(ctx, cl, &out)
	return out, err
}

func (c *Client) GetFacture(ctx context.Context, id int64) (*facture.Facture, error) {
	var out facture.Facture
	if err := c.doJSON(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/factures/%d/", id), protected: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadFacturePDF fails with ErrNotPDF when the server answers with
// anything but a PDF.
func (c *Client) DownloadFacturePDF(ctx context.Context, id int64) ([]byte, error) {
	return c.downloadPDF(ctx, fmt.Sprintf("/facture/%d/pdf/", id))
}

// ImportOCR uploads a scanned invoice. clientID 0 lets the server pick the
// default client.
func (c *Client) ImportOCR(ctx context.Context, scan FilePart, clientID int64) (*facture.Facture, error) {
	if scan.Reader == nil || scan.Name == "" {
		return nil, &FieldError{Field: "image", Reason: "required"}
	}
	fields := map[string]string{}
	if clientID > 0 {
		fields["client_id"] = strconv.FormatInt(clientID, 10)
	}
	scan.Field = "image"
	cl, err := multipartCall(http.MethodPost, "/facture/ocr/", fields, scan)
	if err != nil {
		return nil, err
	}
	var out facture.Facture
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendReceipt(ctx context.Context, id int64) error {
	return c.doJSON(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/factures/%d/send-email/", id), protected: true}, nil)
}

// FactureBoard is the local facture list of a view.
type FactureBoard struct {
	mu    sync.RWMutex
	items []facture.Facture
}

func NewFactureBoard(items []facture.Facture) *FactureBoard {
	return &FactureBoard{items: append([]facture.Facture(nil), items...)}
}

// Merge adds f or replaces the entry with the same id. The list stays newest
// first, the order the server lists in.
func (b *FactureBoard) Merge(f facture.Facture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == f.ID {
			b.items[i] = f
			return
		}
	}
	b.items = append(b.items, f)
	sort.SliceStable(b.items, func(i, j int) bool { return b.items[i].ID > b.items[j].ID })
}

func (b *FactureBoard) Items() []facture.Facture {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]facture.Facture(nil), b.items...)
}

// Filter returns the entries with status, or all of them for "".
func (b *FactureBoard) Filter(status facture.Status) []facture.Facture {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]facture.Facture, 0, len(b.items))
	for _, f := range b.items {
		if status == "" || f.Status == status {
			out = append(out, f)
		}
	}
	return out
}
