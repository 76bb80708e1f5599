package portal

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"devisportal/internal/domain/devis"
)

// CanRespond reports whether the client may accept or reject d. The respond
// buttons exist only when this is true.
func CanRespond(d devis.Devis) bool {
	return d.CounterOfferStatus == devis.CounterOfferPending
}

func (c *Client) ListDevis(ctx context.Context) ([]devis.Devis, error) {
	var out []devis.Devis
	err := c.doJSON(ctx, call{method: http.MethodGet, path: "/devis/list/", protected: true}, &out)
	return out, err
}

func (c *Client) SubmitDevis(ctx context.Context, req devis.SubmitRequest) (*devis.Devis, error) {
	if strings.TrimSpace(req.ProjectType) == "" {
		return nil, &FieldError{Field: "project_type", Reason: "required"}
	}
	cl, err := jsonCall(http.MethodPost, "/public/devis/create/", req, true)
	if err != nil {
		return nil, err
	}
	var out devis.SubmitResponse
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out.Devis, nil
}

// SubmitCounterOffer sends an admin counter-offer with an optional
// specification. The text and the attachment name are checked first, so a bad
// input never reaches the server.
func (c *Client) SubmitCounterOffer(ctx context.Context, id int64, text string, spec *FilePart) (*devis.Devis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &FieldError{Field: "counter_offer", Reason: "required"}
	}
	var files []FilePart
	if spec != nil {
		if !strings.EqualFold(filepath.Ext(spec.Name), ".pdf") {
			return nil, &FieldError{Field: "specification_pdf", Reason: "only PDF files are accepted"}
		}
		files = append(files, FilePart{Field: "specification_pdf", Name: spec.Name, Reader: spec.Reader})
	}
	cl, err := multipartCall(http.MethodPut, fmt.Sprintf("/admin/devis/%d/reject-counter-offer/", id),
		map[string]string{"counter_offer": text}, files...)
	if err != nil {
		return nil, err
	}
	var out devis.Devis
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RespondCounterOffer accepts or rejects a pending counter-offer and returns
// the server's copy of the devis.
func (c *Client) RespondCounterOffer(ctx context.Context, id int64, action string) (*devis.Devis, error) {
	if action != "accept" && action != "reject" {
		return nil, &FieldError{Field: "action", Reason: "must be accept or reject"}
	}
	cl, err := jsonCall(http.MethodPut, fmt.Sprintf("/client/devis/%d/counter-offer-response/", id), devis.RespondRequest{Action: action}, true)
	if err != nil {
		return nil, err
	}
	var out devis.Devis
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DownloadSpecificationPDF(ctx context.Context, id int64) ([]byte, error) {
	return c.downloadPDF(ctx, fmt.Sprintf("/devis/%d/specification-pdf/", id))
}

// DevisBoard is the local devis list of a view. Entries are only ever replaced
// by what the server returned.
type DevisBoard struct {
	mu    sync.RWMutex
	items []devis.Devis
}

func NewDevisBoard(items []devis.Devis) *DevisBoard {
	return &DevisBoard{items: append([]devis.Devis(nil), items...)}
}

// Replace swaps the entry with d.ID for d, or appends d when absent.
func (b *DevisBoard) Replace(d devis.Devis) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == d.ID {
			b.items[i] = d
			return
		}
	}
	b.items = append(b.items, d)
}

func (b *DevisBoard) Get(id int64) (devis.Devis, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, d := range b.items {
		if d.ID == id {
			return d, true
		}
	}
	return devis.Devis{}, false
}

func (b *DevisBoard) Items() []devis.Devis {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]devis.Devis(nil), b.items...)
}

// Respond runs RespondCounterOffer for a devis on the board and adopts the
// result. Nothing changes locally when the call fails.
func (b *DevisBoard) Respond(ctx context.Context, c *Client, id int64, action string) (*devis.Devis, error) {
	d, err := c.RespondCounterOffer(ctx, id, action)
	if err != nil {
		return nil, err
	}
	b.Replace(*d)
	return d, nil
}

