package facture

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const placeholderNumber = "F0000"

var (
	invoiceNumberPattern = regexp.MustCompile(`F\d{4}-\d{3}`)
	amountPattern        = regexp.MustCompile(`(\d+(?:[.,]\d{2,3})?)\s*TND`)
	statusPattern        = regexp.MustCompile(`(?i)(payée|impayée|en retard)`)
)

// Extracted holds the fields read from OCR text. NumberFound is false when
// InvoiceNumber is the placeholder.
type Extracted struct {
	InvoiceNumber string
	NumberFound   bool
	Amount        decimal.Decimal
	Status        Status
}

// Extract reads invoice number, amount and status from recognised text.
// Text with no visible characters yields ErrNoText.
func Extract(text string) (Extracted, error) {
	if strings.TrimSpace(text) == "" {
		return Extracted{}, ErrNoText
	}

	out := Extracted{InvoiceNumber: placeholderNumber, Status: StatusUnpaid}
	if m := invoiceNumberPattern.FindString(text); m != "" {
		out.InvoiceNumber = m
		out.NumberFound = true
	}
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ".")); err == nil {
			out.Amount = d
		}
	}
	if m := statusPattern.FindString(text); m != "" {
		switch strings.ToLower(m) {
		case "payée":
			out.Status = StatusPaid
		case "impayée":
			out.Status = StatusUnpaid
		case "en retard":
			out.Status = StatusOverdue
		}
	}
	return out, nil
}
