package facture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		number string
		found  bool
		amount string
		status Status
	}{
		{"full", "Facture F2024-015\nTotal: 1250,500 TND\nStatut: Payée", "F2024-015", true, "1250.5", StatusPaid},
		{"two decimals", "F2023-001 montant 99.90 TND impayée", "F2023-001", true, "99.9", StatusUnpaid},
		{"overdue upper case", "EN RETARD 300 TND", placeholderNumber, false, "300", StatusOverdue},
		{"nothing recognisable", "hello world", placeholderNumber, false, "0", StatusUnpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.number, got.InvoiceNumber)
			assert.Equal(t, tt.found, got.NumberFound)
			assert.Equal(t, tt.amount, got.Amount.String())
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestExtract_EmptyText(t *testing.T) {
	_, err := Extract(" \n\t ")
	assert.ErrorIs(t, err, ErrNoText)
}
