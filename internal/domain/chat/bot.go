// Package chat answers client questions with a keyword bot over HTTP and WebSocket.
package chat

import "strings"

// Greeting is the first message the assistant shows.
const Greeting = "Bonjour ! Je suis un assistant automatique. Tapez 'paiement', 'facture', 'devis', 'aide' ou autre pour commencer."

const fallbackReply = `Je ne suis pas sûr de comprendre. Essayez "paiement", "facture", "devis" ou "aide".`

type rule struct {
	keywords []string
	reply    string
}

// checked in order, first match wins
var rules = []rule{
	{[]string{"paiement", "payment"}, "Vérifiez vos factures sur la page Mes Factures pour le statut de paiement."},
	{[]string{"facture", "invoice"}, "Consultez vos factures sur la page Mes Factures ou téléchargez le PDF."},
	{[]string{"devis", "quote"}, "Pour demander un devis, rendez-vous sur la page Demander un Devis."},
	{[]string{"aide", "help"}, `Je peux vous aider avec les paiements, factures ou devis. Essayez "paiement", "facture" ou "devis".`},
}

type Bot struct{}

func NewBot() *Bot { return &Bot{} }

// Reply picks the answer for message. Message must be non-empty.
func (b *Bot) Reply(message string) (string, error) {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return "", ErrEmptyMessage
	}
	if len(text) > MaxMessageLen {
		return "", ErrTooLong
	}
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(text, k) {
				return r.reply, nil
			}
		}
	}
	return fallbackReply, nil
}
