package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"devisportal/internal/domain/facture"
	"devisportal/internal/pkg/metrics"
	"devisportal/internal/pkg/money"
	"devisportal/internal/pdf"
)

type FactureSource interface {
	Lookup(ctx context.Context, id int64) (*facture.Facture, error)
}

// AuthCleaner purges expired verification codes and reset tokens.
type AuthCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type InvoiceRenderer interface {
	Render(ctx context.Context, inv pdf.Invoice) ([]byte, error)
}

// Processor holds the task handlers the worker registers.
type Processor struct {
	factures    FactureSource
	renderer    InvoiceRenderer
	mailer      Mailer
	sms         SMSSender
	auth        AuthCleaner
	frontendURL string
	loggerf     func(format string, args ...interface{})
}

type ProcessorDeps struct {
	Factures    FactureSource
	Renderer    InvoiceRenderer
	Mailer      Mailer
	SMS         SMSSender
	Auth        AuthCleaner
	FrontendURL string
}

func NewProcessor(deps ProcessorDeps, loggerf func(format string, args ...interface{})) *Processor {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Processor{
		factures:    deps.Factures,
		renderer:    deps.Renderer,
		mailer:      deps.Mailer,
		sms:         deps.SMS,
		auth:        deps.Auth,
		frontendURL: strings.TrimRight(deps.FrontendURL, "/"),
		loggerf:     loggerf,
	}
}

// Handlers lists every task type with its handler, ready for WorkerConfig.
// The cleanup handler is only registered when an AuthCleaner was given.
func (p *Processor) Handlers() []TaskHandler {
	out := []TaskHandler{
		{Type: TaskReceiptMail, Handler: p.track(TaskReceiptMail, p.HandleReceipt)},
		{Type: TaskFactureCreatedSMS, Handler: p.track(TaskFactureCreatedSMS, p.HandleFactureCreated)},
		{Type: TaskVerificationSMS, Handler: p.track(TaskVerificationSMS, p.HandleVerificationCode)},
		{Type: TaskPasswordResetMail, Handler: p.track(TaskPasswordResetMail, p.HandlePasswordReset)},
	}
	if p.auth != nil {
		out = append(out, TaskHandler{Type: TaskAuthCleanup, Handler: p.track(TaskAuthCleanup, p.HandleAuthCleanup)})
	}
	return out
}

// Cron returns the periodic registrations matching Handlers.
func (p *Processor) Cron() []CronRegistration {
	if p.auth == nil {
		return nil
	}
	return []CronRegistration{{Spec: AuthCleanupSchedule, Task: NewAuthCleanupTask()}}
}

func (p *Processor) HandleAuthCleanup(ctx context.Context, _ *asynq.Task) error {
	n, err := p.auth.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("auth cleanup: %w", err)
	}
	p.loggerf("level=info msg=\"auth cleanup\" rows_deleted=%d", n)
	return nil
}

// HandleReceipt mails the invoice PDF of a paid facture to its client.
func (p *Processor) HandleReceipt(ctx context.Context, t *asynq.Task) error {
	var payload FacturePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	f, err := p.lookup(ctx, payload.FactureID)
	if err != nil {
		return err
	}
	if f.Status != facture.StatusPaid {
		p.loggerf("level=warn msg=\"receipt skipped\" facture_id=%d status=%s", f.ID, f.Status)
		return nil
	}
	if f.Client == nil || f.Client.Email == "" {
		return fmt.Errorf("facture %d has no client email: %w", f.ID, asynq.SkipRetry)
	}

	doc, err := p.renderer.Render(ctx, facture.ToInvoice(f))
	if err != nil {
		return fmt.Errorf("render facture %d: %w", f.ID, err)
	}

	msg := Message{
		To:      f.Client.Email,
		Subject: fmt.Sprintf("Votre facture %s", f.InvoiceNumber),
		Body: fmt.Sprintf("Bonjour %s,\n\nNous confirmons la réception de votre paiement de %s pour la facture %s.\nVous trouverez la facture en pièce jointe.\n\nMerci pour votre confiance.",
			f.Client.Name, money.Format(f.Amount), f.InvoiceNumber),
		Attachments: []Attachment{{
			Name:        "facture_" + f.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Data:        doc,
		}},
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		return err
	}
	p.loggerf("level=info msg=\"receipt sent\" facture_id=%d to=%s", f.ID, f.Client.Email)
	return nil
}

// HandleFactureCreated texts the client that a new facture is waiting.
func (p *Processor) HandleFactureCreated(ctx context.Context, t *asynq.Task) error {
	var payload FacturePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	f, err := p.lookup(ctx, payload.FactureID)
	if err != nil {
		return err
	}
	if f.Client == nil || f.Client.Phone == "" {
		p.loggerf("level=info msg=\"facture sms skipped, no phone\" facture_id=%d", f.ID)
		return nil
	}
	text := fmt.Sprintf("Nouvelle facture %s de %s disponible sur votre espace client.", f.InvoiceNumber, money.Format(f.Amount))
	return p.sms.Send(ctx, f.Client.CountryCode+f.Client.Phone, text)
}

func (p *Processor) HandleVerificationCode(ctx context.Context, t *asynq.Task) error {
	var payload VerificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.Phone == "" || payload.Code == "" {
		return fmt.Errorf("verification task without phone or code: %w", asynq.SkipRetry)
	}
	return p.sms.Send(ctx, payload.Phone, fmt.Sprintf("Votre code de vérification est %s", payload.Code))
}

func (p *Processor) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.Email == "" || payload.Token == "" {
		return fmt.Errorf("reset task without email or token: %w", asynq.SkipRetry)
	}
	return p.mailer.Send(ctx, Message{
		To:      payload.Email,
		Subject: "Réinitialisation de votre mot de passe",
		Body: fmt.Sprintf("Bonjour,\n\nPour choisir un nouveau mot de passe, ouvrez ce lien :\n%s\n\nSi vous n'êtes pas à l'origine de cette demande, ignorez ce message.",
			p.ResetLink(payload.UID, payload.Token)),
	})
}

// ResetLink is the frontend route the reset form reads uid and token from.
func (p *Processor) ResetLink(uid int64, token string) string {
	return fmt.Sprintf("%s/reset-password/%d/%s", p.frontendURL, uid, token)
}

// lookup treats a deleted facture as permanent failure.
func (p *Processor) lookup(ctx context.Context, id int64) (*facture.Facture, error) {
	f, err := p.factures.Lookup(ctx, id)
	if errors.Is(err, facture.ErrNotFound) {
		return nil, fmt.Errorf("facture %d: %w: %w", id, err, asynq.SkipRetry)
	}
	return f, err
}

func (p *Processor) track(task string, h asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := h(ctx, t)
		status := "success"
		if err != nil {
			status = "failure"
			p.loggerf("level=error msg=\"task failed\" type=%s err=%v", task, err)
		}
		metrics.JobRuns.WithLabelValues(task, status).Inc()
		metrics.JobDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
		return err
	}
}
