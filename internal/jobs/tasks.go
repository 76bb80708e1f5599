// Package jobs moves notifications off the request path: the API enqueues
// asynq tasks and cmd/worker delivers them by mail or SMS.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the only queue the worker consumes.
	QueueDefault = "default"

	TaskReceiptMail       = "mail:receipt"
	TaskFactureCreatedSMS = "sms:facture_created"
	TaskVerificationSMS   = "sms:verification_code"
	TaskPasswordResetMail = "mail:password_reset"
	TaskAuthCleanup       = "auth:cleanup"

	// AuthCleanupSchedule runs the purge nightly at 03:10.
	AuthCleanupSchedule = "10 3 * * *"
)

const maxRetry = 5

type FacturePayload struct {
	FactureID int64 `json:"facture_id"`
}

type VerificationPayload struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type PasswordResetPayload struct {
	Email string `json:"email"`
	UID   int64  `json:"uid"`
	Token string `json:"token"`
}

func NewReceiptTask(factureID int64) (*asynq.Task, error) {
	return newTask(TaskReceiptMail, FacturePayload{FactureID: factureID})
}

func NewFactureCreatedTask(factureID int64) (*asynq.Task, error) {
	return newTask(TaskFactureCreatedSMS, FacturePayload{FactureID: factureID})
}

func NewVerificationTask(phone, code string) (*asynq.Task, error) {
	return newTask(TaskVerificationSMS, VerificationPayload{Phone: phone, Code: code})
}

func NewPasswordResetTask(email string, uid int64, token string) (*asynq.Task, error) {
	return newTask(TaskPasswordResetMail, PasswordResetPayload{Email: email, UID: uid, Token: token})
}

// NewAuthCleanupTask carries no payload; the worker schedules it with
// AuthCleanupSchedule.
func NewAuthCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskAuthCleanup, nil, asynq.MaxRetry(1))
}

func newTask(typename string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, data, asynq.MaxRetry(maxRetry)), nil
}
