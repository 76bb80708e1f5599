package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueuer_QueuesEveryNotification(t *testing.T) {
	mr := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: mr.Addr()}
	e := NewEnqueuer(opt)
	t.Cleanup(func() { _ = e.Close() })
	ctx := context.Background()

	require.NoError(t, e.EnqueueFactureCreated(ctx, 4))
	require.NoError(t, e.EnqueueReceipt(ctx, 4))
	require.NoError(t, e.SendVerificationCode(ctx, "+21622123456", "123456"))
	require.NoError(t, e.SendPasswordReset(ctx, "amira@example.tn", 3, "tok"))

	inspector := asynq.NewInspector(opt)
	t.Cleanup(func() { _ = inspector.Close() })
	pending, err := inspector.ListPendingTasks(QueueDefault)
	require.NoError(t, err)
	require.Len(t, pending, 4)

	byType := map[string][]byte{}
	for _, ti := range pending {
		byType[ti.Type] = ti.Payload
		assert.Equal(t, maxRetry, ti.MaxRetry)
	}

	var fp FacturePayload
	require.NoError(t, json.Unmarshal(byType[TaskReceiptMail], &fp))
	assert.Equal(t, int64(4), fp.FactureID)

	var rp PasswordResetPayload
	require.NoError(t, json.Unmarshal(byType[TaskPasswordResetMail], &rp))
	assert.Equal(t, PasswordResetPayload{Email: "amira@example.tn", UID: 3, Token: "tok"}, rp)

	var vp VerificationPayload
	require.NoError(t, json.Unmarshal(byType[TaskVerificationSMS], &vp))
	assert.Equal(t, "123456", vp.Code)
	assert.Contains(t, byType, TaskFactureCreatedSMS)
}

func TestEnqueuer_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	e := NewEnqueuer(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = e.Close() })
	mr.Close()

	err := e.EnqueueReceipt(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), TaskReceiptMail)
}
