package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestEnqueueSendEmail(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	info, err := client.EnqueueSendEmail(context.Background(), SendEmailPayload{
		To:      "finance-ops@opex.local",
		Subject: "Budget exceeded for line item X-1",
		Body:    "over by 150.00",
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendEmail, info.Type)
	require.Equal(t, QueueDefault, info.Queue)
}

func TestSendEmailTaskRoundTrip(t *testing.T) {
	task, err := NewSendEmailTask(SendEmailPayload{To: "a@b.c", Subject: "s", Body: "b"})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendEmail, task.Type())

	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "a@b.c", payload.To)

	require.NoError(t, HandleSendEmailTask(context.Background(), task))
}

func TestHandleSendEmailSkipsBadPayload(t *testing.T) {
	bad := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	require.ErrorIs(t, HandleSendEmailTask(context.Background(), bad), asynq.SkipRetry)
}

func TestAuditCleanupTaskType(t *testing.T) {
	task := NewAuditCleanupTask()
	require.Equal(t, TaskTypeAuditCleanup, task.Type())
}
