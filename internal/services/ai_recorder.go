package services

import (
	"context"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/requestdata"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const maxRecordedLen = 8192

type aiCallRecorder struct {
	log  *logger.Logger
	repo repos.AICallLogRepo
}

// NewAICallRecorder adapts the AICallLog repo to the invoker's Recorder.
// Recording failures are logged and swallowed so the audit trail can never
// fail an invocation.
func NewAICallRecorder(log *logger.Logger, repo repos.AICallLogRepo) ai.Recorder {
	return &aiCallRecorder{log: log.With("service", "AICallRecorder"), repo: repo}
}

func (r *aiCallRecorder) RecordCall(ctx context.Context, rec ai.CallRecord) {
	entry := &types.AICallLog{
		CallType: rec.Task,
		Model:    rec.Model,
		Prompt:   truncate(rec.Prompt, maxRecordedLen),
		Response: truncate(rec.Response, maxRecordedLen),
		Success:  rec.Success,
		Error:    rec.Error,
	}
	if rd := requestdata.GetRequestData(ctx); rd != nil {
		id := rd.UserID
		entry.UserID = &id
	}
	if _, err := r.repo.Create(ctx, nil, []*types.AICallLog{entry}); err != nil {
		r.log.Warn("Failed to record AI call", "task", rec.Task, "error", err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
