package handler

import (
	"context"

	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/step"
)

// StepServiceAdapter は step.SyncService と step.StatsService を StepServiceInterface にまとめるアダプタ。
type StepServiceAdapter struct {
	sync  *step.SyncService
	stats *step.StatsService
}

// NewStepServiceAdapter はStepServiceAdapterを生成する。
func NewStepServiceAdapter(sync *step.SyncService, stats *step.StatsService) *StepServiceAdapter {
	return &StepServiceAdapter{sync: sync, stats: stats}
}

// SyncSteps は歩数を同期する。
func (a *StepServiceAdapter) SyncSteps(ctx context.Context, in step.SyncInput) (*step.SyncResult, error) {
	return a.sync.SyncSteps(ctx, in)
}

// History は歩数履歴を返す。
func (a *StepServiceAdapter) History(ctx context.Context, userID string, days int) ([]*model.StepLog, error) {
	return a.stats.History(ctx, userID, days)
}

// Stats は歩数の集計統計を返す。
func (a *StepServiceAdapter) Stats(ctx context.Context, userID string) (*step.Stats, error) {
	return a.stats.Stats(ctx, userID)
}

// --- compile-time interface checks ---

var _ StepServiceInterface = (*StepServiceAdapter)(nil)
