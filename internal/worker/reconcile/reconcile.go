// Package reconcile は未適用のままになったポイントクレジットの照合ジョブを提供する。
// 歩数同期の途中で処理が止まった記録を検出し、ユーザーとクラブへの加算を再適用する。
// 加算はリポジトリ側で記録ごとに一度しか適用されないため、何度実行しても結果は変わらない。
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/stepclub/internal/metrics"
	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/repository"
)

// 照合対象のラベル値
const (
	TargetUser = "user"
	TargetClub = "club"
)

// デフォルト値
const (
	DefaultInterval  = 5 * time.Minute
	DefaultGrace     = 2 * time.Minute
	DefaultBatchSize = 100
)

// Ledger は照合ジョブが必要とする台帳操作。
type Ledger interface {
	ListPendingCredits(ctx context.Context, olderThan time.Time, limit int) ([]*model.PendingCredit, error)
	CreditUser(ctx context.Context, logID, userID string) (bool, error)
	CreditClub(ctx context.Context, logID, clubID string) (bool, error)
	SettleClubCredit(ctx context.Context, logID string) error
}

// Result は1回の照合の結果。
type Result struct {
	Scanned      int
	UserCredited int
	ClubCredited int
	ClubsSettled int
	Failed       int
}

// Job はクレジット照合ジョブ。
type Job struct {
	ledger    Ledger
	collector metrics.MetricsCollector
	logger    *slog.Logger

	// Grace は同期処理中の記録を対象外にするための猶予期間
	Grace time.Duration
	// BatchSize は1回の実行で処理する記録の上限
	BatchSize int
	// Now は現在時刻を返す。テストで差し替える。
	Now func() time.Time
}

// NewJob は新しいJobを生成する。
func NewJob(ledger Ledger, collector metrics.MetricsCollector, logger *slog.Logger) *Job {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		ledger:    ledger,
		collector: collector,
		logger:    logger,
		Grace:     DefaultGrace,
		BatchSize: DefaultBatchSize,
		Now:       time.Now,
	}
}

// Start はintervalごとにRunを実行する。起動直後にも1回実行する。
// コンテキストがキャンセルされるまで実行を継続する。
// intervalが0以下の場合はDefaultIntervalを使う。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		j.logger.Warn("照合間隔が不正なためデフォルト値を使用します",
			slog.Duration("interval", interval),
			slog.Duration("default", DefaultInterval),
		)
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クレジット照合ジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("grace", j.Grace),
		slog.Int("batch_size", j.BatchSize),
	)

	j.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クレジット照合ジョブを停止しました")
			return
		case <-ticker.C:
			j.runAndLog(ctx)
		}
	}
}

func (j *Job) runAndLog(ctx context.Context) {
	if _, err := j.Run(ctx); err != nil {
		j.logger.Error("クレジット照合の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// Run は猶予期間を過ぎても未適用のクレジットを再適用する。
// 個々の記録の失敗はログに残して次の記録へ進み、次回の実行で再試行される。
func (j *Job) Run(ctx context.Context) (*Result, error) {
	start := j.Now()

	batchSize := j.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	pending, err := j.ledger.ListPendingCredits(ctx, start.Add(-j.Grace), batchSize)
	if err != nil {
		return nil, fmt.Errorf("未適用クレジットの取得に失敗: %w", err)
	}

	res := &Result{Scanned: len(pending)}
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := j.reconcile(ctx, p, res); err != nil {
			res.Failed++
			j.logger.Warn("クレジットの再適用に失敗しました",
				slog.String("log_id", p.LogID),
				slog.String("user_id", p.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	j.collector.RecordCreditsReconciled(TargetUser, res.UserCredited)
	j.collector.RecordCreditsReconciled(TargetClub, res.ClubCredited)

	if res.Scanned > 0 {
		j.logger.Info("クレジット照合が完了しました",
			slog.Int("scanned", res.Scanned),
			slog.Int("user_credited", res.UserCredited),
			slog.Int("club_credited", res.ClubCredited),
			slog.Int("clubs_settled", res.ClubsSettled),
			slog.Int("failed", res.Failed),
			slog.Float64("duration_ms", float64(j.Now().Sub(start).Milliseconds())),
		)
	}

	return res, nil
}

// reconcile は1件の記録について未適用のクレジットを適用する。
// ユーザーへの加算が済むまでクラブへは加算しない。
func (j *Job) reconcile(ctx context.Context, p *model.PendingCredit, res *Result) error {
	if p.UserPending {
		applied, err := j.ledger.CreditUser(ctx, p.LogID, p.UserID)
		if err != nil {
			return fmt.Errorf("ユーザーへの加算に失敗: %w", err)
		}
		if applied {
			res.UserCredited++
		}
	}

	if !p.ClubPending {
		return nil
	}

	// 所属クラブは照合時点のものを使う
	if p.UserClubID != "" {
		applied, err := j.ledger.CreditClub(ctx, p.LogID, p.UserClubID)
		switch {
		case err == nil:
			if applied {
				res.ClubCredited++
			}
			return nil
		case errors.Is(err, repository.ErrClubNotFound):
			// クラブが削除済みの場合は加算先がないため確定させる
		default:
			return fmt.Errorf("クラブへの加算に失敗: %w", err)
		}
	}

	if err := j.ledger.SettleClubCredit(ctx, p.LogID); err != nil {
		return fmt.Errorf("クラブクレジットの確定に失敗: %w", err)
	}
	res.ClubsSettled++
	return nil
}
