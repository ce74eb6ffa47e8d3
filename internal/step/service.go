package step

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stepclub/internal/metrics"
	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/repository"
)

// UserFinder はユーザー取得のインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// ClubFinder はクラブ取得のインターフェース。
type ClubFinder interface {
	FindByID(ctx context.Context, id string) (*model.Club, error)
}

// SyncInput は歩数同期リクエストの入力値。
// UserIDは認証済みの値を受け取り、ここでは再検証しない。
type SyncInput struct {
	UserID          string
	Steps           int
	Date            string
	Source          string
	DeviceSignature string
}

// SyncResult は歩数同期の結果。
type SyncResult struct {
	PointsEarned      int
	TotalPoints       int64
	ClubContribution  string
	IsVerified        bool
	IsDuplicate       bool
	BonusPreview      int
	StepsForNextPoint int
	SyncedAt          time.Time
}

// SyncService は歩数同期のサービス層。
// 入力検証、(user, date)単位の冪等性、ユーザーとクラブへのポイント加算を担う。
type SyncService struct {
	ledger  repository.StepLogRepository
	users   UserFinder
	clubs   ClubFinder
	calc    *PointCalculator
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	loc     *time.Location

	// Now は現在時刻を返す。テストで差し替える。
	Now func() time.Time
}

// NewSyncService はSyncServiceの新しいインスタンスを生成する。
// locは「今日」を判定する基準タイムゾーン。
func NewSyncService(
	ledger repository.StepLogRepository,
	users UserFinder,
	clubs ClubFinder,
	calc *PointCalculator,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	loc *time.Location,
) *SyncService {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &SyncService{
		ledger:  ledger,
		users:   users,
		clubs:   clubs,
		calc:    calc,
		metrics: collector,
		logger:  logger,
		loc:     loc,
		Now:     time.Now,
	}
}

// SyncSteps は1日分の歩数を記録し、獲得ポイントをユーザーと所属クラブの累計に加算する。
// 同じ(user, date)の2回目以降は何も変更せず、保存済みの結果を重複として返す。
// 検証エラーの場合はストアに一切アクセスしない。
func (s *SyncService) SyncSteps(ctx context.Context, in SyncInput) (*SyncResult, error) {
	start := s.Now()
	defer func() {
		s.metrics.RecordSyncLatency(s.Now().Sub(start))
	}()

	now := s.Now().In(s.loc)
	if apiErr := validateSyncInput(in, now); apiErr != nil {
		s.metrics.RecordSync(metrics.SyncResultInvalid)
		return nil, apiErr
	}

	result, err := s.sync(ctx, in)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			s.metrics.RecordSync(metrics.SyncResultNotFound)
		} else {
			s.metrics.RecordSync(metrics.SyncResultError)
			s.logger.Error("歩数同期に失敗しました",
				slog.String("user_id", in.UserID),
				slog.String("date", in.Date),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	if result.IsDuplicate {
		s.metrics.RecordSync(metrics.SyncResultDuplicate)
	} else {
		s.metrics.RecordSync(metrics.SyncResultCreated)
		s.metrics.RecordPointsCredited(result.PointsEarned)
	}
	return result, nil
}

// validateSyncInput は入力値を順に検証し、最初に違反した項目のエラーを返す。
func validateSyncInput(in SyncInput, now time.Time) *model.APIError {
	if !ValidateSteps(in.Steps) {
		return model.NewInvalidStepsError(in.Steps, MaxDailySteps)
	}
	if !ValidateDateFormat(in.Date) {
		return model.NewInvalidDateError(in.Date)
	}
	if !ValidateDateNotFuture(in.Date, now) {
		return model.NewFutureDateError(in.Date)
	}
	if !ValidateSource(in.Source) {
		return model.NewInvalidSourceError(in.Source)
	}
	if !ValidateDeviceSignature(in.DeviceSignature) {
		return model.NewInvalidDeviceSignatureError(MinDeviceSignatureLength, MaxDeviceSignatureLength)
	}
	return nil
}

func (s *SyncService) sync(ctx context.Context, in SyncInput) (*SyncResult, error) {
	date, _ := ParseDate(in.Date)

	existing, err := s.ledger.FindByUserAndDate(ctx, in.UserID, date)
	if err != nil {
		return nil, fmt.Errorf("既存の歩数記録の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return s.duplicateResult(ctx, existing)
	}

	points := s.calc.CalculatePoints(in.Steps)
	log := &model.StepLog{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Date:            date,
		Steps:           in.Steps,
		Points:          points,
		Source:          model.StepSource(in.Source),
		DeviceSignature: in.DeviceSignature,
	}

	created, err := s.ledger.Create(ctx, log)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("歩数記録の作成に失敗しました: %w", err)
	}
	if !created {
		// 同じ(user, date)の並行リクエストに先を越された
		existing, err := s.ledger.FindByUserAndDate(ctx, in.UserID, date)
		if err != nil {
			return nil, fmt.Errorf("競合した歩数記録の取得に失敗しました: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("歩数記録が競合しましたが既存の記録が見つかりません: user=%s date=%s", in.UserID, in.Date)
		}
		return s.duplicateResult(ctx, existing)
	}

	// ここから先で失敗しても記録には未適用のマークが残り、照合ジョブが再適用する
	if _, err := s.ledger.CreditUser(ctx, log.ID, in.UserID); err != nil {
		return nil, fmt.Errorf("ユーザーへのポイント加算に失敗しました: %w", err)
	}

	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	clubTotal, err := s.creditClub(ctx, log, user)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("更新後のユーザーの取得に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	s.logger.Info("歩数を同期しました",
		slog.String("user_id", in.UserID),
		slog.String("date", in.Date),
		slog.Int("steps", in.Steps),
		slog.Int("points", points),
		slog.String("club_id", user.ClubID),
	)

	return &SyncResult{
		PointsEarned:      points,
		TotalPoints:       updated.TotalPoints,
		ClubContribution:  s.calc.ContributionMessage(points, clubTotal),
		IsVerified:        true,
		IsDuplicate:       false,
		BonusPreview:      s.calc.BonusPoints(in.Steps, date),
		StepsForNextPoint: s.calc.StepsForNextPoint(in.Steps),
		SyncedAt:          log.CreatedAt,
	}, nil
}

// creditClub は所属クラブにポイントを加算し、加算後のクラブ累計を返す。
// 未所属の場合はクラブへのクレジットを不要として確定する。
func (s *SyncService) creditClub(ctx context.Context, log *model.StepLog, user *model.User) (int64, error) {
	if !user.HasClub() {
		if err := s.ledger.SettleClubCredit(ctx, log.ID); err != nil {
			return 0, fmt.Errorf("クラブクレジットの確定に失敗しました: %w", err)
		}
		return 0, nil
	}

	_, err := s.ledger.CreditClub(ctx, log.ID, user.ClubID)
	if errors.Is(err, repository.ErrClubNotFound) {
		// 同期中に所属クラブが削除された
		s.logger.Warn("所属クラブが存在しないためクラブへの加算をスキップしました",
			slog.String("user_id", user.ID),
			slog.String("club_id", user.ClubID),
		)
		if err := s.ledger.SettleClubCredit(ctx, log.ID); err != nil {
			return 0, fmt.Errorf("クラブクレジットの確定に失敗しました: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("クラブへのポイント加算に失敗しました: %w", err)
	}

	club, err := s.clubs.FindByID(ctx, user.ClubID)
	if err != nil {
		return 0, fmt.Errorf("クラブの取得に失敗しました: %w", err)
	}
	if club == nil {
		return 0, nil
	}
	return club.TotalPoints, nil
}

// duplicateResult は保存済みの記録から重複時の結果を組み立てる。
func (s *SyncService) duplicateResult(ctx context.Context, existing *model.StepLog) (*SyncResult, error) {
	user, err := s.users.FindByID(ctx, existing.UserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	s.logger.Info("同日の歩数は同期済みです",
		slog.String("user_id", existing.UserID),
		slog.String("date", existing.Date.Format(DateLayout)),
		slog.Int("points", existing.Points),
	)

	return &SyncResult{
		PointsEarned:      existing.Points,
		TotalPoints:       user.TotalPoints,
		ClubContribution:  duplicateMessage,
		IsVerified:        true,
		IsDuplicate:       true,
		BonusPreview:      s.calc.BonusPoints(existing.Steps, existing.Date),
		StepsForNextPoint: s.calc.StepsForNextPoint(existing.Steps),
		SyncedAt:          existing.CreatedAt,
	}, nil
}
