// Package club はクラブ一覧と集計統計を提供する。
package club

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/repository"
)

// 集計期間と上位貢献者の件数
const (
	WeeklyWindow        = 7 * 24 * time.Hour
	MonthlyWindow       = 30 * 24 * time.Hour
	TopContributorLimit = 5
)

// Service はクラブ参照のサービス層。
type Service struct {
	repo repository.ClubRepository

	// Now は集計期間の基準時刻。テストで差し替える。
	Now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ClubRepository) *Service {
	return &Service{repo: repo, Now: time.Now}
}

// List は全クラブを累計ポイントの降順で返す。
func (s *Service) List(ctx context.Context) ([]model.ClubWithMembers, error) {
	clubs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("クラブ一覧の取得に失敗しました: %w", err)
	}
	if clubs == nil {
		clubs = []model.ClubWithMembers{}
	}
	return clubs, nil
}

// Get は指定IDのクラブを所属メンバー数付きで返す。
func (s *Service) Get(ctx context.Context, clubID string) (*model.ClubWithMembers, error) {
	club, err := s.repo.FindByID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("クラブの取得に失敗しました: %w", err)
	}
	if club == nil {
		return nil, model.NewClubNotFoundError(clubID)
	}

	members, err := s.repo.CountMembers(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("メンバー数の取得に失敗しました: %w", err)
	}
	return &model.ClubWithMembers{Club: *club, ActiveMembers: members}, nil
}

// Stats はクラブの週間・月間ポイントと上位貢献者を返す。
// 週間・月間ポイントはその期間にクラブへクレジットされたポイントの合計。
func (s *Service) Stats(ctx context.Context, clubID string) (*model.ClubStats, error) {
	club, err := s.Get(ctx, clubID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	weekly, err := s.repo.PointsSince(ctx, clubID, now.Add(-WeeklyWindow))
	if err != nil {
		return nil, fmt.Errorf("週間ポイントの集計に失敗しました: %w", err)
	}
	monthly, err := s.repo.PointsSince(ctx, clubID, now.Add(-MonthlyWindow))
	if err != nil {
		return nil, fmt.Errorf("月間ポイントの集計に失敗しました: %w", err)
	}

	top, err := s.repo.TopContributors(ctx, clubID, TopContributorLimit)
	if err != nil {
		return nil, fmt.Errorf("上位貢献者の取得に失敗しました: %w", err)
	}
	if top == nil {
		top = []model.Contributor{}
	}

	return &model.ClubStats{
		ClubWithMembers: *club,
		WeeklyPoints:    weekly,
		MonthlyPoints:   monthly,
		TopContributors: top,
	}, nil
}

// FindByID は歩数同期とプロフィール更新が使うクラブ参照。
func (s *Service) FindByID(ctx context.Context, clubID string) (*model.Club, error) {
	return s.repo.FindByID(ctx, clubID)
}
