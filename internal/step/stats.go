package step

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/stepclub/internal/model"
)

// statsWindowDays は統計計算で参照する記録の最大件数。
const statsWindowDays = 365

// StepLogLister は歩数記録を新しい順に取得するインターフェース。
type StepLogLister interface {
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*model.StepLog, error)
}

// Stats はユーザーの歩数統計。
type Stats struct {
	UserID            string
	TotalSteps        int64
	TotalPoints       int64
	AverageDailySteps float64
	MaxDailySteps     int
	ActiveDays        int
	CurrentStreak     int
	LongestStreak     int
}

// StatsService は歩数履歴と統計のサービス層。読み取り専用。
type StatsService struct {
	logs  StepLogLister
	users UserFinder
	loc   *time.Location

	// Now は現在時刻を返す。テストで差し替える。
	Now func() time.Time
}

// NewStatsService はStatsServiceの新しいインスタンスを生成する。
func NewStatsService(logs StepLogLister, users UserFinder, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{
		logs:  logs,
		users: users,
		loc:   loc,
		Now:   time.Now,
	}
}

// History は直近days件の歩数記録を日付の新しい順に返す。
func (s *StatsService) History(ctx context.Context, userID string, days int) ([]*model.StepLog, error) {
	if !ValidateHistoryDays(days) {
		return nil, model.NewInvalidDaysError(days, MaxHistoryDays)
	}

	logs, err := s.logs.ListRecentByUser(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("歩数履歴の取得に失敗しました: %w", err)
	}
	return logs, nil
}

// Stats は直近365件の記録からユーザーの統計を算出する。
// 累計ポイントは記録からではなくユーザーの累計値を使う。
func (s *StatsService) Stats(ctx context.Context, userID string) (*Stats, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	logs, err := s.logs.ListRecentByUser(ctx, userID, statsWindowDays)
	if err != nil {
		return nil, fmt.Errorf("歩数履歴の取得に失敗しました: %w", err)
	}

	stats := &Stats{
		UserID:      userID,
		TotalPoints: user.TotalPoints,
	}
	if len(logs) == 0 {
		return stats, nil
	}

	for _, l := range logs {
		stats.TotalSteps += int64(l.Steps)
		if l.Steps > stats.MaxDailySteps {
			stats.MaxDailySteps = l.Steps
		}
	}
	stats.ActiveDays = len(logs)
	stats.AverageDailySteps = math.Round(float64(stats.TotalSteps)/float64(stats.ActiveDays)*100) / 100
	stats.CurrentStreak = CurrentStreak(logs, Today(s.Now().In(s.loc)))
	stats.LongestStreak = LongestStreak(logs)

	return stats, nil
}

// CurrentStreak はtodayから遡って記録が連続している日数を返す。
// todayの記録がない場合は、前日までの連続に関わらず0を返す。
func CurrentStreak(logs []*model.StepLog, today time.Time) int {
	sorted := sortedByDate(logs, true)

	streak := 0
	expected := Today(today)
	for _, l := range sorted {
		if !l.Date.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

// LongestStreak は記録中で最も長く日付が連続した日数を返す。
// 記録が1件以上あれば最小値は1。
func LongestStreak(logs []*model.StepLog) int {
	if len(logs) == 0 {
		return 0
	}
	sorted := sortedByDate(logs, false)

	longest, current := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date.AddDate(0, 0, 1)) {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest
}

// sortedByDate は日付順に並べたコピーを返す。descがtrueなら新しい順。
func sortedByDate(logs []*model.StepLog, desc bool) []*model.StepLog {
	sorted := make([]*model.StepLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
