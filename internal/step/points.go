package step

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultStepsPerPoint は1ポイントあたりの歩数。
const DefaultStepsPerPoint = 1000

// ボーナス計算の係数
const (
	weekendBonusPercent  = 10
	milestoneSteps       = 10000
	milestoneBonusPoints = 5
)

// 重複同期時のメッセージ
const duplicateMessage = "Data already synced for this date"

// PointCalculator は歩数をポイントに換算する。
// 状態を持たず、複数のgoroutineから同時に利用できる。
type PointCalculator struct {
	stepsPerPoint int
	logger        *slog.Logger
}

// NewPointCalculator はPointCalculatorを生成する。
// stepsPerPointが0以下の場合はDefaultStepsPerPointを使う。
func NewPointCalculator(stepsPerPoint int, logger *slog.Logger) *PointCalculator {
	if stepsPerPoint <= 0 {
		stepsPerPoint = DefaultStepsPerPoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PointCalculator{stepsPerPoint: stepsPerPoint, logger: logger}
}

// StepsPerPoint は1ポイントあたりの歩数を返す。
func (c *PointCalculator) StepsPerPoint() int {
	return c.stepsPerPoint
}

// CalculatePoints は歩数からポイントを算出する（端数切り捨て）。
// 負の歩数は異常値として警告ログを出し、0を返す。
func (c *PointCalculator) CalculatePoints(steps int) int {
	if steps < 0 {
		c.logger.Warn("負の歩数が渡されました",
			slog.Int("steps", steps),
		)
		return 0
	}

	points := steps / c.stepsPerPoint
	c.logger.Info("ポイントを算出しました",
		slog.Int("steps", steps),
		slog.Int("points", points),
	)
	return points
}

// StepsForNextPoint は次の1ポイントまでに必要な歩数を返す。
// 端数がない場合はstepsPerPointそのものを返す。
func (c *PointCalculator) StepsForNextPoint(currentSteps int) int {
	if currentSteps < 0 {
		currentSteps = 0
	}
	return c.stepsPerPoint - currentSteps%c.stepsPerPoint
}

// ContributionMessage は獲得ポイントに応じた応援メッセージを返す。
// clubTotalはメッセージの段階判定には使わない。
func (c *PointCalculator) ContributionMessage(points int, clubTotal int64) string {
	switch {
	case points <= 0:
		return "Every step counts! Keep walking for your club!"
	case points >= 10:
		return fmt.Sprintf("Amazing! You've earned %d points for your club!", points)
	case points >= 5:
		return fmt.Sprintf("Great job! %d points added to your club's total!", points)
	default:
		return fmt.Sprintf("Nice work! %d points contributed to your club!", points)
	}
}

// BonusPoints は週末ボーナスと1万歩ごとのマイルストーンボーナスを算出する。
// 表示用の試算値であり、累計には加算しない。
func (c *PointCalculator) BonusPoints(steps int, date time.Time) int {
	if steps <= 0 {
		return 0
	}

	bonus := 0
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		bonus += (steps / c.stepsPerPoint) * weekendBonusPercent / 100
	}
	bonus += (steps / milestoneSteps) * milestoneBonusPoints
	return bonus
}
